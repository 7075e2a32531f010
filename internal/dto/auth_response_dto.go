package dto

// Response is the envelope of every JSON response.
type Response struct {
	Msg  string `json:"msg"`
	Code string `json:"code,omitempty"`
	Data any    `json:"data,omitempty"`
}

// LoginResponse represents the data of a successful login.
type LoginResponse struct {
	User  IdentityResponse `json:"user"`
	Token string           `json:"token"`
}

// SourceResponse names the provider an account must sign in with.
type SourceResponse struct {
	Source string            `json:"source"`
	User   *IdentityResponse `json:"user,omitempty"`
}
