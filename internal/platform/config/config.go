package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers supported by the identity repository layer.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds application configuration.
// Every component receives it (or the subset it needs) at construction time.
type Config struct {
	Port          string
	IsProduction  bool
	StoreDriver   string
	DatabaseURL   string
	RunMigrations bool

	// Token codec
	JWTSecret               string
	JWTIssuer               string
	TokenExpiryDuration     time.Duration
	TempTokenExpiryDuration time.Duration
	CookieName              string

	// Client / server addressing
	ClientURL string `mapstructure:"CLIENT_URL"`
	ServerURL string `mapstructure:"SERVER_URL"`

	// Captcha
	CaptchaSecretKey string
	CaptchaThreshold float64
	CaptchaVerifyURL string

	// Rate limiting, ulule formatted (e.g. "100-S")
	RateLimit string

	// Bounded timeout applied to every outbound collaborator call
	ExternalCallTimeout time.Duration

	// External OAuth Providers
	FacebookAppID         string `mapstructure:"FACEBOOK_APP_ID"`
	FacebookAppSecret     string `mapstructure:"FACEBOOK_APP_SECRET"`
	InstagramClientID     string `mapstructure:"INSTAGRAM_CLIENT_ID"`
	InstagramClientSecret string `mapstructure:"INSTAGRAM_CLIENT_SECRET"`
	GoogleClientID        string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret    string `mapstructure:"GOOGLE_CLIENT_SECRET"`

	// Mail
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	MailFrom          string
	MailRatePerSecond float64
	MailBurst         int

	// Payments
	StripeSecretKey string
	StripeAPIURL    string
	PaymentCurrency string

	PosthogAPIKey string
}

const (
	defaultJWTSecret  = "a-very-secret-key-should-be-longer-and-random"
	defaultJWTIssuer  = "storefront-backend"
	defaultCookieName = "sfid"
)

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("STORE_DRIVER", "")
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", defaultJWTIssuer)
	v.SetDefault("TOKEN_EXPIRY_DURATION", "1h")
	v.SetDefault("TEMP_TOKEN_EXPIRY_DURATION", "15m")
	v.SetDefault("COOKIE_NAME", defaultCookieName)
	v.SetDefault("CLIENT_URL", "http://localhost:3000")
	v.SetDefault("SERVER_URL", "http://localhost:8080")
	v.SetDefault("CAPTCHA_SECRET_KEY", "")
	v.SetDefault("CAPTCHA_THRESHOLD", 0.5)
	v.SetDefault("CAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify")
	v.SetDefault("RATE_LIMIT", "100-S")
	v.SetDefault("EXTERNAL_CALL_TIMEOUT", "10s")
	v.SetDefault("FACEBOOK_APP_ID", "")
	v.SetDefault("FACEBOOK_APP_SECRET", "")
	v.SetDefault("INSTAGRAM_CLIENT_ID", "")
	v.SetDefault("INSTAGRAM_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "no-reply@localhost")
	v.SetDefault("MAIL_RATE_PER_SECOND", 5.0)
	v.SetDefault("MAIL_BURST", 10)
	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_API_URL", "https://api.stripe.com")
	v.SetDefault("PAYMENT_CURRENCY", "usd")
	v.SetDefault("POSTHOG_API_KEY", "")

	v.AutomaticEnv()

	cfg := &Config{}

	cfg.Port = v.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	cfg.IsProduction = v.GetBool("IS_PRODUCTION")

	cfg.DatabaseURL = v.GetString("PGSQL_URL")
	cfg.RunMigrations = v.GetBool("RUN_MIGRATIONS")
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER")))
	switch cfg.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	case "":
		if cfg.DatabaseURL != "" {
			cfg.StoreDriver = StoreDriverPostgres
		} else {
			cfg.StoreDriver = StoreDriverMemory
			log.Println("Warning: PGSQL_URL environment variable not set. Using in-memory identity store.")
		}
	default:
		log.Printf("Warning: Invalid value for STORE_DRIVER ('%s'). Defaulting to %s.\n", cfg.StoreDriver, StoreDriverMemory)
		cfg.StoreDriver = StoreDriverMemory
	}
	if cfg.StoreDriver == StoreDriverPostgres && cfg.DatabaseURL == "" {
		log.Println("Warning: STORE_DRIVER is postgres but PGSQL_URL is not set.")
	}

	cfg.JWTSecret = v.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = defaultJWTSecret // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = v.GetString("JWT_ISSUER")
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = defaultJWTIssuer
		log.Printf("Warning: JWT_ISSUER not set. Defaulting to %s.\n", cfg.JWTIssuer)
	}

	cfg.TokenExpiryDuration = parseDuration(v, "TOKEN_EXPIRY_DURATION", time.Hour)
	cfg.TempTokenExpiryDuration = parseDuration(v, "TEMP_TOKEN_EXPIRY_DURATION", 15*time.Minute)
	if cfg.TempTokenExpiryDuration >= cfg.TokenExpiryDuration {
		log.Printf("Warning: TEMP_TOKEN_EXPIRY_DURATION (%s) is not shorter than TOKEN_EXPIRY_DURATION (%s).\n",
			cfg.TempTokenExpiryDuration, cfg.TokenExpiryDuration)
	}

	cfg.CookieName = v.GetString("COOKIE_NAME")
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
		log.Printf("Warning: COOKIE_NAME not set. Defaulting to %s.\n", cfg.CookieName)
	}

	cfg.ClientURL = strings.TrimRight(v.GetString("CLIENT_URL"), "/")
	cfg.ServerURL = strings.TrimRight(v.GetString("SERVER_URL"), "/")

	cfg.CaptchaSecretKey = v.GetString("CAPTCHA_SECRET_KEY")
	cfg.CaptchaThreshold = v.GetFloat64("CAPTCHA_THRESHOLD")
	cfg.CaptchaVerifyURL = v.GetString("CAPTCHA_VERIFY_URL")
	if cfg.CaptchaSecretKey == "" {
		log.Println("Warning: CAPTCHA_SECRET_KEY not set. Captcha verification will reject every request.")
	}

	cfg.RateLimit = v.GetString("RATE_LIMIT")
	cfg.ExternalCallTimeout = parseDuration(v, "EXTERNAL_CALL_TIMEOUT", 10*time.Second)

	cfg.FacebookAppID = v.GetString("FACEBOOK_APP_ID")
	cfg.FacebookAppSecret = v.GetString("FACEBOOK_APP_SECRET")
	cfg.InstagramClientID = v.GetString("INSTAGRAM_CLIENT_ID")
	cfg.InstagramClientSecret = v.GetString("INSTAGRAM_CLIENT_SECRET")
	cfg.GoogleClientID = v.GetString("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = v.GetString("GOOGLE_CLIENT_SECRET")
	if cfg.FacebookAppID == "" {
		log.Println("Warning: FACEBOOK_APP_ID not set. Facebook OAuth will not function.")
	}

	cfg.SMTPHost = v.GetString("SMTP_HOST")
	cfg.SMTPPort = v.GetInt("SMTP_PORT")
	cfg.SMTPUsername = v.GetString("SMTP_USERNAME")
	cfg.SMTPPassword = v.GetString("SMTP_PASSWORD")
	cfg.MailFrom = v.GetString("MAIL_FROM")
	cfg.MailRatePerSecond = v.GetFloat64("MAIL_RATE_PER_SECOND")
	cfg.MailBurst = v.GetInt("MAIL_BURST")
	if cfg.SMTPHost == "" {
		log.Println("Warning: SMTP_HOST not set. Outgoing mail will only be logged.")
	}

	cfg.StripeSecretKey = v.GetString("STRIPE_SECRET_KEY")
	cfg.StripeAPIURL = strings.TrimRight(v.GetString("STRIPE_API_URL"), "/")
	cfg.PaymentCurrency = strings.ToLower(v.GetString("PAYMENT_CURRENCY"))

	cfg.PosthogAPIKey = v.GetString("POSTHOG_API_KEY")

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback.String())
		}
		return fallback
	}
	return d
}
