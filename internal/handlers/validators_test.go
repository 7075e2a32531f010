package handlers

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	v := validator.New()
	_ = v.RegisterValidation("password", validatePassword)

	tests := []struct {
		password string
		valid    bool
	}{
		{"abcdefg1", true},
		{"pässwörd9", true},
		{"short1", false},
		{"lettersonly", false},
		{"123456789", false},
		{strings.Repeat("a", 71) + "1", true},
		{strings.Repeat("a", 72) + "1", false},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := v.Var(tt.password, "password")
			assert.Equal(t, tt.valid, err == nil)
		})
	}
}
