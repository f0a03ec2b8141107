package token

import (
	"encoding/base64"
	"testing"
)

func TestGenerateSecret(t *testing.T) {
	tests := []struct {
		name string
	}{
		{"generate secret 1"},
		{"generate secret 2"},
		{"generate secret 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret, err := GenerateSecret()
			if err != nil {
				t.Errorf("GenerateSecret() error = %v", err)
				return
			}

			if err := ValidateSecret(secret); err != nil {
				t.Errorf("GenerateSecret() produced invalid secret: %v", err)
			}

			if _, err := base64.URLEncoding.DecodeString(secret); err != nil {
				t.Errorf("GenerateSecret() not base64-URL encoded: %v", err)
			}
		})
	}

	// Test uniqueness
	secret1, _ := GenerateSecret()
	secret2, _ := GenerateSecret()
	if secret1 == secret2 {
		t.Error("GenerateSecret() produced duplicate secrets")
	}
}

func TestGenerateSecretWithLength(t *testing.T) {
	tests := []struct {
		name      string
		numBytes  int
		wantErr   bool
		minLength int
	}{
		{
			name:      "default length",
			numBytes:  DefaultSecretBytes,
			minLength: 44,
		},
		{
			name:      "longer secret",
			numBytes:  48,
			minLength: 64,
		},
		{
			name:     "too short",
			numBytes: 16,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret, err := GenerateSecretWithLength(tt.numBytes)
			if (err != nil) != tt.wantErr {
				t.Errorf("GenerateSecretWithLength() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && len(secret) < tt.minLength {
				t.Errorf("GenerateSecretWithLength() length = %d, want >= %d", len(secret), tt.minLength)
			}
		})
	}
}

func TestValidateSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{name: "valid length", secret: "0123456789abcdef0123456789abcdef"},
		{name: "too short", secret: "short-secret", wantErr: true},
		{name: "empty", secret: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSecret(tt.secret)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSecret() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
