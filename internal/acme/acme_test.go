package acme

import (
	"crypto/ecdsa"
	"testing"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/errors"
)

func TestNewIssuer(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		token     string
		directory string
		wantErr   bool
		wantDir   string
	}{
		{"valid with default directory", "admin@example.com", "tok", "", false,
			"https://acme-v02.api.letsencrypt.org/directory"},
		{"valid with staging directory", "admin@example.com", "tok",
			"https://acme-staging-v02.api.letsencrypt.org/directory", false,
			"https://acme-staging-v02.api.letsencrypt.org/directory"},
		{"missing email", "", "tok", "", true, ""},
		{"missing token", "admin@example.com", "", "", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer, err := NewIssuer(tt.email, tt.token, tt.directory)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewIssuer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrInvalidEmail) {
					t.Errorf("expected a validation error, got %v", err)
				}
				return
			}
			if issuer.Directory != tt.wantDir {
				t.Errorf("Directory = %s, want %s", issuer.Directory, tt.wantDir)
			}
		})
	}
}

func TestAccountUser(t *testing.T) {
	key, err := newAccountKey()
	if err != nil {
		t.Fatalf("newAccountKey failed: %v", err)
	}
	if _, ok := key.(*ecdsa.PrivateKey); !ok {
		t.Errorf("account key type = %T, want *ecdsa.PrivateKey", key)
	}

	user := &account{email: "admin@example.com", key: key}
	if user.GetEmail() != "admin@example.com" {
		t.Errorf("GetEmail = %s", user.GetEmail())
	}
	if user.GetPrivateKey() == nil {
		t.Error("GetPrivateKey returned nil")
	}
	if user.GetRegistration() != nil {
		t.Error("fresh account should have no registration")
	}
}
