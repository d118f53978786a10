package service

import (
	"errors"

	"rupl/internal/config"
	"rupl/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier decides whether a password matches an account.
type CredentialVerifier interface {
	// Enroll turns a password into the credential stored for the account.
	Enroll(password string) (string, error)
	// Verify checks password against the stored credential.
	Verify(stored, password string) error
}

// NewCredentialVerifier returns the verifier for an AUTH_MODE value.
func NewCredentialVerifier(mode string) CredentialVerifier {
	if mode == config.AuthModeBcrypt {
		return BcryptVerifier{Cost: bcrypt.DefaultCost}
	}
	return DemoVerifier{}
}

// DemoVerifier accepts any non-empty password and stores nothing.
type DemoVerifier struct{}

func (DemoVerifier) Enroll(string) (string, error) { return "", nil }

func (DemoVerifier) Verify(_, password string) error {
	if password == "" {
		return models.NewAuthError("Password is required")
	}
	return nil
}

// BcryptVerifier stores bcrypt hashes and compares against them.
type BcryptVerifier struct {
	Cost int
}

func (v BcryptVerifier) Enroll(password string) (string, error) {
	cost := v.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}

func (BcryptVerifier) Verify(stored, password string) error {
	if password == "" {
		return models.NewAuthError("Password is required")
	}
	if stored == "" {
		return models.NewAuthError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return models.NewAuthError("Invalid credentials")
		}
		return models.NewInternalError(err)
	}
	return nil
}
