package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// This is primarily for CI and backward compatibility.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	apiKey := os.Getenv("TWEETHARVEST_API_KEY")
	if apiKey == "" {
		// Legacy variable kept for existing setups
		apiKey = os.Getenv("TWITTERIO_API_KEY")
	}

	if apiKey == "" {
		return nil, ErrCredentialsNotFound
	}

	// Environment variables don't carry an account name, so we use
	// "default" unless one was asked for
	if name == "" {
		name = "default"
	}

	return &Account{
		Name:         name,
		APIKey:       apiKey,
		Tier:         os.Getenv("TWEETHARVEST_TIER"),
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv("TWEETHARVEST_API_KEY") != "" || os.Getenv("TWITTERIO_API_KEY") != ""
}
