package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCredentialManager(t *testing.T) {
	// Use mock manager for reliable testing
	manager, mockStore := NewMockManager()

	account := &Account{
		Name:         "default",
		APIKey:       "th_live_0123456789abcdef",
		Tier:         "free",
		LastModified: time.Now(),
	}

	err := manager.Store(account)
	if err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	retrieved, err := manager.Retrieve("default")
	if err != nil {
		t.Errorf("Failed to retrieve account: %v", err)
	}

	if retrieved.Name != account.Name {
		t.Errorf("Name mismatch: got %s, want %s", retrieved.Name, account.Name)
	}
	if retrieved.APIKey != account.APIKey {
		t.Errorf("APIKey mismatch: got %s, want %s", retrieved.APIKey, account.APIKey)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list accounts: %v", err)
	}
	if len(accounts) == 0 {
		t.Error("Expected at least one account in list")
	}

	// Sanitization must mask the key but keep the name
	sanitized := SanitizeAccount(account)
	if sanitized.APIKey == account.APIKey {
		t.Error("APIKey should be masked")
	}
	if sanitized.Name != account.Name {
		t.Error("Name should not be masked")
	}

	err = manager.Delete("default")
	if err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}

	_, err = manager.Retrieve("default")
	if err == nil {
		t.Error("Expected error retrieving deleted account")
	}

	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
}

func TestManagerRequiresAPIKey(t *testing.T) {
	manager, _ := NewMockManager()

	if err := manager.Store(&Account{Name: "nokey"}); err == nil {
		t.Error("Expected error storing account without API key")
	}
	if err := manager.Store(&Account{APIKey: "key-without-name"}); err == nil {
		t.Error("Expected error storing account without name")
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_creds.enc")

	// Set test passphrase
	os.Setenv("TWEETHARVEST_PASSPHRASE", "test_passphrase_123")
	defer os.Unsetenv("TWEETHARVEST_PASSPHRASE")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := &Account{
		Name:   "encrypted_account",
		APIKey: "encrypted_api_key_value",
		Tier:   "paid",
	}

	err = store.Store(account)
	if err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("encrypted_account")
	if err != nil {
		t.Errorf("Failed to retrieve from encrypted file: %v", err)
	}

	if retrieved.APIKey != account.APIKey {
		t.Errorf("APIKey mismatch after encryption/decryption")
	}
	if retrieved.Tier != account.Tier {
		t.Errorf("Tier mismatch after encryption/decryption")
	}

	// The raw file on disk must not contain the key in plaintext
	content, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatalf("Failed to read encrypted file: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("Encrypted file is empty")
	}
	if strings.Contains(string(content), account.APIKey) {
		t.Error("API key stored in plaintext")
	}

	// Deleting the last account removes the file
	if err := store.Delete("encrypted_account"); err != nil {
		t.Errorf("Failed to delete from encrypted file: %v", err)
	}
	if _, err := os.Stat(tempFile); !os.IsNotExist(err) {
		t.Error("Expected encrypted file to be removed after last delete")
	}
}

func TestEnvironmentStore(t *testing.T) {
	os.Setenv("TWEETHARVEST_API_KEY", "env_api_key_12345")
	defer os.Unsetenv("TWEETHARVEST_API_KEY")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve from environment: %v", err)
	}
	if account.Name != "default" {
		t.Errorf("Expected default account name, got %s", account.Name)
	}
	if account.APIKey != "env_api_key_12345" {
		t.Errorf("APIKey mismatch: got %s", account.APIKey)
	}

	// Write operations are unsupported
	if err := store.Store(account); err != ErrStoreUnavailable {
		t.Errorf("Expected ErrStoreUnavailable from Store, got %v", err)
	}
	if err := store.Delete("default"); err != ErrStoreUnavailable {
		t.Errorf("Expected ErrStoreUnavailable from Delete, got %v", err)
	}
}

func TestEnvironmentStoreLegacyVariable(t *testing.T) {
	os.Unsetenv("TWEETHARVEST_API_KEY")
	os.Setenv("TWITTERIO_API_KEY", "legacy_key_67890")
	defer os.Unsetenv("TWITTERIO_API_KEY")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve legacy key: %v", err)
	}
	if account.APIKey != "legacy_key_67890" {
		t.Errorf("Expected legacy key, got %s", account.APIKey)
	}
}
