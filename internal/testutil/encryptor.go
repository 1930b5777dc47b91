package testutil

import (
	"countries-go/internal/encryption"
)

// TestPassphrase unlocks encryptors returned by NewTestEncryptor.
const TestPassphrase = "test-passphrase"

// NewTestEncryptor returns a configured, crypto-free encryptor unlocked by TestPassphrase.
func NewTestEncryptor() *encryption.TestEncryptor {
	return encryption.NewConfiguredTestEncryptor(TestPassphrase)
}
