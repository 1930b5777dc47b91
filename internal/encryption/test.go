package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"countries-go/internal/directory"
)

// testHeader marks output of TestEncryptor so it never equals the plaintext.
var testHeader = []byte("CTRYENC\x00")

// ErrWrongPassphrase is returned by TestEncryptor.Unlock when the passphrase
// does not match the one given to Setup.
var ErrWrongPassphrase = errors.New("wrong passphrase")

// TestEncryptor is a deterministic, crypto-free Encryptor for tests. Encrypt
// prepends a fixed header; Decrypt strips it. Until Setup is called it
// reports itself as unconfigured, like a fresh age key directory.
type TestEncryptor struct {
	mu         sync.Mutex
	passphrase string
	configured bool
}

var _ directory.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor returns an unconfigured TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

// NewConfiguredTestEncryptor returns a TestEncryptor already set up with passphrase.
func NewConfiguredTestEncryptor(passphrase string) *TestEncryptor {
	return &TestEncryptor{passphrase: passphrase, configured: true}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase must not be empty")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.configured {
		return ErrAlreadyConfigured
	}
	e.passphrase = passphrase
	e.configured = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if !e.IsConfigured() {
		return fmt.Errorf("encryption not configured")
	}
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (directory.DecryptionContext, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.configured {
		return nil, fmt.Errorf("encryption not configured")
	}
	if passphrase != e.passphrase {
		return nil, ErrWrongPassphrase
	}
	return TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.configured
}

// TestDecryptionContext strips the header written by TestEncryptor.
type TestDecryptionContext struct{}

var _ directory.DecryptionContext = TestDecryptionContext{}

func (TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
