package encryption

import (
	"fmt"

	"countries-go/internal/config"
	"countries-go/internal/directory"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// Extra recipients are only meaningful for age and are rejected elsewhere.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (directory.Encryptor, error) {
	switch cfg.Type {
	case "age", "":
		if cfg.PublicKeyPath == "" || cfg.PrivateKeyPath == "" {
			return nil, fmt.Errorf("age encryption requires public_key_path and private_key_path")
		}
		return NewAgeEncryptor(cfg), nil
	case "test":
		if len(cfg.Recipients) > 0 {
			return nil, fmt.Errorf("test encryption does not support recipients")
		}
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
