package sqlite

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const sealedPrefix = "v1:"

// ErrUnsealable is returned when a stored value cannot be decrypted with the
// configured secret.
var ErrUnsealable = errors.New("stored value cannot be decrypted")

// SealerParams configures the argon2id key derivation for the sealer.
type SealerParams struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

// DefaultSealerParams returns parameters suitable for a desktop client.
func DefaultSealerParams() SealerParams {
	return SealerParams{
		Time:    1,
		Memory:  64 * 1024,
		Threads: 4,
	}
}

// Sealer encrypts values at rest with XChaCha20-Poly1305 under a key derived
// from a secret.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the key from secret and salt.
func NewSealer(secret string, salt []byte, params SealerParams) (*Sealer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("sealer secret is required")
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("sealer salt is required")
	}
	if params.Time == 0 || params.Memory == 0 || params.Threads == 0 {
		params = DefaultSealerParams()
	}

	key := argon2.IDKey([]byte(secret), salt, params.Time, params.Memory, params.Threads, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise cipher: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// NewSalt returns a random salt for key derivation.
func NewSalt() ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// Seal encrypts plaintext and returns "v1:" followed by base64(nonce||ciphertext).
func (s *Sealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (s *Sealer) Open(value string) (string, error) {
	if !strings.HasPrefix(value, sealedPrefix) {
		return "", fmt.Errorf("%w: missing version prefix", ErrUnsealable)
	}
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsealable, err)
	}
	if len(raw) < s.aead.NonceSize() {
		return "", fmt.Errorf("%w: value too short", ErrUnsealable)
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsealable, err)
	}
	return string(plaintext), nil
}
