package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// KeySize длина ключа AES-256
const KeySize = 32

// ErrCorrupted значение не расшифровывается этим ключом
var ErrCorrupted = errors.New("ciphertext corrupted or key mismatch")

// Sealer шифрует короткие строки (токены) AES-256-GCM.
// Формат результата: base64(nonce || ciphertext || tag)
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer создает Sealer; key должен быть длиной 32 байта
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// Seal шифрует plaintext со случайным nonce
func (s *Sealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// nonce становится префиксом результата
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open расшифровывает результат Seal
func (s *Sealer) Open(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	ns := s.aead.NonceSize()
	if len(sealed) < ns+s.aead.Overhead() {
		return "", ErrCorrupted
	}

	plaintext, err := s.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return string(plaintext), nil
}
