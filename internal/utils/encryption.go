package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the size of the encryption key in bytes (256 bits)
	KeySize = 32
	// NonceSize is the size of the GCM nonce in bytes
	NonceSize = 12
)

// EncryptionService handles encryption of uploaded documents at rest
type EncryptionService struct {
	masterKey []byte
}

// NewEncryptionService creates a new encryption service with the provided master key
func NewEncryptionService(masterKeyBase64 string) (*EncryptionService, error) {
	if masterKeyBase64 == "" {
		return nil, errors.New("master key cannot be empty")
	}

	masterKey, err := base64.StdEncoding.DecodeString(masterKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid master key format: %w", err)
	}

	if len(masterKey) != KeySize {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", KeySize, len(masterKey))
	}

	return &EncryptionService{
		masterKey: masterKey,
	}, nil
}

// EncryptedBlob contains all the components needed to decrypt a document.
// Each document is sealed with its own data key, which is in turn sealed
// with the installation master key.
type EncryptedBlob struct {
	Ciphertext   []byte
	EncryptedKey []byte
	Nonce        []byte
	KeyNonce     []byte
}

// Encrypt seals a document payload using a unique data key
func (s *EncryptionService) Encrypt(plaintext []byte) (*EncryptedBlob, error) {
	if len(plaintext) == 0 {
		return nil, errors.New("plaintext cannot be empty")
	}

	// Generate a unique data key for this document
	dataKey := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, dataKey); err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}
	defer zeroKey(dataKey)

	// Encrypt the data key with the master key
	encryptedKey, keyNonce, err := s.sealDataKey(dataKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt data key: %w", err)
	}

	gcm, err := newGCM(dataKey)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	return &EncryptedBlob{
		Ciphertext:   ciphertext,
		EncryptedKey: encryptedKey,
		Nonce:        nonce,
		KeyNonce:     keyNonce,
	}, nil
}

// Decrypt opens a sealed document payload
func (s *EncryptionService) Decrypt(blob *EncryptedBlob) ([]byte, error) {
	if blob == nil {
		return nil, errors.New("encrypted blob cannot be nil")
	}

	dataKey, err := s.openDataKey(blob.EncryptedKey, blob.KeyNonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt data key: %w", err)
	}
	defer zeroKey(dataKey)

	gcm, err := newGCM(dataKey)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, blob.Nonce, blob.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

// sealDataKey encrypts a data key using the master key
func (s *EncryptionService) sealDataKey(dataKey []byte) ([]byte, []byte, error) {
	gcm, err := newGCM(s.masterKey)
	if err != nil {
		return nil, nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nil, nonce, dataKey, nil), nonce, nil
}

// openDataKey decrypts a data key using the master key
func (s *EncryptionService) openDataKey(encryptedKey, nonce []byte) ([]byte, error) {
	gcm, err := newGCM(s.masterKey)
	if err != nil {
		return nil, err
	}

	dataKey, err := gcm.Open(nil, nonce, encryptedKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return dataKey, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return gcm, nil
}

func zeroKey(key []byte) {
	for i := range key {
		key[i] = 0
	}
}

// DeriveKey derives a key from the master key using HKDF
func (s *EncryptionService) DeriveKey(salt []byte, info []byte) ([]byte, error) {
	hash := sha256.New
	hkdfReader := hkdf.New(hash, s.masterKey, salt, info)

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	return key, nil
}

// GenerateMasterKey generates a new random master key
func GenerateMasterKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
