// Package fieldcrypt provides reversible encryption for a single sensitive
// record field. Ciphertexts are opaque to storage and only the service can
// decrypt them.
//
// The wire format is base64(IV || AES-256-CBC ciphertext) with PKCS7 padding.
// The AES key is never the raw master secret: it is derived once at
// construction with HKDF-SHA256, so the operational secret can be rotated
// independently of its entropy characteristics.
//
// # Usage
//
//	fc, err := fieldcrypt.New("master-secret")
//	encoded, err := fc.Encrypt(plaintext)
//	plaintext, err := fc.Decrypt(encoded)
package fieldcrypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/crypto/hkdf"
)

// HKDF parameters. Changing either makes existing ciphertexts undecryptable.
const (
	hkdfSalt = "authgate-field-salt"
	hkdfInfo = "aes-field-key"

	keySize = 32 // AES-256
	ivSize  = aes.BlockSize
)

// ErrDecryption is the sentinel wrapped by every Decrypt failure: bad
// encoding, wrong key, truncated or tampered ciphertext, invalid padding,
// or non-UTF-8 plaintext. Callers must surface it, not fold it into a
// business "invalid" result — for persisted records it means corruption
// or tampering, not user error.
var ErrDecryption = errors.New("fieldcrypt: decryption failed")

// Cipher encrypts and decrypts a sensitive field under a derived AES-256 key.
type Cipher struct {
	block cipher.Block
}

// New creates a Cipher from the master secret. The 32-byte AES key is
// derived with HKDF-SHA256 using a fixed application salt and context.
func New(masterSecret string) (*Cipher, error) {
	if masterSecret == "" {
		return nil, errors.New("fieldcrypt: master secret is required")
	}

	key := make([]byte, keySize)
	kdf := hkdf.New(sha256.New, []byte(masterSecret), []byte(hkdfSalt), []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("fieldcrypt: derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("fieldcrypt: create cipher: %w", err)
	}

	return &Cipher{block: block}, nil
}

// Encrypt encrypts plaintext and returns base64(IV || ciphertext).
// A fresh random IV is generated per call, so encrypting the same
// plaintext twice yields different outputs.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("fieldcrypt: generate iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(append(iv, ciphertext...)), nil
}

// Decrypt reverses Encrypt. Any failure wraps ErrDecryption.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: decode base64: %v", ErrDecryption, err)
	}
	if len(data) < ivSize+aes.BlockSize || (len(data)-ivSize)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d", ErrDecryption, len(data))
	}

	iv, ciphertext := data[:ivSize], data[ivSize:]
	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(padded, ciphertext)

	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	if !utf8.Valid(plaintext) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", ErrDecryption)
	}

	return string(plaintext), nil
}

// pkcs7Pad appends 1..blockSize bytes, each set to the pad length.
func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-padLen], nil
}
