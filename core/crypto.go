package core

// Passwords are stored reversibly encrypted (AES-256-CBC) rather than hashed:
// the product exposes the plaintext back to admins in profile views and the
// login flow compares against the decrypted value. This is a known weakness
// inherited from the product requirements, not a pattern to copy elsewhere.

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const encryptionKeyLen = 32 // AES-256

var (
	ErrMalformedSecret = errors.New("malformed encrypted secret")

	keySalt = []byte("bossmaker.secrets.v1")
)

// encryptionKey returns the configured key, stretched to 32 bytes when it is
// not already an exact AES-256 key.
func encryptionKey() []byte {
	key := []byte(Conf.EncryptionKey)
	if len(key) == encryptionKeyLen {
		return key
	}
	return pbkdf2.Key(key, keySalt, 4096, encryptionKeyLen, sha256.New)
}

// EncryptSecret encrypts text with the configured key.
// The result is "<iv hex>:<ciphertext hex>".
func EncryptSecret(text string) (string, error) {
	block, err := aes.NewCipher(encryptionKey())
	if err != nil {
		return "", errors.Wrap(err, "creating cipher")
	}

	iv := make([]byte, aes.BlockSize)
	if _, err = rand.Read(iv); err != nil {
		return "", errors.Wrap(err, "generating IV")
	}

	plain := pkcs7Pad([]byte(text), aes.BlockSize)
	enc := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(enc, plain)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(enc), nil
}

// DecryptSecret reverses EncryptSecret.
func DecryptSecret(encrypted string) (string, error) {
	parts := strings.SplitN(encrypted, ":", 2)
	if len(parts) != 2 {
		return "", ErrMalformedSecret
	}
	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrMalformedSecret
	}
	enc, err := hex.DecodeString(parts[1])
	if err != nil || len(enc) == 0 || len(enc)%aes.BlockSize != 0 {
		return "", ErrMalformedSecret
	}

	block, err := aes.NewCipher(encryptionKey())
	if err != nil {
		return "", errors.Wrap(err, "creating cipher")
	}

	plain := make([]byte, len(enc))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, enc)

	plain, err = pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrMalformedSecret
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, ErrMalformedSecret
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, ErrMalformedSecret
		}
	}
	return data[:len(data)-padLen], nil
}
