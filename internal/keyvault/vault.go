// Package keyvault generates signing keypairs and protects private keys at
// rest with password-based authenticated encryption.
//
// Blob format (versioned, canonical): base64(salt[16] || nonce[12] || AES-256-GCM
// ciphertext), with the AES key derived from the password via argon2id.
// A plaintext private key or password is never logged and never persisted.
package keyvault

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"

	"golang.org/x/crypto/argon2"

	"invisiblewallet/internal/common"
	"invisiblewallet/internal/starkx"
)

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
)

// GenerateKeypair produces a fresh signing keypair on the stark curve from a
// cryptographically secure random source.
func GenerateKeypair() (*starkx.Keypair, error) {
	return starkx.GenerateKeypair()
}

func deriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, keySize)
}

// Encrypt seals privateKey (canonical hex) with a key derived from password.
// Both inputs must be non-empty; empty input fails closed with
// common.ErrEncryptionInput rather than producing an empty blob.
func Encrypt(privateKey, password string) (string, error) {
	if privateKey == "" || password == "" {
		return "", common.ErrEncryptionInput
	}

	salt := common.GenerateRandByteArray(saltSize)
	nonce := common.GenerateRandByteArray(nonceSize)

	block, err := aes.NewCipher(deriveKey([]byte(password), salt))
	if err != nil {
		return "", err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	ciphertext := aesgcm.Seal(nil, nonce, []byte(privateKey), nil)

	blob := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt opens an Encrypt blob. A wrong password or malformed blob yields
// ("", nil): callers must treat the empty result as "authentication failed",
// not as a crash. Only empty inputs are reported as an error.
func Decrypt(encryptedPrivateKey, password string) (string, error) {
	if encryptedPrivateKey == "" || password == "" {
		return "", common.ErrEncryptionInput
	}

	blob, err := base64.StdEncoding.DecodeString(encryptedPrivateKey)
	if err != nil || len(blob) <= saltSize+nonceSize {
		return "", nil
	}

	salt := blob[:saltSize]
	nonce := blob[saltSize : saltSize+nonceSize]
	ciphertext := blob[saltSize+nonceSize:]

	block, err := aes.NewCipher(deriveKey([]byte(password), salt))
	if err != nil {
		return "", nil
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", nil
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", nil
	}
	return string(plaintext), nil
}
