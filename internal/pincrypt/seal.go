// Package pincrypt holds the two PIN-derived primitives: authenticated
// encryption of secrets at rest and an independent slow verification hash.
// The two key schedules share nothing, so learning a stored PIN hash gives
// no advantage toward decrypting stored secrets.
package pincrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"

	"github.com/walletkit/walletd/internal/model"
)

const (
	// scrypt parameters for sealing wallet secrets.
	//
	// N=2^15 (~32MB RAM, tens of ms) rather than the 2^18 a purely local
	// wallet could afford: seals and opens run per request on a shared
	// service, and the PIN is additionally guarded by the argon2id
	// verification hash, so the cipher KDF only needs to be expensive
	// enough that the ciphertext is not the cheapest attack surface.
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

// Envelope is the stored form of a sealed secret.
type Envelope struct {
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// Seal encrypts plaintext under a key derived from the PIN. Each call draws a
// fresh salt and nonce, so sealing the same plaintext twice yields different
// envelopes. The caller should zero pin and plaintext after use.
func Seal(plaintext, pin []byte) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := pinAEAD(pin, salt)
	if err != nil {
		return "", err
	}

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	out, err := json.Marshal(Envelope{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return string(out), nil
}

// Open decrypts a sealed envelope with the PIN. A wrong PIN and a corrupted
// envelope are indistinguishable: both report ErrDecryptionFailed.
func Open(sealed string, pin []byte) ([]byte, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(sealed), &env); err != nil {
		return nil, model.ErrDecryptionFailed
	}

	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, model.ErrDecryptionFailed
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, model.ErrDecryptionFailed
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.CipherText)
	if err != nil {
		return nil, model.ErrDecryptionFailed
	}
	if len(nonce) != nonceLen {
		return nil, model.ErrDecryptionFailed
	}

	aesGCM, err := pinAEAD(pin, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, model.ErrDecryptionFailed
	}
	return plaintext, nil
}

func pinAEAD(pin, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(pin, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
