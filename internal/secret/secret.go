// Package secret handles credential encryption and write-capability
// tokens. The upstream token is never stored or transmitted in
// plaintext; callers hold ciphertext and decrypt only at the point of
// use.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidCiphertext is returned when a ciphertext cannot be decoded
// or authenticated.
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// ErrInvalidCapability is returned when a capability token is missing,
// malformed, forged, or expired.
var ErrInvalidCapability = errors.New("invalid capability token")

// Keeper encrypts and decrypts secrets with a key derived from a
// passphrase, and mints write-capability tokens.
type Keeper struct {
	key []byte
}

// NewKeeper derives a 256-bit key from the passphrase.
func NewKeeper(passphrase string) (*Keeper, error) {
	if passphrase == "" {
		return nil, errors.New("secret key not provided")
	}
	sum := sha256.Sum256([]byte(passphrase))
	return &Keeper{key: sum[:]}, nil
}

// Encrypt seals plaintext with AES-GCM and returns
// base64(nonce || ciphertext). A fresh nonce is used per call, so
// re-encrypting the same value yields a different ciphertext.
func (k *Keeper) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(k.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (k *Keeper) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	block, err := aes.NewCipher(k.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(raw) < gcm.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plain), nil
}

// IsEncrypted reports whether the value looks like output of Encrypt.
// Legacy plaintext rows fail this check and get re-encrypted on read.
func (k *Keeper) IsEncrypted(value string) bool {
	_, err := k.Decrypt(value)
	return err == nil
}

// MintCapability returns a write-capability token valid for ttl.
// Format: base64("write:<unix-expiry>:<hex hmac>").
func (k *Keeper) MintCapability(ttl time.Duration) string {
	expiry := time.Now().Add(ttl).Unix()
	payload := fmt.Sprintf("write:%d", expiry)
	mac := k.sign(payload)
	return base64.StdEncoding.EncodeToString([]byte(payload + ":" + mac))
}

// VerifyCapability checks the signature and expiry of a capability
// token minted by MintCapability.
func (k *Keeper) VerifyCapability(token string) error {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return ErrInvalidCapability
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 3 || parts[0] != "write" {
		return ErrInvalidCapability
	}

	payload := parts[0] + ":" + parts[1]
	if !hmac.Equal([]byte(k.sign(payload)), []byte(parts[2])) {
		return ErrInvalidCapability
	}

	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() > expiry {
		return ErrInvalidCapability
	}
	return nil
}

func (k *Keeper) sign(payload string) string {
	mac := hmac.New(sha256.New, k.key)
	mac.Write([]byte(payload))
	return fmt.Sprintf("%x", mac.Sum(nil))
}
