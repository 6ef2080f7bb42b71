package urlsign

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"
	"time"
)

// KeySize is the required size for both the encryption and signing keys.
const KeySize = 32 // 256 bits for AES-256 and HMAC-SHA256

// Signer issues and verifies sealed locator tokens. The origin locator is
// AES-GCM encrypted so it never appears in client-visible URLs, and the
// ciphertext carries a full HMAC-SHA256 signature with an embedded expiry.
type Signer struct {
	encKey  []byte
	signKey []byte
}

// New creates a Signer from a 32-byte encryption key and a 32-byte
// signing key.
func New(encKey, signKey []byte) (*Signer, error) {
	if len(encKey) != KeySize {
		return nil, ErrInvalidEncryptionKey
	}
	if len(signKey) != KeySize {
		return nil, ErrInvalidSigningKey
	}
	return &Signer{encKey: encKey, signKey: signKey}, nil
}

// Seal encrypts locator together with an expiry deadline and signs the
// result. Token format: base64url(nonce + ciphertext).base64url(signature).
func (s *Signer) Seal(locator string, expiresAt time.Time) (string, error) {
	// Plaintext layout: 8-byte big-endian unix expiry, then the locator.
	plaintext := make([]byte, 8+len(locator))
	binary.BigEndian.PutUint64(plaintext[:8], uint64(expiresAt.Unix()))
	copy(plaintext[8:], locator)

	block, err := aes.NewCipher(s.encKey)
	if err != nil {
		return "", errors.Join(ErrSealFailed, err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", errors.Join(ErrSealFailed, err)
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Join(ErrSealFailed, err)
	}

	sealed := aesGCM.Seal(nonce, nonce, plaintext, nil)

	h := hmac.New(sha256.New, s.signKey)
	h.Write(sealed)
	sig := h.Sum(nil)

	return base64.RawURLEncoding.EncodeToString(sealed) + "." +
		base64.RawURLEncoding.EncodeToString(sig), nil
}

// Verify checks the token's signature and expiry and returns the
// decrypted locator. The signature is checked before any decryption so a
// forged token never reaches the cipher.
func (s *Signer) Verify(token string, now time.Time) (string, error) {
	sealedEnc, sigEnc, ok := strings.Cut(token, ".")
	if !ok {
		return "", ErrInvalidToken
	}

	sealed, err := base64.RawURLEncoding.DecodeString(sealedEnc)
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigEnc)
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}

	h := hmac.New(sha256.New, s.signKey)
	h.Write(sealed)
	if subtle.ConstantTimeCompare(sig, h.Sum(nil)) != 1 {
		return "", ErrSignatureInvalid
	}

	block, err := aes.NewCipher(s.encKey)
	if err != nil {
		return "", errors.Join(ErrOpenFailed, err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", errors.Join(ErrOpenFailed, err)
	}

	if len(sealed) < aesGCM.NonceSize() {
		return "", ErrInvalidToken
	}
	nonce, ciphertext := sealed[:aesGCM.NonceSize()], sealed[aesGCM.NonceSize():]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.Join(ErrOpenFailed, err)
	}
	if len(plaintext) < 8 {
		return "", ErrInvalidToken
	}

	expiresAt := time.Unix(int64(binary.BigEndian.Uint64(plaintext[:8])), 0)
	if now.After(expiresAt) {
		return "", ErrTokenExpired
	}

	return string(plaintext[8:]), nil
}

// GenerateKey creates a new random 32-byte key suitable for either slot.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
