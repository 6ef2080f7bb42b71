package urlsign

import "errors"

var (
	// Key validation errors
	ErrInvalidEncryptionKey = errors.New("urlsign: invalid encryption key: must be 32 bytes")
	ErrInvalidSigningKey    = errors.New("urlsign: invalid signing key: must be 32 bytes")

	// Token errors
	ErrInvalidToken     = errors.New("urlsign: invalid token format")
	ErrSignatureInvalid = errors.New("urlsign: signature mismatch")
	ErrTokenExpired     = errors.New("urlsign: token expired")

	// Seal/open errors
	ErrSealFailed = errors.New("urlsign: sealing failed")
	ErrOpenFailed = errors.New("urlsign: opening failed")
)
