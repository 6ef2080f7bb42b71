// Package urlsign seals origin locators into signed, expiring tokens for
// use in client-visible share URLs.
//
// A token carries the AES-GCM encrypted locator plus expiry, signed with
// HMAC-SHA256. Clients can neither read nor forge the origin URL they are
// streaming from; the edge verifies and decrypts before any session state
// is touched.
//
// Token format: base64url(nonce + ciphertext).base64url(signature)
//
//	signer, _ := urlsign.New(encKey, signKey)
//	tok, _ := signer.Seal("s3://bucket/video.mp4", time.Now().Add(time.Hour))
//	loc, err := signer.Verify(tok, time.Now())
//
// Verify returns ErrSignatureInvalid for forged tokens, ErrTokenExpired
// past the deadline, and ErrInvalidToken for anything malformed.
package urlsign
