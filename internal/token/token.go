// Package token issues the unguessable, URL-safe tokens used for
// invitations, shareable links and webhook signing secrets.
package token

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"
)

// MinBytes is the entropy floor for every issued token: 24 random bytes,
// i.e. 192 bits. Callers may ask for more, never less.
const MinBytes = 24

// Generate returns a base64 RawURL-encoded token built from n bytes of
// cryptographically strong randomness. Requests below MinBytes are bumped
// up to it.
func Generate(n int) (string, error) {
	if n < MinBytes {
		n = MinBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateSigningSecret issues a secret for HMAC signing. Same entropy
// floor as Generate; the result must never be written to plaintext logs
// or returned in any read response.
func GenerateSigningSecret() (string, error) {
	return Generate(32)
}
