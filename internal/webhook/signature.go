package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/doculens/doculens-api/internal/models"
)

// Envelope is the canonical payload shape for every outbound delivery.
type Envelope struct {
	Event     models.WebhookEvent `json:"event"`
	Timestamp string              `json:"timestamp"`
	Data      interface{}         `json:"data"`
}

// MarshalEnvelope serializes the canonical envelope. The timestamp is an
// ISO-8601 instant; the signature is computed over exactly these bytes.
func MarshalEnvelope(event models.WebhookEvent, at time.Time, data interface{}) ([]byte, error) {
	body, err := json.Marshal(Envelope{
		Event:     event,
		Timestamp: at.Format(time.RFC3339),
		Data:      data,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal webhook envelope")
	}
	return body, nil
}

// Sign returns the hex HMAC-SHA256 digest of payload under secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether the hex digest matches the payload in
// constant time. Receivers use this to authenticate origin.
func VerifySignature(secret string, payload []byte, digest string) bool {
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(digest))
}
