package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Tolerance for the webhook timestamp header. Requests older or newer than
// this are rejected to limit replay.
const timestampTolerance = 5 * time.Minute

var (
	ErrMissingHeaders   = errors.New("missing webhook signature headers")
	ErrStaleTimestamp   = errors.New("webhook timestamp outside tolerance")
	ErrInvalidSignature = errors.New("webhook signature mismatch")
)

// VerifySignature checks a svix-compatible signature: HMAC-SHA256 over
// "<id>.<timestamp>.<payload>" using the decoded secret, compared against
// each space-separated "v1,<base64>" entry in the signature header.
func VerifySignature(secret, msgID, msgTimestamp, msgSignature string, payload []byte) error {
	return verifyAt(secret, msgID, msgTimestamp, msgSignature, payload, time.Now())
}

func verifyAt(secret, msgID, msgTimestamp, msgSignature string, payload []byte, now time.Time) error {
	if msgID == "" || msgTimestamp == "" || msgSignature == "" {
		return ErrMissingHeaders
	}

	ts, err := strconv.ParseInt(msgTimestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp %q", ErrMissingHeaders, msgTimestamp)
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > timestampTolerance || age < -timestampTolerance {
		return ErrStaleTimestamp
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return err
	}

	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.", msgID, msgTimestamp)
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, candidate := range strings.Fields(msgSignature) {
		version, sig, found := strings.Cut(candidate, ",")
		if !found || version != "v1" {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

func decodeSecret(secret string) ([]byte, error) {
	raw := strings.TrimPrefix(secret, "whsec_")
	if raw == "" {
		return nil, errors.New("webhook secret is empty")
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode webhook secret: %w", err)
	}
	return key, nil
}
