package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"
)

const testSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

func sign(t *testing.T, secret, msgID string, ts int64, payload []byte) string {
	t.Helper()
	key, err := decodeSecret(secret)
	if err != nil {
		t.Fatalf("decodeSecret: %v", err)
	}
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%d.", msgID, ts)
	mac.Write(payload)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureValid(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"type":"user.created"}`)
	sig := sign(t, testSecret, "msg_1", now.Unix(), payload)

	err := verifyAt(testSecret, "msg_1", strconv.FormatInt(now.Unix(), 10), sig, payload, now)
	if err != nil {
		t.Fatalf("expected valid signature, got: %v", err)
	}
}

func TestVerifySignatureMultipleEntries(t *testing.T) {
	now := time.Now()
	payload := []byte(`{}`)
	good := sign(t, testSecret, "msg_1", now.Unix(), payload)
	header := "v1,Zm9yZ2Vkc2lnbmF0dXJl " + good

	err := verifyAt(testSecret, "msg_1", strconv.FormatInt(now.Unix(), 10), header, payload, now)
	if err != nil {
		t.Fatalf("expected one matching entry to suffice, got: %v", err)
	}
}

func TestVerifySignatureTampered(t *testing.T) {
	now := time.Now()
	sig := sign(t, testSecret, "msg_1", now.Unix(), []byte(`{"a":1}`))

	err := verifyAt(testSecret, "msg_1", strconv.FormatInt(now.Unix(), 10), sig, []byte(`{"a":2}`), now)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got: %v", err)
	}
}

func TestVerifySignatureStaleTimestamp(t *testing.T) {
	now := time.Now()
	old := now.Add(-10 * time.Minute)
	payload := []byte(`{}`)
	sig := sign(t, testSecret, "msg_1", old.Unix(), payload)

	err := verifyAt(testSecret, "msg_1", strconv.FormatInt(old.Unix(), 10), sig, payload, now)
	if !errors.Is(err, ErrStaleTimestamp) {
		t.Fatalf("expected ErrStaleTimestamp, got: %v", err)
	}
}

func TestVerifySignatureMissingHeaders(t *testing.T) {
	err := verifyAt(testSecret, "", "", "", []byte(`{}`), time.Now())
	if !errors.Is(err, ErrMissingHeaders) {
		t.Fatalf("expected ErrMissingHeaders, got: %v", err)
	}
}
