package stripe_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/colespa/colespa-api/internal/infra/stripe"
)

const secret = "whsec_test_secret"

func sign(t *testing.T, payload []byte, ts time.Time) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature_Valid(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)

	if err := stripe.VerifySignature(payload, sign(t, payload, now), secret, now); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_1"}`)
	header := sign(t, payload, now)

	if err := stripe.VerifySignature(payload, header, "whsec_other", now); err == nil {
		t.Fatal("signature from a different secret accepted")
	}
}

func TestVerifySignature_TamperedPayload(t *testing.T) {
	now := time.Now()
	header := sign(t, []byte(`{"amount":100}`), now)

	if err := stripe.VerifySignature([]byte(`{"amount":999}`), header, secret, now); err == nil {
		t.Fatal("tampered payload accepted")
	}
}

func TestVerifySignature_StaleTimestamp(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_1"}`)

	stale := sign(t, payload, now.Add(-6*time.Minute))
	if err := stripe.VerifySignature(payload, stale, secret, now); err == nil {
		t.Fatal("signature older than the tolerance accepted")
	}

	// Just inside the window still passes.
	recent := sign(t, payload, now.Add(-4*time.Minute))
	if err := stripe.VerifySignature(payload, recent, secret, now); err != nil {
		t.Fatalf("signature inside the tolerance rejected: %v", err)
	}
}

func TestVerifySignature_MalformedHeader(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_1"}`)

	for _, header := range []string{
		"",
		"t=abc,v1=00",
		"v1=00",
		"t=1700000000",
		"garbage",
	} {
		if err := stripe.VerifySignature(payload, header, secret, now); err == nil {
			t.Errorf("header %q accepted", header)
		}
	}
}

func TestParseEvent(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123"}}}`)

	event, err := stripe.ParseEvent(payload, sign(t, payload, now), secret, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type != "payment_intent.succeeded" {
		t.Errorf("type = %q", event.Type)
	}
	if string(event.Data.Object) != `{"id":"pi_123"}` {
		t.Errorf("object = %s", event.Data.Object)
	}

	if _, err := stripe.ParseEvent(payload, "t=1,v1=00", secret, now); err == nil {
		t.Error("bad signature passed through ParseEvent")
	}
}
