package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is the maximum accepted age of a webhook signature.
const DefaultTolerance = 5 * time.Minute

// Event is the webhook envelope, reduced to what the handler reads.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// VerifySignature checks the Stripe-Signature header against the raw request
// body. The header carries a unix timestamp and one or more v1 signatures;
// each v1 is an HMAC-SHA256 of "<timestamp>.<body>" keyed with the endpoint
// secret.
func VerifySignature(payload []byte, header, secret string, now time.Time) error {
	if header == "" {
		return fmt.Errorf("missing signature header")
	}

	var timestamp int64
	var signatures [][]byte
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("malformed signature timestamp")
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(v)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return fmt.Errorf("malformed signature header")
	}
	if age := now.Sub(time.Unix(timestamp, 0)); age > DefaultTolerance || age < -DefaultTolerance {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}
	return fmt.Errorf("no matching signature")
}

// ParseEvent verifies the signature and decodes the envelope.
func ParseEvent(payload []byte, header, secret string, now time.Time) (*Event, error) {
	if err := VerifySignature(payload, header, secret, now); err != nil {
		return nil, err
	}
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}
	return &ev, nil
}
