package firestore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/colespa/colespa-api/internal/domain"
)

func TestEncodeValue_TypedMappings(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want map[string]any
	}{
		{"string", "hola", map[string]any{"stringValue": "hola"}},
		{"int", 42, map[string]any{"integerValue": "42"}},
		{"int64", int64(9007199254740993), map[string]any{"integerValue": "9007199254740993"}},
		{"float", 19.5, map[string]any{"doubleValue": 19.5}},
		{"bool", true, map[string]any{"booleanValue": true}},
		{"nil", nil, map[string]any{"nullValue": nil}},
		// Date-only strings are text, not timestamps.
		{"birth date", "1990-04-12", map[string]any{"stringValue": "1990-04-12"}},
		{"rfc3339 string", "2026-08-29T10:00:00Z", map[string]any{"timestampValue": "2026-08-29T10:00:00Z"}},
	}
	for _, tc := range cases {
		got, err := encodeValue(tc.in)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		gotJSON, _ := json.Marshal(got)
		wantJSON, _ := json.Marshal(tc.want)
		if string(gotJSON) != string(wantJSON) {
			t.Errorf("%s: encoded %s, want %s", tc.name, gotJSON, wantJSON)
		}
	}
}

func TestEncodeValue_Time(t *testing.T) {
	ts := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	got, err := encodeValue(ts)
	if err != nil {
		t.Fatal(err)
	}
	if got["timestampValue"] != "2026-08-29T10:30:00Z" {
		t.Errorf("timestampValue = %v", got["timestampValue"])
	}
}

func TestDecodeValue_IntegerIsStringEncoded(t *testing.T) {
	got, err := decodeValue(json.RawMessage(`{"integerValue":"250000"}`))
	if err != nil {
		t.Fatal(err)
	}
	if got != int64(250000) {
		t.Errorf("decoded %v (%T), want int64 250000", got, got)
	}

	if _, err := decodeValue(json.RawMessage(`{"integerValue":"not-a-number"}`)); err == nil {
		t.Error("malformed integerValue accepted")
	}
}

func TestDecodeValue_NestedMap(t *testing.T) {
	raw := json.RawMessage(`{"mapValue":{"fields":{
		"status":{"stringValue":"pending"},
		"tags":{"arrayValue":{"values":[{"stringValue":"visado"},{"stringValue":"nie"}]}}
	}}}`)
	got, err := decodeValue(raw)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("decoded %T, want map", got)
	}
	if m["status"] != "pending" {
		t.Errorf("status = %v", m["status"])
	}
	tags, ok := m["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "visado" {
		t.Errorf("tags = %v", m["tags"])
	}
}

func TestStructRoundTrip(t *testing.T) {
	created := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	in := &domain.UserProfile{
		ID:        "user-1",
		Email:     "ana@example.com",
		Role:      domain.RoleAdvertiser,
		Credits:   35,
		CreatedAt: created,
		UpdatedAt: created,
	}

	fields, err := encodeStruct(in)
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}
	if cv, ok := fields["credits"].(map[string]any); !ok || cv["integerValue"] != "35" {
		t.Errorf("credits encoded as %v", fields["credits"])
	}
	if tv, ok := fields["created_at"].(map[string]any); !ok || tv["timestampValue"] == nil {
		t.Errorf("created_at encoded as %v", fields["created_at"])
	}

	// Re-encode as the wire form the decoder sees.
	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshaling fields: %v", err)
	}
	var wire map[string]json.RawMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unmarshaling fields: %v", err)
	}

	var out domain.UserProfile
	if err := decodeStruct(wire, &out); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if out.ID != in.ID || out.Email != in.Email || out.Role != in.Role || out.Credits != in.Credits {
		t.Errorf("round trip lost data: %+v", out)
	}
	if !out.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", out.CreatedAt, created)
	}
}
