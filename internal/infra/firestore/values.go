package firestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Firestore documents carry typed values ({"stringValue": ...},
// {"integerValue": "42"}, ...). This file converts between plain Go values
// (as produced by encoding/json) and that representation, so the stores can
// persist domain structs directly through their JSON tags.

// encodeStruct converts a JSON-taggable struct into a Firestore fields map.
func encodeStruct(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var plain map[string]any
	if err := dec.Decode(&plain); err != nil {
		return nil, err
	}
	return encodeMap(plain)
}

// encodeMap converts a plain map into a Firestore fields map.
func encodeMap(m map[string]any) (map[string]any, error) {
	fields := make(map[string]any, len(m))
	for k, v := range m {
		encoded, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		fields[k] = encoded
	}
	return fields, nil
}

// encodeValue converts one plain Go value into a typed Firestore value.
// RFC 3339 strings become timestampValue so time.Time fields round-trip;
// other strings stay stringValue (date-only strings like birth dates do not
// match and are kept as text).
func encodeValue(v any) (map[string]any, error) {
	switch val := v.(type) {
	case nil:
		return map[string]any{"nullValue": nil}, nil
	case bool:
		return map[string]any{"booleanValue": val}, nil
	case string:
		if strings.Contains(val, "T") {
			if _, err := time.Parse(time.RFC3339, val); err == nil {
				return map[string]any{"timestampValue": val}, nil
			}
		}
		return map[string]any{"stringValue": val}, nil
	case json.Number:
		if !strings.ContainsAny(val.String(), ".eE") {
			return map[string]any{"integerValue": val.String()}, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, err
		}
		return map[string]any{"doubleValue": f}, nil
	case int:
		return map[string]any{"integerValue": strconv.Itoa(val)}, nil
	case int64:
		return map[string]any{"integerValue": strconv.FormatInt(val, 10)}, nil
	case float64:
		return map[string]any{"doubleValue": val}, nil
	case time.Time:
		return map[string]any{"timestampValue": val.UTC().Format(time.RFC3339Nano)}, nil
	case map[string]any:
		fields, err := encodeMap(val)
		if err != nil {
			return nil, err
		}
		return map[string]any{"mapValue": map[string]any{"fields": fields}}, nil
	case []any:
		values := make([]map[string]any, 0, len(val))
		for _, item := range val {
			encoded, err := encodeValue(item)
			if err != nil {
				return nil, err
			}
			values = append(values, encoded)
		}
		return map[string]any{"arrayValue": map[string]any{"values": values}}, nil
	default:
		// Structs, []string and friends: normalize through JSON first.
		data, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var plain any
		if err := dec.Decode(&plain); err != nil {
			return nil, err
		}
		return encodeValue(plain)
	}
}

// decodeStruct converts a Firestore fields map into out (any JSON-taggable
// struct pointer).
func decodeStruct(fields map[string]json.RawMessage, out any) error {
	plain, err := decodeFields(fields)
	if err != nil {
		return err
	}
	data, err := json.Marshal(plain)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// decodeFields converts a Firestore fields map into a plain Go map.
func decodeFields(fields map[string]json.RawMessage) (map[string]any, error) {
	plain := make(map[string]any, len(fields))
	for k, raw := range fields {
		v, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		plain[k] = v
	}
	return plain, nil
}

// decodeValue converts one typed Firestore value into a plain Go value.
func decodeValue(raw json.RawMessage) (any, error) {
	var typed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &typed); err != nil {
		return nil, err
	}

	for kind, inner := range typed {
		switch kind {
		case "nullValue":
			return nil, nil
		case "stringValue", "timestampValue":
			var s string
			if err := json.Unmarshal(inner, &s); err != nil {
				return nil, err
			}
			return s, nil
		case "booleanValue":
			var b bool
			if err := json.Unmarshal(inner, &b); err != nil {
				return nil, err
			}
			return b, nil
		case "integerValue":
			// Firestore serializes int64 as a JSON string.
			var s string
			if err := json.Unmarshal(inner, &s); err != nil {
				return nil, err
			}
			return strconv.ParseInt(s, 10, 64)
		case "doubleValue":
			var f float64
			if err := json.Unmarshal(inner, &f); err != nil {
				return nil, err
			}
			return f, nil
		case "mapValue":
			var mv struct {
				Fields map[string]json.RawMessage `json:"fields"`
			}
			if err := json.Unmarshal(inner, &mv); err != nil {
				return nil, err
			}
			return decodeFields(mv.Fields)
		case "arrayValue":
			var av struct {
				Values []json.RawMessage `json:"values"`
			}
			if err := json.Unmarshal(inner, &av); err != nil {
				return nil, err
			}
			items := make([]any, 0, len(av.Values))
			for _, item := range av.Values {
				v, err := decodeValue(item)
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			return items, nil
		}
	}
	return nil, fmt.Errorf("unknown value type in %s", string(raw))
}
