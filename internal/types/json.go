package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON writes the row as a flat object in column order.
// The row ID is not part of the record; it is minted again on load.
func (r NormalizedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.Values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat object, keeping key order. Non-string values
// are rendered with Stringify so numbers survive a round trip.
func (r *NormalizedRow) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row must be a JSON object, got %v", tok)
	}

	row := NormalizedRow{ID: NewRowID(), Values: make(map[string]string)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("row key must be a string, got %v", tok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		var val string
		switch v := raw.(type) {
		case json.Number:
			val = v.String()
		case map[string]any, []any:
			return fmt.Errorf("field %q: nested values are not supported", key)
		default:
			val = Stringify(v)
		}
		row.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = row
	return nil
}
