package mapping

import (
	"bytes"
	"encoding/json"
)

// RawRecord is one decoded row or object: source headers in file order with
// their untyped values.
type RawRecord struct {
	headers []string
	values  map[string]any
}

// NewRawRecord creates an empty record with room for n headers.
func NewRawRecord(n int) *RawRecord {
	return &RawRecord{
		headers: make([]string, 0, n),
		values:  make(map[string]any, n),
	}
}

// Set stores a value. A repeated header keeps its first position and takes
// the latest value.
func (r *RawRecord) Set(header string, value any) {
	if _, ok := r.values[header]; !ok {
		r.headers = append(r.headers, header)
	}
	r.values[header] = value
}

// Get returns the value under header.
func (r *RawRecord) Get(header string) (any, bool) {
	v, ok := r.values[header]
	return v, ok
}

// Headers returns the headers in insertion order.
func (r *RawRecord) Headers() []string {
	return append([]string(nil), r.headers...)
}

// Len returns the number of headers.
func (r *RawRecord) Len() int {
	return len(r.headers)
}

// MarshalJSON writes the record as an object that keeps header order.
func (r *RawRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, h := range r.headers {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(h)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[h])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat object, keeping key order.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = *NewRawRecord(8)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		r.Set(key, v)
	}
	_, err := dec.Token()
	return err
}
