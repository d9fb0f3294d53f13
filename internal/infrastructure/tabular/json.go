package tabular

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/tidwall/gjson"
)

func decodeJSONFile(path string) (*Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeJSON(data)
}

// decodeJSON accepts a single object or an array of objects. Nested objects
// are flattened into dotted keys; nested arrays are kept as JSON text.
// Headers are the union of keys in first-seen order.
func decodeJSON(data []byte) (*Sample, error) {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("malformed JSON")
	}

	doc := gjson.ParseBytes(data)
	var elements []gjson.Result
	switch {
	case doc.IsArray():
		elements = doc.Array()
	case doc.IsObject():
		elements = []gjson.Result{doc}
	default:
		return nil, errors.New("expected an object or an array of objects")
	}

	s := &Sample{}
	seen := make(map[string]struct{})
	for i, el := range elements {
		if !el.IsObject() {
			return nil, fmt.Errorf("element %d is not an object", i+1)
		}
		rec := mapping.NewRawRecord(8)
		flatten(rec, "", el)
		for _, h := range rec.Headers() {
			if _, ok := seen[h]; !ok {
				seen[h] = struct{}{}
				s.Headers = append(s.Headers, h)
			}
		}
		s.Records = append(s.Records, rec)
	}
	s.TotalRecords = len(s.Records)
	return s, nil
}

func flatten(rec *mapping.RawRecord, prefix string, obj gjson.Result) {
	obj.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if prefix != "" {
			name = prefix + "." + name
		}
		switch {
		case value.IsObject():
			flatten(rec, name, value)
		case value.IsArray():
			rec.Set(name, compactJSON(value.Raw))
		default:
			rec.Set(name, scalar(value))
		}
		return true
	})
}

// scalar keeps numbers as json.Number so long identifiers survive intact.
func scalar(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return json.Number(v.Raw)
	default:
		return v.String()
	}
}

func compactJSON(raw string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return raw
	}
	return buf.String()
}
