package recruitee

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is a successful API response. Body holds the decoded JSON value
// (numbers as json.Number) or the raw text when the payload is not JSON.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       any
	Raw        []byte
}

// Params are caller supplied fields for write operations.
type Params map[string]any

// Query holds URL query parameters. Nil values are skipped, slices are sent
// as repeated "key[]" pairs and maps as "key[sub]" pairs.
type Query map[string]any

// Record is a single resource returned by the API.
type Record map[string]any

// Decode converts the record into v, typically a struct with json tags.
func (r Record) Decode(v any) error {
	return convert(r, v)
}

// parseBody decodes raw as JSON, falling back to the raw text.
func parseBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var body any
	if err := decoder.Decode(&body); err != nil || decoder.More() {
		return string(raw)
	}
	return body
}

// Unwrap decodes the envelope field key of an object body into v. It reports
// false, leaving v untouched, when the body is not an object or the field is
// missing or null.
func (r *Response) Unwrap(key string, v any) (bool, error) {
	obj, ok := r.Body.(map[string]any)
	if !ok {
		return false, nil
	}
	field, ok := obj[key]
	if !ok || field == nil {
		return false, nil
	}
	if err := convert(field, v); err != nil {
		return false, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return true, nil
}

func convert(from, to any) error {
	data, err := json.Marshal(from)
	if err != nil {
		return err
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(to)
}
