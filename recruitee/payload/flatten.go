package payload

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
)

// ErrUnsupportedBody is returned when a multipart body is not a mapping or a
// sequence at the top level.
var ErrUnsupportedBody = errors.New("payload: multipart body must be a mapping or a sequence")

// Field is one multipart form field. Exactly one of Value and Binary is used:
// Binary holds the original []byte, io.Reader or File for file parts.
type Field struct {
	Key    string
	Value  string
	Binary any
}

// IsBinary reports whether the field carries binary content.
func (f Field) IsBinary() bool {
	return f.Binary != nil
}

// Flatten expands v under key into form fields. Sequence elements all share
// the key "key[]", mapping entries use "key[sub]", and null leaves produce no
// field at all.
func Flatten(key string, v any) []Field {
	return appendFields(nil, key, v)
}

func appendFields(fields []Field, key string, v any) []Field {
	switch KindOf(v) {
	case KindBinary:
		return append(fields, Field{Key: key, Binary: v})
	case KindSequence:
		eachElement(v, func(elem any) bool {
			fields = appendFields(fields, key+"[]", elem)
			return true
		})
		return fields
	case KindMapping:
		eachEntry(v, func(sub string, elem any) bool {
			fields = appendFields(fields, key+"["+sub+"]", elem)
			return true
		})
		return fields
	case KindScalar:
		return append(fields, Field{Key: key, Value: Stringify(v)})
	default:
		return fields
	}
}

// FormFields flattens every top-level entry of body. Mapping keys are walked
// in sorted order; a top-level sequence is keyed by element index.
func FormFields(body any) ([]Field, error) {
	var fields []Field
	switch KindOf(body) {
	case KindMapping:
		eachEntry(body, func(key string, elem any) bool {
			fields = appendFields(fields, key, elem)
			return true
		})
	case KindSequence:
		i := 0
		eachElement(body, func(elem any) bool {
			fields = appendFields(fields, strconv.Itoa(i), elem)
			i++
			return true
		})
	default:
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedBody, KindOf(body))
	}
	return fields, nil
}

// Stringify renders a scalar the way it appears in a form field or a query
// string.
func Stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case json.Number:
		return s.String()
	case json.RawMessage:
		return string(s)
	case encoding.TextMarshaler:
		if text, err := s.MarshalText(); err == nil {
			return string(text)
		}
	case fmt.Stringer:
		return s.String()
	}

	if text, ok := marshalTextByPointer(v); ok {
		return text
	}

	rv := indirect(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	}
	return fmt.Sprint(v)
}

// marshalTextByPointer handles values whose MarshalText has a pointer
// receiver, which a plain value does not satisfy.
func marshalTextByPointer(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() == reflect.Pointer || !reflect.PointerTo(rv.Type()).Implements(textMarshalerType) {
		return "", false
	}
	p := reflect.New(rv.Type())
	p.Elem().Set(rv)
	text, err := p.Interface().(encoding.TextMarshaler).MarshalText()
	if err != nil {
		return "", false
	}
	return string(text), true
}

// asMap returns a string-keyed view of a mapping value.
func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}

	rv := indirect(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return m, true
	case reflect.Struct:
		data, err := json.Marshal(rv.Interface())
		if err != nil {
			return nil, false
		}
		var m map[string]any
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&m); err != nil {
			return nil, false
		}
		return m, true
	}
	return nil, false
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
