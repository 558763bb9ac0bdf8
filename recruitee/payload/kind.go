// Package payload turns request bodies into wire payloads.
//
// A body is sent as JSON unless a binary value (a []byte, an io.Reader or a
// File) appears anywhere inside it, in which case the whole body is flattened
// into multipart/form-data fields using the bracketed key convention
// (key[sub], key[]).
package payload

import (
	"encoding"
	"encoding/json"
	"io"
	"reflect"
)

// Kind classifies a body value for serialization.
type Kind int

const (
	KindNull Kind = iota
	KindScalar
	KindBinary
	KindSequence
	KindMapping
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindBinary:
		return "binary"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// File is a named binary value. Use it when the multipart part needs a file
// name or content type other than the defaults.
type File struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

var (
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	readerType        = reflect.TypeOf((*io.Reader)(nil)).Elem()
)

// KindOf classifies v. Structs that are not text marshalers are reported as
// mappings; the flattener normalizes them through their JSON form.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case json.RawMessage:
		return KindScalar
	case []byte, File, *File, io.Reader:
		if isNilValue(v) {
			return KindNull
		}
		return KindBinary
	case string, bool, encoding.TextMarshaler:
		return KindScalar
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return KindNull
		}
		if rv.Type().Implements(readerType) {
			return KindBinary
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return KindNull
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return KindBinary
		}
		return KindSequence
	case reflect.Array:
		return KindSequence
	case reflect.Map:
		if rv.IsNil() {
			return KindNull
		}
		if rv.Type().Key().Kind() == reflect.String {
			return KindMapping
		}
		return KindScalar
	case reflect.Struct:
		if rv.Type().Implements(textMarshalerType) || reflect.PointerTo(rv.Type()).Implements(textMarshalerType) {
			return KindScalar
		}
		return KindMapping
	default:
		return KindScalar
	}
}

// ContainsBinary reports whether v or anything reachable from it is binary.
// v must not contain cycles.
func ContainsBinary(v any) bool {
	switch KindOf(v) {
	case KindBinary:
		return true
	case KindSequence:
		found := false
		eachElement(v, func(elem any) bool {
			found = ContainsBinary(elem)
			return !found
		})
		return found
	case KindMapping:
		found := false
		eachEntry(v, func(_ string, elem any) bool {
			found = ContainsBinary(elem)
			return !found
		})
		return found
	default:
		return false
	}
}

func isNilValue(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func indirect(v any) reflect.Value {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv
}

// eachElement calls fn for every element of a sequence until fn returns false.
func eachElement(v any, fn func(elem any) bool) {
	if s, ok := v.([]any); ok {
		for _, elem := range s {
			if !fn(elem) {
				return
			}
		}
		return
	}
	rv := indirect(v)
	for i := 0; i < rv.Len(); i++ {
		if !fn(rv.Index(i).Interface()) {
			return
		}
	}
}

// eachEntry calls fn for every entry of a mapping, in sorted key order, until
// fn returns false. Structs are visited through their JSON representation.
func eachEntry(v any, fn func(key string, elem any) bool) {
	m, ok := asMap(v)
	if !ok {
		return
	}
	for _, key := range sortedKeys(m) {
		if !fn(key, m[key]) {
			return
		}
	}
}
