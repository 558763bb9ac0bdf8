package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"reflect"
	"strings"
)

const (
	// ContentTypeJSON is sent for bodies without binary content.
	ContentTypeJSON = "application/json;charset=utf-8"

	defaultFileName    = "blob"
	defaultContentType = "application/octet-stream"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Encode serializes body and sets the matching Content-Type on header. Bodies
// holding binary content anywhere are encoded as multipart/form-data, all
// others as a single JSON document. Readers found in body are consumed.
func Encode(body any, header http.Header) (io.Reader, error) {
	if ContainsBinary(body) {
		return encodeMultipart(body, header)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		return nil, fmt.Errorf("failed to encode JSON body: %w", err)
	}
	header.Set("Content-Type", ContentTypeJSON)
	return bytes.NewReader(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

func encodeMultipart(body any, header http.Header) (io.Reader, error) {
	fields, err := FormFields(body)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, field := range fields {
		if !field.IsBinary() {
			if err := writer.WriteField(field.Key, field.Value); err != nil {
				return nil, fmt.Errorf("failed to write form field %s: %w", field.Key, err)
			}
			continue
		}
		if err := writeFilePart(writer, field); err != nil {
			return nil, fmt.Errorf("failed to write form file %s: %w", field.Key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	header.Set("Content-Type", writer.FormDataContentType())
	return &buf, nil
}

func writeFilePart(writer *multipart.Writer, field Field) error {
	name, contentType, content := describeBinary(field.Key, field.Binary)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(field.Key), quoteEscaper.Replace(name)))
	h.Set("Content-Type", contentType)

	part, err := writer.CreatePart(h)
	if err != nil {
		return err
	}

	switch c := content.(type) {
	case []byte:
		_, err = part.Write(c)
	case io.Reader:
		_, err = io.Copy(part, c)
	}
	return err
}

// describeBinary resolves the file name, content type and content of a binary
// value. Readers exposing a Name method (such as *os.File) lend their base
// name to the part; anything else is named after the last segment of key.
func describeBinary(key string, v any) (string, string, any) {
	name, contentType := keyFileName(key), defaultContentType

	var content any = v
	switch b := v.(type) {
	case File:
		return describeFile(key, &b)
	case *File:
		return describeFile(key, b)
	case interface{ Name() string }:
		if n := b.Name(); n != "" {
			name = filepath.Base(n)
		}
	case []byte:
	default:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice {
			content = rv.Bytes()
		}
	}
	return name, contentType, content
}

func describeFile(key string, f *File) (string, string, any) {
	name, contentType := f.Name, f.ContentType
	if name == "" {
		name = keyFileName(key)
	}
	if contentType == "" {
		contentType = defaultContentType
	}
	if f.Reader == nil {
		return name, contentType, []byte(nil)
	}
	return name, contentType, f.Reader
}

// keyFileName returns the last bracketed segment of a form key, so
// "candidate[cv]" yields "cv" and "attachments[]" yields "attachments".
func keyFileName(key string) string {
	segments := strings.FieldsFunc(key, func(r rune) bool { return r == '[' || r == ']' })
	if len(segments) == 0 {
		return defaultFileName
	}
	return segments[len(segments)-1]
}
