package payload

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Title string `json:"title"`
	Years int    `json:"years"`
}

func TestKindOf(t *testing.T) {
	var nilBuffer *bytes.Buffer
	var nilMap map[string]any

	tests := []struct {
		name  string
		value any
		want  Kind
	}{
		{"nil", nil, KindNull},
		{"nil pointer reader", nilBuffer, KindNull},
		{"nil map", nilMap, KindNull},
		{"string", "foo", KindScalar},
		{"int", 42, KindScalar},
		{"float", 1.5, KindScalar},
		{"bool", true, KindScalar},
		{"time", time.Unix(0, 0), KindScalar},
		{"json number", json.Number("12"), KindScalar},
		{"raw json", json.RawMessage(`{"a":1}`), KindScalar},
		{"bytes", []byte("abc"), KindBinary},
		{"reader", strings.NewReader("abc"), KindBinary},
		{"file", File{Name: "cv.pdf"}, KindBinary},
		{"file pointer", &File{Name: "cv.pdf"}, KindBinary},
		{"any slice", []any{1, "a"}, KindSequence},
		{"int slice", []int{1, 2}, KindSequence},
		{"array", [2]string{"a", "b"}, KindSequence},
		{"map", map[string]any{"a": 1}, KindMapping},
		{"string map", map[string]string{"a": "b"}, KindMapping},
		{"int keyed map", map[int]string{1: "a"}, KindScalar},
		{"struct", profile{Title: "x"}, KindMapping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.value))
		})
	}
}

func TestContainsBinary(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"scalar", "foo", false},
		{"null", nil, false},
		{"flat map", map[string]any{"name": "Foo", "age": 3}, false},
		{"nested without binary", map[string]any{"a": []any{1, map[string]any{"b": nil}}}, false},
		{"top level bytes", []byte("x"), true},
		{"binary in map", map[string]any{"cv": strings.NewReader("pdf")}, true},
		{"binary in slice", []any{"a", []byte("x")}, true},
		{"deeply nested", map[string]any{"a": map[string]any{"b": []any{map[string]any{"c": File{}}}}}, true},
		{"struct is opaque", profile{Title: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsBinary(tt.value))
		})
	}
}

func TestFlattenDerivesBracketedKeys(t *testing.T) {
	cv := []byte("%PDF")
	fields := Flatten("candidate", map[string]any{
		"name":    "Foo",
		"emails":  []any{"a@example.com", "b@example.com"},
		"sources": []string{"web"},
		"social":  map[string]any{"links": []any{map[string]any{"url": "https://x"}}},
		"phone":   nil,
		"cv":      cv,
		"rating":  4.5,
		"hired":   false,
	})

	var keys []string
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{
		"candidate[cv]",
		"candidate[emails][]",
		"candidate[emails][]",
		"candidate[hired]",
		"candidate[name]",
		"candidate[rating]",
		"candidate[social][links][][url]",
		"candidate[sources][]",
	}, keys)

	assert.True(t, fields[0].IsBinary())
	assert.Equal(t, cv, fields[0].Binary)
	assert.Equal(t, "a@example.com", fields[1].Value)
	assert.Equal(t, "b@example.com", fields[2].Value)
	assert.Equal(t, "false", fields[3].Value)
	assert.Equal(t, "Foo", fields[4].Value)
	assert.Equal(t, "4.5", fields[5].Value)
}

func TestFlattenOmitsNullLeaves(t *testing.T) {
	var missing *string
	fields := Flatten("offer", map[string]any{
		"title":  nil,
		"salary": missing,
		"tags":   []any{nil, "remote"},
	})

	require.Len(t, fields, 1)
	assert.Equal(t, "offer[tags][]", fields[0].Key)
	assert.Equal(t, "remote", fields[0].Value)
}

func TestFlattenBinaryStopsDescent(t *testing.T) {
	f := &File{Name: "cv.pdf", Reader: strings.NewReader("pdf")}
	fields := Flatten("cv", f)

	require.Len(t, fields, 1)
	assert.Equal(t, "cv", fields[0].Key)
	assert.Same(t, f, fields[0].Binary)
}

func TestFlattenStruct(t *testing.T) {
	fields := Flatten("profile", profile{Title: "Engineer", Years: 7})

	require.Len(t, fields, 2)
	assert.Equal(t, Field{Key: "profile[title]", Value: "Engineer"}, fields[0])
	assert.Equal(t, Field{Key: "profile[years]", Value: "7"}, fields[1])
}

func TestFormFields(t *testing.T) {
	t.Run("mapping", func(t *testing.T) {
		fields, err := FormFields(map[string]any{"b": 2, "a": 1})
		require.NoError(t, err)
		assert.Equal(t, []Field{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}, fields)
	})

	t.Run("sequence", func(t *testing.T) {
		fields, err := FormFields([]any{"x", []byte("y")})
		require.NoError(t, err)
		require.Len(t, fields, 2)
		assert.Equal(t, "0", fields[0].Key)
		assert.Equal(t, "1", fields[1].Key)
		assert.True(t, fields[1].IsBinary())
	})

	t.Run("binary body", func(t *testing.T) {
		_, err := FormFields([]byte("raw"))
		assert.ErrorIs(t, err, ErrUnsupportedBody)
	})
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "foo", Stringify("foo"))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "-12", Stringify(int64(-12)))
	assert.Equal(t, "7", Stringify(uint8(7)))
	assert.Equal(t, "0.1", Stringify(0.1))
	assert.Equal(t, "100000000", Stringify(1e8))
	assert.Equal(t, "123", Stringify(json.Number("123")))
	assert.Equal(t, "1970-01-01T00:00:00Z", Stringify(time.Unix(0, 0).UTC()))
	assert.Equal(t, "stage:hired", Stringify(stageRef{Name: "hired"}))
	assert.Equal(t, "stage:hired", Stringify(&stageRef{Name: "hired"}))
}

type stageRef struct {
	Name string
}

func (s *stageRef) MarshalText() ([]byte, error) {
	return []byte("stage:" + s.Name), nil
}

func TestEncodeJSONKeepsHTMLCharacters(t *testing.T) {
	header := http.Header{}
	r, err := Encode(map[string]any{"note": "a<b & c"}, header)
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, `{"note":"a<b & c"}`, string(got))
}

func TestEncodeJSON(t *testing.T) {
	body := map[string]any{
		"candidate": map[string]any{"name": "Foo", "tags": []any{"a", nil}},
		"offers":    []int{1, 2, 3},
	}
	header := http.Header{}

	r, err := Encode(body, header)
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	want, err := json.Marshal(body)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, "application/json;charset=utf-8", header.Get("Content-Type"))
}

func TestEncodeMultipart(t *testing.T) {
	body := map[string]any{
		"candidate": map[string]any{
			"name":   "Foo",
			"emails": []any{"foo@example.com"},
			"phone":  nil,
			"cv":     File{Name: "cv.pdf", ContentType: "application/pdf", Reader: strings.NewReader("%PDF-1.4")},
			"photo":  []byte{0x89, 0x50},
		},
		"offers": []any{1, 2},
	}
	header := http.Header{}

	r, err := Encode(body, header)
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	form, err := multipart.NewReader(r, params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)

	assert.Equal(t, []string{"Foo"}, form.Value["candidate[name]"])
	assert.Equal(t, []string{"foo@example.com"}, form.Value["candidate[emails][]"])
	assert.Equal(t, []string{"1", "2"}, form.Value["offers[]"])
	assert.NotContains(t, form.Value, "candidate[phone]")

	require.Len(t, form.File["candidate[cv]"], 1)
	cv := form.File["candidate[cv]"][0]
	assert.Equal(t, "cv.pdf", cv.Filename)
	assert.Equal(t, "application/pdf", cv.Header.Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4", readFileHeader(t, cv))

	require.Len(t, form.File["candidate[photo]"], 1)
	photo := form.File["candidate[photo]"][0]
	assert.Equal(t, "photo", photo.Filename)
	assert.Equal(t, "application/octet-stream", photo.Header.Get("Content-Type"))
	assert.Equal(t, string([]byte{0x89, 0x50}), readFileHeader(t, photo))
}

func TestEncodeMultipartUsesOSFileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	header := http.Header{}
	r, err := Encode(map[string]any{"attachment": f}, header)
	require.NoError(t, err)

	_, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	require.NoError(t, err)
	form, err := multipart.NewReader(r, params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)

	require.Len(t, form.File["attachment"], 1)
	assert.Equal(t, "resume.txt", form.File["attachment"][0].Filename)
	assert.Equal(t, "hello", readFileHeader(t, form.File["attachment"][0]))
}

func TestEncodeMultipartNamesBlobsAfterKey(t *testing.T) {
	body := map[string]any{
		"candidate": map[string]any{
			"cv":      []byte("%PDF-1.4"),
			"cover":   File{Reader: strings.NewReader("hi")},
			"letters": []any{bytes.NewReader([]byte("x"))},
		},
	}
	header := http.Header{}

	r, err := Encode(body, header)
	require.NoError(t, err)

	_, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	require.NoError(t, err)
	form, err := multipart.NewReader(r, params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)

	tests := map[string]string{
		"candidate[cv]":        "cv",
		"candidate[cover]":     "cover",
		"candidate[letters][]": "letters",
	}
	for key, want := range tests {
		require.Len(t, form.File[key], 1, key)
		assert.Equal(t, want, form.File[key][0].Filename, key)
	}
}

func TestKeyFileName(t *testing.T) {
	assert.Equal(t, "cv", keyFileName("candidate[cv]"))
	assert.Equal(t, "files", keyFileName("files[]"))
	assert.Equal(t, "attachment", keyFileName("attachment"))
	assert.Equal(t, "blob", keyFileName(""))
}

func readFileHeader(t *testing.T, fh *multipart.FileHeader) string {
	t.Helper()
	f, err := fh.Open()
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return string(data)
}
