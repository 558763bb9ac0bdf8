package sandbox

import (
	"bytes"
	"mime/multipart"
	"reflect"
	"testing"
)

func TestSplitKey(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{"name", []string{"name"}},
		{"candidate[name]", []string{"candidate", "name"}},
		{"offers[]", []string{"offers", ""}},
		{"candidate[tags][]", []string{"candidate", "tags", ""}},
		{"a[b][c]", []string{"a", "b", "c"}},
		{"broken[key", []string{"broken[key"}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := splitKey(tt.key); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestUnflattenForm(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("candidate[name]", "Foo")
	w.WriteField("candidate[tags][]", "go")
	w.WriteField("candidate[tags][]", "rust")
	w.WriteField("offers[]", "1")
	part, err := w.CreateFormFile("candidate[cv]", "cv.pdf")
	if err != nil {
		t.Fatalf("failed to create file part: %v", err)
	}
	part.Write([]byte("%PDF"))
	w.Close()

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("failed to read form: %v", err)
	}

	body := unflattenForm(form)

	candidate, ok := body["candidate"].(map[string]any)
	if !ok {
		t.Fatalf("expected candidate mapping, got %#v", body["candidate"])
	}
	if candidate["name"] != "Foo" {
		t.Errorf("expected name 'Foo', got %v", candidate["name"])
	}
	if !reflect.DeepEqual(candidate["tags"], []any{"go", "rust"}) {
		t.Errorf("expected tags [go rust], got %v", candidate["tags"])
	}
	if !reflect.DeepEqual(body["offers"], []any{"1"}) {
		t.Errorf("expected offers [1], got %v", body["offers"])
	}
	cv, ok := candidate["cv"].(map[string]any)
	if !ok {
		t.Fatalf("expected cv description, got %#v", candidate["cv"])
	}
	if cv["filename"] != "cv.pdf" || cv["size"] != int64(4) {
		t.Errorf("unexpected cv description %v", cv)
	}
}

func TestUnflattenFormNil(t *testing.T) {
	if body := unflattenForm(nil); len(body) != 0 {
		t.Errorf("expected empty body, got %v", body)
	}
}
