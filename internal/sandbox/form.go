package sandbox

import (
	"mime/multipart"
	"strings"
)

// splitKey breaks a bracketed form key such as "candidate[tags][]" into its
// segments: "candidate", "tags", "".
func splitKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return []string{key}
	}
	segments := []string{key[:open]}
	rest := key[open:]
	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			// Unbalanced bracket, keep the remainder verbatim.
			segments[len(segments)-1] += rest
			return segments
		}
		segments = append(segments, rest[1:end])
		rest = rest[end+1:]
	}
	if rest != "" {
		segments[len(segments)-1] += rest
	}
	return segments
}

// assign stores value at the path given by segments. An empty segment in
// last position appends to a list.
func assign(target map[string]any, segments []string, value any) {
	key := segments[0]
	if len(segments) == 1 {
		target[key] = value
		return
	}

	if len(segments) == 2 && segments[1] == "" {
		list, _ := target[key].([]any)
		target[key] = append(list, value)
		return
	}

	child, ok := target[key].(map[string]any)
	if !ok {
		child = make(map[string]any)
		target[key] = child
	}
	assign(child, segments[1:], value)
}

// unflattenForm rebuilds the nested body a client flattened into bracketed
// multipart keys. File parts are replaced by a description of the upload.
func unflattenForm(form *multipart.Form) map[string]any {
	body := make(map[string]any)
	if form == nil {
		return body
	}
	for key, values := range form.Value {
		segments := splitKey(key)
		for _, v := range values {
			assign(body, segments, v)
		}
	}
	for key, files := range form.File {
		segments := splitKey(key)
		for _, fh := range files {
			assign(body, segments, map[string]any{
				"filename":     fh.Filename,
				"size":         fh.Size,
				"content_type": fh.Header.Get("Content-Type"),
			})
		}
	}
	return body
}
