package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Document is a parsed spec. It is JSON-compatible: nested objects are
// map[string]any and arrays are []any.
type Document map[string]any

// Title returns info.title, or "" if absent.
func (d Document) Title() string {
	return d.infoString("title")
}

// Description returns info.description, or "" if absent.
func (d Document) Description() string {
	return d.infoString("description")
}

// Version returns info.version, or "" if absent.
func (d Document) Version() string {
	return d.infoString("version")
}

func (d Document) infoString(key string) string {
	info, ok := d["info"].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := info[key].(string)
	return s
}

var errNotObject = errors.New("document root is not an object")

// Decode parses raw spec bytes in the given format.
// JSON input may contain comments and trailing commas.
func Decode(data []byte, format Format) (Document, error) {
	var raw any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
		raw = normalize(raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	root, ok := raw.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return Document(root), nil
}

// normalize converts YAML mappings with non-string keys into map[string]any
// so the document can be marshaled as JSON for the UI.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	default:
		return v
	}
}
