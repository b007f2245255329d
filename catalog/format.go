package catalog

import (
	"fmt"
	"strings"
)

// Format is the on-disk encoding of every spec in the catalog.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name. "yml" is accepted as yaml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	return string(f)
}

// FileSuffix is the filename suffix shared by every spec of this format.
func (f Format) FileSuffix() string {
	return "-swagger." + f.Ext()
}

// DefaultDir returns the conventional directory for the format, e.g. "swagger-json".
func (f Format) DefaultDir() string {
	return "swagger-" + f.Ext()
}
