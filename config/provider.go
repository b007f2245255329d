package config

import "errors"

// ErrReadBytesNotSupported is returned when ReadBytes is called on a map provider.
var ErrReadBytesNotSupported = errors.New("config: map provider does not support ReadBytes")

// mapProvider feeds a nested map into koanf. It carries defaults,
// legacy variables and overrides.
type mapProvider map[string]any

// ReadBytes is not supported; koanf uses Read for map sources.
func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

// Read returns the map.
func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}
