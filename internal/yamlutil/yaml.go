// Package yamlutil wraps goccy/go-yaml for configuration, front matter and
// shared data files. JSON input goes through the same decoder since JSON is
// a subset of YAML.
package yamlutil

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize caps every decoded document, in bytes.
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
	ErrNotMapping     = errors.New("yamlutil: document is not a mapping")
)

func Unmarshal(data []byte, v any) error {
	return decode(data, v)
}

// UnmarshalStrict rejects keys that have no matching field in v.
func UnmarshalStrict(data []byte, v any) error {
	return decode(data, v, yaml.Strict())
}

func decode(data []byte, v any, opts ...yaml.DecodeOption) error {
	switch {
	case len(data) == 0:
		return ErrNilData
	case v == nil:
		return ErrNilDestination
	}
	if err := checkSize(data); err != nil {
		return err
	}
	return wrap(yaml.UnmarshalWithOptions(data, v, opts...))
}

// UnmarshalMap decodes a top-level mapping into a generic map. Non-string
// keys (authors.yml uses numeric ids) are stringified by the decoder.
// Empty or null documents yield an empty map.
func UnmarshalMap(data []byte) (map[string]any, error) {
	if err := checkSize(data); err != nil {
		return nil, err
	}
	var doc any
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, wrap(err)
		}
	}
	switch m := doc.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return m, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotMapping, doc)
	}
}

func Marshal(v any) ([]byte, error) {
	out, err := yaml.Marshal(v)
	return out, wrap(err)
}

// MarshalJSON encodes v in JSON style using the yaml struct tags.
func MarshalJSON(v any) ([]byte, error) {
	out, err := yaml.MarshalWithOptions(v, yaml.JSON())
	return out, wrap(err)
}

func checkSize(data []byte) error {
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	return nil
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("yamlutil: %w", err)
}
