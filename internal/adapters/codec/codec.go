// internal/adapters/codec/codec.go
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

var (
	ErrUnsupportedFormat = errors.New("codec: unsupported format")
	ErrTrailingData      = errors.New("codec: trailing data after document")
)

// ParseFormat accepts json, yaml or yml (any case). Empty means json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// DetectFormat picks a format from the file extension, defaulting to JSON.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

// Extensions lists the file extensions the codec understands.
func Extensions() []string { return []string{".json", ".yaml", ".yml"} }

// Codec implements domain.Decoder.
type Codec struct{}

func New() *Codec { return &Codec{} }

func (c *Codec) Decode(format string, body []byte) (any, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	switch f {
	case YAML:
		return decodeYAML(body)
	default:
		return decodeJSON(body)
	}
}

func (c *Codec) FormatOf(name string) string { return string(DetectFormat(name)) }

// decodeJSON keeps numbers as json.Number so integer codes survive untouched.
func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ErrTrailingData
	}
	return v, nil
}

func decodeYAML(body []byte) (any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(body))
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml: empty document")
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}
	return v, nil
}
