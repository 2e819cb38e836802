// Package dataset decodes trajectory datasets from JSON or YAML.
package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"trajview/internal/domain"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrUnknownFormat = errors.New("unknown dataset format")

// Dataset is a decoded batch of routes. Fingerprint is the hex SHA-256 of
// the source bytes.
type Dataset struct {
	Source      string
	Fingerprint string
	Routes      []domain.RawRoute
}

// ParseFormat maps a format name or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Decode reads a list of routes in the given format.
func Decode(r io.Reader, format Format) ([]domain.RawRoute, error) {
	var routes []domain.RawRoute
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&routes); err != nil {
			return nil, fmt.Errorf("decode json dataset: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&routes); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, fmt.Errorf("decode yaml dataset: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return routes, nil
}

// Parse decodes data and fingerprints it.
func Parse(source string, data []byte, format Format) (*Dataset, error) {
	routes, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		Source:      source,
		Fingerprint: Fingerprint(data),
		Routes:      routes,
	}, nil
}

// ReadFile loads a dataset from disk, picking the format from the extension.
func ReadFile(path string) (*Dataset, error) {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return Parse(path, data, format)
}

func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
