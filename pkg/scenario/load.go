package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for content files that are neither YAML nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported scenario format")

// Load reads a scenario file. The format is picked from the extension:
// .yaml and .yml are YAML, .json is JSON.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := Parse(data, filepath.Ext(path), false)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if s.FileName == "" {
		s.FileName = filepath.Base(path)
	}
	return s, nil
}

// Parse decodes scenario content. In strict mode unknown fields are errors.
func Parse(data []byte, ext string, strict bool) (*Scenario, error) {
	var s Scenario
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(strict)
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		if strict {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return &s, nil
}

// IsScenarioFile reports whether the file name has a supported extension.
func IsScenarioFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
