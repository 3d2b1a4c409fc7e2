package taskspec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a task manifest from the given file path.
//
// The file format is determined by extension: .yaml/.yml for YAML, .json
// for JSON. If the extension is unrecognized, YAML is attempted first,
// then JSON.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("task manifest not found: %s", path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied reading task manifest: %s", path)
		}
		return nil, fmt.Errorf("failed to read task manifest: %w", err)
	}
	return LoadFromBytes(data, path)
}

// LoadFromBytes parses and validates a manifest from raw bytes.
//
// The path parameter is used for error messages and format detection.
func LoadFromBytes(data []byte, path string) (*Spec, error) {
	if len(data) == 0 {
		return nil, errors.New("task manifest is empty")
	}

	spec, err := parseSpec(data, path)
	if err != nil {
		return nil, err
	}

	spec.ApplyDefaults()

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task manifest: %w", err)
	}
	return spec, nil
}

// LoadFromReader reads and validates a manifest from an io.Reader.
func LoadFromReader(r io.Reader, path string) (*Spec, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read task manifest: %w", err)
	}
	return LoadFromBytes(data, path)
}

// parseSpec parses the manifest data based on file extension.
func parseSpec(data []byte, path string) (*Spec, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".json":
		return parseJSON(data)
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		// Unknown extension: try YAML first (more permissive), then JSON.
		spec, yamlErr := parseYAML(data)
		if yamlErr == nil {
			return spec, nil
		}
		spec, jsonErr := parseJSON(data)
		if jsonErr == nil {
			return spec, nil
		}
		return nil, fmt.Errorf("failed to parse task manifest (tried YAML and JSON): %w", yamlErr)
	}
}

func parseJSON(data []byte) (*Spec, error) {
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("invalid JSON in task manifest: %w", err)
	}
	return &spec, nil
}

func parseYAML(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("invalid YAML in task manifest: %w", err)
	}
	return &spec, nil
}
