package parametric

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// OverrideFile loads a parameter file and applies it as one override call.
// Format is detected from the extension, falling back to content sniffing.
// A missing file is a no-op: parameter files are optional overlays, and an
// empty file is an empty mapping, not an error.
func (in *Instance) OverrideFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading parameter file %q: %w", path, err)
	}

	format := detectFileFormat(path)
	if format == "" {
		format = detectFormatFromContent(data)
	}
	if format == "" {
		return fmt.Errorf("cannot determine parameter file format for %q", path)
	}

	m, err := unmarshalFormat(data, format)
	if err != nil {
		return fmt.Errorf("parsing parameter file %q: %w", path, err)
	}
	return in.OverrideMap(m)
}

// OverrideYAMLFile applies a YAML parameter file.
func (in *Instance) OverrideYAMLFile(path string) error {
	return in.overrideTypedFile(path, "yaml")
}

// OverrideTOMLFile applies a TOML parameter file.
func (in *Instance) OverrideTOMLFile(path string) error {
	return in.overrideTypedFile(path, "toml")
}

// OverrideJSONFile applies a JSON parameter file.
func (in *Instance) OverrideJSONFile(path string) error {
	return in.overrideTypedFile(path, "json")
}

func (in *Instance) overrideTypedFile(path, format string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading parameter file %q: %w", path, err)
	}
	m, err := unmarshalFormat(data, format)
	if err != nil {
		return fmt.Errorf("parsing parameter file %q: %w", path, err)
	}
	return in.OverrideMap(m)
}

func unmarshalFormat(data []byte, format string) (map[string]any, error) {
	m := make(map[string]any)
	if len(bytes.TrimSpace(data)) == 0 {
		return m, nil
	}
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
	case "toml":
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
	case "json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber() // preserve number precision
		if err := decoder.Decode(&m); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return m, nil
}

// SaveYAML writes the full dump to a YAML file atomically.
func (in *Instance) SaveYAML(path string) error {
	data, err := yaml.Marshal(in.Dump())
	if err != nil {
		return fmt.Errorf("marshaling parameters to YAML: %w", err)
	}
	return atomicWriteFile(path, data)
}

// SaveTOML writes the full dump to a TOML file atomically. Nil values are
// omitted; TOML has no null.
func (in *Instance) SaveTOML(path string) error {
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(pruneNil(in.Dump())); err != nil {
		return fmt.Errorf("marshaling parameters to TOML: %w", err)
	}
	return atomicWriteFile(path, buf.Bytes())
}

// SaveJSON writes the full dump to a JSON file atomically.
func (in *Instance) SaveJSON(path string) error {
	data, err := json.MarshalIndent(in.Dump(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling parameters to JSON: %w", err)
	}
	return atomicWriteFile(path, append(data, '\n'))
}

// atomicWriteFile writes data via a temp file and rename so readers never
// observe a partial file.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// detectFileFormat determines format from file extension.
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	default:
		return ""
	}
}

// detectFormatFromContent attempts detection by parsing. JSON first (the
// strictest), then YAML (a superset of JSON), then TOML.
func detectFormatFromContent(data []byte) string {
	var jsonTest any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return "json"
	}

	var yamlTest any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return "yaml"
	}

	var tomlTest any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return "toml"
	}

	return ""
}
