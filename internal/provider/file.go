// Package provider swaps the audio driver served by a locator while the
// program runs, driven by a small YAML provider file.
//
// The file names a single driver:
//
//	driver: mp3
//
// A [Watcher] watches the file and re-registers the locator whenever the file
// changes. Files that fail to parse or name an unknown driver are reported
// and ignored; the locator keeps serving its current value.
package provider

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/servloc/internal/audio"
	"github.com/Iron-Ham/servloc/internal/errors"
)

// File is the decoded provider file.
type File struct {
	Driver string `yaml:"driver"`
}

// Parse decodes and validates provider file contents against registry.
// Unknown keys are rejected so that typos do not silently keep the old driver.
func Parse(data []byte, registry *audio.Registry) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, errors.NewValidationError("malformed provider file").WithCause(err)
	}

	f.Driver = strings.TrimSpace(f.Driver)
	if f.Driver == "" {
		return File{}, errors.NewValidationError("provider file names no driver").WithField("driver")
	}
	if _, ok := registry.Lookup(f.Driver); !ok {
		return File{}, errors.NewValidationError("unsupported audio driver").
			WithField("driver").
			WithValue(f.Driver).
			WithCause(errors.ErrUnknownDriver)
	}
	return f, nil
}

// Load reads and parses the provider file at path.
func Load(path string, registry *audio.Registry) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read provider file: %w", err)
	}
	f, err := Parse(data, registry)
	if err != nil {
		return File{}, errors.Wrapf(err, "provider file %s", path)
	}
	return f, nil
}

// Save writes f to path, creating parent directories as needed.
func Save(path string, f File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode provider file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create provider directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write provider file: %w", err)
	}
	return nil
}
