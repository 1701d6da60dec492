package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest describes one import run: which exported files to ingest and
// which account tag each one belongs to.
type Manifest struct {
	Statements []Statement `yaml:"statements"`
}

// Statement is a single export file to be processed.
type Statement struct {
	// Source selects the parser: "ing", "nab" or "paypal".
	Source string `yaml:"source"`
	// FilePath points at the CSV export. ~ is expanded.
	FilePath string `yaml:"file"`
	// Account overrides the default account tag for the source. This is how
	// two NAB accounts in the same household stay separate.
	Account string `yaml:"account"`
}

// File returns the absolute path to the statement file, expanding ~.
func (s *Statement) File() (string, error) {
	if strings.HasPrefix(s.FilePath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, s.FilePath[2:]), nil
	}
	return s.FilePath, nil
}

// LoadManifest reads a manifest from a YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if len(m.Statements) == 0 {
		return nil, fmt.Errorf("manifest has no statements")
	}
	return &m, nil
}
