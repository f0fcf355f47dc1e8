// Package scaffold writes a starter easel.yml for easeld.
package scaffold

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/easel/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// Template returns the starter configuration.
func Template() ([]byte, error) {
	data, err := templatesFS.ReadFile("templates/easel.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read easel.yml template: %w", err)
	}
	return data, nil
}

// Initialize writes the starter configuration into dir and returns its path.
// An existing easel.yml is only replaced when force is set.
func Initialize(dir string, force bool) (string, error) {
	path := filepath.Join(dir, config.DefaultPath)

	if !force {
		if err := CheckExisting(path); err != nil {
			return "", err
		}
	}

	content, err := Template()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	// Validate the written file the way easeld will read it
	if _, err := config.Load(path); err != nil {
		return "", fmt.Errorf("created %s is not a valid configuration: %w", path, err)
	}

	return path, nil
}
