package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config with yaml tags for writing a starter file.
type fileConfig struct {
	ListenAddr   string `yaml:"listen_addr"`
	ProjectsFile string `yaml:"projects_file"`
	AuditDB      string `yaml:"audit_db"`
	GitCommit    bool   `yaml:"git_commit"`
	Downstream   struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"downstream"`
	Elasticsearch struct {
		URL string `yaml:"url"`
	} `yaml:"elasticsearch"`
}

// WriteDefault writes a config file populated with the built-in defaults.
// It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	d := Defaults()
	var fc fileConfig
	fc.ListenAddr = d.ListenAddr
	fc.ProjectsFile = d.ProjectsFile
	fc.AuditDB = d.AuditDB
	fc.GitCommit = d.GitCommit
	fc.Downstream.URL = d.Downstream.URL
	fc.Downstream.Timeout = d.Downstream.Timeout.String()
	fc.Elasticsearch.URL = d.Elasticsearch.URL

	data, err := yaml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
