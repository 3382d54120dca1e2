// Package config handles application settings: loading from the YAML config
// file and environment variables, validation, and persistence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/gitjrnl/gitjrnl/internal/apperrors"
)

const (
	// envPrefix is the prefix for environment variable overrides.
	envPrefix = "GITJRNL_"

	// DefaultPathTemplate is the journal path rule used when none is configured.
	DefaultPathTemplate = "log/YYYY/MM/DD.md"

	configDirName  = "gitjrnl"
	configFileName = "config.yml"
	indexFileName  = "index.db"

	configFileMode = 0o600
	configDirMode  = 0o700

	repositoryParts = 2 // "owner/name"
)

// Settings holds everything needed to talk to the configured repository.
type Settings struct {
	// Token is the API token, passed as an opaque bearer credential.
	Token string `koanf:"token" yaml:"token"`
	// Repository is the repository identifier in "owner/name" form.
	Repository string `koanf:"repository" yaml:"repository"`
	// PathTemplate is the journal path rule with YYYY/MM/DD placeholders.
	PathTemplate string `koanf:"path_template" yaml:"path_template"`
	// IndexPath is the local search index database path (optional).
	IndexPath string `koanf:"index_path" yaml:"index_path,omitempty"`
}

// IsConfigured reports whether token, repository and path template are all set.
func (s *Settings) IsConfigured() bool {
	return s.Token != "" && s.Repository != "" && s.PathTemplate != ""
}

// SplitRepository splits the repository identifier into owner and name.
// It fails before any network call is made when the format is wrong.
func (s *Settings) SplitRepository() (string, string, error) {
	parts := strings.Split(s.Repository, "/")
	if len(parts) != repositoryParts || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", apperrors.ErrInvalidRepository, s.Repository)
	}
	return parts[0], parts[1], nil
}

// Validate checks the settings are complete and well-formed.
func (s *Settings) Validate() error {
	if !s.IsConfigured() {
		return apperrors.ErrNotConfigured
	}
	if _, _, err := s.SplitRepository(); err != nil {
		return err
	}
	for _, placeholder := range []string{"YYYY", "MM", "DD"} {
		if !strings.Contains(s.PathTemplate, placeholder) {
			return fmt.Errorf("%w: missing %s in %q",
				apperrors.ErrInvalidPathTemplate, placeholder, s.PathTemplate)
		}
	}
	return nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, configDirName, configFileName), nil
}

// DefaultIndexPath returns the default local index database location.
func DefaultIndexPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(dir, configDirName, indexFileName), nil
}

// Load reads settings from the config file (if it exists), then applies
// GITJRNL_* environment variable overrides.
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	settings := &Settings{PathTemplate: DefaultPathTemplate}
	if err := k.Unmarshal("", settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	if settings.PathTemplate == "" {
		settings.PathTemplate = DefaultPathTemplate
	}

	return settings, nil
}

// Save writes settings to the config file, creating the directory if needed.
// The file is written with owner-only permissions since it holds the token.
func Save(path string, settings *Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), configDirMode); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, configFileMode); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}
