package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gitjrnl/gitjrnl/internal/apperrors"
)

func TestSplitRepository(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		repository string
		wantOwner  string
		wantRepo   string
		wantErr    bool
	}{
		{"valid", "alice/notes", "alice", "notes", false},
		{"no separator", "badformat", "", "", true},
		{"empty owner", "/notes", "", "", true},
		{"empty name", "alice/", "", "", true},
		{"too many segments", "alice/notes/extra", "", "", true},
		{"empty", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			settings := &Settings{Repository: tt.repository}
			owner, repo, err := settings.SplitRepository()
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrInvalidRepository) {
					t.Errorf("error = %v, want ErrInvalidRepository", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitRepository failed: %v", err)
			}
			if owner != tt.wantOwner || repo != tt.wantRepo {
				t.Errorf("got (%q, %q), want (%q, %q)", owner, repo, tt.wantOwner, tt.wantRepo)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		settings Settings
		wantErr  error
	}{
		{
			name:     "valid",
			settings: Settings{Token: "t", Repository: "alice/notes", PathTemplate: "log/YYYY/MM/DD.md"},
		},
		{
			name:     "missing token",
			settings: Settings{Repository: "alice/notes", PathTemplate: "log/YYYY/MM/DD.md"},
			wantErr:  apperrors.ErrNotConfigured,
		},
		{
			name:     "bad repository",
			settings: Settings{Token: "t", Repository: "badformat", PathTemplate: "log/YYYY/MM/DD.md"},
			wantErr:  apperrors.ErrInvalidRepository,
		},
		{
			name:     "template missing day placeholder",
			settings: Settings{Token: "t", Repository: "alice/notes", PathTemplate: "log/YYYY/MM.md"},
			wantErr:  apperrors.ErrInvalidPathTemplate,
		},
		{
			name:     "template missing all placeholders",
			settings: Settings{Token: "t", Repository: "alice/notes", PathTemplate: "log/daily.md"},
			wantErr:  apperrors.ErrInvalidPathTemplate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.settings.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate failed: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	original := &Settings{
		Token:        "secret-token",
		Repository:   "alice/notes",
		PathTemplate: "journal/YYYY/MM/DD.md",
		IndexPath:    "/tmp/index.db",
	}

	if err := Save(path, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config file mode = %v, want 0600 (token inside)", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *loaded != *original {
		t.Errorf("loaded = %+v, want %+v", loaded, original)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yml")

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.PathTemplate != DefaultPathTemplate {
		t.Errorf("path template = %q, want default %q", settings.PathTemplate, DefaultPathTemplate)
	}
	if settings.IsConfigured() {
		t.Error("empty settings must not be configured")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := Save(path, &Settings{Token: "file-token", Repository: "alice/notes"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("GITJRNL_TOKEN", "env-token")
	t.Setenv("GITJRNL_PATH_TEMPLATE", "notes/YYYY-MM-DD.md")

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.Token != "env-token" {
		t.Errorf("token = %q, want env override", settings.Token)
	}
	if settings.Repository != "alice/notes" {
		t.Errorf("repository = %q, want file value kept", settings.Repository)
	}
	if settings.PathTemplate != "notes/YYYY-MM-DD.md" {
		t.Errorf("path template = %q, want env override", settings.PathTemplate)
	}
}

func TestIsConfigured(t *testing.T) {
	t.Parallel()

	complete := Settings{Token: "t", Repository: "a/b", PathTemplate: "YYYY/MM/DD"}
	if !complete.IsConfigured() {
		t.Error("complete settings must be configured")
	}

	partials := []Settings{
		{Repository: "a/b", PathTemplate: "YYYY/MM/DD"},
		{Token: "t", PathTemplate: "YYYY/MM/DD"},
		{Token: "t", Repository: "a/b"},
	}
	for _, partial := range partials {
		if partial.IsConfigured() {
			t.Errorf("partial settings %+v must not be configured", partial)
		}
	}
}
