package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/orizon-lang/orizon-verify/internal/cli"
	errs "github.com/orizon-lang/orizon-verify/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default options invalid: %v", err)
	}
	if Default().Level() != cli.LevelWarn {
		t.Error("default log level should be warn")
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		check   func(t *testing.T, o Options)
	}{
		{
			name:    "yaml keeps defaults",
			file:    "verify.yaml",
			content: "auto_triggers: false\nmax_trigger_terms: 4\n",
			check: func(t *testing.T, o Options) {
				if o.AutoTriggers || o.MaxTriggerTerms != 4 {
					t.Errorf("fields not decoded: %+v", o)
				}
				if !o.EmitPrelude || o.PreludeConstraint != Default().PreludeConstraint {
					t.Errorf("defaults lost: %+v", o)
				}
			},
		},
		{
			name:    "json",
			file:    "verify.json",
			content: `{"log_level": "debug", "warnings_as_errors": true}`,
			check: func(t *testing.T, o Options) {
				if o.Level() != cli.LevelDebug || !o.WarningsAsErrors {
					t.Errorf("fields not decoded: %+v", o)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := Load(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, o)
		})
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		category errs.ErrorCategory
	}{
		{"unknown yaml field", "a.yaml", "no_such_option: 1\n", errs.CategoryInput},
		{"unknown json field", "a.json", `{"nope": true}`, errs.CategoryInput},
		{"bad constraint", "a.yml", "prelude_constraint: banana\n", errs.CategoryConfig},
		{"bad cap", "a.yml", "max_trigger_terms: 0\n", errs.CategoryConfig},
		{"bad level", "a.json", `{"log_level": "loud"}`, errs.CategoryConfig},
		{"bad extension", "a.toml", "x = 1", errs.CategoryInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			se, ok := errs.As(err)
			if !ok {
				t.Fatalf("expected a StandardError, got %v", err)
			}
			if se.Category != tt.category {
				t.Errorf("category = %s, want %s", se.Category, tt.category)
			}
		})
	}
}
