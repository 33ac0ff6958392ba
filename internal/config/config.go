// Package config holds the translator options and loads them from YAML or
// JSON files.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	semver "github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/orizon-lang/orizon-verify/internal/cli"
	errs "github.com/orizon-lang/orizon-verify/internal/errors"
)

// Options controls one translation run.
type Options struct {
	PreludeConstraint string `json:"prelude_constraint" yaml:"prelude_constraint"`
	EmitPrelude       bool   `json:"emit_prelude" yaml:"emit_prelude"`
	AutoTriggers      bool   `json:"auto_triggers" yaml:"auto_triggers"`
	SplitQuantifiers  bool   `json:"split_quantifiers" yaml:"split_quantifiers"`
	MaxTriggerTerms   int    `json:"max_trigger_terms" yaml:"max_trigger_terms"`
	WarnUntriggered   bool   `json:"warn_untriggered" yaml:"warn_untriggered"`
	SplitSpecs        bool   `json:"split_specs" yaml:"split_specs"`
	LogLevel          string `json:"log_level" yaml:"log_level"`
	WarningsAsErrors  bool   `json:"warnings_as_errors" yaml:"warnings_as_errors"`
}

// Default returns the options used when no file is given.
func Default() Options {
	return Options{
		PreludeConstraint: ">= 1.0.0, < 2.0.0",
		EmitPrelude:       true,
		AutoTriggers:      true,
		SplitQuantifiers:  true,
		MaxTriggerTerms:   12,
		WarnUntriggered:   true,
		SplitSpecs:        true,
		LogLevel:          "warn",
	}
}

// Load reads options from path. Fields missing from the file keep their
// defaults; unknown fields are rejected.
func Load(path string) (Options, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&opts); err != nil {
			return opts, errs.DecodeFailure(path, err.Error())
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&opts); err != nil {
			return opts, errs.DecodeFailure(path, err.Error())
		}
	default:
		return opts, errs.DecodeFailure(path, "unsupported configuration format "+filepath.Ext(path))
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// Validate checks option values.
func (o Options) Validate() error {
	if _, err := semver.NewConstraint(o.PreludeConstraint); err != nil {
		return errs.InvalidConfig("prelude_constraint", err.Error())
	}
	if o.MaxTriggerTerms <= 0 {
		return errs.InvalidConfig("max_trigger_terms", fmt.Sprintf("must be positive, got %d", o.MaxTriggerTerms))
	}
	if _, err := cli.ParseLevel(o.LogLevel); err != nil {
		return errs.InvalidConfig("log_level", err.Error())
	}
	return nil
}

// Level returns the parsed log level.
func (o Options) Level() cli.Level {
	l, err := cli.ParseLevel(o.LogLevel)
	if err != nil {
		return cli.LevelWarn
	}
	return l
}
