// Package prelude embeds the background theory that every translated
// program is checked against.
package prelude

import (
	_ "embed"
	"fmt"
	"strings"

	semver "github.com/Masterminds/semver/v3"

	errs "github.com/orizon-lang/orizon-verify/internal/errors"
)

//go:embed prelude.bpl
var text string

const versionTag = "// prelude-version:"

// Text returns the prelude source.
func Text() string { return text }

// Version returns the version declared in the prelude header.
func Version() (*semver.Version, error) {
	return parseHeader(text)
}

func parseHeader(src string) (*semver.Version, error) {
	first, _, _ := strings.Cut(src, "\n")
	if !strings.HasPrefix(first, versionTag) {
		return nil, fmt.Errorf("prelude has no %q header", versionTag)
	}
	v, err := semver.NewVersion(strings.TrimSpace(strings.TrimPrefix(first, versionTag)))
	if err != nil {
		return nil, fmt.Errorf("prelude version: %w", err)
	}
	return v, nil
}

// Check verifies that the embedded prelude satisfies constraint.
func Check(constraint string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errs.InvalidConfig("prelude_constraint", err.Error())
	}
	v, err := Version()
	if err != nil {
		return err
	}
	if ok, reasons := c.Validate(v); !ok {
		msgs := make([]string, len(reasons))
		for i, r := range reasons {
			msgs[i] = r.Error()
		}
		return errs.InvalidConfig("prelude_constraint",
			fmt.Sprintf("prelude %s rejected: %s", v, strings.Join(msgs, "; ")))
	}
	return nil
}
