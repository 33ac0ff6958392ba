// Package loader reads a resolved program from a YAML or JSON document.
//
// The document is the output of a resolver, not source text: every
// declaration, type parameter and variable carries an id and references
// are by id. Loading is pointer fix-up through ast.Builder; nothing is
// looked up by name.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/orizon-lang/orizon-verify/internal/ast"
	errs "github.com/orizon-lang/orizon-verify/internal/errors"
)

// Format selects the document encoding.
type Format int

const (
	YAML Format = iota
	JSON
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	}
	return YAML, errs.DecodeFailure(path, "unsupported program format "+filepath.Ext(path))
}

// Load reads and decodes the program stored at path.
func Load(path string) (*ast.Program, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(path, data, format)
}

// Decode builds a program from data. name is used in spans and errors.
func Decode(name string, data []byte, format Format) (prog *ast.Program, err error) {
	var doc document
	switch format {
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&doc)
	case JSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	default:
		return nil, errs.DecodeFailure(name, fmt.Sprintf("unknown format %d", format))
	}
	if err != nil {
		return nil, errs.DecodeFailure(name, err.Error())
	}

	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*errs.StandardError)
			if !ok {
				panic(r)
			}
			if se.Category == errs.CategoryInput {
				prog, err = nil, se
				return
			}
			prog, err = nil, fmt.Errorf("%s: %w", name, se)
		}
	}()
	return newDecoder(name, doc.Program).program(&doc), nil
}
