// Diagnostic system for the Orizon verifier.
// Collects translation failures and trigger-selection notes.

package diagnostic

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/orizon-lang/orizon-verify/internal/position"
)

// DiagnosticLevel represents the severity level of a diagnostic message.
type DiagnosticLevel int

const (
	DiagnosticError DiagnosticLevel = iota
	DiagnosticWarning
	DiagnosticInfo
)

func (dl DiagnosticLevel) String() string {
	switch dl {
	case DiagnosticError:
		return "error"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the level by name.
func (dl DiagnosticLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(dl.String())
}

// DiagnosticCategory represents the category of diagnostic.
type DiagnosticCategory int

const (
	DiagnosticTranslation DiagnosticCategory = iota
	DiagnosticTrigger
)

func (dc DiagnosticCategory) String() string {
	switch dc {
	case DiagnosticTranslation:
		return "translation"
	case DiagnosticTrigger:
		return "trigger"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the category by name.
func (dc DiagnosticCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(dc.String())
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Code     string             `json:"code"`
	Title    string             `json:"title"`
	Message  string             `json:"message,omitempty"`
	Related  []string           `json:"related,omitempty"`
	Tags     []string           `json:"tags,omitempty"`
	Span     position.Span      `json:"-"`
	Location string             `json:"location"`
	Level    DiagnosticLevel    `json:"level"`
	Category DiagnosticCategory `json:"category"`
}

// DiagnosticBuilder helps construct diagnostic messages with fluent API.
type DiagnosticBuilder struct {
	diagnostic *Diagnostic
}

// NewDiagnostic creates a new diagnostic builder.
func NewDiagnostic() *DiagnosticBuilder {
	return &DiagnosticBuilder{diagnostic: &Diagnostic{}}
}

func (db *DiagnosticBuilder) Error() *DiagnosticBuilder {
	db.diagnostic.Level = DiagnosticError

	return db
}

func (db *DiagnosticBuilder) Warning() *DiagnosticBuilder {
	db.diagnostic.Level = DiagnosticWarning

	return db
}

func (db *DiagnosticBuilder) Info() *DiagnosticBuilder {
	db.diagnostic.Level = DiagnosticInfo

	return db
}

func (db *DiagnosticBuilder) Translation() *DiagnosticBuilder {
	db.diagnostic.Category = DiagnosticTranslation

	return db
}

func (db *DiagnosticBuilder) Trigger() *DiagnosticBuilder {
	db.diagnostic.Category = DiagnosticTrigger

	return db
}

func (db *DiagnosticBuilder) Code(code string) *DiagnosticBuilder {
	db.diagnostic.Code = code

	return db
}

func (db *DiagnosticBuilder) Title(title string) *DiagnosticBuilder {
	db.diagnostic.Title = title

	return db
}

func (db *DiagnosticBuilder) Message(message string) *DiagnosticBuilder {
	db.diagnostic.Message = message

	return db
}

func (db *DiagnosticBuilder) Span(span position.Span) *DiagnosticBuilder {
	db.diagnostic.Span = span

	return db
}

func (db *DiagnosticBuilder) Related(note string) *DiagnosticBuilder {
	db.diagnostic.Related = append(db.diagnostic.Related, note)

	return db
}

func (db *DiagnosticBuilder) Tag(tag string) *DiagnosticBuilder {
	db.diagnostic.Tags = append(db.diagnostic.Tags, tag)

	return db
}

func (db *DiagnosticBuilder) Build() *Diagnostic {
	db.diagnostic.Location = db.diagnostic.Span.String()
	return db.diagnostic
}

// DiagnosticEngine manages the collection and processing of diagnostics.
type DiagnosticEngine struct {
	diagnostics []Diagnostic
	config      DiagnosticConfig
}

// DiagnosticConfig controls diagnostic behavior.
type DiagnosticConfig struct {
	IgnoreCodes      []string
	MaxErrors        int
	WarningsAsErrors bool
	ShowInfo         bool
	ShowRelatedInfo  bool
}

// DefaultConfig keeps infos out of the formatted output.
func DefaultConfig() DiagnosticConfig {
	return DiagnosticConfig{MaxErrors: 100, ShowRelatedInfo: true}
}

// NewDiagnosticEngine creates a new diagnostic engine.
func NewDiagnosticEngine(config DiagnosticConfig) *DiagnosticEngine {
	return &DiagnosticEngine{
		diagnostics: make([]Diagnostic, 0),
		config:      config,
	}
}

// AddDiagnostic adds a diagnostic to the engine.
func (de *DiagnosticEngine) AddDiagnostic(diagnostic *Diagnostic) {
	if de.shouldIgnore(diagnostic) {
		return
	}

	if de.config.WarningsAsErrors && diagnostic.Level == DiagnosticWarning {
		diagnostic.Level = DiagnosticError
	}

	if de.config.MaxErrors > 0 && diagnostic.Level == DiagnosticError && len(de.GetErrors()) >= de.config.MaxErrors {
		return
	}

	de.diagnostics = append(de.diagnostics, *diagnostic)
}

func (de *DiagnosticEngine) shouldIgnore(diagnostic *Diagnostic) bool {
	for _, code := range de.config.IgnoreCodes {
		if diagnostic.Code == code {
			return true
		}
	}

	return false
}

// GetDiagnostics returns all diagnostics.
func (de *DiagnosticEngine) GetDiagnostics() []Diagnostic {
	return de.diagnostics
}

// GetErrors returns only error-level diagnostics.
func (de *DiagnosticEngine) GetErrors() []Diagnostic {
	return de.filter(DiagnosticError)
}

// GetWarnings returns only warning-level diagnostics.
func (de *DiagnosticEngine) GetWarnings() []Diagnostic {
	return de.filter(DiagnosticWarning)
}

func (de *DiagnosticEngine) filter(level DiagnosticLevel) []Diagnostic {
	out := make([]Diagnostic, 0)

	for _, diag := range de.diagnostics {
		if diag.Level == level {
			out = append(out, diag)
		}
	}

	return out
}

// HasCode reports whether any collected diagnostic carries code.
func (de *DiagnosticEngine) HasCode(code string) bool {
	for _, diag := range de.diagnostics {
		if diag.Code == code {
			return true
		}
	}
	return false
}

// HasErrors returns true if there are any errors.
func (de *DiagnosticEngine) HasErrors() bool {
	return len(de.GetErrors()) > 0
}

// SortDiagnostics sorts diagnostics by position and severity.
func (de *DiagnosticEngine) SortDiagnostics() {
	sort.SliceStable(de.diagnostics, func(i, j int) bool {
		a, b := de.diagnostics[i], de.diagnostics[j]

		if a.Span.Start.Filename != b.Span.Start.Filename {
			return a.Span.Start.Filename < b.Span.Start.Filename
		}

		if a.Span.Start.Line != b.Span.Start.Line {
			return a.Span.Start.Line < b.Span.Start.Line
		}

		if a.Span.Start.Column != b.Span.Start.Column {
			return a.Span.Start.Column < b.Span.Start.Column
		}

		return a.Level < b.Level
	})
}

// FormatDiagnostics returns a formatted string representation of all diagnostics.
func (de *DiagnosticEngine) FormatDiagnostics() string {
	if len(de.diagnostics) == 0 {
		return ""
	}

	de.SortDiagnostics()

	var result strings.Builder

	for i := range de.diagnostics {
		diag := &de.diagnostics[i]
		if diag.Level == DiagnosticInfo && !de.config.ShowInfo {
			continue
		}

		result.WriteString(de.formatSingleDiagnostic(diag))
	}

	result.WriteString(de.formatSummary())

	return result.String()
}

// FormatJSON renders the collected diagnostics as a JSON array.
func (de *DiagnosticEngine) FormatJSON() ([]byte, error) {
	de.SortDiagnostics()
	return json.MarshalIndent(de.diagnostics, "", "  ")
}

func (de *DiagnosticEngine) formatSingleDiagnostic(diag *Diagnostic) string {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("%s: %s[%s]: %s\n",
		diag.Span.String(),
		diag.Level.String(),
		diag.Code,
		diag.Title,
	))

	if diag.Message != "" {
		result.WriteString(fmt.Sprintf("  %s\n", diag.Message))
	}

	if de.config.ShowRelatedInfo {
		for _, related := range diag.Related {
			result.WriteString(fmt.Sprintf("    %s\n", related))
		}
	}

	return result.String()
}

func (de *DiagnosticEngine) formatSummary() string {
	errorCount := len(de.GetErrors())
	warningCount := len(de.GetWarnings())

	if errorCount == 0 && warningCount == 0 {
		return ""
	}

	var parts []string
	if errorCount > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", errorCount))
	}

	if warningCount > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", warningCount))
	}

	return fmt.Sprintf("found %s\n", strings.Join(parts, ", "))
}

// Diagnostic codes shared by the translator and the trigger engine.
const (
	CodeDeclarationFailed = "E9001"
	CodeNoTrigger         = "W7001"
	CodeLoopingTrigger    = "W7002"
	CodeUnresolvedType    = "W7101"
	CodeSelectedTriggers  = "I7001"
	CodeSplitQuantifier   = "I7002"
)

// CommonDiagnostics provides factory functions for common diagnostic patterns.
type CommonDiagnostics struct{}

// DeclarationFailed reports a declaration whose translation was abandoned.
func (cd *CommonDiagnostics) DeclarationFailed(span position.Span, decl string, err error) *Diagnostic {
	return NewDiagnostic().
		Error().
		Translation().
		Code(CodeDeclarationFailed).
		Title("Translation of " + decl + " abandoned").
		Message(err.Error()).
		Span(span).
		Build()
}

// NoTrigger reports a quantifier left without a matching pattern.
func (cd *CommonDiagnostics) NoTrigger(span position.Span, rejected []string) *Diagnostic {
	b := NewDiagnostic().
		Warning().
		Trigger().
		Code(CodeNoTrigger).
		Title("Could not find a trigger for this quantifier").
		Message("Without a trigger, the quantifier may cause brittle verification.").
		Span(span).
		Tag("untriggered")
	for _, r := range rejected {
		b.Related("rejected: " + r)
	}
	return b.Build()
}

// LoopingTrigger reports that only looping triggers were kept.
func (cd *CommonDiagnostics) LoopingTrigger(span position.Span, selected []string) *Diagnostic {
	return NewDiagnostic().
		Warning().
		Trigger().
		Code(CodeLoopingTrigger).
		Title("Selected triggers may cause matching loops").
		Message("{:matchingloop} kept " + strings.Join(selected, ", ")).
		Span(span).
		Tag("matching-loop").
		Build()
}

// SelectedTriggers records the outcome of trigger selection.
func (cd *CommonDiagnostics) SelectedTriggers(span position.Span, selected, rejected []string) *Diagnostic {
	b := NewDiagnostic().
		Info().
		Trigger().
		Code(CodeSelectedTriggers).
		Title("Selected triggers: " + strings.Join(selected, ", ")).
		Span(span)
	for _, r := range rejected {
		b.Related("rejected: " + r)
	}
	return b.Build()
}

// SplitQuantifier records a quantifier split into independent parts.
func (cd *CommonDiagnostics) SplitQuantifier(span position.Span, parts int) *Diagnostic {
	return NewDiagnostic().
		Info().
		Trigger().
		Code(CodeSplitQuantifier).
		Title(fmt.Sprintf("Quantifier was split into %d parts", parts)).
		Span(span).
		Build()
}

// UnresolvedType reports a stray type placeholder that was treated as a reference.
func (cd *CommonDiagnostics) UnresolvedType(span position.Span, name string) *Diagnostic {
	return NewDiagnostic().
		Warning().
		Translation().
		Code(CodeUnresolvedType).
		Title("Unresolved type treated as a reference type").
		Message(fmt.Sprintf("type %q reached the translator unresolved", name)).
		Span(span).
		Build()
}

// Global instance for convenience.
var Common = &CommonDiagnostics{}
