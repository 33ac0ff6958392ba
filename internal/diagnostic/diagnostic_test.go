package diagnostic

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/orizon-lang/orizon-verify/internal/position"
)

func span(line int) position.Span {
	return position.Point(position.At("prog.orz", line, 1))
}

func TestEngineCollectsAndSorts(t *testing.T) {
	engine := NewDiagnosticEngine(DefaultConfig())

	engine.AddDiagnostic(Common.NoTrigger(span(9), []string{"{f(x)} (loops with f(f(x)))"}))
	engine.AddDiagnostic(Common.DeclarationFailed(span(2), "function C.f", errors.New("boom")))
	engine.AddDiagnostic(Common.SelectedTriggers(span(5), []string{"{s[i]}"}, nil))

	if !engine.HasErrors() {
		t.Fatal("expected an error")
	}
	if got := len(engine.GetWarnings()); got != 1 {
		t.Fatalf("warnings = %d, want 1", got)
	}
	if !engine.HasCode(CodeSelectedTriggers) {
		t.Error("info diagnostic should be kept")
	}

	out := engine.FormatDiagnostics()
	if strings.Contains(out, "Selected triggers") {
		t.Errorf("infos are hidden by default: %s", out)
	}
	errAt := strings.Index(out, "E9001")
	warnAt := strings.Index(out, "W7001")
	if errAt < 0 || warnAt < 0 || errAt > warnAt {
		t.Errorf("diagnostics not sorted by line:\n%s", out)
	}
	if !strings.Contains(out, "rejected: {f(x)}") {
		t.Errorf("related info missing:\n%s", out)
	}
	if !strings.HasSuffix(out, "found 1 error(s), 1 warning(s)\n") {
		t.Errorf("summary missing:\n%s", out)
	}
}

func TestWarningsAsErrorsAndIgnore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WarningsAsErrors = true
	cfg.IgnoreCodes = []string{CodeSplitQuantifier}
	engine := NewDiagnosticEngine(cfg)

	engine.AddDiagnostic(Common.NoTrigger(span(1), nil))
	engine.AddDiagnostic(Common.SplitQuantifier(span(1), 2))

	if len(engine.GetErrors()) != 1 {
		t.Fatalf("warning should have been promoted, got %+v", engine.GetDiagnostics())
	}
	if engine.HasCode(CodeSplitQuantifier) {
		t.Error("ignored code was recorded")
	}
}

func TestFormatJSON(t *testing.T) {
	engine := NewDiagnosticEngine(DefaultConfig())
	engine.AddDiagnostic(Common.LoopingTrigger(span(3), []string{"{f(x)}"}))

	data, err := engine.FormatJSON()
	if err != nil {
		t.Fatal(err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded[0]["level"] != "warning" || decoded[0]["category"] != "trigger" || decoded[0]["location"] != "prog.orz:3:1" {
		t.Errorf("unexpected JSON %s", data)
	}
}

func TestCommonDiagnosticsTitlesAndTags(t *testing.T) {
	tests := []struct {
		name  string
		d     *Diagnostic
		title string
		tag   string
	}{
		{"no trigger", Common.NoTrigger(span(1), nil), "Could not find a trigger for this quantifier", "untriggered"},
		{"looping", Common.LoopingTrigger(span(1), []string{"{f(x)}"}), "Selected triggers may cause matching loops", "matching-loop"},
		{"split", Common.SplitQuantifier(span(1), 2), "Quantifier was split into 2 parts", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.d.Title != tt.title {
				t.Errorf("title = %q, want %q", tt.d.Title, tt.title)
			}
			if tt.tag == "" {
				if len(tt.d.Tags) != 0 {
					t.Errorf("tags = %v, want none", tt.d.Tags)
				}
				return
			}
			if len(tt.d.Tags) != 1 || tt.d.Tags[0] != tt.tag {
				t.Errorf("tags = %v, want [%s]", tt.d.Tags, tt.tag)
			}
		})
	}
}
