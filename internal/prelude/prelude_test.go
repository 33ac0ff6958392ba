package prelude

import (
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	v, err := Version()
	if err != nil {
		t.Fatal(err)
	}
	if v.Major() != 1 {
		t.Errorf("prelude major version = %d, want 1", v.Major())
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		constraint string
		ok         bool
	}{
		{">= 1.0.0, < 2.0.0", true},
		{"^1.1", true},
		{">= 2.0.0", false},
		{"not a constraint", false},
	}
	for _, tt := range tests {
		err := Check(tt.constraint)
		if (err == nil) != tt.ok {
			t.Errorf("Check(%q) = %v, want ok=%v", tt.constraint, err, tt.ok)
		}
	}
}

func TestParseHeaderRejectsMissingTag(t *testing.T) {
	if _, err := parseHeader("type ref;\n"); err == nil {
		t.Error("expected an error for a prelude without header")
	}
}

func TestTextDeclaresTheHeap(t *testing.T) {
	for _, decl := range []string{
		"type HeapType = <alpha>[ref, Field alpha]alpha;",
		"function $HeapSucc(HeapType, HeapType): bool;",
		"const InMethodContext: bool;",
		"function Seq#Index<T>(Seq T, int): T;",
	} {
		if !strings.Contains(Text(), decl) {
			t.Errorf("prelude lacks %q", decl)
		}
	}
}
