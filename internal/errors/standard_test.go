package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/orizon-lang/orizon-verify/internal/position"
)

func TestStandardErrorFormatting(t *testing.T) {
	err := UnresolvedTarget("method", "C.M")
	if err.Category != CategoryResolution || err.Code != "UNRESOLVED_TARGET" {
		t.Fatalf("unexpected category/code %s/%s", err.Category, err.Code)
	}
	if !strings.Contains(err.Error(), `method "C.M"`) {
		t.Errorf("message missing target: %s", err.Error())
	}
	if err.Caller == "unknown" || err.Caller == "" {
		t.Errorf("caller should be recorded, got %q", err.Caller)
	}

	located := MalformedTree("empty match").At(position.Point(position.At("p.orz", 4, 2)))
	if got := located.Error(); !strings.HasPrefix(got, "p.orz:4:2: [STRUCTURE:MALFORMED_TREE]") {
		t.Errorf("located error = %q", got)
	}
}

func TestAsUnwrapsStandardError(t *testing.T) {
	wrapped := fmt.Errorf("translating f: %w", UnsupportedNode("expression", 3))

	se, ok := As(wrapped)
	if !ok {
		t.Fatal("As should find the wrapped StandardError")
	}
	if se.Code != "UNSUPPORTED_NODE" {
		t.Errorf("code = %s", se.Code)
	}

	if _, ok := As(fmt.Errorf("plain")); ok {
		t.Error("plain errors are not StandardErrors")
	}
}
