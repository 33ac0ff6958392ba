package position

import "testing"

func TestPositionString(t *testing.T) {
	tests := []struct {
		pos  Position
		want string
	}{
		{At("dir/prog.orz", 3, 7), "prog.orz:3:7"},
		{Position{Line: 1, Column: 2}, "1:2"},
	}

	for _, tt := range tests {
		if got := tt.pos.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSpanValidity(t *testing.T) {
	tests := []struct {
		name string
		span Span
		want bool
	}{
		{"point", Point(At("f", 2, 1)), true},
		{"range", Span{Start: At("f", 1, 1), End: At("f", 3, 4)}, true},
		{"reversed", Span{Start: At("f", 3, 1), End: At("f", 1, 1)}, false},
		{"two files", Span{Start: At("f", 1, 1), End: At("g", 2, 1)}, false},
		{"synthesized", NoSpan, false},
	}
	for _, tt := range tests {
		if got := tt.span.IsValid(); got != tt.want {
			t.Errorf("%s: IsValid() = %v, want %v", tt.name, got, tt.want)
		}
	}
	if NoSpan.String() != "<synthesized>" {
		t.Errorf("unexpected NoSpan string %q", NoSpan.String())
	}
}
