package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const counterProgram = "../../internal/loader/testdata/counter.yaml"

func runTool(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunPrintsBoogie(t *testing.T) {
	code, out, errOut := runTool(t, counterProgram)
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, errOut)
	}
	for _, want := range []string{"// prelude-version:", "procedure Counter.incr(", "implementation _default.sum("} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout lacks %q", want)
		}
	}
}

func TestRunWritesOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "verify.yaml")
	if err := os.WriteFile(cfg, []byte("emit_prelude: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")

	code, out, errOut := runTool(t, "-config", cfg, "-o", outDir, counterProgram)
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, errOut)
	}
	if out != "" {
		t.Errorf("unexpected stdout %q", out)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "counter.bpl"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if strings.Contains(text, "prelude-version") {
		t.Error("prelude emitted although disabled")
	}
	if !strings.Contains(text, "function _default.fact#limited(") {
		t.Errorf("output lacks the limited view of fact:\n%s", text)
	}
}

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no inputs", nil, 2},
		{"unknown flag", []string{"-bogus"}, 2},
		{"missing input", []string{"does-not-exist.yaml"}, 1},
		{"unsupported input", []string{"main.go"}, 1},
		{"bad config", []string{"-config", "missing.toml", counterProgram}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _, _ := runTool(t, tt.args...); code != tt.want {
				t.Errorf("exit code %d, want %d", code, tt.want)
			}
		})
	}
}

func TestRunVersion(t *testing.T) {
	code, out, _ := runTool(t, "-version")
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.HasPrefix(out, "orizon-verify v") || !strings.Contains(out, "Prelude: 1.") {
		t.Errorf("unexpected version output:\n%s", out)
	}
}
