package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mpplang/mpp/pkg/interpreter"
)

func writeProgram(t *testing.T, dir, code string) string {
	t.Helper()
	path := filepath.Join(dir, "prog.m++")
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	good := writeProgram(t, dir, "NU x 3\n# x=$x\nP 4\nO\n")
	spin := filepath.Join(dir, "spin.m++")
	if err := os.WriteFile(spin, []byte("[\n]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		args      []string
		code      int
		stdout    string
		stderrHas string
	}{
		{"no args", nil, 1, "", "Usage: mpp"},
		{"two args", []string{good, good}, 1, "", "Usage: mpp"},
		{"bad flag", []string{"-nope", good}, 1, "", "flag provided but not defined"},
		{"help", []string{"-h"}, 0, "", "Usage: mpp"},
		{"missing file", []string{filepath.Join(dir, "absent.m++")}, 1, "", "Error:"},
		{"good program", []string{good}, 0, interpreter.ColorReset + "x=3" + interpreter.ColorReset + "\n4\n", ""},
		{"disasm", []string{"-disasm", good}, 0, "0000  NU       NU x 3\n", ""},
		{"gas exhausted", []string{"-gas", "5", spin}, 1, "", "gas exhausted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args, strings.NewReader(""), &stdout, &stderr)
			if code != tt.code {
				t.Errorf("Expected exit %d, got %d (stderr %q)", tt.code, code, stderr.String())
			}
			if tt.name == "disasm" {
				if !strings.HasPrefix(stdout.String(), tt.stdout) {
					t.Errorf("Expected listing starting %q, got %q", tt.stdout, stdout.String())
				}
			} else if stdout.String() != tt.stdout {
				t.Errorf("Expected stdout %q, got %q", tt.stdout, stdout.String())
			}
			if !strings.Contains(stderr.String(), tt.stderrHas) {
				t.Errorf("Expected stderr containing %q, got %q", tt.stderrHas, stderr.String())
			}
		})
	}
}

func TestRunReadsInput(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "INPUT n\n# got $n\n")
	var stdout, stderr bytes.Buffer
	if code := run([]string{path}, strings.NewReader("12\n"), &stdout, &stderr); code != 0 {
		t.Fatalf("Expected exit 0, got %d: %s", code, stderr.String())
	}
	expected := interpreter.DefaultPrompt + interpreter.ColorReset + "got 12" + interpreter.ColorReset + "\n"
	if stdout.String() != expected {
		t.Errorf("Expected %q, got %q", expected, stdout.String())
	}
}

func TestSnapshotAndInspect(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "NU n 3\nFL f 2\nP 7\nMSET 12 9\nFOO\n")
	snap := filepath.Join(dir, "state.cbor")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-snapshot", snap, path}, strings.NewReader(""), &stdout, &stderr); code != 0 {
		t.Fatalf("Expected exit 0, got %d: %s", code, stderr.String())
	}

	stdout.Reset()
	if code := run([]string{"-inspect", snap}, strings.NewReader(""), &stdout, &stderr); code != 0 {
		t.Fatalf("Expected exit 0, got %d: %s", code, stderr.String())
	}
	for _, want := range []string{
		"program: " + path,
		"pc: 5  steps: 5  running: true",
		"stack: [ 7 ]",
		"var f = 2.0 (float)",
		"var n = 3 (int)",
		"mem[12] = 9",
		"fault: line 4: unknown symbol: FOO",
	} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("Expected %q in:\n%s", want, stdout.String())
		}
	}

	stderr.Reset()
	if code := run([]string{"-inspect", filepath.Join(dir, "absent.cbor")}, strings.NewReader(""), &stdout, &stderr); code != 1 {
		t.Errorf("Expected exit 1 for a missing snapshot, got %d", code)
	}
}
