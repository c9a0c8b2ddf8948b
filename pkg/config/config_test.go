package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.Run.Prompt != "> " || c.Output.Color != "reset" || c.Log.Level != "warn" || c.Log.Format != "text" {
		t.Errorf("Unexpected defaults %+v", c)
	}
	if c.Run.Gas != 0 || c.Run.Seed != 0 {
		t.Errorf("Expected unlimited gas and time seed, got %+v", c.Run)
	}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, t.TempDir(), FileName, `
[run]
gas = 500
seed = 7

[output]
color = "green"

[log]
level = "debug"
format = "json"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if c.Run.Gas != 500 || c.Run.Seed != 7 || c.Run.Prompt != "> " {
		t.Errorf("Unexpected run section %+v", c.Run)
	}
	if c.Output.Color != "green" || c.Path != path {
		t.Errorf("Unexpected config %+v", c)
	}
	level, err := c.Level()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v %v", level, err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":       "[run\ngas = 1",
		"negative gas": "[run]\ngas = -1",
		"bad level":    "[log]\nlevel = \"loud\"",
		"wrong type":   "[run]\nseed = \"x\"",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), FileName, content)
			if _, err := Load(path); err == nil {
				t.Error("Expected an error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestForProgram(t *testing.T) {
	dir := t.TempDir()
	prog := writeFile(t, dir, "main.m++", "Q\n")

	c, err := ForProgram(prog)
	if err != nil {
		t.Fatal(err)
	}
	if c.Path != "" {
		t.Errorf("Expected defaults without a file, got %q", c.Path)
	}

	writeFile(t, dir, FileName, "[run]\nprompt = \"? \"\n")
	c, err = ForProgram(prog)
	if err != nil {
		t.Fatal(err)
	}
	if c.Run.Prompt != "? " {
		t.Errorf("Expected prompt from file, got %q", c.Run.Prompt)
	}
}

func TestHandler(t *testing.T) {
	var buf bytes.Buffer
	c := Default()
	c.Log.Format = "json"
	slog.New(c.Handler(&buf, slog.LevelWarn)).Warn("unknown symbol", "detail", "FOO")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"detail":"FOO"`) {
		t.Errorf("Expected JSON record, got %q", buf.String())
	}

	buf.Reset()
	c.Log.Format = "text"
	logger := slog.New(c.Handler(&buf, slog.LevelWarn))
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "msg=shown") {
		t.Errorf("Unexpected text output %q", buf.String())
	}
}
