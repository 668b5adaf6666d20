package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quill.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
max_depth = 64
dump_ast = true

[journal]
driver = "sqlite3"
dsn = "runs.db"
`)

	config := DefaultConfiguration()
	if err := LoadFile(path, &config); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.LogLevel != "debug" || config.MaxDepth != 64 || !config.DumpAST {
		t.Errorf("unexpected config: %+v", config)
	}
	if !config.Journal.Enabled() || config.Journal.Driver != "sqlite3" || config.Journal.DSN != "runs.db" {
		t.Errorf("unexpected journal config: %+v", config.Journal)
	}
	if config.LogFile != "" {
		t.Errorf("unset key should keep default, got %q", config.LogFile)
	}
}

func TestLoadFileErrors(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		message string
	}{
		{"unknown key", "log_levl = \"debug\"\n", "unknown keys: log_levl"},
		{"bad syntax", "max_depth = \n", "config"},
		{"negative depth", "max_depth = -1\n", "must not be negative"},
		{"journal without dsn", "[journal]\ndriver = \"mysql\"\n", "without a dsn"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			config := DefaultConfiguration()
			err := LoadFile(writeConfig(t, c.body), &config)
			if err == nil {
				t.Fatalf("expected error containing %q", c.message)
			}
			if !strings.Contains(err.Error(), c.message) {
				t.Errorf("expected %q in %q", c.message, err.Error())
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{JournalDSNEnv: "user:pw@tcp(db:3306)/quill"}
	getenv := func(k string) string { return env[k] }

	config := DefaultConfiguration()
	config.ApplyEnv(getenv)
	if config.Journal.DSN != env[JournalDSNEnv] {
		t.Errorf("dsn not taken from env: %q", config.Journal.DSN)
	}

	config.Journal.DSN = "explicit.db"
	config.ApplyEnv(getenv)
	if config.Journal.DSN != "explicit.db" {
		t.Errorf("env overrode explicit dsn: %q", config.Journal.DSN)
	}
}

func TestGetContextLines(t *testing.T) {
	src := "kind: Program\nbody:\n  - kind: Nope\n"

	got := GetContextLines(src, 3, 5)
	expected := "       1 | kind: Program\n" +
		"       2 | body:\n" +
		"  >    3 |   - kind: Nope\n" +
		"               ^ unexpected here"
	if got != expected {
		t.Errorf("unexpected context:\n%s\nwant:\n%s", got, expected)
	}

	if GetContextLines(src, 9, 1) != "" {
		t.Errorf("out of range line should render nothing")
	}
}

func TestGetContextLinesMultibyte(t *testing.T) {
	src := "{kind: Identifier, symbol: café, x: ?}"

	got := GetContextLines(src, 1, 37)
	expected := "  >    1 | {kind: Identifier, symbol: café, x: ?}\n" +
		"                                               ^ unexpected here"
	if got != expected {
		t.Errorf("unexpected context:\n%s\nwant:\n%s", got, expected)
	}
}
