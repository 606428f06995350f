package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func loadConfig(t *testing.T, src string) config {
	t.Helper()

	res, err := resolve(t.Context(), baseConfig)(strings.NewReader(src))
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}

	cfg, ok := res.(config)
	if !ok {
		t.Fatalf("resolve() returned %T, want config", res)
	}

	return cfg
}

func TestResolveObject(t *testing.T) {
	cfg := loadConfig(t, `
var config = {
  log_level: "debug",
  "log-format": "json",
  max_depth: 64,
  ratio: 0.5,
  pretty: true,
  tags: ["a", 1]
};
`)

	want := map[string]any{
		"log_level":  "debug",
		"log-format": "json",
		"max_depth":  "64",
		"ratio":      "0.5",
		"pretty":     true,
	}

	for k, v := range want {
		if got := cfg[k]; got != v {
			t.Errorf("config[%q] = %#v, want %#v", k, got, v)
		}
	}

	tags, ok := cfg["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "a" || tags[1] != "1" {
		t.Errorf("config[tags] = %#v, want [a 1]", cfg["tags"])
	}
}

func TestResolveUsesHostRegistry(t *testing.T) {
	cfg := loadConfig(t, `var config = { log_level: strings.ToLower("WARN") };`)

	if got := cfg["log_level"]; got != "warn" {
		t.Errorf("config[log_level] = %#v, want %q", got, "warn")
	}
}

func TestResolveIgnoresBadScripts(t *testing.T) {
	tests := map[string]string{
		"syntax error":  "var config = {",
		"runtime error": "var config = missing();",
		"not an object": "var config = 42;",
		"undefined":     "var other = {};",
		"empty":         "",
	}

	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if cfg := loadConfig(t, src); len(cfg) != 0 {
				t.Errorf("resolve() = %v, want empty config", cfg)
			}
		})
	}
}

func TestConfigResolve(t *testing.T) {
	var cli struct {
		LogLevel string `default:"info" name:"log-level"`
		MaxDepth int    `default:"1024" name:"max-depth"`
		Pretty   bool   `name:"pretty"`
		Other    string `default:"keep" name:"other"`
	}

	path := filepath.Join(t.TempDir(), baseConfig+scriptExt)

	src := `var config = { log_level: "debug", max_depth: 16, pretty: true };`
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}

	parser, err := kong.New(&cli, kong.Configuration(resolve(t.Context(), baseConfig), path))
	if err != nil {
		t.Fatal(err)
	}

	// Command-line flags override script values.
	if _, err := parser.Parse([]string{"--pretty=false"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cli.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cli.LogLevel, "debug")
	}

	if cli.MaxDepth != 16 {
		t.Errorf("MaxDepth = %d, want 16", cli.MaxDepth)
	}

	if cli.Pretty {
		t.Error("Pretty = true, want command-line value false")
	}

	if cli.Other != "keep" {
		t.Errorf("Other = %q, want default %q", cli.Other, "keep")
	}
}
