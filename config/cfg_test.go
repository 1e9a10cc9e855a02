package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"
	"go.uber.org/zap/zaptest"

	"edconv/schema"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Conversion.Root.Name != "main" || cfg.Conversion.Root.Element != "div" {
		t.Errorf("Default root = %+v, want main/div", cfg.Conversion.Root)
	}
	if got := len(cfg.Conversion.Definitions.Elements); got != 3 {
		t.Errorf("Default elements = %d, want 3", got)
	}
	if got := len(cfg.Conversion.Definitions.Highlights); got != 1 {
		t.Errorf("Default highlights = %d, want 1", got)
	}
}

func TestDefaultDefinitions(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	defs := cfg.Conversion.Definitions

	s := schema.New(zaptest.NewLogger(t))
	if err := defs.ApplySchema(s); err != nil {
		t.Fatalf("ApplySchema() error = %v", err)
	}
	for _, name := range []string{"paragraph", "heading1", "blockQuote"} {
		if !s.IsRegistered(name) {
			t.Errorf("%q is not registered", name)
		}
	}
	if _, err := defs.Build(); err != nil {
		t.Errorf("Build() error = %v", err)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
conversion:
  root:
    name: body
    element: section
  inline_names: ["strong", "em"]
  definitions:
    elements:
      - model: paragraph
        view:
          name: p
          classes: ["text"]
logging:
  console:
    level: normal
  file:
    level: debug
    destination: /tmp/test.log
    mode: append
reporting:
  destination: /tmp/test-report.zip
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Conversion.Root.Name != "body" || cfg.Conversion.Root.Element != "section" {
		t.Errorf("Root = %+v, want body/section", cfg.Conversion.Root)
	}
	if got := strings.Join(cfg.Conversion.InlineNames, ","); got != "strong,em" {
		t.Errorf("InlineNames = %s, want strong,em", got)
	}
	elements := cfg.Conversion.Definitions.Elements
	if len(elements) != 1 || elements[0].View.Classes[0] != "text" {
		t.Errorf("Elements = %+v, want single paragraph with class", elements)
	}
	// values not mentioned in the file come from the template
	if len(cfg.Conversion.Definitions.Markers) != 1 {
		t.Errorf("Markers = %+v, want template default", cfg.Conversion.Definitions.Markers)
	}
	if cfg.Logging.FileLogger.Mode != "append" {
		t.Errorf("Logging file mode = %s, want append", cfg.Logging.FileLogger.Mode)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\nconversion:\n  root\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"invalid version", "version: 2\n"},
		{"element without model", "version: 1\nconversion:\n  definitions:\n    elements:\n      - view:\n          name: p\n"},
		{"empty inline name", "version: 1\nconversion:\n  inline_names: [\"\"]\n"},
		{"bad log level", "version: 1\nlogging:\n  console:\n    level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("LoadConfiguration() succeeded, want error")
			}
		})
	}

	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {}
	if _, err := LoadConfiguration("", option); err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err = unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	back, err := unmarshalConfig(data, &Config{}, false)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if back.Conversion.Root != cfg.Conversion.Root {
		t.Errorf("Root after dump/load = %+v, want %+v", back.Conversion.Root, cfg.Conversion.Root)
	}
	attrs := back.Conversion.Definitions.Attributes
	if len(attrs) != 3 || attrs[2].ViewValues["right"] != "text-align:right" {
		t.Errorf("Attributes after dump/load = %+v", attrs)
	}
	if back.Conversion.Definitions.Highlights[0].ViewPriority != 20 {
		t.Errorf("Highlight view priority after dump/load = %d, want 20", back.Conversion.Definitions.Highlights[0].ViewPriority)
	}
}
