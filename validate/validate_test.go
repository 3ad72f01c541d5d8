package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/marblerace/game/engine"
)

func writeConfig(t *testing.T, dir, name string, v interface{}) string {
	t.Helper()

	var data []byte
	switch c := v.(type) {
	case string:
		data = []byte(c)
	default:
		var err error
		if data, err = json.MarshalIndent(c, "", "  "); err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func tinyConfig() *engine.BoardConfig {
	return &engine.BoardConfig{
		Name:            "tiny",
		Rows:            3,
		Cols:            5,
		PiecesPerPlayer: 1,
		Layout:          []string{"..A..", ".*.*.", "..B.."},
		Zones: []engine.ZoneConfig{
			{Key: "A", Color: "RED", Target: "B"},
			{Key: "B", Color: "BLUE", Target: "A"},
		},
		Palettes: map[string][]engine.Color{"2": {"RED", "BLUE"}},
	}
}

func hasMessage(result ValidationResult, substr string) bool {
	for _, msg := range result.Messages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func TestValidateConfig_Standard(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "standard.json", engine.StandardBoardConfig())

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, got errors: %v", result.Messages)
	}
	if result.File != "standard.json" {
		t.Errorf("Expected file name standard.json, got %s", result.File)
	}

	for _, want := range []string{
		"✓ Name: standard",
		"✓ Grid: 17x25",
		"✓ Zones: 6 of 10 cells",
		"✓ Common cells: 61",
		"✓ 2 seats: red, blue",
		"✓ 6 seats: red, green, purple, blue, orange, yellow",
		"✓ Connectivity",
	} {
		if !hasMessage(result, want) {
			t.Errorf("Expected message %q in %v", want, result.Messages)
		}
	}
	if hasMessage(result, "differs from file name") {
		t.Error("Did not expect a name mismatch warning")
	}
}

func TestValidateConfig_NameMismatch(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "small.json", tinyConfig())

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, got errors: %v", result.Messages)
	}
	if !hasMessage(result, `rooms select it as "small"`) {
		t.Errorf("Expected name mismatch warning, got %v", result.Messages)
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	unknownChar := tinyConfig()
	unknownChar.Layout = []string{"..A..", ".*X*.", "..B.."}

	wrongZoneSize := tinyConfig()
	wrongZoneSize.Layout = []string{"..A..", ".*.*.", ".BB.."}

	unreachable := tinyConfig()
	unreachable.Cols = 7
	unreachable.Layout = []string{"A.....B", ".......", "......."}

	badPalette := tinyConfig()
	badPalette.Palettes = map[string][]engine.Color{"2": {"RED", "GREEN"}}

	tests := []struct {
		name   string
		config interface{}
		want   string
	}{
		{"malformed json", `{"name": "broken",`, "Invalid JSON"},
		{"missing name", &engine.BoardConfig{}, "name is required"},
		{"unknown character", unknownChar, "invalid character 'X' at row 2, col 3"},
		{"zone size", wrongZoneSize, `zone "B" must have 1 cells, got 2`},
		{"unreachable destination", unreachable, `destination (0,6) of zone "A" is unreachable`},
		{"palette color", badPalette, `unknown color "GREEN"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "config.json", tt.config)

			result := validateConfig(path)
			if result.Valid {
				t.Fatal("Expected invalid config")
			}
			if !hasMessage(result, tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, result.Messages)
			}
		})
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig(filepath.Join(t.TempDir(), "nope.json"))
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
	if !hasMessage(result, "Failed to read file") {
		t.Errorf("Expected read error, got %v", result.Messages)
	}
}

func TestConfigFiles(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.json", tinyConfig())
	writeConfig(t, dir, "notes.txt", "not a geometry")

	files, err := configFiles(dir, nil)
	if err != nil {
		t.Fatalf("configFiles: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "a.json" {
		t.Errorf("Expected only a.json, got %v", files)
	}

	files, err = configFiles(dir, []string{"x.json", "y.json"})
	if err != nil || len(files) != 2 {
		t.Errorf("Expected explicit files to be used, got %v, %v", files, err)
	}

	if _, err := configFiles(t.TempDir(), nil); err == nil {
		t.Error("Expected error for a directory without geometries")
	}
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	ok := report(&buf, []ValidationResult{
		{File: "good.json", Valid: true, Messages: []string{"✓ Name: good"}},
		{File: "bad.json", Valid: false, Messages: []string{"name is required"}},
	})
	if ok {
		t.Error("Expected report to flag invalid results")
	}

	out := buf.String()
	for _, want := range []string{"good.json", "✅ VALID", "  ✓ Name: good", "❌ INVALID", "  ❌ name is required", "Some geometries have errors"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in report:\n%s", want, out)
		}
	}
}

func TestApp_Validate(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "standard.json", engine.StandardBoardConfig())
	writeConfig(t, dir, "tiny.json", tinyConfig())

	var buf bytes.Buffer
	if err := newApp(&buf).Run(context.Background(), []string{"validate", "--dir", dir}); err != nil {
		t.Fatalf("validate failed: %v\n%s", err, buf.String())
	}
	if !strings.Contains(buf.String(), "All geometries are valid") {
		t.Errorf("Expected success summary, got:\n%s", buf.String())
	}

	writeConfig(t, dir, "broken.json", `{}`)
	buf.Reset()
	err := newApp(&buf).Run(context.Background(), []string{"validate", "--dir", dir})
	if !errors.Is(err, errInvalid) {
		t.Errorf("Expected errInvalid, got %v", err)
	}

	// explicit file arguments skip the directory scan
	buf.Reset()
	tiny := filepath.Join(dir, "tiny.json")
	if err := newApp(&buf).Run(context.Background(), []string{"validate", tiny}); err != nil {
		t.Errorf("validate %s failed: %v", tiny, err)
	}
}

func TestApp_Init(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "configs")
	var buf bytes.Buffer

	if err := newApp(&buf).Run(context.Background(), []string{"validate", "init", "--dir", dir}); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	path := filepath.Join(dir, "standard.json")
	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected written geometry to be valid, got %v", result.Messages)
	}

	if err := newApp(&buf).Run(context.Background(), []string{"validate", "init", "--dir", dir}); err == nil {
		t.Error("Expected init to refuse overwriting")
	}
	if err := newApp(&buf).Run(context.Background(), []string{"validate", "init", "--dir", dir, "--force"}); err != nil {
		t.Errorf("init --force failed: %v", err)
	}
}
