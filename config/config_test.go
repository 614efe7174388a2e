package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reoring/chunkjson"
	"github.com/reoring/chunkjson/config"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadFile_Formats(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"c.yaml", "max_depth: 64\nmax_patches: 3\non_duplicate_key: reject\nsort_keys: true\ndriver: encoding/json\n"},
		{"c.jsonc", "{\n  // limits\n  \"max_depth\": 64,\n  \"max_patches\": 3,\n  \"on_duplicate_key\": \"reject\",\n  \"sort_keys\": true,\n  \"driver\": \"encoding/json\", /* trailing comma */\n}\n"},
		{"c.toml", "max_depth = 64\nmax_patches = 3\non_duplicate_key = \"reject\"\nsort_keys = true\ndriver = \"encoding/json\"\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := config.LoadFile(writeFile(t, tc.name, tc.body))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if cfg.MaxDepth != 64 || cfg.MaxPatches != 3 || !cfg.SortKeys || cfg.OnDuplicateKey != "reject" {
				t.Fatalf("unexpected config %+v", cfg)
			}
			// Unset fields keep their defaults.
			if cfg.Indent != chunkjson.DefaultIndent || cfg.Decompress != "auto" || cfg.LogLevel != "warn" {
				t.Fatalf("defaults lost: %+v", cfg)
			}
			opts, err := cfg.Options(nil)
			if err != nil {
				t.Fatalf("options: %v", err)
			}
			if opts.OnDuplicateKey != chunkjson.Reject || opts.Driver.Name() != chunkjson.DriverStdlib || opts.MaxDepth != 64 {
				t.Fatalf("unexpected options %+v", opts)
			}
			if w := cfg.WriteOptions(); !w.SortKeys || w.Indent != chunkjson.DefaultIndent {
				t.Fatalf("unexpected write options %+v", w)
			}
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"c.ini", "x=1", "unsupported extension"},
		{"c.yaml", "max_depth: [", "parsing config"},
		{"c.yaml", "on_duplicate_key: maybe", "on_duplicate_key"},
		{"c.yaml", "driver: simdjson", "unknown JSON driver"},
		{"c.toml", "decompress = \"brotli\"", "decompress"},
		{"c.toml", "log_level = \"loud\"", "log_level"},
		{"c.json", "{\"max_patches\": -1}", "max_patches"},
	}
	for _, tc := range tests {
		_, err := config.LoadFile(writeFile(t, tc.name, tc.body))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s %q: got %v, want error containing %q", tc.name, tc.body, err, tc.want)
		}
	}
	if _, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoad_EnvLayering(t *testing.T) {
	path := writeFile(t, "c.yaml", "max_depth: 64\nlog_level: info\n")
	t.Setenv(config.EnvConfig, path)
	t.Setenv("CHUNKJSON_MAX_DEPTH", "-1")
	t.Setenv("CHUNKJSON_SORT_KEYS", "true")
	t.Setenv("CHUNKJSON_LOG_LEVEL", "debug")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxDepth != -1 || !cfg.SortKeys {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if level, _ := cfg.Level(); level != slog.LevelDebug {
		t.Fatalf("level = %v", level)
	}
}

func TestApplyEnv_AllFields(t *testing.T) {
	env := map[string]string{
		"CHUNKJSON_MAX_DEPTH":        "7",
		"CHUNKJSON_MAX_NESTING":      "5",
		"CHUNKJSON_MAX_LINE_BYTES":   "4096",
		"CHUNKJSON_MAX_PATCHES":      "3",
		"CHUNKJSON_ON_DUPLICATE_KEY": "reject",
		"CHUNKJSON_SORT_KEYS":        "1",
		"CHUNKJSON_INDENT":           "\t",
		"CHUNKJSON_COMPACT":          "true",
		"CHUNKJSON_DRIVER":           chunkjson.DriverStdlib,
		"CHUNKJSON_DECOMPRESS":       "none",
		"CHUNKJSON_LOG_LEVEL":        "error",
	}
	cfg := config.Default()
	if err := cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := config.Config{
		MaxDepth:       7,
		MaxNesting:     5,
		MaxLineBytes:   4096,
		MaxPatches:     3,
		OnDuplicateKey: "reject",
		SortKeys:       true,
		Indent:         "\t",
		Compact:        true,
		Driver:         chunkjson.DriverStdlib,
		Decompress:     "none",
		LogLevel:       "error",
	}
	if *cfg != want {
		t.Fatalf("got %+v, want %+v", *cfg, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestApplyEnv_Errors(t *testing.T) {
	env := map[string]string{
		"CHUNKJSON_MAX_DEPTH":      "deep",
		"CHUNKJSON_MAX_PATCHES":    "many",
		"CHUNKJSON_SORT_KEYS":      "perhaps",
		"CHUNKJSON_DRIVER":         "",
		"CHUNKJSON_COMPACT":        "yes please",
		"CHUNKJSON_MAX_LINE_BYTES": "1KB",
	}
	cfg := config.Default()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err == nil {
		t.Fatalf("expected errors")
	}
	for _, name := range []string{"CHUNKJSON_MAX_DEPTH", "CHUNKJSON_MAX_PATCHES", "CHUNKJSON_SORT_KEYS", "CHUNKJSON_COMPACT", "CHUNKJSON_MAX_LINE_BYTES"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error %q does not mention %s", err, name)
		}
	}
	if cfg.Driver != chunkjson.DriverGoJSON {
		t.Fatalf("empty variable should not override driver, got %q", cfg.Driver)
	}
}
