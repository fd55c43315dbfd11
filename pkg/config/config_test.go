package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/cadpage/pkg/cache"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Paper.Size != "A4" || c.Paper.Margin != 0.5 {
		t.Errorf("Paper = %+v, want A4 with 0.5in margin", c.Paper)
	}
	if c.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", c.Server.Addr, DefaultAddr)
	}
	cat, err := c.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if diff := cmp.Diff([]string{"A4", "A4 Rotated"}, cat.Names()); diff != "" {
		t.Errorf("Catalog mismatch (-want +got):\n%s", diff)
	}

	// Each call returns a fresh value.
	c.Export.Formats[0] = "svg"
	if Default().Export.Formats[0] != "pdf" {
		t.Error("Default shares state between calls")
	}
}

func TestParse(t *testing.T) {
	c, err := Parse(`
[paper]
margin = 0.25
catalog = ["Letter", "A3"]

[export]
formats = ["svg", "png"]
workers = 8

[cache]
backend = "redis"
ttl = "2h"
redis_addr = "cache:6379"

[server]
addr = "127.0.0.1:9000"
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Paper.Margin != 0.25 {
		t.Errorf("Margin = %v, want 0.25", c.Paper.Margin)
	}
	if diff := cmp.Diff([]string{"svg", "png"}, c.Export.Formats); diff != "" {
		t.Errorf("Formats mismatch (-want +got):\n%s", diff)
	}
	if c.Cache.TTL.Duration != 2*time.Hour {
		t.Errorf("TTL = %v, want 2h", c.Cache.TTL)
	}
	if c.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", c.Server.Addr)
	}
	// Unset values keep their defaults.
	if c.Export.Theme != "white" {
		t.Errorf("Theme = %q, want white", c.Export.Theme)
	}

	cat, err := c.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Letter", "Letter Rotated", "A3", "A3 Rotated"}
	if diff := cmp.Diff(want, cat.Names()); diff != "" {
		t.Errorf("Catalog mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Letter", "A3"}, c.PaperSpecs()); diff != "" {
		t.Errorf("PaperSpecs mismatch (-want +got):\n%s", diff)
	}

	opts := c.CacheOptions("/tmp/x")
	if opts.Backend != cache.BackendRedis || opts.Redis.Addr != "cache:6379" || opts.Dir != "/tmp/x" {
		t.Errorf("CacheOptions = %+v", opts)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"syntax", "[paper"},
		{"unknown key", "[paper]\nsise = \"A4\""},
		{"negative margin", "[paper]\nmargin = -1"},
		{"bad size", "[paper]\nsize = \"B9\""},
		{"bad ttl", "[cache]\nttl = \"soon\""},
		{"negative workers", "[export]\nworkers = -2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.text); err == nil {
				t.Error("Parse: want error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	// Missing default file yields defaults.
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load default: %v", err)
	}
	if c.Path != "" {
		t.Errorf("Path = %q, want empty", c.Path)
	}

	// Missing explicit file is an error.
	if _, err := Load(filepath.Join(dir, "nope.toml")); err == nil {
		t.Error("Load of missing explicit file: want error")
	}

	path, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "cadpage", "config.toml"); path != want {
		t.Errorf("DefaultPath = %q, want %q", path, want)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[paper]\nsize = \"Letter\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Paper.Size != "Letter" || c.Path != path {
		t.Errorf("Load = size %q from %q, want Letter from %q", c.Paper.Size, c.Path, path)
	}
}

func TestWriteParses(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	c, err := Parse(buf.String())
	if err != nil {
		t.Fatalf("Parse(Write(Default())): %v\n%s", err, buf.String())
	}
	if diff := cmp.Diff(Default(), c, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}
