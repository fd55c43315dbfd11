package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cadpage/pkg/config"
)

func TestMain(m *testing.M) {
	spinnerOut = io.Discard
	os.Exit(m.Run())
}

// setupEnv points the config and cache lookups into a temp dir.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	return dir
}

// runCLI executes the root command with args and returns what it printed.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func writeSampleFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "sample.json")
	if _, err := runCLI(t, "sample", path); err != nil {
		t.Fatalf("sample: %v", err)
	}
	return path
}

func glob(t *testing.T, pattern string) []string {
	t.Helper()
	files, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatal(err)
	}
	return files
}

func TestSampleCommand(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(dir, "s.json")
	out, err := runCLI(t, "sample", path)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("sample file: %v", err)
	}
	if !strings.Contains(out, "6 layouts") {
		t.Errorf("output = %q, want layout count", out)
	}

	welcome := filepath.Join(dir, "w.json")
	if _, err := runCLI(t, "sample", "--welcome", welcome); err != nil {
		t.Fatalf("sample --welcome: %v", err)
	}
	a, _ := os.ReadFile(path)
	b, _ := os.ReadFile(welcome)
	if bytes.Equal(a, b) {
		t.Error("--welcome should write a different drawing")
	}
}

func TestExportCommand(t *testing.T) {
	dir := setupEnv(t)
	input := writeSampleFile(t, dir)
	base := filepath.Join(dir, "out", "bolt")

	out, err := runCLI(t, "export", input, "-f", "svg,json", "-o", base)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if got := len(glob(t, base+"-*.svg")); got != 5 {
		t.Errorf("svg files = %d, want 5", got)
	}
	if got := len(glob(t, base+"-*.json")); got != 5 {
		t.Errorf("json files = %d, want 5", got)
	}
	if _, err := os.Stat(base + "-ISO_A4.svg"); err != nil {
		t.Errorf("ISO A4 page: %v", err)
	}
	if !strings.Contains(out, "fresh") {
		t.Errorf("first export should render fresh pages: %q", out)
	}

	out, err = runCLI(t, "export", input, "-f", "svg,json", "-o", base)
	if err != nil {
		t.Fatalf("second export: %v", err)
	}
	if !strings.Contains(out, "cached") {
		t.Errorf("second export should be cached: %q", out)
	}
}

func TestExportDefaultsFromConfig(t *testing.T) {
	dir := setupEnv(t)
	input := writeSampleFile(t, dir)

	if _, err := runCLI(t, "export", input, "--no-cache"); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sample.pdf")); err != nil {
		t.Errorf("all layouts should go to one sample.pdf: %v", err)
	}
	if got := len(glob(t, filepath.Join(dir, "sample-*.pdf"))); got != 0 {
		t.Errorf("per-layout pdf files = %d, want 0", got)
	}

	cfg := filepath.Join(dir, "cadpage.toml")
	if err := os.WriteFile(cfg, []byte("[export]\nformats = [\"svg\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	base := filepath.Join(dir, "cfg")
	if _, err := runCLI(t, "--config", cfg, "export", input, "-o", base, "--no-cache"); err != nil {
		t.Fatalf("export with config: %v", err)
	}
	if got := len(glob(t, base+"-*.svg")); got != 5 {
		t.Errorf("svg files from config = %d, want 5", got)
	}
}

func TestExportSplitPDF(t *testing.T) {
	dir := setupEnv(t)
	input := writeSampleFile(t, dir)

	if _, err := runCLI(t, "export", input, "--split", "-f", "pdf,svg"); err != nil {
		t.Fatalf("export --split: %v", err)
	}
	if got := len(glob(t, filepath.Join(dir, "sample-*.pdf"))); got != 5 {
		t.Errorf("pdf files = %d, want 5", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "sample.pdf")); err == nil {
		t.Error("--split should not write a combined sample.pdf")
	}

	out, err := runCLI(t, "export", input, "-f", "pdf,svg", "-o", filepath.Join(dir, "both"))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "both.pdf")); err != nil {
		t.Errorf("combined pdf missing: %v", err)
	}
	if got := len(glob(t, filepath.Join(dir, "both-*.svg"))); got != 5 {
		t.Errorf("svg files = %d, want 5", got)
	}
	if !strings.Contains(out, "both.pdf") {
		t.Errorf("output should list the combined pdf: %q", out)
	}
}

func TestExportSingleLayout(t *testing.T) {
	dir := setupEnv(t)
	input := writeSampleFile(t, dir)
	base := filepath.Join(dir, "letter.pdf")

	if _, err := runCLI(t, "export", input, "--layout", "Letter", "-o", base); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(base); err != nil {
		t.Errorf("single layout should be written to %s: %v", base, err)
	}
}

func TestExportImageSize(t *testing.T) {
	dir := setupEnv(t)
	input := writeSampleFile(t, dir)
	base := filepath.Join(dir, "thumb")

	if _, err := runCLI(t, "export", input, "--size", "120x80", "-o", base); err != nil {
		t.Fatalf("export --size: %v", err)
	}
	f, err := os.Open(base + ".png")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if cfg.Width != 120 || cfg.Height != 80 {
		t.Errorf("image = %dx%d, want 120x80", cfg.Width, cfg.Height)
	}
}

func TestExportErrors(t *testing.T) {
	dir := setupEnv(t)
	input := writeSampleFile(t, dir)

	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"export", filepath.Join(dir, "nope.json")}},
		{"bad format", []string{"export", input, "-f", "dwg"}},
		{"bad paper", []string{"export", input, "--paper", "B7"}},
		{"unknown layout", []string{"export", input, "--layout", "Nope"}},
		{"bad size", []string{"export", input, "--size", "big"}},
		{"no args", []string{"export"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, tt.args...); err == nil {
				t.Error("want error")
			}
		})
	}
}

func TestInspectJSON(t *testing.T) {
	dir := setupEnv(t)
	input := writeSampleFile(t, dir)

	out, err := runCLI(t, "inspect", input, "--json", "--paper", "Letter")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var report inspectReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Drawing != "sample" {
		t.Errorf("Drawing = %q, want sample", report.Drawing)
	}
	if report.Stats.Layouts != 6 {
		t.Errorf("Stats.Layouts = %d, want 6", report.Stats.Layouts)
	}
	if len(report.Plan.Pages) != 5 || len(report.Plan.Skipped) != 1 {
		t.Errorf("Plan = %d pages, %d skipped; want 5, 1", len(report.Plan.Pages), len(report.Plan.Skipped))
	}
	if report.Bounds == nil {
		t.Error("model bounds missing")
	}
	if p := report.Plan.Pages[0].Paper; !strings.HasPrefix(p, "Letter") {
		t.Errorf("model page = %q, want a Letter page", p)
	}
}

func TestInspectTable(t *testing.T) {
	dir := setupEnv(t)
	input := writeSampleFile(t, dir)

	out, err := runCLI(t, "inspect", input)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"sample", "ISO A4", "Extents", "Blank"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q", want)
		}
	}
}

func TestConfigCommand(t *testing.T) {
	setupEnv(t)
	out, err := runCLI(t, "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg, err := config.Parse(out)
	if err != nil {
		t.Fatalf("printed config does not parse: %v\n%s", err, out)
	}
	if cfg.Server.Addr != config.DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, config.DefaultAddr)
	}

	out, err = runCLI(t, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), filepath.Join(appName, "config.toml")) {
		t.Errorf("config path = %q", out)
	}
}

func TestConfigErrors(t *testing.T) {
	dir := setupEnv(t)
	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[paper]\nmargin = -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "--config", bad, "config"); err == nil {
		t.Error("invalid config should fail")
	}
	if _, err := runCLI(t, "--config", filepath.Join(dir, "missing.toml"), "config"); err == nil {
		t.Error("missing explicit config should fail")
	}
}

func TestCacheCommands(t *testing.T) {
	dir := setupEnv(t)
	input := writeSampleFile(t, dir)

	out, err := runCLI(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	want := filepath.Join(dir, "cache", appName)
	if got := strings.TrimSpace(out); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}

	out, err = runCLI(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "empty") {
		t.Errorf("clear on empty cache = %q", out)
	}

	if _, err := runCLI(t, "export", input, "-f", "svg"); err != nil {
		t.Fatalf("export: %v", err)
	}
	out, err = runCLI(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "Cleared 5 cached entries") {
		t.Errorf("cache clear = %q, want 5 entries", out)
	}
}

func TestCompletionCommand(t *testing.T) {
	setupEnv(t)
	out, err := runCLI(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(out, appName) {
		t.Error("bash completion should mention the program")
	}
}

func TestCompleteLayouts(t *testing.T) {
	input := writeSampleFile(t, setupEnv(t))

	names, directive := completeLayouts(nil, []string{input}, "")
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v, want NoFileComp", directive)
	}
	if len(names) != 6 || names[0] != "Model" {
		t.Errorf("completeLayouts() = %v, want 6 names starting with Model", names)
	}
	if !slices.Contains(names, "ISO A4") {
		t.Errorf("completeLayouts() = %v, missing ISO A4", names)
	}

	if views, _ := completeViews(nil, []string{input}, ""); len(views) == 0 {
		t.Error("completeViews() returned no views for the sample")
	}
	if names, _ := completeLayouts(nil, nil, ""); names != nil {
		t.Errorf("completeLayouts() without args = %v, want nil", names)
	}
	if names, _ := completeLayouts(nil, []string{"missing.json"}, ""); names != nil {
		t.Errorf("completeLayouts() on missing file = %v, want nil", names)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{"600x500", 600, 500, false},
		{"64X48", 64, 48, false},
		{" 10 x 20 ", 10, 20, false},
		{"600", 0, 0, true},
		{"0x10", 0, 0, true},
		{"-5x10", 0, 0, true},
		{"axb", 0, 0, true},
	}
	for _, tt := range tests {
		w, h, err := parseSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if w != tt.w || h != tt.h {
			t.Errorf("parseSize(%q) = %d, %d, want %d, %d", tt.in, w, h, tt.w, tt.h)
		}
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		input, output, want string
	}{
		{"drawings/bolt.json", "", "drawings/bolt"},
		{"bolt.json", "out/page.pdf", "out/page"},
		{"bolt.json", "out/page.SVG", "out/page"},
		{"bolt.json", "out/page", "out/page"},
		{"bolt.json", "out/page.v2", "out/page.v2"},
	}
	for _, tt := range tests {
		if got := outputBase(tt.input, tt.output); got != tt.want {
			t.Errorf("outputBase(%q, %q) = %q, want %q", tt.input, tt.output, got, tt.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %v, want nil", got)
	}
	got := splitList("pdf, svg,,png ")
	if strings.Join(got, "|") != "pdf|svg|png" {
		t.Errorf("splitList = %v, want [pdf svg png]", got)
	}
}
