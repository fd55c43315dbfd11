package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/cadpage/pkg/cache"
	"github.com/matzehuels/cadpage/pkg/drawing"
	"github.com/matzehuels/cadpage/pkg/export"
	"github.com/matzehuels/cadpage/pkg/observability"
	"github.com/matzehuels/cadpage/pkg/pipeline"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(c, nil, nil)
	s := New(runner, nil)
	s.Hooks = observability.NoopHTTPHooks{}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		runner.Close()
	})
	return s, ts
}

func sampleJSON(t *testing.T, d *drawing.Drawing) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := drawing.Write(&buf, d); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func do(t *testing.T, method, url string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var e errorBody
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body healthBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Version == "" {
		t.Errorf("body = %+v", body)
	}
	if _, err := uuid.Parse(resp.Header.Get(RequestIDHeader)); err != nil {
		t.Errorf("%s = %q, want a UUID", RequestIDHeader, resp.Header.Get(RequestIDHeader))
	}
}

func TestRequestIDIsKept(t *testing.T) {
	_, ts := newTestServer(t)
	id := uuid.NewString()
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("%s = %q, want %q", RequestIDHeader, got, id)
	}

	req.Header.Set(RequestIDHeader, "not-a-uuid")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got == "not-a-uuid" {
		t.Error("malformed request id should be replaced")
	}
}

func TestSample(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/v1/sample.png?width=300&height=200", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if got := resp.Header.Get(CacheHeader); got != "miss" {
		t.Errorf("%s = %q, want miss", CacheHeader, got)
	}
	cfg, err := png.DecodeConfig(resp.Body)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 300 || cfg.Height != 200 {
		t.Errorf("image = %dx%d, want 300x200", cfg.Width, cfg.Height)
	}

	again := do(t, http.MethodGet, ts.URL+"/v1/sample.png?width=300&height=200", nil)
	if got := again.Header.Get(CacheHeader); got != "hit" {
		t.Errorf("second %s = %q, want hit", CacheHeader, got)
	}

	for _, q := range []string{"width=0", "height=abc", "width=100000"} {
		resp := do(t, http.MethodGet, ts.URL+"/v1/sample.png?"+q, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, resp.StatusCode)
		}
	}
}

func TestPlan(t *testing.T) {
	_, ts := newTestServer(t)
	body := sampleJSON(t, drawing.Sample())

	resp := do(t, http.MethodPost, ts.URL+"/v1/plan?paper=Letter&margin=0.25", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var s export.Summary
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		t.Fatal(err)
	}
	if len(s.Pages) != 5 {
		t.Fatalf("len(Pages) = %d, want 5", len(s.Pages))
	}
	if s.Pages[0].Margin != 0.25 || !strings.HasPrefix(s.Pages[0].Paper, "Letter") {
		t.Errorf("model page = %s with margin %v, want Letter with 0.25", s.Pages[0].Paper, s.Pages[0].Margin)
	}

	again := do(t, http.MethodPost, ts.URL+"/v1/plan?paper=Letter&margin=0.25", body)
	if got := again.Header.Get(CacheHeader); got != "hit" {
		t.Errorf("second %s = %q, want hit", CacheHeader, got)
	}
}

func TestPlanErrors(t *testing.T) {
	_, ts := newTestServer(t)
	sample := sampleJSON(t, drawing.Sample())

	tests := []struct {
		name   string
		query  string
		body   []byte
		status int
		code   string
	}{
		{"empty body", "", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad json", "", []byte("{"), http.StatusBadRequest, "INVALID_FORMAT"},
		{"bad margin", "?margin=wide", sample, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad paper", "?paper=B9", sample, http.StatusBadRequest, "INVALID_PAPER"},
		{"unknown layout", "?layout=Nope", sample, http.StatusNotFound, "LAYOUT_NOT_FOUND"},
		{"unknown view", "?view=Nope", sample, http.StatusNotFound, "VIEW_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/v1/plan"+tt.query, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if e := decodeError(t, resp); e.Code != tt.code {
				t.Errorf("code = %q, want %q", e.Code, tt.code)
			}
		})
	}
}

func TestExportSinglePage(t *testing.T) {
	_, ts := newTestServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/v1/export?format=svg&layout=Letter", sampleJSON(t, drawing.Sample()))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q, want image/svg+xml", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, `filename="sample.svg"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	data, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(data, []byte("<svg")) {
		t.Error("body is not an SVG document")
	}
}

func TestExportAllPages(t *testing.T) {
	_, ts := newTestServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/v1/export?format=json", sampleJSON(t, drawing.Sample()))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body exportBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Artifacts) != 5 || len(body.Skipped) != 1 {
		t.Errorf("envelope = %d artifacts, %d skipped; want 5, 1", len(body.Artifacts), len(body.Skipped))
	}
	if body.Artifacts[0].Layout != drawing.ModelLayoutName || len(body.Artifacts[0].Data) == 0 {
		t.Errorf("first artifact = %s with %d bytes", body.Artifacts[0].Layout, len(body.Artifacts[0].Data))
	}
}

func TestExportCombinedPDF(t *testing.T) {
	_, ts := newTestServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/v1/export?format=pdf&combine=true", sampleJSON(t, drawing.Sample()))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q, want application/pdf", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, `filename="sample.pdf"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	data, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("body is not a PDF document")
	}

	bad := do(t, http.MethodPost, ts.URL+"/v1/export?format=pdf&combine=maybe", sampleJSON(t, drawing.Sample()))
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("combine=maybe status = %d, want 400", bad.StatusCode)
	}
}

func TestExportPartialFailure(t *testing.T) {
	d := drawing.Sample()
	d.AddBlock(&drawing.Block{Name: "loop", Entities: []drawing.Entity{&drawing.Insert{Block: "loop"}}})
	l, _ := d.Layout("Extents")
	l.Entities = append(l.Entities, &drawing.Insert{Block: "loop"})

	_, ts := newTestServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/v1/export?format=json", sampleJSON(t, d))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body exportBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if _, ok := body.Failed["Extents"]; !ok || len(body.Artifacts) != 4 {
		t.Errorf("envelope = %d artifacts, failed %v; want 4 and Extents", len(body.Artifacts), body.Failed)
	}
}

func TestExportErrors(t *testing.T) {
	_, ts := newTestServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/v1/export?format=dwg", sampleJSON(t, drawing.Sample()))
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", resp.StatusCode)
	}
	if e := decodeError(t, resp); e.Code != "UNSUPPORTED" {
		t.Errorf("code = %q, want UNSUPPORTED", e.Code)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/export", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", resp.StatusCode)
	}
}

func TestBodyLimit(t *testing.T) {
	s, ts := newTestServer(t)
	s.MaxBodyBytes = 16
	resp := do(t, http.MethodPost, ts.URL+"/v1/plan", sampleJSON(t, drawing.Sample()))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestNotFound(t *testing.T) {
	_, ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/v2/nothing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if e := decodeError(t, resp); e.Code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", e.Code)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := observability.NewPrometheus(reg)

	s, ts := newTestServer(t)
	s.Gatherer = reg
	s.Hooks = p

	do(t, http.MethodGet, ts.URL+"/healthz", nil)
	do(t, http.MethodPost, ts.URL+"/v1/plan?layout=Nope", sampleJSON(t, drawing.Sample()))

	resp := do(t, http.MethodGet, ts.URL+"/metrics", nil)
	data, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`cadpage_http_requests_total{method="GET",route="/healthz",status="200"} 1`,
		`cadpage_http_requests_total{method="POST",route="/v1/plan",status="404"} 1`,
	} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestListenAndServeStops(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("ListenAndServe = %v, want nil after cancel", err)
	}
}
