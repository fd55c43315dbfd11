package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"slices"
	"strconv"

	"github.com/matzehuels/cadpage/pkg/buildinfo"
	"github.com/matzehuels/cadpage/pkg/drawing"
	"github.com/matzehuels/cadpage/pkg/errors"
	"github.com/matzehuels/cadpage/pkg/pipeline"
	"github.com/matzehuels/cadpage/pkg/render/sink"
)

// CacheHeader reports "hit" or "miss" on cacheable responses.
const CacheHeader = "X-Cache"

const maxPreviewSide = 4096

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type healthBody struct {
	Status string `json:"status"`
	buildinfo.Info
}

type artifactBody struct {
	Layout      string `json:"layout"`
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
	Document    bool   `json:"document,omitempty"`
}

type exportBody struct {
	Drawing   string            `json:"drawing"`
	Artifacts []artifactBody    `json:"artifacts"`
	Skipped   []string          `json:"skipped,omitempty"`
	Failed    map[string]string `json:"failed,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthBody{Status: "ok", Info: buildinfo.Current()})
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	width, err := intParam(r, "width", sink.DefaultImageWidth)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	height, err := intParam(r, "height", sink.DefaultImageHeight)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, hit, err := s.Runner.Preview(r.Context(), drawing.WelcomeSample(), width, height)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set(CacheHeader, cacheStatus(hit))
	writeBytes(w, sink.FormatPNG.ContentType(), data)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, hit, err := s.Runner.PlanWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set(CacheHeader, cacheStatus(hit))
	writeJSON(w, http.StatusOK, summary)
}

// handleExport renders the drawing in one format. A single page, or a
// combined PDF (combine=true), is returned as is; several pages come back in
// a JSON envelope.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" && len(opts.Formats) > 0 {
		format = opts.Formats[0]
	}
	if format == "" {
		format = pipeline.DefaultFormat
	}
	opts.Formats = []string{format}

	res, err := s.Runner.Execute(r.Context(), opts)
	if res == nil || (err != nil && len(res.Artifacts) == 0) {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set(CacheHeader, cacheStatus(res.CacheInfo.AllCached()))

	summary := res.Plan.Summary()
	if len(res.Artifacts) == 1 && len(summary.Failed) == 0 {
		a := res.Artifacts[0]
		name := sink.FileName(errors.SanitizeFileComponent(res.Drawing.Name), a.Layout, true, a.Format)
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		writeBytes(w, a.Format.ContentType(), a.Data)
		return
	}

	body := exportBody{
		Drawing:   summary.Drawing,
		Artifacts: make([]artifactBody, 0, len(res.Artifacts)),
		Skipped:   summary.Skipped,
		Failed:    summary.Failed,
	}
	for _, a := range res.Artifacts {
		body.Artifacts = append(body.Artifacts, artifactBody{
			Layout:      a.Layout,
			Format:      string(a.Format),
			ContentType: a.Format.ContentType(),
			Data:        a.Data,
			Document:    a.Document,
		})
	}
	writeJSON(w, http.StatusOK, body)
}

// options builds pipeline options from the server defaults, the query
// string and the request body.
func (s *Server) options(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	opts := s.Defaults
	opts.Paper = slices.Clone(opts.Paper)
	opts.Formats = slices.Clone(opts.Formats)
	opts.Input = ""

	q := r.URL.Query()
	opts.Layout = q.Get("layout")
	opts.View = q.Get("view")
	if v := q["paper"]; len(v) > 0 {
		opts.Paper = v
	}
	if v := q.Get("margin"); v != "" {
		m, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid margin %q", v)
		}
		opts.Margin = &m
	}
	if v := q.Get("theme"); v != "" {
		opts.Theme = v
	}
	if v := q.Get("combine"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid combine %q", v)
		}
		opts.CombinePDF = b
	}
	if v := q.Get("no_text"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid no_text %q", v)
		}
		opts.NoText = b
	}

	limit := s.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "drawing larger than %d bytes", limit)
		}
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return opts, errors.New(errors.ErrCodeInvalidInput, "request body must contain a drawing")
	}
	opts.Drawing = data
	return opts, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > maxPreviewSide {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be an integer between 1 and %d", name, maxPreviewSide)
	}
	return n, nil
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		err = errors.New(errors.ErrCodeInternal, "no output")
	}
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "id", RequestID(r.Context()), "error", err)
	}
	writeJSON(w, status, errorBody{Error: errors.UserMessage(err), Code: string(code)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, `{"error":"encode response","code":"INTERNAL_ERROR"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func writeBytes(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
