package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hpungsan/castpaint/internal/errors"
	"github.com/hpungsan/castpaint/internal/ops"
	"github.com/hpungsan/castpaint/internal/run"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "runs" or "lexicon"
}

// ListPageData is the template data for the run list page.
type ListPageData struct {
	PageData
	Items      []run.Summary
	Pagination ops.Pagination
	Notice     string
}

// DetailPageData is the template data for the run detail page.
type DetailPageData struct {
	PageData
	Run    *run.Run
	Report template.HTML
}

// LexiconPageData is the template data for the lexicon page.
type LexiconPageData struct {
	PageData
	Lexicon *ops.LexiconOutput
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer holds one parsed template set per page, each a clone of the layout.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer parses the layout and page templates from templateFS.
func NewRenderer(templateFS fs.FS, version string) (*Renderer, error) {
	funcMap := template.FuncMap{
		"add":            func(a, b int) int { return a + b },
		"sub":            func(a, b int) int { return a - b },
		"formatTime":     formatTime,
		"formatCount":    formatCount,
		"formatDuration": formatDuration,
		"timeAgo":        timeAgo,
		"quote":          strconv.Quote,
		"join":           strings.Join,
	}

	layout, err := template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pages := map[string]string{
		"list":    "list.html",
		"detail":  "detail.html",
		"lexicon": "lexicon.html",
		"error":   "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		templates[name] = t
	}

	return &Renderer{templates: templates, version: version}, nil
}

func (r *Renderer) page(title, nav string) PageData {
	return PageData{Title: title, Version: r.version, Nav: nav}
}

// renderPage renders a named page template with HTTP 200.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders into a buffer first so a template error never
// leaves a half-written page behind a 200.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		slog.Error("template not found", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError writes err as JSON when the client asks for it, otherwise as
// the error page. Non-PaintErrors become INTERNAL.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	pErr := errors.As(err)
	if pErr == nil {
		pErr = errors.NewInternal(err)
	}
	if pErr.Code == errors.ErrInternal {
		slog.Error("request failed", "path", req.URL.Path, "error", err)
	}

	if wantsJSON(req) {
		renderJSON(w, pErr.Status, map[string]any{
			"error": map[string]any{
				"code":    string(pErr.Code),
				"message": pErr.Message,
				"status":  pErr.Status,
			},
		})
		return
	}

	r.renderPageStatus(w, pErr.Status, "error", ErrorPageData{
		PageData:   r.page(fmt.Sprintf("Error %d", pErr.Status), ""),
		StatusCode: pErr.Status,
		Message:    pErr.Message,
	})
}

func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderReport converts a run's Markdown report to HTML, falling back to
// the escaped Markdown if rendering fails.
func renderReport(r *run.Run) template.HTML {
	md := run.Report(r)
	html, err := run.RenderHTML(md)
	if err != nil {
		slog.Warn("report rendering failed", "run", r.ID, "error", err)
		return template.HTML("<pre>" + template.HTMLEscapeString(md) + "</pre>")
	}
	return template.HTML(html)
}

// formatTime formats a Unix timestamp as "2006-01-02 15:04" UTC.
func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}

// formatDuration formats recording seconds as "1m02.5s" or "2.50s".
func formatDuration(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.2fs", seconds)
	}
	m := int(seconds) / 60
	return fmt.Sprintf("%dm%04.1fs", m, seconds-float64(m*60))
}

// formatCount formats an integer with comma thousands separators.
func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

// timeAgo formats a Unix timestamp relative to now, e.g. "3 hours ago".
func timeAgo(unix int64) string {
	return humanize.Time(time.Unix(unix, 0))
}
