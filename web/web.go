// Package web provides the embedded query playground.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/lemonberrylabs/evoql/pkg/api"
	"github.com/lemonberrylabs/evoql/pkg/expr"
	"github.com/lemonberrylabs/evoql/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the web UI pages.
type Handler struct {
	store    *store.Store
	analyzer *api.Analyzer
	funcMap  template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	Title     string
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler.
func New(s *store.Store, a *api.Analyzer) *Handler {
	return &Handler{
		store:    s,
		analyzer: a,
		funcMap: template.FuncMap{
			"timeAgo":    timeAgo,
			"formatTime": formatTime,
			"truncate":   truncate,
			"countLines": countLines,
			"diagClass":  diagClass,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page, title, navActive string, data interface{}) error {
	// each page gets its own template set so that "content" is defined once
	tmpl := template.Must(
		template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page),
	)

	pd := pageData{
		Title:     title,
		NavActive: navActive,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.playground)
	app.Get("/ui/queries", h.queryList)
	app.Get("/ui/queries/:name", h.queryDetail)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type playgroundContent struct {
	Query     string
	MaxLength int
	Result    *api.Result
	Tokens    []expr.Token
	Tree      string
	Error     string
}

type queryListContent struct {
	Queries []*store.Query
}

type queryDetailContent struct {
	Name  string
	Query *store.Query
}

// --- Handlers ---

func (h *Handler) playground(c *fiber.Ctx) error {
	content := playgroundContent{
		Query:     utils.CopyString(c.Query("q")), // cache key
		MaxLength: h.analyzer.MaxQueryLength(),
	}
	if strings.TrimSpace(content.Query) == "" {
		return h.render(c, "playground.html", "Playground", "playground", content)
	}

	r, err := h.analyzer.Parse(content.Query)
	if err != nil {
		content.Error = err.Error()
		return h.render(c, "playground.html", "Playground", "playground", content)
	}
	content.Result = r

	if tokens, err := h.analyzer.Tokenize(content.Query); err == nil {
		content.Tokens = tokens
	}

	tree, err := json.MarshalIndent(r.ToMap()["tree"], "", "  ")
	if err != nil {
		content.Error = fmt.Sprintf("encoding tree: %v", err)
	} else {
		content.Tree = string(tree)
	}
	return h.render(c, "playground.html", "Playground", "playground", content)
}

func (h *Handler) queryList(c *fiber.Ctx) error {
	return h.render(c, "queries.html", "Saved Queries", "queries", queryListContent{
		Queries: h.store.ListQueries(),
	})
}

func (h *Handler) queryDetail(c *fiber.Ctx) error {
	name := utils.CopyString(c.Params("name"))
	content := queryDetailContent{Name: name}

	q, err := h.store.GetQuery(name)
	switch {
	case err == nil:
		content.Query = q
	case !errors.Is(err, store.ErrNotFound):
		return c.Status(500).SendString(err.Error())
	}
	return h.render(c, "query.html", name, "queries", content)
}

// --- Template Helpers ---

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

func diagClass(kind string) string {
	return "diag-" + kind
}
