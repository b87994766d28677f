package web

import (
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/lemonberrylabs/evoql/pkg/api"
	"github.com/lemonberrylabs/evoql/pkg/store"
)

func setupTestApp(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()
	s := store.New()
	h := New(s, api.NewAnalyzer(200, 8))
	app := fiber.New()
	h.Register(app)
	return app, s
}

func getPage(t *testing.T, app *fiber.App, target string) string {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	return string(body)
}

func TestPlaygroundEmpty(t *testing.T) {
	app, _ := setupTestApp(t)
	html := getPage(t, app, "/ui")

	for _, want := range []string{"Playground", "EvoQL", "limit 200 characters"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in response", want)
		}
	}
	if strings.Contains(html, "Canonical form") {
		t.Error("no result expected without a query")
	}
}

func TestPlaygroundQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    []string
		notWant []string
	}{
		{
			name:    "valid",
			query:   `GET mention WHERE tag:"news"  sentiment<0`,
			want:    []string{"Valid query", "GET mention WHERE tag:&#34;news&#34; AND sentiment&lt;0", "Tokens", "&#34;type&#34;: &#34;Get&#34;"},
			notWant: []string{"Diagnostics"},
		},
		{
			name:  "diagnostics",
			query: "a:(1 AND 2",
			want:  []string{"Diagnostics", "diag-SyntaxError", "line 1 col 11: CloseGroup expected"},
		},
		{
			name:    "too long",
			query:   strings.Repeat("x ", 150),
			want:    []string{"query too long"},
			notWant: []string{"Canonical form"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupTestApp(t)
			html := getPage(t, app, "/ui?q="+url.QueryEscape(tt.query))
			for _, want := range tt.want {
				if !strings.Contains(html, want) {
					t.Errorf("expected %q in response", want)
				}
			}
			for _, bad := range tt.notWant {
				if strings.Contains(html, bad) {
					t.Errorf("did not expect %q in response", bad)
				}
			}
		})
	}
}

func TestQueryList(t *testing.T) {
	app, s := setupTestApp(t)

	html := getPage(t, app, "/ui/queries")
	if !strings.Contains(html, "No saved queries") {
		t.Error("expected empty state message")
	}

	s.CreateQuery("news", `tag:"news"`, `tag:"news"`, "", nil)
	s.CreateQuery("alerts", "sentiment<-3", "sentiment<-3", "", nil)

	html = getPage(t, app, "/ui/queries")
	for _, want := range []string{"/ui/queries/news", "/ui/queries/alerts", "just now"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in response", want)
		}
	}
	if strings.Index(html, "alerts") > strings.Index(html, "/ui/queries/news") {
		t.Error("queries are not sorted by name")
	}
}

func TestQueryDetail(t *testing.T) {
	app, s := setupTestApp(t)
	s.CreateQuery("news", "tag:news\n  OR tag:press", "tag:news OR tag:press", "Press coverage", map[string]string{"team": "pr"})

	html := getPage(t, app, "/ui/queries/news")
	for _, want := range []string{"Press coverage", "2 line(s)", "tag:news OR tag:press", "team", "Open in playground"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in response", want)
		}
	}
}

func TestQueryNotFound(t *testing.T) {
	app, _ := setupTestApp(t)
	html := getPage(t, app, "/ui/queries/nonexistent")
	if !strings.Contains(html, "Not Found") {
		t.Error("expected not found message")
	}
}

func TestRootRedirect(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("GET", "/", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 302 {
		t.Fatalf("expected 302 redirect, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/ui" {
		t.Fatalf("expected redirect to /ui, got %s", loc)
	}
}

func TestTemplateHelpers(t *testing.T) {
	if got := truncate("héllo wörld", 5); got != "héllo..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if countLines("") != 0 || countLines("a\nb\nc") != 3 {
		t.Error("countLines mismatch")
	}
	if diagClass("SyntaxError") != "diag-SyntaxError" {
		t.Error("diagClass mismatch")
	}
}
