// Package api implements the REST API for parsing EvoQL queries and
// managing saved queries.
package api

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/google/uuid"

	"github.com/lemonberrylabs/evoql/pkg/catalog"
	"github.com/lemonberrylabs/evoql/pkg/store"
	"github.com/lemonberrylabs/evoql/pkg/types"
)

// RequestIDHeader carries the id assigned to every request.
const RequestIDHeader = "X-Request-ID"

// Server is the HTTP API server.
type Server struct {
	app      *fiber.App
	store    *store.Store
	analyzer *Analyzer
}

// Option configures a Server.
type Option func(*options)

type options struct {
	accessLog io.Writer
}

// WithAccessLog writes one line per request to w.
func WithAccessLog(w io.Writer) Option {
	return func(o *options) { o.accessLog = w }
}

// New creates a new API server.
func New(s *store.Store, a *Analyzer, opts ...Option) *Server {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	srv := &Server{
		store:    s,
		analyzer: a,
	}

	// Immutable: names and query text outlive the request in the store and
	// the parse cache.
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Immutable:             true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	app.Use(requestID)
	if o.accessLog != nil {
		app.Use(logger.New(logger.Config{
			Output: o.accessLog,
			Format: "${time} ${status} ${method} ${path} ${latency} ${locals:requestID}\n",
		}))
	}

	// Parsing
	app.Post("/v1/parse", srv.parse)
	app.Get("/v1/parse", srv.parse)
	app.Post("/v1/tokenize", srv.tokenize)
	app.Get("/v1/tokenize", srv.tokenize)

	// Saved queries
	app.Post("/v1/queries", srv.createQuery)
	app.Get("/v1/queries", srv.listQueries)
	app.Get("/v1/queries/:query", srv.getQuery)
	app.Patch("/v1/queries/:query", srv.updateQuery)
	app.Delete("/v1/queries/:query", srv.deleteQuery)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

// Analyzer returns the analyzer shared with the other services.
func (s *Server) Analyzer() *Analyzer {
	return s.analyzer
}

func requestID(c *fiber.Ctx) error {
	id := c.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(RequestIDHeader, id)
	c.Locals("requestID", id)
	return c.Next()
}

func errorJSON(c *fiber.Ctx, code int, status, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}

// analyzeError maps an Analyzer error to a response.
func analyzeError(c *fiber.Ctx, err error) error {
	var srcErr *types.SourceError
	switch {
	case errors.Is(err, ErrEmptyQuery), errors.Is(err, ErrQueryTooLong):
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	case errors.As(err, &srcErr):
		return errorJSON(c, fiber.StatusUnprocessableEntity, "INVALID_ARGUMENT", err.Error())
	}
	return errorJSON(c, fiber.StatusInternalServerError, "INTERNAL", err.Error())
}

func storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		return errorJSON(c, fiber.StatusConflict, "ALREADY_EXISTS", err.Error())
	}
	return errorJSON(c, fiber.StatusInternalServerError, "INTERNAL", err.Error())
}

// --- Parse Handlers ---

type queryRequest struct {
	Query string `json:"query"`
}

// queryText reads the query from ?q= or, for POST, the JSON body.
func queryText(c *fiber.Ctx) (string, error) {
	if c.Method() == fiber.MethodGet || len(c.Body()) == 0 {
		return c.Query("q"), nil
	}
	var req queryRequest
	if err := c.BodyParser(&req); err != nil {
		return "", err
	}
	return req.Query, nil
}

func (s *Server) parse(c *fiber.Ctx) error {
	query, err := queryText(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}
	r, err := s.analyzer.Parse(query)
	if err != nil {
		return analyzeError(c, err)
	}
	return c.JSON(r.ToMap())
}

func (s *Server) tokenize(c *fiber.Ctx) error {
	query, err := queryText(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}
	tokens, err := s.analyzer.Tokenize(query)
	if err != nil {
		return analyzeError(c, err)
	}
	return c.JSON(fiber.Map{"tokens": TokensToList(tokens)})
}

// --- Saved Query Handlers ---

type saveQueryRequest struct {
	Query       string            `json:"query"`
	Description string            `json:"description"`
	Labels      map[string]string `json:"labels"`
}

// compile parses a query about to be saved. A non-nil error means a
// response has been written.
func (s *Server) compile(c *fiber.Ctx, query string) (*Result, bool, error) {
	r, err := s.analyzer.Parse(query)
	if err != nil {
		return nil, false, analyzeError(c, err)
	}
	if !r.Valid {
		return nil, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fiber.Map{
				"code":        fiber.StatusBadRequest,
				"message":     "invalid query: " + r.Diagnostics[0].String(),
				"status":      "INVALID_ARGUMENT",
				"diagnostics": r.Diagnostics.ToList(),
			},
		})
	}
	return r, true, nil
}

func (s *Server) createQuery(c *fiber.Ctx) error {
	name := c.Query("queryId")
	if name == "" {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", "queryId query parameter is required")
	}
	if err := catalog.ValidateName(name); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	}

	var req saveQueryRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}

	r, ok, err := s.compile(c, req.Query)
	if !ok {
		return err
	}

	q, err := s.store.CreateQuery(name, req.Query, r.Canonical, req.Description, req.Labels)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(queryToJSON(q))
}

func (s *Server) getQuery(c *fiber.Ctx) error {
	q, err := s.store.GetQuery(c.Params("query"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(queryToJSON(q))
}

func (s *Server) listQueries(c *fiber.Ctx) error {
	queries := s.store.ListQueries()

	items := make([]fiber.Map, len(queries))
	for i, q := range queries {
		items[i] = queryToJSON(q)
	}

	return c.JSON(fiber.Map{
		"queries": items,
	})
}

func (s *Server) updateQuery(c *fiber.Ctx) error {
	name := c.Params("query")

	var req saveQueryRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}

	u := store.Update{Description: req.Description, Labels: req.Labels}
	if req.Query != "" {
		r, ok, err := s.compile(c, req.Query)
		if !ok {
			return err
		}
		u.Source, u.Canonical = req.Query, r.Canonical
	}

	q, err := s.store.UpdateQuery(name, u)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(queryToJSON(q))
}

func (s *Server) deleteQuery(c *fiber.Ctx) error {
	name := c.Params("query")
	if err := s.store.DeleteQuery(name); err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"name": name,
		"done": true,
	})
}

// --- Directory Loading ---

// LoadDir loads every YAML or TOML catalog in dir (optionally compressed)
// into the store. Entries that are misnamed, fail to parse or collide with an
// existing query are logged and skipped.
func (s *Server) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading queries directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file := entry.Name()
		if _, err := catalog.FormatForPath(file); err != nil {
			continue
		}

		cat, err := catalog.Load(filepath.Join(dir, file))
		if err != nil {
			log.Printf("Warning: could not read %q: %v", file, err)
			continue
		}

		for _, e := range cat.Queries {
			if err := catalog.ValidateName(e.Name); err != nil {
				log.Printf("Warning: skipping query in %q: %v", file, err)
				continue
			}
			if strings.TrimSpace(e.Query) == "" {
				log.Printf("Warning: skipping query %q in %q: empty query", e.Name, file)
				continue
			}
			r, err := s.analyzer.Parse(e.Query)
			if err != nil {
				log.Printf("Warning: could not parse query %q in %q: %v", e.Name, file, err)
				continue
			}
			if !r.Valid {
				log.Printf("Warning: skipping query %q in %q:\n%s", e.Name, file, r.Diagnostics)
				continue
			}
			if _, err := s.store.CreateQuery(e.Name, e.Query, r.Canonical, e.Description, e.Labels); err != nil {
				log.Printf("Warning: could not save query %q from %q: %v", e.Name, file, err)
				continue
			}
			loaded++
		}
		log.Printf("Loaded catalog %s", file)
	}

	log.Printf("Loaded %d query(s) from %s", loaded, dir)
	return nil
}

// --- Helpers ---

func queryToJSON(q *store.Query) fiber.Map {
	m := fiber.Map{
		"name":       q.Name,
		"source":     q.Source,
		"canonical":  q.Canonical,
		"revisionId": q.RevisionID,
		"createTime": q.CreateTime.Format(time.RFC3339),
		"updateTime": q.UpdateTime.Format(time.RFC3339),
	}
	if q.Description != "" {
		m["description"] = q.Description
	}
	if len(q.Labels) > 0 {
		m["labels"] = q.Labels
	}
	return m
}
