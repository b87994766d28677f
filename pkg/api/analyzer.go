package api

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lemonberrylabs/evoql/pkg/ast"
	"github.com/lemonberrylabs/evoql/pkg/expr"
	"github.com/lemonberrylabs/evoql/pkg/types"
)

var (
	// ErrEmptyQuery is returned for a blank query.
	ErrEmptyQuery = errors.New("query is required")
	// ErrQueryTooLong is returned for a query over the configured limit.
	ErrQueryTooLong = errors.New("query too long")
)

// Result is the outcome of parsing one query. Results may be shared through
// the cache and must not be modified.
type Result struct {
	Query       string
	Valid       bool
	Canonical   string
	Root        *ast.Root
	Diagnostics types.Diagnostics
}

// ToMap returns the response payload shared by the HTTP and gRPC APIs.
func (r *Result) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"query":       r.Query,
		"valid":       r.Valid,
		"canonical":   r.Canonical,
		"tree":        ast.ToMap(r.Root),
		"diagnostics": r.Diagnostics.ToList(),
	}
}

// Analyzer parses queries for the network services. It enforces the query
// length limit and caches results. It is safe for concurrent use.
type Analyzer struct {
	maxLen int
	cache  *resultCache
}

// NewAnalyzer creates an analyzer accepting queries of up to maxLen code
// points and caching up to cacheSize results.
func NewAnalyzer(maxLen, cacheSize int) *Analyzer {
	if maxLen <= 0 {
		maxLen = expr.DefaultMaxQueryLength
	}
	return &Analyzer{maxLen: maxLen, cache: newResultCache(cacheSize)}
}

// MaxQueryLength returns the query length limit.
func (a *Analyzer) MaxQueryLength() int {
	return a.maxLen
}

func (a *Analyzer) check(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	if n := utf8.RuneCountInString(query); n > a.maxLen {
		return fmt.Errorf("%w: %d characters, limit is %d", ErrQueryTooLong, n, a.maxLen)
	}
	return nil
}

// Parse parses query. The error is ErrEmptyQuery, ErrQueryTooLong or a
// *types.SourceError; syntax problems are reported in the Result.
func (a *Analyzer) Parse(query string) (*Result, error) {
	if err := a.check(query); err != nil {
		return nil, err
	}
	if r, ok := a.cache.get(query); ok {
		return r, nil
	}

	root, diags, err := expr.Parse(query)
	if err != nil {
		return nil, err
	}
	r := &Result{
		Query:       query,
		Valid:       len(diags) == 0,
		Canonical:   ast.Format(root),
		Root:        root,
		Diagnostics: diags,
	}
	a.cache.add(query, r)
	return r, nil
}

// Tokenize scans query and returns its tokens without the trailing EOF.
func (a *Analyzer) Tokenize(query string) ([]expr.Token, error) {
	if err := a.check(query); err != nil {
		return nil, err
	}
	tokens, err := expr.Tokenize(query)
	if err != nil {
		return nil, types.NewSourceError("reading query", err)
	}
	return tokens[:len(tokens)-1], nil
}

// TokensToList converts tokens to JSON-compatible maps.
func TokensToList(tokens []expr.Token) []interface{} {
	out := make([]interface{}, len(tokens))
	for i, tok := range tokens {
		out[i] = map[string]interface{}{
			"type":  tok.Type.String(),
			"value": tok.Value,
			"pos":   tok.Pos,
			"line":  tok.Line,
			"col":   tok.Col,
		}
	}
	return out
}
