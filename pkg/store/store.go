// Package store provides in-memory storage for saved queries.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a query does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a query whose name is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// Query represents a saved query.
type Query struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Source      string            `json:"source"`
	Canonical   string            `json:"canonical"`
	RevisionID  string            `json:"revisionId"`
	Labels      map[string]string `json:"labels,omitempty"`
	CreateTime  time.Time         `json:"createTime"`
	UpdateTime  time.Time         `json:"updateTime"`
}

// Update holds the fields changed by UpdateQuery. Empty fields keep their
// current value; a nil Labels map leaves the labels untouched.
type Update struct {
	Description string
	Source      string
	Canonical   string
	Labels      map[string]string
}

// Store is a thread-safe in-memory storage for saved queries. Returned
// queries are copies; mutating them does not affect the store.
type Store struct {
	mu      sync.RWMutex
	queries map[string]*Query
}

// New creates a new empty store.
func New() *Store {
	return &Store{queries: make(map[string]*Query)}
}

func newRevisionID() string {
	return uuid.NewString()[:8]
}

// CreateQuery saves a new query under name.
func (s *Store) CreateQuery(name, source, canonical, description string, labels map[string]string) (*Query, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.queries[name]; exists {
		return nil, fmt.Errorf("query '%s' %w", name, ErrAlreadyExists)
	}

	now := time.Now()
	q := &Query{
		Name:        name,
		Description: description,
		Source:      source,
		Canonical:   canonical,
		RevisionID:  newRevisionID(),
		Labels:      copyLabels(labels),
		CreateTime:  now,
		UpdateTime:  now,
	}
	s.queries[name] = q
	return q.clone(), nil
}

// GetQuery retrieves a query by name.
func (s *Store) GetQuery(name string) (*Query, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.queries[name]
	if !ok {
		return nil, fmt.Errorf("query '%s' %w", name, ErrNotFound)
	}
	return q.clone(), nil
}

// ListQueries returns all queries sorted by name.
func (s *Store) ListQueries() []*Query {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Query, 0, len(s.queries))
	for _, q := range s.queries {
		result = append(result, q.clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// UpdateQuery applies u to the named query and assigns a new revision.
func (s *Store) UpdateQuery(name string, u Update) (*Query, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queries[name]
	if !ok {
		return nil, fmt.Errorf("query '%s' %w", name, ErrNotFound)
	}

	if u.Source != "" {
		q.Source = u.Source
		q.Canonical = u.Canonical
	}
	if u.Description != "" {
		q.Description = u.Description
	}
	if u.Labels != nil {
		q.Labels = copyLabels(u.Labels)
	}
	q.RevisionID = newRevisionID()
	q.UpdateTime = time.Now()

	return q.clone(), nil
}

// DeleteQuery removes a query.
func (s *Store) DeleteQuery(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.queries[name]; !ok {
		return fmt.Errorf("query '%s' %w", name, ErrNotFound)
	}
	delete(s.queries, name)
	return nil
}

// Len returns the number of saved queries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.queries)
}

func (q *Query) clone() *Query {
	c := *q
	c.Labels = copyLabels(q.Labels)
	return &c
}

func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	c := make(map[string]string, len(labels))
	for k, v := range labels {
		c[k] = v
	}
	return c
}
