// Package catalog reads query catalogs: YAML or TOML files listing named
// EvoQL queries, such as
//
//	queries:
//	  - name: negative-news
//	    description: Negative mentions tagged as news
//	    query: GET mention WHERE tag:"news" AND sentiment<0
//	    labels: {team: social}
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/evoql/pkg/ast"
	"github.com/lemonberrylabs/evoql/pkg/expr"
	"github.com/lemonberrylabs/evoql/pkg/source"
	"github.com/lemonberrylabs/evoql/pkg/types"
)

// Format is the encoding of a catalog file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// MaxNameLength is the longest accepted query name.
const MaxNameLength = 128

var validName = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Entry is one named query of a catalog.
type Entry struct {
	Name        string            `yaml:"name" toml:"name"`
	Description string            `yaml:"description,omitempty" toml:"description"`
	Query       string            `yaml:"query" toml:"query"`
	Labels      map[string]string `yaml:"labels,omitempty" toml:"labels"`
}

// Catalog is a list of named queries.
type Catalog struct {
	Queries []Entry `yaml:"queries" toml:"queries"`
}

// Compiled is the parse result of one entry.
type Compiled struct {
	Entry       Entry
	Root        *ast.Root
	Diagnostics types.Diagnostics
	Err         error // source fault, Root is nil
}

// OK reports whether the entry parsed without diagnostics.
func (c *Compiled) OK() bool {
	return c.Err == nil && len(c.Diagnostics) == 0
}

// FormatForPath picks the catalog format from the file extension, ignoring a
// trailing .gz or .zst.
func FormatForPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(source.TrimCompressionExt(path))); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported catalog format %q", ext)
	}
}

// Parse decodes a catalog. Unknown keys are rejected.
func Parse(data []byte, format Format) (*Catalog, error) {
	var c Catalog
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding yaml catalog: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &c)
		if err != nil {
			return nil, fmt.Errorf("decoding toml catalog: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decoding toml catalog: unknown key %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	return &c, nil
}

// Load reads and decodes the catalog at path. Compressed files are
// decompressed.
func Load(path string) (*Catalog, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	rc, err := source.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	c, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ValidateName checks a query name.
func ValidateName(name string) error {
	if len(name) > MaxNameLength {
		return fmt.Errorf("name %q exceeds %d characters", name, MaxNameLength)
	}
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid name %q: must match %s", name, validName)
	}
	return nil
}

// Validate checks names and that every entry has a query. All problems are
// joined into the returned error.
func (c *Catalog) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(c.Queries))
	for i, e := range c.Queries {
		if err := ValidateName(e.Name); err != nil {
			errs = append(errs, fmt.Errorf("query %d: %w", i, err))
		}
		if seen[e.Name] {
			errs = append(errs, fmt.Errorf("query %d: duplicate name %q", i, e.Name))
		}
		seen[e.Name] = true
		if strings.TrimSpace(e.Query) == "" {
			errs = append(errs, fmt.Errorf("query %d (%s): empty query", i, e.Name))
		}
	}
	return errors.Join(errs...)
}

// Compile parses every entry.
func (c *Catalog) Compile() []Compiled {
	out := make([]Compiled, len(c.Queries))
	for i, e := range c.Queries {
		root, diags, err := expr.Parse(e.Query)
		out[i] = Compiled{Entry: e, Root: root, Diagnostics: diags, Err: err}
	}
	return out
}
