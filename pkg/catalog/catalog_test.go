package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/lemonberrylabs/evoql/pkg/ast"
)

const yamlCatalog = `queries:
  - name: negative-news
    description: Negative mentions tagged as news
    query: GET mention WHERE tag:"news" AND sentiment<0
    labels:
      team: social
  - name: broken
    query: a:(1 AND 2
`

const tomlCatalog = `[[queries]]
name = "negative-news"
description = "Negative mentions tagged as news"
query = 'GET mention WHERE tag:"news" AND sentiment<0'
labels = { team = "social" }

[[queries]]
name = "broken"
query = "a:(1 AND 2"
`

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"yaml", yamlCatalog, FormatYAML},
		{"toml", tomlCatalog, FormatTOML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(c.Queries) != 2 {
				t.Fatalf("got %d queries", len(c.Queries))
			}
			e := c.Queries[0]
			if e.Name != "negative-news" || e.Labels["team"] != "social" || !strings.Contains(e.Query, `tag:"news"`) {
				t.Errorf("entry = %+v", e)
			}
			if err := c.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"unknown yaml key", "queries:\n  - nmae: x\n", FormatYAML},
		{"unknown toml key", "[[queries]]\nnmae = \"x\"\n", FormatTOML},
		{"malformed yaml", "queries: [", FormatYAML},
		{"unknown format", "", Format("json")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data), tt.format); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		wantErr []string
	}{
		{"valid", []Entry{{Name: "a", Query: "x"}, {Name: "b_2-c", Query: "y"}}, nil},
		{"uppercase", []Entry{{Name: "News", Query: "x"}}, []string{"invalid name"}},
		{"leading digit", []Entry{{Name: "1news", Query: "x"}}, []string{"invalid name"}},
		{"too long", []Entry{{Name: "a" + strings.Repeat("b", MaxNameLength), Query: "x"}}, []string{"exceeds"}},
		{"duplicate", []Entry{{Name: "a", Query: "x"}, {Name: "a", Query: "y"}}, []string{"duplicate name"}},
		{"empty query", []Entry{{Name: "a", Query: "  "}}, []string{"empty query"}},
		{"several", []Entry{{Name: "A"}, {Name: "A", Query: "x"}}, []string{"invalid name", "empty query", "duplicate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Catalog{Queries: tt.entries}).Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %q", err, want)
				}
			}
		})
	}
}

func TestCompile(t *testing.T) {
	c, err := Parse([]byte(yamlCatalog), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	compiled := c.Compile()
	if len(compiled) != 2 {
		t.Fatalf("got %d results", len(compiled))
	}
	if !compiled[0].OK() {
		t.Errorf("negative-news: %s", compiled[0].Diagnostics)
	}
	if got := ast.Format(compiled[0].Root); got != `GET mention WHERE tag:"news" AND sentiment<0` {
		t.Errorf("canonical = %q", got)
	}
	if compiled[1].OK() || len(compiled[1].Diagnostics) == 0 || compiled[1].Root == nil {
		t.Errorf("broken: ok=%v diags=%v", compiled[1].OK(), compiled[1].Diagnostics)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "queries.toml")
	if err := os.WriteFile(plain, []byte(tomlCatalog), 0o644); err != nil {
		t.Fatal(err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	compressed := filepath.Join(dir, "queries.yaml.zst")
	if err := os.WriteFile(compressed, enc.EncodeAll([]byte(yamlCatalog), nil), 0o644); err != nil {
		t.Fatal(err)
	}
	enc.Close()

	for _, path := range []string{plain, compressed} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			c, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(c.Queries) != 2 || c.Queries[1].Name != "broken" {
				t.Errorf("queries = %+v", c.Queries)
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "queries.json")); err == nil {
		t.Error("expected unsupported format error")
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]Format{
		"a.yaml":        FormatYAML,
		"a.YML":         FormatYAML,
		"a.toml":        FormatTOML,
		"a.toml.gz":     FormatTOML,
		"dir/a.yml.zst": FormatYAML,
	}
	for path, want := range tests {
		if got, err := FormatForPath(path); err != nil || got != want {
			t.Errorf("FormatForPath(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
	if _, err := FormatForPath("a.gz"); err == nil {
		t.Error("a.gz: expected an error")
	}
}
