package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/evoql/pkg/ast"
	"github.com/lemonberrylabs/evoql/pkg/catalog"
	"github.com/lemonberrylabs/evoql/pkg/expr"
	"github.com/lemonberrylabs/evoql/pkg/types"
)

// parseInput parses the query given as arguments, or read from --file (a
// path, or "-" for standard input).
func parseInput(cmd *cobra.Command, args []string) (*ast.Root, types.Diagnostics, error) {
	file, _ := cmd.Flags().GetString("file")
	switch {
	case file == "-":
		return expr.ParseReader(cmd.InOrStdin())
	case file != "":
		return expr.ParseFile(file)
	case len(args) == 0:
		return nil, nil, errors.New("no query given: pass it as arguments or use --file")
	}
	return expr.Parse(strings.Join(args, " "))
}

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [query]",
		Short: "Parse a query and print its tree",
		Example: `  evoql parse 'GET mention WHERE tag:"news" AND sentiment<0'
  evoql parse --format json --file query.evoql.gz`,
		RunE: runParse,
	}
	cmd.Flags().StringP("file", "f", "", `read the query from a file ("-" for stdin, .gz/.zst decompressed)`)
	cmd.Flags().String("format", "tree", "output format: tree, json, yaml or canonical")
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "tree", "json", "yaml", "canonical":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	root, diags, err := parseInput(cmd, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := writeTree(out, root, format); err != nil {
		return err
	}
	if len(diags) > 0 {
		renderDiagnostics(cmd.ErrOrStderr(), diags)
		return fmt.Errorf("%d diagnostic(s)", len(diags))
	}
	return nil
}

func writeTree(w io.Writer, root *ast.Root, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ast.ToMap(root))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ast.ToMap(root)); err != nil {
			return err
		}
		return enc.Close()
	case "canonical":
		_, err := fmt.Fprintln(w, ast.Format(root))
		return err
	}
	renderTree(w, ast.ToMap(root))
	return nil
}

func newTokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens [query]",
		Short: "Print the tokens of a query",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("no query given")
			}
			tokens, err := expr.Tokenize(strings.Join(args, " "))
			if err != nil {
				return err
			}
			renderTokens(cmd.OutOrStdout(), tokens[:len(tokens)-1])
			return nil
		},
	}
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <catalog>...",
		Short: "Parse every query of YAML or TOML catalogs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		cat, err := catalog.Load(path)
		if err != nil {
			fmt.Fprintln(out, renderStatus(false, path))
			fmt.Fprintf(out, "  %v\n", err)
			failed++
			continue
		}
		fmt.Fprintln(out, path)
		if err := cat.Validate(); err != nil {
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(out, "  %s\n", failStyle.Render(line))
			}
			failed++
		}
		for _, c := range cat.Compile() {
			fmt.Fprintf(out, "  %s\n", renderStatus(c.OK(), c.Entry.Name))
			switch {
			case c.Err != nil:
				fmt.Fprintf(out, "    %v\n", c.Err)
				failed++
			case len(c.Diagnostics) > 0:
				var sb strings.Builder
				renderDiagnostics(&sb, c.Diagnostics)
				for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
					fmt.Fprintf(out, "    %s\n", line)
				}
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d problem(s) found", failed)
	}
	return nil
}
