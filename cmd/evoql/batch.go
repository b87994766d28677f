package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/valyala/fastjson"

	"github.com/lemonberrylabs/evoql/pkg/ast"
	"github.com/lemonberrylabs/evoql/pkg/expr"
)

const maxBatchLine = 1 << 20

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file.ndjson|->",
		Short: "Parse newline-delimited JSON queries",
		Long: `Reads one JSON object per line, each with a "query" string and an optional
"id", and writes one JSON result per line in the same order.`,
		Example: `  echo '{"id":1,"query":"tag:news"}' | evoql batch -`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, _ := cmd.Flags().GetBool("tree")
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runBatch(in, cmd.OutOrStdout(), tree)
		},
	}
	cmd.Flags().Bool("tree", false, "include the parse tree in each result")
	return cmd
}

type batchResult struct {
	ID          json.RawMessage `json:"id"`
	Valid       *bool           `json:"valid,omitempty"`
	Canonical   string          `json:"canonical,omitempty"`
	Diagnostics []interface{}   `json:"diagnostics,omitempty"`
	Tree        interface{}     `json:"tree,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func runBatch(in io.Reader, out io.Writer, withTree bool) error {
	var p fastjson.Parser
	enc := json.NewEncoder(out)

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxBatchLine)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := enc.Encode(batchLine(&p, line, lineNo, withTree)); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading line %d: %w", lineNo+1, err)
	}
	return nil
}

func batchLine(p *fastjson.Parser, line []byte, lineNo int, withTree bool) batchResult {
	res := batchResult{ID: json.RawMessage(strconv.Itoa(lineNo))}

	v, err := p.ParseBytes(line)
	if err != nil {
		res.Error = fmt.Sprintf("invalid JSON: %v", err)
		return res
	}
	if v.Type() != fastjson.TypeObject {
		res.Error = "expected a JSON object"
		return res
	}
	if id := v.Get("id"); id != nil {
		res.ID = id.MarshalTo(nil)
	}

	q := v.Get("query")
	if q == nil || q.Type() != fastjson.TypeString {
		res.Error = `missing "query" string`
		return res
	}

	root, diags, err := expr.Parse(string(q.GetStringBytes()))
	if err != nil {
		res.Error = err.Error()
		return res
	}
	valid := len(diags) == 0
	res.Valid = &valid
	res.Canonical = ast.Format(root)
	if !valid {
		res.Diagnostics = diags.ToList()
	}
	if withTree {
		res.Tree = ast.ToMap(root)
	}
	return res
}
