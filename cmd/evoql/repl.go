package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/evoql/pkg/ast"
	"github.com/lemonberrylabs/evoql/pkg/expr"
)

const (
	historyFile = ".evoql_history"
	prompt      = "evoql> "
)

const replHelp = `Type a query to see its canonical form and tree.
  :tokens <query>  show the tokens of a query
  :help            show this message
  :q, :quit        leave`

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Parse queries interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd.OutOrStdout())
		},
	}
}

func runRepl(out io.Writer) error {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Fprintln(out, "EvoQL "+version+". Type :help for commands.")
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			// EOF (Ctrl+D)
			fmt.Fprintln(out)
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if evalLine(out, line) {
			break
		}
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return nil
}

// evalLine handles one line of input and reports whether the session should
// end.
func evalLine(w io.Writer, line string) (quit bool) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, ":") {
		cmd, rest, _ := strings.Cut(line, " ")
		switch cmd {
		case ":q", ":quit":
			return true
		case ":help":
			fmt.Fprintln(w, replHelp)
		case ":tokens":
			tokens, err := expr.Tokenize(rest)
			if err != nil {
				fmt.Fprintln(w, failStyle.Render(err.Error()))
				return false
			}
			renderTokens(w, tokens[:len(tokens)-1])
		default:
			fmt.Fprintf(w, "unknown command %s, try :help\n", cmd)
		}
		return false
	}

	root, diags, err := expr.Parse(line)
	if err != nil {
		fmt.Fprintln(w, failStyle.Render(err.Error()))
		return false
	}
	fmt.Fprintln(w, renderStatus(len(diags) == 0, ast.Format(root)))
	renderDiagnostics(w, diags)
	renderTree(w, ast.ToMap(root))
	return false
}
