package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lemonberrylabs/evoql/pkg/expr"
	"github.com/lemonberrylabs/evoql/pkg/types"
)

var (
	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F59E0B")
	colorSuccess = lipgloss.Color("#10B981")
	colorNode    = lipgloss.Color("#8B5CF6")
	colorMuted   = lipgloss.Color("#6B7280")
)

var (
	syntaxStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	semanticStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(colorSuccess)
	failStyle     = lipgloss.NewStyle().Foreground(colorError)
	nodeStyle     = lipgloss.NewStyle().Foreground(colorNode).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
)

// renderDiagnostics writes one styled line per diagnostic.
func renderDiagnostics(w io.Writer, diags types.Diagnostics) {
	for _, d := range diags {
		style := syntaxStyle
		if d.Kind == types.KindSemantic {
			style = semanticStyle
		}
		fmt.Fprintf(w, "%s %s\n", style.Render(d.Kind), d.String())
	}
}

func renderStatus(ok bool, label string) string {
	if ok {
		return okStyle.Render("✓") + " " + label
	}
	return failStyle.Render("✗") + " " + label
}

// renderTokens writes a table of tokens.
func renderTokens(w io.Writer, tokens []expr.Token) {
	typeWidth, valueWidth := len("TYPE"), len("VALUE")
	for _, tok := range tokens {
		typeWidth = max(typeWidth, len(tok.Type.String()))
		valueWidth = max(valueWidth, lipgloss.Width(tok.Value))
	}
	typeCol := lipgloss.NewStyle().Width(typeWidth + 2)
	valueCol := lipgloss.NewStyle().Width(valueWidth + 2)

	fmt.Fprintln(w, typeCol.Inherit(headerStyle).Render("TYPE")+
		valueCol.Inherit(headerStyle).Render("VALUE")+
		headerStyle.Render("LINE:COL"))
	for _, tok := range tokens {
		fmt.Fprintf(w, "%s%s%s\n",
			typeCol.Render(tok.Type.String()),
			valueCol.Render(tok.Value),
			mutedStyle.Render(fmt.Sprintf("%d:%d", tok.Line, tok.Col)))
	}
}

// renderTree writes an indented outline of a tree produced by ast.ToMap.
func renderTree(w io.Writer, m map[string]interface{}) {
	writeNode(w, m, 0)
}

func writeNode(w io.Writer, m map[string]interface{}, depth int) {
	indent := strings.Repeat("  ", depth)

	var attrs, children []string
	for k, v := range m {
		if k == "type" {
			continue
		}
		switch v.(type) {
		case map[string]interface{}, []interface{}:
			children = append(children, k)
		case nil:
		default:
			attrs = append(attrs, k)
		}
	}
	sort.Strings(attrs)
	sort.Strings(children)

	var sb strings.Builder
	sb.WriteString(indent)
	sb.WriteString(nodeStyle.Render(fmt.Sprint(m["type"])))
	for _, k := range attrs {
		sb.WriteString(" ")
		sb.WriteString(mutedStyle.Render(k + "="))
		sb.WriteString(formatScalar(m[k]))
	}
	fmt.Fprintln(w, sb.String())

	for _, k := range children {
		switch v := m[k].(type) {
		case map[string]interface{}:
			fmt.Fprintf(w, "%s  %s\n", indent, mutedStyle.Render(k+":"))
			writeNode(w, v, depth+2)
		case []interface{}:
			if len(v) == 0 {
				continue
			}
			fmt.Fprintf(w, "%s  %s\n", indent, mutedStyle.Render(k+":"))
			for _, item := range v {
				writeItem(w, item, depth+2)
			}
		}
	}
}

func writeItem(w io.Writer, item interface{}, depth int) {
	m, ok := item.(map[string]interface{})
	switch {
	case !ok:
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), formatScalar(item))
	case m["type"] != nil:
		writeNode(w, m, depth)
	default:
		// chain link
		conn, _ := m["connective"].(string)
		if conn != "" {
			fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), mutedStyle.Render(conn))
		}
		if op, ok := m["operand"].(map[string]interface{}); ok {
			writeNode(w, op, depth)
		}
	}
}

func formatScalar(v interface{}) string {
	switch v := v.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}
