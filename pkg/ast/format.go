package ast

import (
	"strconv"
	"strings"
)

// Format renders a node as canonical EvoQL. Parsing the output of Format
// for a well-formed tree yields an equal tree: connectives are always
// explicit and the selector shorthand field:(a OR b) is written out as
// (field:a OR field:b).
func Format(n Node) string {
	var sb strings.Builder
	format(&sb, n)
	return sb.String()
}

func format(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Root:
		if n.Query != nil {
			format(sb, n.Query)
		}
	case *GetExpression:
		formatGet(sb, n)
	case *SetExpression:
		sb.WriteString("SET")
		for _, s := range n.Setters {
			sb.WriteByte(' ')
			format(sb, s)
		}
	case *Setter:
		name := n.Name
		if name == "" {
			name = strings.ToUpper(n.Action.String())
		}
		sb.WriteString(name)
		sb.WriteByte(':')
		formatLiteral(sb, n.Value)
	case *Chain:
		for i, link := range n.Links {
			if i > 0 {
				c := link.Connective
				if c == None {
					c = And
				}
				sb.WriteByte(' ')
				sb.WriteString(c.String())
				sb.WriteByte(' ')
			}
			format(sb, link.Operand)
		}
	case *Group:
		sb.WriteByte('(')
		if n.Body != nil {
			format(sb, n.Body)
		}
		sb.WriteByte(')')
	case *Not:
		sb.WriteString("NOT ")
		format(sb, n.Operand)
	case *Selector:
		name := n.Name
		if name == "" {
			name = strings.ToLower(n.Field.String())
		}
		sb.WriteString(name)
		sym := n.Modifier.Symbol()
		if sym == "" {
			sym = ":"
		}
		sb.WriteString(sym)
		formatLiteral(sb, n.Value)
	case *BareLiteral:
		formatLiteral(sb, n.Value)
	case Literal:
		formatLiteral(sb, n)
	}
}

func formatLiteral(sb *strings.Builder, l Literal) {
	if l != nil {
		sb.WriteString(l.Source())
	}
}

func formatGet(sb *strings.Builder, g *GetExpression) {
	var parts []string
	switch {
	case g.IsChart:
		parts = append(parts, "CHART")
		if g.Select != "" {
			parts = append(parts, g.Select)
			if g.GroupBy != nil {
				parts = append(parts, "BY", formatGroup(g.GroupBy))
			}
			if g.GroupOver != nil {
				parts = append(parts, "OVER", formatGroup(g.GroupOver))
			}
		}
		if g.Take != nil {
			parts = append(parts, formatLimit(g))
		}
	case len(g.ResultTypeNames) > 0:
		parts = append(parts, "GET", strings.Join(g.ResultTypeNames, ", "))
		if g.Ordering != "" || g.OrderDescending || g.Take != nil {
			parts = append(parts, "ORDER BY", `"`+g.Ordering+`"`)
			if g.OrderDescending {
				parts = append(parts, "DESC")
			}
			if g.Take != nil {
				parts = append(parts, formatLimit(g))
			}
		}
	}

	if g.Condition != nil && len(g.Condition.Links) > 0 {
		if len(parts) > 0 {
			parts = append(parts, "WHERE")
		}
		parts = append(parts, Format(g.Condition))
	}
	sb.WriteString(strings.Join(parts, " "))
}

func formatLimit(g *GetExpression) string {
	if g.Skip != nil {
		return "LIMIT " + strconv.Itoa(*g.Skip) + ", " + strconv.Itoa(*g.Take)
	}
	return "LIMIT " + strconv.Itoa(*g.Take)
}

func formatGroup(c *GroupClause) string {
	var parts []string
	if c.TakeDescending != nil {
		if *c.TakeDescending {
			parts = append(parts, "TOP")
		} else {
			parts = append(parts, "BOTTOM")
		}
		take := 0
		if c.Take != nil {
			take = *c.Take
		}
		parts = append(parts, strconv.Itoa(take))
	}
	parts = append(parts, c.Field)
	if c.OrderBy != "" {
		parts = append(parts, "VIA", c.OrderBy)
	}
	if c.Interval != "" {
		parts = append(parts, "INTERVAL", c.Interval)
	}
	return strings.Join(parts, " ")
}
