// Package ast defines the expression tree produced by the EvoQL parser.
// Nodes are built children-first by the parser and are read-only once
// Parse returns; the tree has no back references.
package ast

import (
	"strconv"
	"strings"

	"github.com/lemonberrylabs/evoql/pkg/types"
)

// Node is the interface for all expression tree nodes. The set of node types
// is closed; consumers switch on the concrete type.
type Node interface {
	nodeType() string
}

// Query is the payload of a Root: *GetExpression or *SetExpression.
type Query interface {
	Node
	query()
}

// Condition is one operand of a boolean chain: *Chain, *Group, *Not,
// *Selector or *BareLiteral.
type Condition interface {
	Node
	condition()
}

// Literal is a value: *Text, *QuotedText, *NumericID or *RangeText.
type Literal interface {
	Node
	literal()

	// Source returns the literal as it is spelled in a query.
	Source() string
}

// Root is the result of a successful parse.
type Root struct {
	Query Query
}

func (n *Root) nodeType() string { return "Root" }

// GetExpression is a retrieval (GET), aggregation (CHART) or bare condition
// query.
type GetExpression struct {
	// ResultTypeNames are the type names listed after GET, in source order.
	ResultTypeNames []string

	// IsChart is set for CHART queries.
	IsChart bool

	// Ordering is the field named in ORDER BY "field"; empty when absent.
	Ordering string

	// OrderDescending is set by DESC.
	OrderDescending bool

	// Skip and Take come from LIMIT n or LIMIT n, m.
	Skip *int
	Take *int

	// Select is the word following CHART; empty when absent.
	Select string

	// GroupBy and GroupOver describe the CHART aggregation axes.
	GroupBy   *GroupClause
	GroupOver *GroupClause

	// Condition is the filter; nil when the query has none.
	Condition *Chain
}

func (n *GetExpression) nodeType() string { return "Get" }
func (n *GetExpression) query() {}

// ResultTypes resolves ResultTypeNames through the type catalog. Names the
// catalog does not know resolve to types.ResultUnknown.
func (n *GetExpression) ResultTypes() []types.ResultType {
	out := make([]types.ResultType, len(n.ResultTypeNames))
	for i, name := range n.ResultTypeNames {
		out[i] = types.LookupResultType(name)
	}
	return out
}

// GroupClause is a BY or OVER aggregation axis.
type GroupClause struct {
	Field string

	// TakeDescending is true for TOP and false for BOTTOM; nil when neither
	// was given.
	TakeDescending *bool
	Take           *int

	// OrderBy is the VIA field.
	OrderBy string

	// Interval is the INTERVAL word or number.
	Interval string
}

// SetExpression is a SET query.
type SetExpression struct {
	Setters []*Setter
}

func (n *SetExpression) nodeType() string { return "Set" }
func (n *SetExpression) query() {}

// Setter is one NAME:value action of a SET query.
type Setter struct {
	Action types.SetterAction
	Name   string // as written
	Value  Literal
}

func (n *Setter) nodeType() string { return "Setter" }

// Connective joins an operand to the one before it.
type Connective int

const (
	None Connective = iota
	And
	Or
)

func (c Connective) String() string {
	switch c {
	case And:
		return "AND"
	case Or:
		return "OR"
	default:
		return ""
	}
}

// Link is one (connective, operand) pair of a Chain.
type Link struct {
	Connective Connective
	Operand    Condition
}

// Chain is a flat, non-empty sequence of operands evaluated left to right.
// Only the first link has connective None. AND and OR have equal precedence.
type Chain struct {
	Links []Link
}

func (n *Chain) nodeType() string { return "Chain" }
func (n *Chain) condition() {}

// Group is a parenthesized sub-chain.
type Group struct {
	Body *Chain
}

func (n *Group) nodeType() string { return "Group" }
func (n *Group) condition() {}

// Not negates the single operand that follows NOT.
type Not struct {
	Operand Condition
}

func (n *Not) nodeType() string { return "Not" }
func (n *Not) condition() {}

// Selector compares one field with a value, e.g. tag:"news" or sentiment>3.
type Selector struct {
	Field types.SelectorField

	// Name is the selector name as written. It is kept because unknown
	// names all resolve to types.FieldAny.
	Name string

	Modifier types.Modifier
	Value    Literal
}

func (n *Selector) nodeType() string { return "Selector" }
func (n *Selector) condition() {}

// BareLiteral is a value with no selector: a free-text match on any field.
type BareLiteral struct {
	Value Literal
}

func (n *BareLiteral) nodeType() string { return "BareLiteral" }
func (n *BareLiteral) condition() {}

// Text is an unquoted word or number.
type Text struct {
	Raw string
}

func (n *Text) nodeType() string { return "Text" }
func (n *Text) literal() {}
func (n *Text) Source() string { return n.Raw }

// QuotedText is a phrase; Raw excludes the quotes.
type QuotedText struct {
	Raw string
}

func (n *QuotedText) nodeType() string { return "QuotedText" }
func (n *QuotedText) literal() {}
func (n *QuotedText) Source() string { return `"` + n.Raw + `"` }

// IsPhrase reports that the text was quoted.
func (n *QuotedText) IsPhrase() bool { return true }

// NumericID is an @id reference.
type NumericID struct {
	Value int64
}

func (n *NumericID) nodeType() string { return "NumericId" }
func (n *NumericID) literal() {}
func (n *NumericID) Source() string { return "@" + strconv.FormatInt(n.Value, 10) }

// RangeText is a compound lo..hi literal, kept verbatim.
type RangeText struct {
	Raw string
}

func (n *RangeText) nodeType() string { return "Range" }
func (n *RangeText) literal() {}
func (n *RangeText) Source() string { return n.Raw }

// Bounds splits the range at its ".." separator and strips the quotes from
// phrase bounds. ok is false when Raw has no separator.
func (n *RangeText) Bounds() (lo, hi string, ok bool) {
	from := 0
	if strings.HasPrefix(n.Raw, `"`) {
		// a quoted lower bound may itself contain ".."
		if end := strings.IndexByte(n.Raw[1:], '"'); end >= 0 {
			from = end + 2
		}
	}
	i := strings.Index(n.Raw[from:], "..")
	if i < 0 {
		return "", "", false
	}
	i += from
	return unquote(n.Raw[:i]), unquote(n.Raw[i+2:]), true
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// NodeType returns the discriminator name of a node, e.g. "Selector".
func NodeType(n Node) string {
	if n == nil {
		return ""
	}
	return n.nodeType()
}
