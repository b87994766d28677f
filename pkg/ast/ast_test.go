package ast

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/lemonberrylabs/evoql/pkg/types"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func sel(name string, f types.SelectorField, m types.Modifier, v Literal) *Selector {
	return &Selector{Field: f, Name: name, Modifier: m, Value: v}
}

func chain(ops ...interface{}) *Chain {
	c := &Chain{}
	conn := None
	for _, op := range ops {
		switch op := op.(type) {
		case Connective:
			conn = op
		case Condition:
			c.Links = append(c.Links, Link{Connective: conn, Operand: op})
			conn = None
		}
	}
	return c
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{
			name: "get with selector",
			node: &Root{Query: &GetExpression{
				ResultTypeNames: []string{"mention"},
				Condition:       chain(sel("tag", types.FieldTag, types.ModifierEquals, &QuotedText{Raw: "news"})),
			}},
			want: `GET mention WHERE tag:"news"`,
		},
		{
			name: "get with ordering and limit",
			node: &GetExpression{
				ResultTypeNames: []string{"mention", "tweet"},
				Ordering:        "date",
				OrderDescending: true,
				Skip:            intPtr(5),
				Take:            intPtr(10),
			},
			want: `GET mention, tweet ORDER BY "date" DESC LIMIT 5, 10`,
		},
		{
			name: "bare condition chain",
			node: &GetExpression{Condition: chain(
				sel("a", types.FieldAny, types.ModifierEquals, &Text{Raw: "1"}),
				And, &Not{Operand: sel("b", types.FieldAny, types.ModifierGreaterThan, &Text{Raw: "2"})},
				Or, &Group{Body: chain(&BareLiteral{Value: &NumericID{Value: 42}}, &BareLiteral{Value: &RangeText{Raw: "1..5"}})},
			)},
			want: `a:1 AND NOT b>2 OR (@42 AND 1..5)`,
		},
		{
			name: "chart",
			node: &GetExpression{
				IsChart:   true,
				Select:    "type",
				GroupBy:   &GroupClause{Field: "user", TakeDescending: boolPtr(true), Take: intPtr(5), OrderBy: "count", Interval: "day"},
				GroupOver: &GroupClause{Field: "date", TakeDescending: boolPtr(false), Take: intPtr(3)},
				Take:      intPtr(10),
				Condition: chain(sel("sentiment", types.FieldSentiment, types.ModifierLessThan, &Text{Raw: "-2"})),
			},
			want: `CHART type BY TOP 5 user VIA count INTERVAL day OVER BOTTOM 3 date LIMIT 10 WHERE sentiment<-2`,
		},
		{
			name: "chart without select",
			node: &GetExpression{IsChart: true, Condition: chain(&BareLiteral{Value: &Text{Raw: "x"}})},
			want: `CHART WHERE x`,
		},
		{
			name: "set",
			node: &Root{Query: &SetExpression{Setters: []*Setter{
				{Action: types.SetterTag, Name: "TAG", Value: &QuotedText{Raw: "x"}},
				{Action: types.SetterSentiment, Value: &Text{Raw: "5"}},
			}}},
			want: `SET TAG:"x" SENTIMENT:5`,
		},
		{
			name: "selector without name",
			node: sel("", types.FieldFromDate, types.ModifierGreaterThan, &Text{Raw: "2020"}),
			want: `fromdate>2020`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.node); got != tt.want {
				t.Errorf("Format() = %q, want %q\n%s", got, tt.want, spew.Sdump(tt.node))
			}
		})
	}
}

func TestRangeBounds(t *testing.T) {
	tests := []struct {
		raw    string
		lo, hi string
		ok     bool
	}{
		{"1..5", "1", "5", true},
		{"1.5..-2.25", "1.5", "-2.25", true},
		{"a..z", "a", "z", true},
		{`"x..y".."z"`, "x..y", "z", true},
		{"plain", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			lo, hi, ok := (&RangeText{Raw: tt.raw}).Bounds()
			if lo != tt.lo || hi != tt.hi || ok != tt.ok {
				t.Errorf("Bounds() = %q, %q, %v; want %q, %q, %v", lo, hi, ok, tt.lo, tt.hi, tt.ok)
			}
		})
	}
}

func TestLiteralSource(t *testing.T) {
	tests := []struct {
		lit  Literal
		want string
	}{
		{&Text{Raw: "news"}, "news"},
		{&QuotedText{Raw: "big news"}, `"big news"`},
		{&NumericID{Value: 123}, "@123"},
		{&RangeText{Raw: "1..2"}, "1..2"},
	}
	for _, tt := range tests {
		if got := tt.lit.Source(); got != tt.want {
			t.Errorf("%s.Source() = %q, want %q", NodeType(tt.lit), got, tt.want)
		}
	}
}

func TestResultTypes(t *testing.T) {
	g := &GetExpression{ResultTypeNames: []string{"Mention", "gizmo"}}
	got := g.ResultTypes()
	if len(got) != 2 || got[0] != types.ResultMention || got[1] != types.ResultUnknown {
		t.Errorf("ResultTypes() = %v", got)
	}
}

func TestToMap(t *testing.T) {
	root := &Root{Query: &GetExpression{
		ResultTypeNames: []string{"mention"},
		Take:            intPtr(10),
		Condition: chain(
			sel("tag", types.FieldTag, types.ModifierEquals, &QuotedText{Raw: "news"}),
			Or, &Not{Operand: &BareLiteral{Value: &NumericID{Value: 7}}},
		),
	}}
	m := ToMap(root)

	// must survive a JSON round trip
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}

	q := decoded["query"].(map[string]interface{})
	if q["type"] != "Get" || q["take"] != float64(10) {
		t.Fatalf("query = %s", spew.Sdump(q))
	}
	if rt := q["resultTypes"].([]interface{}); rt[0] != "Mention" {
		t.Errorf("resultTypes = %v", rt)
	}
	links := q["condition"].(map[string]interface{})["links"].([]interface{})
	if len(links) != 2 {
		t.Fatalf("links = %s", spew.Sdump(links))
	}
	first := links[0].(map[string]interface{})
	if first["connective"] != "" {
		t.Errorf("first connective = %v", first["connective"])
	}
	selector := first["operand"].(map[string]interface{})
	if selector["field"] != "Tag" || selector["modifier"] != "Equals" {
		t.Errorf("selector = %s", spew.Sdump(selector))
	}
	second := links[1].(map[string]interface{})
	if second["connective"] != "OR" {
		t.Errorf("second connective = %v", second["connective"])
	}
	not := second["operand"].(map[string]interface{})
	if not["type"] != "Not" {
		t.Errorf("operand = %s", spew.Sdump(not))
	}
}

func TestToMapLargeID(t *testing.T) {
	// 2^53 + 1 has no exact float64 representation
	m := ToMap(&NumericID{Value: 9007199254740993})
	if m["value"] != "9007199254740993" {
		t.Errorf("value = %#v", m["value"])
	}
	m = ToMap(&NumericID{Value: math.MaxInt64})
	if m["value"] != "9223372036854775807" {
		t.Errorf("value = %#v", m["value"])
	}
}

func TestNodeType(t *testing.T) {
	if NodeType(nil) != "" {
		t.Error("NodeType(nil) not empty")
	}
	if NodeType(&Group{}) != "Group" {
		t.Errorf("NodeType(Group) = %q", NodeType(&Group{}))
	}
}
