package ast

import "strconv"

// ToMap converts a node to a tree of JSON-compatible values (maps, slices,
// strings, bools and float64). Every map carries a "type" key naming
// the node. The result can be passed to encoding/json, yaml.v3 or
// structpb.NewStruct unchanged.
func ToMap(n Node) map[string]interface{} {
	if n == nil {
		return nil
	}
	m := map[string]interface{}{"type": n.nodeType()}

	switch n := n.(type) {
	case *Root:
		if n.Query != nil {
			m["query"] = ToMap(n.Query)
		}
	case *GetExpression:
		names := make([]interface{}, len(n.ResultTypeNames))
		resolved := make([]interface{}, len(n.ResultTypeNames))
		for i, name := range n.ResultTypeNames {
			names[i] = name
		}
		for i, t := range n.ResultTypes() {
			resolved[i] = t.String()
		}
		m["resultTypeNames"] = names
		m["resultTypes"] = resolved
		m["isChart"] = n.IsChart
		m["orderDescending"] = n.OrderDescending
		putString(m, "ordering", n.Ordering)
		putString(m, "select", n.Select)
		putInt(m, "skip", n.Skip)
		putInt(m, "take", n.Take)
		if n.GroupBy != nil {
			m["groupBy"] = groupToMap(n.GroupBy)
		}
		if n.GroupOver != nil {
			m["groupOver"] = groupToMap(n.GroupOver)
		}
		if n.Condition != nil {
			m["condition"] = ToMap(n.Condition)
		}
	case *SetExpression:
		setters := make([]interface{}, len(n.Setters))
		for i, s := range n.Setters {
			setters[i] = ToMap(s)
		}
		m["setters"] = setters
	case *Setter:
		m["action"] = n.Action.String()
		m["name"] = n.Name
		m["value"] = literalToMap(n.Value)
	case *Chain:
		links := make([]interface{}, len(n.Links))
		for i, l := range n.Links {
			links[i] = map[string]interface{}{
				"connective": l.Connective.String(),
				"operand":    conditionToMap(l.Operand),
			}
		}
		m["links"] = links
	case *Group:
		if n.Body != nil {
			m["body"] = ToMap(n.Body)
		}
	case *Not:
		m["operand"] = conditionToMap(n.Operand)
	case *Selector:
		m["field"] = n.Field.String()
		m["name"] = n.Name
		m["modifier"] = n.Modifier.String()
		m["value"] = literalToMap(n.Value)
	case *BareLiteral:
		m["value"] = literalToMap(n.Value)
	case *Text:
		m["raw"] = n.Raw
	case *QuotedText:
		m["raw"] = n.Raw
		m["isPhrase"] = true
	case *NumericID:
		// decimal string: float64 is exact only up to 2^53
		m["value"] = strconv.FormatInt(n.Value, 10)
	case *RangeText:
		m["raw"] = n.Raw
		if lo, hi, ok := n.Bounds(); ok {
			m["lo"] = lo
			m["hi"] = hi
		}
	}
	return m
}

func conditionToMap(c Condition) interface{} {
	if c == nil {
		return nil
	}
	return ToMap(c)
}

func literalToMap(l Literal) interface{} {
	if l == nil {
		return nil
	}
	return ToMap(l)
}

func groupToMap(c *GroupClause) map[string]interface{} {
	m := map[string]interface{}{"field": c.Field}
	if c.TakeDescending != nil {
		m["takeDescending"] = *c.TakeDescending
	}
	putInt(m, "take", c.Take)
	putString(m, "orderBy", c.OrderBy)
	putString(m, "interval", c.Interval)
	return m
}

func putString(m map[string]interface{}, key, v string) {
	if v != "" {
		m[key] = v
	}
}

func putInt(m map[string]interface{}, key string, v *int) {
	if v != nil {
		m[key] = float64(*v)
	}
}
