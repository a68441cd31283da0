package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Params are the named arguments of a cached upstream query.
type Params map[string]interface{}

// Key builds a deterministic cache key from a query name and its parameters.
// Parameters are sorted by name; list values are sorted before joining so
// equivalent calls share a key regardless of argument order.
//
// Example: Key("labels", Params{"ids": []string{"Q2", "Q1"}}) == "labels|ids:Q1,Q2"
func Key(query string, params Params) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(query)
	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(formatValue(params[name]))
	}
	return b.String()
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case []string:
		items := append([]string(nil), t...)
		sort.Strings(items)
		return strings.Join(items, ",")
	case []int:
		items := append([]int(nil), t...)
		sort.Ints(items)
		parts := make([]string, len(items))
		for i, n := range items {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, ",")
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
