package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "=="
	OpNe  Op = "!="
	OpLt  Op = "<"
	OpLte Op = "<="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpIn  Op = "in"
)

// Filter is a (field, operator, value) predicate on a top-level field.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query selects documents. Filters are ANDed. Without OrderBy documents
// come back in creation order.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

func Eq(field string, value any) Filter  { return Filter{Field: field, Op: OpEq, Value: value} }
func Ne(field string, value any) Filter  { return Filter{Field: field, Op: OpNe, Value: value} }
func Lt(field string, value any) Filter  { return Filter{Field: field, Op: OpLt, Value: value} }
func Lte(field string, value any) Filter { return Filter{Field: field, Op: OpLte, Value: value} }
func Gt(field string, value any) Filter  { return Filter{Field: field, Op: OpGt, Value: value} }
func Gte(field string, value any) Filter { return Filter{Field: field, Op: OpGte, Value: value} }
func In(field string, values ...any) Filter {
	return Filter{Field: field, Op: OpIn, Value: values}
}

// normalizeFilters converts filter values to their JSON form so they
// compare like stored values (times become RFC 3339 strings, decimals
// become numeric strings).
func normalizeFilters(filters []Filter) ([]Filter, error) {
	out := make([]Filter, len(filters))
	for i, f := range filters {
		switch f.Op {
		case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte, OpIn:
		default:
			return nil, fmt.Errorf("filter on %s: unsupported operator %q", f.Field, f.Op)
		}
		data, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("filter on %s: %w", f.Field, err)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("filter on %s: %w", f.Field, err)
		}
		if f.Op == OpIn {
			if _, ok := v.([]any); !ok && v != nil {
				return nil, fmt.Errorf("filter on %s: %q needs a list", f.Field, f.Op)
			}
		}
		out[i] = Filter{Field: f.Field, Op: f.Op, Value: v}
	}
	return out, nil
}

func matchesAll(doc Document, filters []Filter) bool {
	for _, f := range filters {
		if !matches(doc, f) {
			return false
		}
	}
	return true
}

func matches(doc Document, f Filter) bool {
	v := doc[f.Field]
	switch f.Op {
	case OpEq:
		return equal(v, f.Value)
	case OpNe:
		return !equal(v, f.Value)
	case OpIn:
		list, _ := f.Value.([]any)
		for _, item := range list {
			if equal(v, item) {
				return true
			}
		}
		return false
	}

	cmp, ok := compare(v, f.Value)
	if !ok {
		return false
	}
	switch f.Op {
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	}
	return false
}

// equal matches strings exactly; only non-string values go through the
// numeric comparison, so "007" never equals "7".
func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr || bStr {
		return aStr && bStr && as == bs
	}
	cmp, ok := compare(a, b)
	return ok && cmp == 0
}

// compare orders two JSON values for range filters and sorting. Strings are
// tried as timestamps, then as decimals, then compared lexically. ok is
// false for mismatched kinds.
func compare(a, b any) (cmp int, ok bool) {
	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		if ta, err := time.Parse(time.RFC3339Nano, as); err == nil {
			if tb, err := time.Parse(time.RFC3339Nano, bs); err == nil {
				return ta.Compare(tb), true
			}
		}
	}

	if da, ok := toDecimal(a); ok {
		if db, ok := toDecimal(b); ok {
			return da.Cmp(db), true
		}
	}

	if aStr && bStr {
		return strings.Compare(as, bs), true
	}

	ab, aBool := a.(bool)
	bb, bBool := b.(bool)
	if aBool && bBool {
		switch {
		case ab == bb:
			return 0, true
		case !ab:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	}
	return decimal.Decimal{}, false
}

// sortDocuments orders docs by field. Missing values sort first; values
// that cannot be compared keep their relative order.
func sortDocuments(docs []Document, field string, desc bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i][field], docs[j][field]
		if a == nil || b == nil {
			if desc {
				return b == nil && a != nil
			}
			return a == nil && b != nil
		}
		cmp, ok := compare(a, b)
		if !ok {
			return false
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}
