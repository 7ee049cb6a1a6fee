package index

import (
	"encoding/json"
	"fmt"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

// Comparison operators accepted in filter leaves.
const (
	OpEq  = "$eq"
	OpGt  = "$gt"
	OpGte = "$gte"
	OpLt  = "$lt"
	OpLte = "$lte"
)

// Filter is a boolean expression tree over property-path predicates. A filter
// is either a combinator (And/Or populated) or a leaf (Path/Op/Value set).
// Its JSON form is the index wire format and round-trips unmodified:
//
//	{"$and": [{"entity.year": {"$eq": 2023}}, {"entity.aircraft": {"$eq": "Cessna"}}]}
type Filter struct {
	And []*Filter
	Or  []*Filter

	Path  string
	Op    string
	Value any
}

// Eq matches records whose value at path equals v.
func Eq(path string, v any) *Filter { return &Filter{Path: path, Op: OpEq, Value: v} }

// Gt matches records whose value at path is greater than v.
func Gt(path string, v any) *Filter { return &Filter{Path: path, Op: OpGt, Value: v} }

// Gte matches records whose value at path is at least v.
func Gte(path string, v any) *Filter { return &Filter{Path: path, Op: OpGte, Value: v} }

// Lt matches records whose value at path is less than v.
func Lt(path string, v any) *Filter { return &Filter{Path: path, Op: OpLt, Value: v} }

// Lte matches records whose value at path is at most v.
func Lte(path string, v any) *Filter { return &Filter{Path: path, Op: OpLte, Value: v} }

// All matches records satisfying every sub-filter.
func All(filters ...*Filter) *Filter { return &Filter{And: filters} }

// Any matches records satisfying at least one sub-filter.
func Any(filters ...*Filter) *Filter { return &Filter{Or: filters} }

// Validate checks the tree shape and operators before the filter is sent to
// an index.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	switch {
	case len(f.And) > 0:
		if f.Path != "" || len(f.Or) > 0 {
			return fmt.Errorf("%w: $and node carries extra clauses", ErrInvalidFilter)
		}
		for _, sub := range f.And {
			if err := sub.Validate(); err != nil {
				return err
			}
		}
	case len(f.Or) > 0:
		if f.Path != "" {
			return fmt.Errorf("%w: $or node carries extra clauses", ErrInvalidFilter)
		}
		for _, sub := range f.Or {
			if err := sub.Validate(); err != nil {
				return err
			}
		}
	default:
		if f.Path == "" {
			return fmt.Errorf("%w: empty filter node", ErrInvalidFilter)
		}
		switch f.Op {
		case OpEq, OpGt, OpGte, OpLt, OpLte:
		default:
			return fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, f.Op)
		}
	}
	return nil
}

// Matches evaluates the filter against a metadata mapping. A leaf predicate
// whose property path is absent from the metadata fails the predicate; it
// never errors.
func (f *Filter) Matches(meta map[string]any) bool {
	if f == nil {
		return true
	}
	if len(f.And) > 0 {
		for _, sub := range f.And {
			if !sub.Matches(meta) {
				return false
			}
		}
		return true
	}
	if len(f.Or) > 0 {
		for _, sub := range f.Or {
			if sub.Matches(meta) {
				return true
			}
		}
		return false
	}
	got, ok := data.Properties(meta).Lookup(f.Path)
	if !ok {
		return false
	}
	return compare(got, f.Op, f.Value)
}

func compare(got any, op string, want any) bool {
	if gn, gok := asFloat(got); gok {
		wn, wok := asFloat(want)
		if !wok {
			return false
		}
		switch op {
		case OpEq:
			return gn == wn
		case OpGt:
			return gn > wn
		case OpGte:
			return gn >= wn
		case OpLt:
			return gn < wn
		case OpLte:
			return gn <= wn
		}
		return false
	}
	if gs, ok := got.(string); ok {
		ws, ok := want.(string)
		if !ok {
			return false
		}
		switch op {
		case OpEq:
			return gs == ws
		case OpGt:
			return gs > ws
		case OpGte:
			return gs >= ws
		case OpLt:
			return gs < ws
		case OpLte:
			return gs <= ws
		}
		return false
	}
	if gb, ok := got.(bool); ok {
		wb, ok := want.(bool)
		return ok && op == OpEq && gb == wb
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

// MarshalJSON encodes the filter in its wire format.
func (f *Filter) MarshalJSON() ([]byte, error) {
	if len(f.And) > 0 {
		return json.Marshal(map[string]any{"$and": f.And})
	}
	if len(f.Or) > 0 {
		return json.Marshal(map[string]any{"$or": f.Or})
	}
	return json.Marshal(map[string]any{f.Path: map[string]any{f.Op: f.Value}})
}

// UnmarshalJSON decodes the wire format back into a filter tree.
func (f *Filter) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("%w: expected a single key, got %d", ErrInvalidFilter, len(raw))
	}
	for key, val := range raw {
		switch key {
		case "$and":
			return json.Unmarshal(val, &f.And)
		case "$or":
			return json.Unmarshal(val, &f.Or)
		default:
			var pred map[string]any
			if err := json.Unmarshal(val, &pred); err != nil {
				return err
			}
			if len(pred) != 1 {
				return fmt.Errorf("%w: predicate on %q must have a single operator", ErrInvalidFilter, key)
			}
			f.Path = key
			for op, v := range pred {
				f.Op = op
				f.Value = v
			}
		}
	}
	return nil
}
