package data

import "strings"

// Properties is a loosely typed property bag. Values are restricted to the
// JSON-compatible variants: string, bool, int, int64, float64, []any and
// nested Properties / map[string]any. Callers use the typed accessors instead
// of asserting on the raw map.
type Properties map[string]any

// Clone returns a deep copy. Nested maps and slices are copied; scalar values
// are shared.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Properties:
		return t.Clone()
	case map[string]any:
		return Properties(t).Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Child returns the nested property map stored under key, creating it when
// absent. A value of the wrong type is replaced.
func (p Properties) Child(key string) Properties {
	switch t := p[key].(type) {
	case Properties:
		return t
	case map[string]any:
		child := Properties(t)
		p[key] = child
		return child
	default:
		child := Properties{}
		p[key] = child
		return child
	}
}

// String returns the string stored under key, with ok reporting presence.
func (p Properties) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

// Bool returns the bool stored under key. Absent keys report false.
func (p Properties) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Int returns the integer stored under key, accepting the numeric variants
// that survive JSON decoding.
func (p Properties) Int(key string) (int, bool) {
	switch t := p[key].(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	default:
		return 0, false
	}
}

// Float returns the float stored under key, accepting integer variants.
func (p Properties) Float(key string) (float64, bool) {
	switch t := p[key].(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

// Lookup resolves a dotted path ("entity.year") against nested property maps.
// The second return is false when any path segment is absent or a non-map
// value is traversed.
func (p Properties) Lookup(path string) (any, bool) {
	var cur any = p
	for _, seg := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case Properties:
		return t, true
	case map[string]any:
		return t, true
	default:
		return nil, false
	}
}
