// Package extract infers a property schema from a sample of document
// elements and applies it to populate entity properties, through the external
// LLM extraction capability.
package extract

// Field types a schema can declare.
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
	TypeList   = "list"
)

// SchemaField is one named, typed field with example values drawn from the
// sampled elements.
type SchemaField struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Examples []string `json:"examples,omitempty"`
}

// Schema is the batch-scoped property schema. It is computed once per batch,
// then treated as read-only and passed by value into every per-document
// extraction call.
type Schema struct {
	Name   string        `json:"name"`
	Fields []SchemaField `json:"fields"`
}

// Field returns the field with the given name.
func (s *Schema) Field(name string) (SchemaField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return SchemaField{}, false
}

// merge folds duplicate field declarations into one, promoting conflicting
// types: int and float combine to float, anything else mixed combines to
// string. Examples are concatenated. Field order follows first appearance.
func merge(fields []SchemaField) []SchemaField {
	var out []SchemaField
	byName := make(map[string]int)
	for _, f := range fields {
		i, seen := byName[f.Name]
		if !seen {
			byName[f.Name] = len(out)
			out = append(out, f)
			continue
		}
		out[i].Type = promote(out[i].Type, f.Type)
		out[i].Examples = append(out[i].Examples, f.Examples...)
	}
	return out
}

func promote(a, b string) string {
	if a == b {
		return a
	}
	if (a == TypeInt && b == TypeFloat) || (a == TypeFloat && b == TypeInt) {
		return TypeFloat
	}
	if a == TypeList || b == TypeList {
		return TypeList
	}
	return TypeString
}
