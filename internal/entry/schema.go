// Package entry implements config entries for the simulator: the two
// persisted configuration layers (data and options), the schema that
// validates them, and the resolver that merges them with defaults into the
// settings an entity actually runs with.
package entry

// NoneSentinel is the literal string the options flow stores when a user
// clears an option.
const NoneSentinel = "None"

// ValidatorFunc checks a single option value and returns its coerced form.
type ValidatorFunc func(value interface{}) (interface{}, error)

// Field declares one option: its key, its default, and the validator applied
// to user-supplied values.
type Field struct {
	Key      string
	Default  interface{}
	Validate ValidatorFunc
}

// Coercion pairs the strict validator used at the input boundary with the
// normalization that makes the stored value serializable. The parsed form
// (e.g. a time.Duration) cannot be serialized, so Normalize flattens it
// before the resolved settings leave this package.
type Coercion struct {
	Parse     ValidatorFunc
	Normalize func(value interface{}) interface{}
}

// Schema is an ordered option declaration plus the per-key coercions.
type Schema struct {
	Fields    []Field
	Coercions map[string]Coercion
}

// Keys returns the declared option keys in schema order.
func (s Schema) Keys() []string {
	keys := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		keys[i] = f.Key
	}
	return keys
}
