package entry

import "fmt"

// ValidationError reports an option value rejected by its declared validator.
type ValidationError struct {
	Key string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for %q: %v", e.Key, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Resolve merges the three configuration layers into the concrete settings
// an entity runs with: schema defaults first, then the persisted options
// (from the options flow), then the entry data (initial setup values), with
// later layers winning. The literal "None" marker is replaced with nil, and
// registered coercions convert non-serializable forms (a time period string,
// say) into plain serializable values.
//
// Keys absent from the schema pass through untouched, so stale options
// survive a schema change instead of being stripped.
func Resolve(schema Schema, options, data map[string]interface{}) (map[string]interface{}, error) {
	resolved := make(map[string]interface{}, len(schema.Fields))
	for _, f := range schema.Fields {
		resolved[f.Key] = f.Default
	}

	for _, layer := range []map[string]interface{}{options, data} {
		for key, value := range layer {
			resolved[key] = value
		}
	}

	for key, value := range resolved {
		if s, ok := value.(string); ok && s == NoneSentinel {
			resolved[key] = nil
		}
	}

	for _, f := range schema.Fields {
		// Keys with a coercion are validated by the coercion's own
		// parser below.
		if _, hasCoercion := schema.Coercions[f.Key]; hasCoercion {
			continue
		}

		value := resolved[f.Key]
		if value == nil || f.Validate == nil {
			continue
		}

		coerced, err := f.Validate(value)
		if err != nil {
			return nil, &ValidationError{Key: f.Key, Err: err}
		}
		resolved[f.Key] = coerced
	}

	for key, coercion := range schema.Coercions {
		value, ok := resolved[key]
		if !ok || value == nil {
			continue
		}

		parsed, err := coercion.Parse(value)
		if err != nil {
			return nil, &ValidationError{Key: key, Err: err}
		}
		resolved[key] = coercion.Normalize(parsed)
	}

	return resolved, nil
}
