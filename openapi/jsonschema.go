package openapi

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// JSONSchema converts a resolved schema into a JSON Schema, inlining every
// reference through the component registry. Property order is carried in
// the PropertyOrder extension so round-tripped output keeps the document's
// declaration order.
//
// Unresolvable references yield [ErrUnresolvedReference]; reference chains
// that revisit a component yield [ErrCyclicReference].
func JSONSchema(s *Schema, c *Components) (*jsonschema.Schema, error) {
	return buildJSONSchema(s, c, make(map[string]bool))
}

func buildJSONSchema(s *Schema, c *Components, seen map[string]bool) (*jsonschema.Schema, error) {
	out := &jsonschema.Schema{Type: s.Type}

	if s.Example != nil {
		out.Examples = []any{s.Example}
	}

	if s.Nullable {
		out.Extra = map[string]any{"nullable": true}
	}

	if len(s.Properties) == 0 {
		return out, nil
	}

	out.Properties = make(map[string]*jsonschema.Schema, len(s.Properties))

	for _, prop := range s.Properties {
		child, err := buildJSONSchemaRef(prop.Schema, c, seen)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", prop.Name, err)
		}

		out.Properties[prop.Name] = child
		out.PropertyOrder = append(out.PropertyOrder, prop.Name)
	}

	return out, nil
}

func buildJSONSchemaRef(ref *SchemaRef, c *Components, seen map[string]bool) (*jsonschema.Schema, error) {
	if ref.Ref == "" {
		return buildJSONSchema(ref.Value, c, seen)
	}

	name := RefName(ref.Ref)
	if seen[name] {
		return nil, fmt.Errorf("%w: %q", ErrCyclicReference, ref.Ref)
	}

	resolved, ok := c.Schema(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvedReference, ref.Ref)
	}

	seen[name] = true
	out, err := buildJSONSchema(resolved, c, seen)
	delete(seen, name)

	return out, err
}
