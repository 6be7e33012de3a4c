package drill

import (
	"errors"
	"fmt"

	"go.jacobcolvin.com/snout/openapi"
)

// Sentinel errors returned while building property trees.
var (
	// ErrMissingExample indicates an inline property without an example
	// value, which leaves nothing to send for it.
	ErrMissingExample = errors.New("missing example")
	// ErrUnsupportedSchemaKind indicates a schema without a concrete type,
	// such as a oneOf/allOf composition or a bare untyped mapping.
	ErrUnsupportedSchemaKind = errors.New("unsupported schema kind")
	// ErrUnsupportedType indicates a referenced schema whose type is not
	// object. Non-object properties must be inline with an example.
	ErrUnsupportedType = errors.New("unsupported type")
)

// Node is a single property in the tree built from a request body schema.
// Leaves carry the property's declared example as Value; nodes backed by an
// object schema carry a nil Value and one child per property, in
// declaration order.
type Node struct {
	Name     string
	Value    any
	Parent   *Node
	Children []*Node
}

// digger tracks the insertion point while descending a schema. The current
// pointer returns to the node it started at after every recursive step.
type digger struct {
	root    *Node
	current *Node
	comps   *openapi.Components
	visited map[string]bool
}

// Dig converts an object schema into a property tree rooted at a synthetic
// root node. Reference-valued properties are resolved through comps and
// recursed into; inline properties become leaves carrying their example.
//
// Dig fails with [ErrMissingExample] when an inline property has no
// example, [openapi.ErrUnresolvedReference] when a reference misses the
// registry, [openapi.ErrCyclicReference] when references form a cycle, and
// [ErrUnsupportedSchemaKind] or [ErrUnsupportedType] when schema itself or
// a referenced schema is not an object.
func Dig(schema *openapi.Schema, comps *openapi.Components) (*Node, error) {
	root := &Node{Name: "root"}

	d := &digger{
		root:    root,
		current: root,
		comps:   comps,
		visited: make(map[string]bool),
	}

	err := d.dig(schema)
	if err != nil {
		return nil, err
	}

	return root, nil
}

func (d *digger) dig(schema *openapi.Schema) error {
	if schema.Type == "" {
		return ErrUnsupportedSchemaKind
	}

	if schema.Type != openapi.TypeObject {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, schema.Type)
	}

	for _, prop := range schema.Properties {
		if prop.Schema.Ref == "" {
			err := d.addLeaf(prop.Name, prop.Schema.Value)
			if err != nil {
				return err
			}

			continue
		}

		err := d.digReference(prop.Name, prop.Schema.Ref)
		if err != nil {
			return err
		}
	}

	return nil
}

// addLeaf appends an inline property carrying its example value.
func (d *digger) addLeaf(name string, schema *openapi.Schema) error {
	if schema.Example == nil {
		return fmt.Errorf("%w: property %q", ErrMissingExample, name)
	}

	d.current.Children = append(d.current.Children, &Node{
		Name:   name,
		Value:  schema.Example,
		Parent: d.current,
	})

	return nil
}

// digReference resolves ref, enters a new intermediate node, fills it from
// the resolved schema, and exits back to the previous level. The visited
// set holds the component names on the current reference chain, so a
// revisit is a cycle.
func (d *digger) digReference(name, ref string) error {
	resolved, ok := d.comps.Resolve(ref)
	if !ok {
		return fmt.Errorf("%w: %q", openapi.ErrUnresolvedReference, ref)
	}

	component := openapi.RefName(ref)
	if d.visited[component] {
		return fmt.Errorf("%w: %q", openapi.ErrCyclicReference, ref)
	}

	d.visited[component] = true
	d.enter(name)

	err := d.dig(resolved)

	d.exit()
	delete(d.visited, component)

	return err
}

// enter appends a nil-valued child and moves the insertion point into it.
func (d *digger) enter(name string) {
	child := &Node{Name: name, Parent: d.current}
	d.current.Children = append(d.current.Children, child)
	d.current = child
}

// exit moves the insertion point back up one level.
func (d *digger) exit() {
	d.current = d.current.Parent
}
