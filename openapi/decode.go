package openapi

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// Load reads the file at path and parses it as an OpenAPI document.
// A path of "-" reads standard input.
func Load(path string) (*Document, error) {
	var (
		data []byte
		err  error
	)

	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	return Parse(data)
}

// Parse decodes an OpenAPI document from YAML (or JSON, which YAML
// subsumes). Mappings are decoded in declaration order; unknown fields are
// ignored.
func Parse(data []byte) (*Document, error) {
	var root any

	err := yaml.UnmarshalWithOptions(data, &root, yaml.UseOrderedMap())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	m, ok := root.(yaml.MapSlice)
	if !ok {
		return nil, fmt.Errorf("%w: document root is not a mapping", ErrInvalidDocument)
	}

	return decodeDocument(m), nil
}

// decodeDocument binds the ordered YAML tree to the typed model.
func decodeDocument(m yaml.MapSlice) *Document {
	doc := &Document{}

	for _, item := range m {
		switch key(item) {
		case "openapi":
			doc.OpenAPI, _ = item.Value.(string)
		case "servers":
			doc.Servers = decodeServers(item.Value)
		case "paths":
			if paths, ok := asMapSlice(item.Value); ok {
				doc.Paths = decodePaths(paths)
			}
		case "components":
			if comps, ok := asMapSlice(item.Value); ok {
				doc.Components = decodeComponents(comps)
			}
		}
	}

	return doc
}

// decodeServers processes the servers sequence.
func decodeServers(v any) []Server {
	seq, ok := v.([]any)
	if !ok {
		return nil
	}

	var servers []Server

	for _, entry := range seq {
		m, ok := asMapSlice(entry)
		if !ok {
			continue
		}

		var srv Server

		for _, item := range m {
			switch key(item) {
			case "url":
				srv.URL, _ = item.Value.(string)
			case "variables":
				if vars, ok := asMapSlice(item.Value); ok {
					srv.Variables = decodeServerVariables(vars)
				}
			}
		}

		servers = append(servers, srv)
	}

	return servers
}

// decodeServerVariables processes a server's variables mapping, preserving
// declaration order.
func decodeServerVariables(m yaml.MapSlice) []ServerVariable {
	var vars []ServerVariable

	for _, item := range m {
		name := key(item)
		if name == "" {
			continue
		}

		sv := ServerVariable{Name: name}

		if vm, ok := asMapSlice(item.Value); ok {
			for _, vi := range vm {
				if key(vi) == "default" {
					sv.Default, _ = vi.Value.(string)
				}
			}
		}

		vars = append(vars, sv)
	}

	return vars
}

// decodePaths processes the paths mapping in declaration order. Path items
// that are references are skipped: the registry only resolves schemas.
func decodePaths(m yaml.MapSlice) []*PathItem {
	var paths []*PathItem

	for _, item := range m {
		path := key(item)
		if path == "" {
			continue
		}

		pm, ok := asMapSlice(item.Value)
		if !ok {
			continue
		}

		if _, isRef := find(pm, "$ref"); isRef {
			continue
		}

		pi := &PathItem{Path: path}

		for _, op := range pm {
			switch key(op) {
			case "get":
				if om, ok := asMapSlice(op.Value); ok {
					pi.Get = decodeOperation(om)
				}
			case "post":
				if om, ok := asMapSlice(op.Value); ok {
					pi.Post = decodeOperation(om)
				}
			}
		}

		paths = append(paths, pi)
	}

	return paths
}

// decodeOperation processes a single get or post mapping.
func decodeOperation(m yaml.MapSlice) *Operation {
	op := &Operation{}

	for _, item := range m {
		switch key(item) {
		case "deprecated":
			op.Deprecated, _ = item.Value.(bool)
		case "security":
			op.Security = decodeSecurity(item.Value)
		case "requestBody":
			if rb, ok := asMapSlice(item.Value); ok {
				// Referenced request bodies are not resolvable and are
				// treated as absent.
				if _, isRef := find(rb, "$ref"); !isRef {
					op.RequestBody = decodeRequestBody(rb)
				}
			}
		}
	}

	return op
}

// decodeSecurity processes an operation's security requirement list.
func decodeSecurity(v any) []SecurityRequirement {
	seq, ok := v.([]any)
	if !ok {
		return nil
	}

	var reqs []SecurityRequirement

	for _, entry := range seq {
		m, ok := asMapSlice(entry)
		if !ok {
			continue
		}

		req := make(SecurityRequirement, len(m))

		for _, item := range m {
			name := key(item)
			if name == "" {
				continue
			}

			var scopes []string

			if scopeSeq, ok := item.Value.([]any); ok {
				for _, s := range scopeSeq {
					if scope, ok := s.(string); ok {
						scopes = append(scopes, scope)
					}
				}
			}

			req[name] = scopes
		}

		reqs = append(reqs, req)
	}

	return reqs
}

// decodeRequestBody processes a requestBody mapping into its ordered media
// type list.
func decodeRequestBody(m yaml.MapSlice) *RequestBody {
	rb := &RequestBody{}

	for _, item := range m {
		if key(item) != "content" {
			continue
		}

		content, ok := asMapSlice(item.Value)
		if !ok {
			continue
		}

		for _, mt := range content {
			name := key(mt)
			if name == "" {
				continue
			}

			media := MediaType{Name: name}

			if mm, ok := asMapSlice(mt.Value); ok {
				if schema, ok := find(mm, "schema"); ok {
					media.Schema = decodeSchemaRef(schema)
				}
			}

			rb.Content = append(rb.Content, media)
		}
	}

	return rb
}

// decodeSchemaRef processes a value that is either a $ref mapping or an
// inline schema.
func decodeSchemaRef(v any) *SchemaRef {
	m, ok := asMapSlice(v)
	if !ok {
		return nil
	}

	if ref, ok := find(m, "$ref"); ok {
		s, _ := ref.(string)

		return &SchemaRef{Ref: s}
	}

	return &SchemaRef{Value: decodeSchema(m)}
}

// decodeSchema processes an inline schema mapping. Properties keep their
// declaration order; example values are normalized to JSON-compatible Go
// values.
func decodeSchema(m yaml.MapSlice) *Schema {
	s := &Schema{}

	for _, item := range m {
		switch key(item) {
		case "type":
			s.Type, _ = item.Value.(string)
		case "nullable":
			s.Nullable, _ = item.Value.(bool)
		case "example":
			s.Example = normalizeValue(item.Value)
		case "properties":
			if props, ok := asMapSlice(item.Value); ok {
				s.Properties = decodeProperties(props)
			}
		}
	}

	return s
}

// decodeProperties processes an object schema's properties mapping.
func decodeProperties(m yaml.MapSlice) []Property {
	var props []Property

	for _, item := range m {
		name := key(item)
		if name == "" {
			continue
		}

		ref := decodeSchemaRef(item.Value)
		if ref == nil {
			continue
		}

		props = append(props, Property{Name: name, Schema: ref})
	}

	return props
}

// decodeComponents processes the components mapping. Component schema
// entries that are themselves references are dropped: reference targets
// must be inline, so such entries can never resolve.
func decodeComponents(m yaml.MapSlice) *Components {
	comps := &Components{Schemas: make(map[string]*Schema)}

	for _, item := range m {
		switch key(item) {
		case "schemas":
			sm, ok := asMapSlice(item.Value)
			if !ok {
				continue
			}

			for _, entry := range sm {
				name := key(entry)
				if name == "" {
					continue
				}

				em, ok := asMapSlice(entry.Value)
				if !ok {
					continue
				}

				if _, isRef := find(em, "$ref"); isRef {
					continue
				}

				comps.Schemas[name] = decodeSchema(em)
			}

		case "securitySchemes":
			sm, ok := asMapSlice(item.Value)
			if !ok {
				continue
			}

			for _, entry := range sm {
				name := key(entry)
				if name == "" {
					continue
				}

				em, ok := asMapSlice(entry.Value)
				if !ok {
					continue
				}

				scheme := SecurityScheme{Name: name}

				for _, si := range em {
					switch key(si) {
					case "type":
						scheme.Type, _ = si.Value.(string)
					case "scheme":
						scheme.Scheme, _ = si.Value.(string)
					}
				}

				comps.SecuritySchemes = append(comps.SecuritySchemes, scheme)
			}
		}
	}

	return comps
}

// normalizeValue converts ordered YAML values into the plain Go values
// produced by [encoding/json]: mappings become map[string]any and sequence
// elements are normalized recursively. Scalars pass through unchanged.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case yaml.MapSlice:
		m := make(map[string]any, len(val))

		for _, item := range val {
			name, ok := item.Key.(string)
			if !ok {
				continue
			}

			m[name] = normalizeValue(item.Value)
		}

		return m

	case []any:
		seq := make([]any, len(val))

		for i, e := range val {
			seq[i] = normalizeValue(e)
		}

		return seq
	}

	return v
}

// key returns a mapping item's key when it is a string, and "" otherwise.
func key(item yaml.MapItem) string {
	s, _ := item.Key.(string)

	return s
}

// find returns the value stored under k, if any.
func find(m yaml.MapSlice, k string) (any, bool) {
	for _, item := range m {
		if key(item) == k {
			return item.Value, true
		}
	}

	return nil, false
}

// asMapSlice narrows v to an ordered mapping.
func asMapSlice(v any) (yaml.MapSlice, bool) {
	m, ok := v.(yaml.MapSlice)

	return m, ok
}
