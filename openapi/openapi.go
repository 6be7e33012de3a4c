package openapi

import (
	"errors"
	"strings"
)

// Sentinel errors returned when loading documents and resolving references.
var (
	ErrInvalidDocument     = errors.New("invalid document")
	ErrReadInput           = errors.New("read input")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrCyclicReference     = errors.New("cyclic reference")
)

// RefPrefix is the only reference form understood by the registry.
// References pointing anywhere else never resolve.
const RefPrefix = "#/components/schemas/"

// MediaTypeJSON is the media type key that makes a request body drivable.
const MediaTypeJSON = "application/json"

// Schema type names as they appear in a document's type field.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
)

// Document is the in-memory form of an OpenAPI v3 description, reduced to
// the parts needed to drive endpoints: servers, path operations, and the
// component registry. Slices preserve declaration order throughout, since
// path iteration order, property order, and "first scheme/variable" rules
// all depend on it.
type Document struct {
	OpenAPI    string
	Servers    []Server
	Paths      []*PathItem
	Components *Components
}

// Server is one entry of the document's servers list.
type Server struct {
	URL       string
	Variables []ServerVariable
}

// ServerVariable is a single URL template variable with its default value.
type ServerVariable struct {
	Name    string
	Default string
}

// PathItem holds the operations declared for one path template.
// Only GET and POST are retained.
type PathItem struct {
	Path string
	Get  *Operation
	Post *Operation
}

// Operation is a single method on a path.
type Operation struct {
	Deprecated  bool
	Security    []SecurityRequirement
	RequestBody *RequestBody
}

// SecurityRequirement maps security scheme names to their required scopes.
// An operation's security list is satisfied by any one requirement group.
type SecurityRequirement map[string][]string

// RequestBody carries the declared media types in declaration order.
type RequestBody struct {
	Content []MediaType
}

// MediaType pairs a media type key such as "application/json" with its
// schema. Schema is nil when the entry declares none.
type MediaType struct {
	Name   string
	Schema *SchemaRef
}

// SchemaRef is either a reference string or an inline schema.
// Exactly one of Ref and Value is set.
type SchemaRef struct {
	Ref   string
	Value *Schema
}

// Schema is an inline schema definition. Type is empty for composite or
// untyped schemas. Properties is non-nil only for object schemas and
// preserves declaration order.
type Schema struct {
	Type       string
	Nullable   bool
	Example    any
	Properties []Property
}

// Property is one named entry of an object schema.
type Property struct {
	Name   string
	Schema *SchemaRef
}

// Components is the registry of named schemas and security schemes.
type Components struct {
	Schemas         map[string]*Schema
	SecuritySchemes []SecurityScheme
}

// SecurityScheme is a named security scheme. Scheme is only meaningful for
// the "http" type.
type SecurityScheme struct {
	Name   string
	Type   string
	Scheme string
}

// RefName strips [RefPrefix] from ref. A ref without the prefix is
// returned unchanged, so bare component names also resolve.
func RefName(ref string) string {
	return strings.TrimPrefix(ref, RefPrefix)
}

// Schema looks up a component schema by bare name.
func (c *Components) Schema(name string) (*Schema, bool) {
	if c == nil {
		return nil, false
	}

	s, ok := c.Schemas[name]

	return s, ok
}

// Resolve looks up the schema a reference of the form
// "#/components/schemas/<name>" points at.
func (c *Components) Resolve(ref string) (*Schema, bool) {
	return c.Schema(RefName(ref))
}
