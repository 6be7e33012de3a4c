// Package openapi decodes OpenAPI v3 documents into a small in-memory model
// sufficient for driving endpoints: servers, GET/POST operations, request
// body media types, the component schema registry, and security schemes.
//
// Decoding goes through [github.com/goccy/go-yaml] with ordered mappings, so
// the model preserves declaration order everywhere it matters: path
// iteration, object property order, security scheme precedence, and server
// variables. JSON documents parse the same way, since YAML subsumes JSON.
//
// The model is deliberately lossy. Fields outside the driving surface are
// ignored, and only references of the form "#/components/schemas/<name>"
// resolve (see [RefPrefix]). Use [Load] or [Parse] to obtain a [Document],
// and [Components.Resolve] to chase references:
//
//	doc, err := openapi.Load("api.yaml")
//	if err != nil {
//	    return err
//	}
//
//	schema, ok := doc.Components.Resolve("#/components/schemas/LoginRequest")
//
// [JSONSchema] converts a resolved schema into a JSON Schema with all
// references inlined, which is useful for inspecting what a request body
// actually requires.
package openapi
