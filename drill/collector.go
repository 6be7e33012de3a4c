package drill

import (
	"log/slog"
	"net/http"

	"go.jacobcolvin.com/snout/openapi"
)

// Op is one drivable operation extracted from a document.
//
// Body is the resolved request body schema. It is nil for GET operations,
// and nil for POST operations whose body schema could not be resolved (a
// warning is logged when that happens).
type Op struct {
	Path     string
	Method   string
	Security []openapi.SecurityRequirement
	Body     *openapi.Schema
}

// Collect extracts every drivable operation from doc, GET operations first,
// each set in path declaration order.
func Collect(doc *openapi.Document) []Op {
	return append(CollectGets(doc), CollectPosts(doc)...)
}

// CollectGets extracts the GET operations: every path with a get that is
// not deprecated.
func CollectGets(doc *openapi.Document) []Op {
	var ops []Op

	for _, pi := range doc.Paths {
		if pi.Get == nil || pi.Get.Deprecated {
			continue
		}

		ops = append(ops, Op{
			Path:     pi.Path,
			Method:   http.MethodGet,
			Security: pi.Get.Security,
		})
	}

	return ops
}

// CollectPosts extracts the POST operations: every path with a post that is
// not deprecated and declares a request body with an "application/json"
// media type. Each operation's body schema is resolved against the
// document's component registry.
func CollectPosts(doc *openapi.Document) []Op {
	var ops []Op

	for _, pi := range doc.Paths {
		post := pi.Post
		if post == nil || post.Deprecated || post.RequestBody == nil {
			continue
		}

		if !hasJSONContent(post.RequestBody) {
			continue
		}

		ops = append(ops, Op{
			Path:     pi.Path,
			Method:   http.MethodPost,
			Security: post.Security,
			Body:     payloadSchema(pi.Path, post.RequestBody, doc.Components),
		})
	}

	return ops
}

func hasJSONContent(rb *openapi.RequestBody) bool {
	for _, mt := range rb.Content {
		if mt.Name == openapi.MediaTypeJSON {
			return true
		}
	}

	return false
}

// payloadSchema scans every media type in declaration order and returns the
// last schema that resolves through the registry. Inline media type schemas
// and unresolvable references leave the payload unset with a warning.
func payloadSchema(path string, rb *openapi.RequestBody, comps *openapi.Components) *openapi.Schema {
	var body *openapi.Schema

	for _, mt := range rb.Content {
		if mt.Schema == nil {
			continue
		}

		if mt.Schema.Ref == "" {
			slog.Warn("schema reference is empty",
				slog.String("path", path),
				slog.String("media_type", mt.Name),
			)

			continue
		}

		resolved, ok := comps.Resolve(mt.Schema.Ref)
		if !ok {
			slog.Warn("unresolved schema reference",
				slog.String("path", path),
				slog.String("ref", mt.Schema.Ref),
			)

			continue
		}

		body = resolved
	}

	return body
}
