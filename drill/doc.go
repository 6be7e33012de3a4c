// Package drill derives request payload batteries from an OpenAPI document
// and issues them against a live server, recording status codes.
//
// The pipeline has four stages. [Collect] filters a document into drivable
// operations: GETs, then POSTs that declare an "application/json" request
// body, with each POST's body schema resolved through the component
// registry. [Dig] walks a body schema into a property tree whose leaves
// carry the declared example values, resolving references as it descends.
// [Shuffle] enumerates the tree into payload variants spanning every
// non-empty property subset at every level. The runner then issues one
// request per variant (plus a trailing empty body per POST, and a single
// no-body request per GET) and records a [Result] for each.
//
// Everything runs strictly sequentially, and results preserve variant
// order, so a run is reproducible against a deterministic server:
//
//	doc, err := openapi.Load("api.yaml")
//	if err != nil {
//	    return err
//	}
//
//	cfg := drill.NewConfig()
//	cfg.Token = os.Getenv("API_TOKEN")
//
//	results, err := cfg.NewRunner().Run(ctx, doc)
//
// Operations that cannot be driven are skipped with a warning rather than
// failing the run; only transport errors are fatal. The bearer token, when
// provided, is attached to operations whose security requirements name the
// document's first http/bearer security scheme.
//
// The variant count doubles with every property at a given level. There is
// no cap, so documents with wide schemas produce large runs.
package drill
