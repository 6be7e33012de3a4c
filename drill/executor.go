package drill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.jacobcolvin.com/snout/openapi"
)

// Result records the outcome of a single request.
//
// Payload is the JSON body that was sent, empty for GET requests. Path is
// the full request URL.
type Result struct {
	Payload    string `json:"payload"`
	Path       string `json:"path"`
	StatusCode int    `json:"status_code"`
}

// executor issues the requests for one run. Requests go out strictly
// sequentially; any transport failure aborts the operation and bubbles up
// to fail the run.
type executor struct {
	client *http.Client
	base   string
	scheme string
	token  string
	comps  *openapi.Components
	obs    Observer
}

func (e *executor) do(ctx context.Context, op Op) ([]Result, error) {
	switch op.Method {
	case http.MethodGet:
		return e.drillGet(ctx, op)
	case http.MethodPost:
		return e.drillPost(ctx, op)
	}

	slog.Warn("unsupported method",
		slog.String("method", op.Method),
		slog.String("path", op.Path),
	)

	return nil, nil
}

// drillGet issues the single no-body request for a GET operation.
func (e *executor) drillGet(ctx context.Context, op Op) ([]Result, error) {
	url := e.base + op.Path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	e.authorize(req, op)

	status, err := e.roundTrip(req)
	if err != nil {
		return nil, err
	}

	result := Result{Path: url, StatusCode: status}
	e.observe(op, result)

	return []Result{result}, nil
}

// drillPost builds the property tree for the operation's body schema,
// enumerates its payload variants plus one trailing empty body, and issues
// one POST per variant.
//
// A missing body schema or a tree construction failure skips the operation
// with an empty result list; only transport failures are fatal.
func (e *executor) drillPost(ctx context.Context, op Op) ([]Result, error) {
	if op.Body == nil {
		slog.Warn("no payload schema for post", slog.String("path", op.Path))

		return []Result{}, nil
	}

	root, err := Dig(op.Body, e.comps)
	if err != nil {
		slog.Error("building property tree",
			slog.String("path", op.Path),
			slog.Any("error", err),
		)

		return []Result{}, nil
	}

	variants := append(Shuffle(root), Variant{})

	url := e.base + op.Path
	results := make([]Result, 0, len(variants))

	for _, variant := range variants {
		body, err := json.Marshal(variant)
		if err != nil {
			return nil, fmt.Errorf("encoding payload: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Content-Type", openapi.MediaTypeJSON)
		e.authorize(req, op)

		status, err := e.roundTrip(req)
		if err != nil {
			return nil, err
		}

		result := Result{Payload: string(body), Path: url, StatusCode: status}
		e.observe(op, result)
		results = append(results, result)
	}

	return results, nil
}

// authorize attaches the bearer header when the operation's security names
// the discovered bearer scheme and a token was supplied. Header.Set keeps
// the attachment idempotent when several requirement groups match.
func (e *executor) authorize(req *http.Request, op Op) {
	if e.scheme == "" || e.token == "" {
		return
	}

	for _, group := range op.Security {
		for name := range group {
			if name == e.scheme {
				req.Header.Set("Authorization", "Bearer "+e.token)
			}
		}
	}
}

func (e *executor) roundTrip(req *http.Request) (int, error) {
	resp, err := e.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}

	defer resp.Body.Close() //nolint:errcheck // Body is fully drained; close failures carry no signal.

	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func (e *executor) observe(op Op, result Result) {
	if e.obs != nil {
		e.obs.OperationResult(op, result)
	}
}
