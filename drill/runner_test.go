package drill_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/snout/drill"
)

// startServer runs an httptest server for the duration of the test.
func startServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return ts
}

// requireFields responds 200 when the decoded JSON body carries every
// field, and 422 otherwise.
func requireFields(fields ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any

		err := json.NewDecoder(r.Body).Decode(&body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		for _, f := range fields {
			if _, ok := body[f]; !ok {
				w.WriteHeader(http.StatusUnprocessableEntity)

				return
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}

func TestRunnerRun(t *testing.T) {
	t.Parallel()

	t.Run("get issues a single request without body", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/org/info", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		ts := startServer(t, mux)

		cfg := drill.NewConfig()
		cfg.URL = ts.URL

		results, err := cfg.NewRunner().Run(t.Context(), loadDoc(t, "get_info.yaml"))
		require.NoError(t, err)
		require.Len(t, results, 1)

		want := []drill.Result{
			{Path: ts.URL + "/api/v1/org/info", StatusCode: http.StatusOK},
		}

		assert.Equal(t, want, results[0])
	})

	t.Run("post shuffles payload variants", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.Handle("POST /api/v1/login", requireFields("email", "org", "password"))
		ts := startServer(t, mux)

		cfg := drill.NewConfig()
		cfg.URL = ts.URL

		results, err := cfg.NewRunner().Run(t.Context(), loadDoc(t, "post_login.yaml"))
		require.NoError(t, err)
		require.Len(t, results, 1)

		rs := results[0]
		require.Len(t, rs, 8)

		var accepted int

		for _, r := range rs {
			assert.Equal(t, ts.URL+"/api/v1/login", r.Path)

			if r.StatusCode == http.StatusOK {
				accepted++
			}
		}

		assert.Equal(t, 1, accepted)
		assert.Equal(t, `{"email":"mail@example.com","org":"acme","password":"super_secret"}`, rs[6].Payload)
		assert.Equal(t, http.StatusOK, rs[6].StatusCode)

		// The probe body always goes last.
		assert.Equal(t, "{}", rs[7].Payload)
		assert.Equal(t, http.StatusUnprocessableEntity, rs[7].StatusCode)
	})

	t.Run("post drills through schema references", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v1/org/hq", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				HQ map[string]any `json:"hq"`
			}

			err := json.NewDecoder(r.Body).Decode(&body)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)

				return
			}

			for _, f := range []string{"address", "postal_code", "city", "state_region", "country"} {
				if _, ok := body.HQ[f]; !ok {
					w.WriteHeader(http.StatusUnprocessableEntity)

					return
				}
			}

			w.WriteHeader(http.StatusOK)
		})
		ts := startServer(t, mux)

		cfg := drill.NewConfig()
		cfg.URL = ts.URL

		results, err := cfg.NewRunner().Run(t.Context(), loadDoc(t, "post_hq_nested.yaml"))
		require.NoError(t, err)
		require.Len(t, results, 1)

		rs := results[0]
		require.Len(t, rs, 33)

		var accepted []int

		for i, r := range rs {
			if r.StatusCode == http.StatusOK {
				accepted = append(accepted, i)
			}
		}

		// Only the variant carrying the complete hq object passes.
		assert.Equal(t, []int{31}, accepted)
		assert.Equal(t, `{"hq":null}`, rs[0].Payload)
		assert.Equal(t, "{}", rs[32].Payload)
	})

	t.Run("bearer token attached when security names the scheme", func(t *testing.T) {
		t.Parallel()

		const token = "test_token_get_with_jwt"

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/org/more/info", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+token {
				w.WriteHeader(http.StatusUnauthorized)

				return
			}

			w.WriteHeader(http.StatusOK)
		})
		ts := startServer(t, mux)

		doc := loadDoc(t, "get_more_info_jwt.yaml")

		cfg := drill.NewConfig()
		cfg.URL = ts.URL

		results, err := cfg.NewRunner().Run(t.Context(), doc)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, http.StatusUnauthorized, results[0][0].StatusCode)

		cfg.Token = token

		results, err = cfg.NewRunner().Run(t.Context(), doc)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, http.StatusOK, results[0][0].StatusCode)
	})

	t.Run("bearer post sends token and payload", func(t *testing.T) {
		t.Parallel()

		const token = "test_token_post_with_jwt"

		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v1/org/info", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+token {
				w.WriteHeader(http.StatusUnauthorized)

				return
			}

			requireFields("address")(w, r)
		})
		ts := startServer(t, mux)

		cfg := drill.NewConfig()
		cfg.URL = ts.URL
		cfg.Token = token

		results, err := cfg.NewRunner().Run(t.Context(), loadDoc(t, "post_info_jwt.yaml"))
		require.NoError(t, err)
		require.Len(t, results, 1)

		want := []drill.Result{
			{Payload: `{"address":"123 Main St"}`, Path: ts.URL + "/api/v1/org/info", StatusCode: http.StatusOK},
			{Payload: "{}", Path: ts.URL + "/api/v1/org/info", StatusCode: http.StatusUnprocessableEntity},
		}

		assert.Equal(t, want, results[0])
	})

	t.Run("deprecated operations produce an empty run", func(t *testing.T) {
		t.Parallel()

		cfg := drill.NewConfig()

		results, err := cfg.NewRunner().Run(t.Context(), loadDoc(t, "deprecated.yaml"))
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("post without example is skipped", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, `
			openapi: 3.0.3
			servers:
			  - url: http://localhost:9999
			paths:
			  /api/v1/login:
			    post:
			      requestBody:
			        content:
			          application/json:
			            schema:
			              $ref: "#/components/schemas/LoginRequest"
			components:
			  schemas:
			    LoginRequest:
			      type: object
			      properties:
			        email:
			          type: string
		`)

		results, err := drill.NewConfig().NewRunner().Run(t.Context(), doc)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.NotNil(t, results[0])
		assert.Empty(t, results[0])
	})

	t.Run("post without resolvable body is skipped", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, `
			openapi: 3.0.3
			servers:
			  - url: http://localhost:9999
			paths:
			  /api/v1/login:
			    post:
			      requestBody:
			        content:
			          application/json:
			            schema:
			              $ref: "#/components/schemas/Missing"
			components:
			  schemas: {}
		`)

		results, err := drill.NewConfig().NewRunner().Run(t.Context(), doc)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.NotNil(t, results[0])
		assert.Empty(t, results[0])
	})

	t.Run("document without components", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, `
			openapi: 3.0.3
			servers:
			  - url: http://localhost:9999
			paths:
			  /api/v1/org/info:
			    get: {}
		`)

		_, err := drill.NewConfig().NewRunner().Run(t.Context(), doc)
		require.ErrorIs(t, err, drill.ErrNoComponents)
	})

	t.Run("document without servers fails even with override", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, `
			openapi: 3.0.3
			paths:
			  /api/v1/org/info:
			    get: {}
			components:
			  schemas: {}
		`)

		cfg := drill.NewConfig()
		cfg.URL = "http://localhost:9999"

		_, err := cfg.NewRunner().Run(t.Context(), doc)
		require.ErrorIs(t, err, drill.ErrNoServers)
	})

	t.Run("first server variable default becomes the base", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/org/info", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		ts := startServer(t, mux)

		doc := loadDoc(t, "servers_variables.yaml")
		doc.Servers[0].Variables[0].Default = ts.URL

		results, err := drill.NewConfig().NewRunner().Run(t.Context(), doc)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, ts.URL+"/api/v1/org/info", results[0][0].Path)
		assert.Equal(t, http.StatusOK, results[0][0].StatusCode)
	})

	t.Run("first server wins", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/org/info", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		ts := startServer(t, mux)

		doc := parseDoc(t, fmt.Sprintf(`
			openapi: 3.0.3
			servers:
			  - url: %s
			  - url: http://localhost:1
			paths:
			  /api/v1/org/info:
			    get: {}
			components:
			  schemas: {}
		`, ts.URL))

		results, err := drill.NewConfig().NewRunner().Run(t.Context(), doc)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, http.StatusOK, results[0][0].StatusCode)
	})

	t.Run("transport error aborts the run", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()

		cfg := drill.NewConfig()
		cfg.URL = url

		results, err := cfg.NewRunner().Run(t.Context(), loadDoc(t, "get_info.yaml"))
		require.Error(t, err)
		assert.ErrorContains(t, err, "GET "+url)
		assert.Nil(t, results)
	})
}

// recordingObserver captures runner progress notifications.
type recordingObserver struct {
	started []drill.Op
	ops     []drill.Op
	results []drill.Result
}

func (o *recordingObserver) RunStarted(ops []drill.Op) {
	o.started = ops
}

func (o *recordingObserver) OperationStarted(op drill.Op) {
	o.ops = append(o.ops, op)
}

func (o *recordingObserver) OperationResult(_ drill.Op, result drill.Result) {
	o.results = append(o.results, result)
}

func TestRunnerObserver(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/org/info", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/v1/org/more/info", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("POST /api/v1/login", requireFields("email"))
	mux.Handle("POST /api/v1/org/info", requireFields("address"))
	ts := startServer(t, mux)

	cfg := drill.NewConfig()
	cfg.URL = ts.URL

	obs := &recordingObserver{}

	results, err := cfg.NewRunner(drill.WithObserver(obs)).Run(t.Context(), loadDoc(t, "multi_ops.yaml"))
	require.NoError(t, err)
	require.Len(t, results, 4)

	require.Len(t, obs.started, 4)
	require.Len(t, obs.ops, 4)

	var order []string
	for _, op := range obs.ops {
		order = append(order, op.Method+" "+op.Path)
	}

	assert.Equal(t, []string{
		"GET /api/v1/org/info",
		"GET /api/v1/org/more/info",
		"POST /api/v1/login",
		"POST /api/v1/org/info",
	}, order)

	// One result per GET, two per single-property POST.
	assert.Len(t, obs.results, 6)
}
