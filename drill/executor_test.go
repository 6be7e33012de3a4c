package drill_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/snout/drill"
	"go.jacobcolvin.com/snout/openapi"
)

func TestExecutorHeaders(t *testing.T) {
	t.Parallel()

	t.Run("posts carry json content type", func(t *testing.T) {
		t.Parallel()

		var contentTypes []string

		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v1/login", func(w http.ResponseWriter, r *http.Request) {
			contentTypes = append(contentTypes, r.Header.Get("Content-Type"))
			w.WriteHeader(http.StatusOK)
		})
		ts := startServer(t, mux)

		cfg := drill.NewConfig()
		cfg.URL = ts.URL

		_, err := cfg.NewRunner().Run(t.Context(), loadDoc(t, "post_login.yaml"))
		require.NoError(t, err)

		require.Len(t, contentTypes, 8)

		for _, ct := range contentTypes {
			assert.Equal(t, openapi.MediaTypeJSON, ct)
		}
	})

	t.Run("no authorization without token", func(t *testing.T) {
		t.Parallel()

		var auths []string

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/org/more/info", func(w http.ResponseWriter, r *http.Request) {
			auths = append(auths, r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusOK)
		})
		ts := startServer(t, mux)

		cfg := drill.NewConfig()
		cfg.URL = ts.URL

		_, err := cfg.NewRunner().Run(t.Context(), loadDoc(t, "get_more_info_jwt.yaml"))
		require.NoError(t, err)

		require.Len(t, auths, 1)
		assert.Empty(t, auths[0])
	})

	t.Run("authorization set once for repeated groups", func(t *testing.T) {
		t.Parallel()

		var auths [][]string

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/org/info", func(w http.ResponseWriter, r *http.Request) {
			auths = append(auths, r.Header.Values("Authorization"))
			w.WriteHeader(http.StatusOK)
		})
		ts := startServer(t, mux)

		doc := parseDoc(t, `
			openapi: 3.0.3
			servers:
			  - url: http://localhost:9999
			paths:
			  /api/v1/org/info:
			    get:
			      security:
			        - bearerAuth: []
			        - bearerAuth: ["read"]
			components:
			  schemas: {}
			  securitySchemes:
			    bearerAuth:
			      type: http
			      scheme: bearer
		`)

		cfg := drill.NewConfig()
		cfg.URL = ts.URL
		cfg.Token = "tok"

		_, err := cfg.NewRunner().Run(t.Context(), doc)
		require.NoError(t, err)

		require.Len(t, auths, 1)
		assert.Equal(t, []string{"Bearer tok"}, auths[0])
	})

	t.Run("scheme value matched case-insensitively", func(t *testing.T) {
		t.Parallel()

		var auth string

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/org/info", func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		})
		ts := startServer(t, mux)

		doc := parseDoc(t, `
			openapi: 3.0.3
			servers:
			  - url: http://localhost:9999
			paths:
			  /api/v1/org/info:
			    get:
			      security:
			        - bearerAuth: []
			components:
			  schemas: {}
			  securitySchemes:
			    bearerAuth:
			      type: http
			      scheme: Bearer
		`)

		cfg := drill.NewConfig()
		cfg.URL = ts.URL
		cfg.Token = "tok"

		_, err := cfg.NewRunner().Run(t.Context(), doc)
		require.NoError(t, err)
		assert.Equal(t, "Bearer tok", auth)
	})

	t.Run("token withheld from other schemes", func(t *testing.T) {
		t.Parallel()

		var auth string

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/org/info", func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		})
		ts := startServer(t, mux)

		doc := parseDoc(t, `
			openapi: 3.0.3
			servers:
			  - url: http://localhost:9999
			paths:
			  /api/v1/org/info:
			    get:
			      security:
			        - apiKeyAuth: []
			components:
			  schemas: {}
			  securitySchemes:
			    apiKeyAuth:
			      type: apiKey
			    bearerAuth:
			      type: http
			      scheme: bearer
		`)

		cfg := drill.NewConfig()
		cfg.URL = ts.URL
		cfg.Token = "tok"

		_, err := cfg.NewRunner().Run(t.Context(), doc)
		require.NoError(t, err)
		assert.Empty(t, auth)
	})

	t.Run("only the first bearer scheme is honored", func(t *testing.T) {
		t.Parallel()

		auths := make(map[string]string)

		mux := http.NewServeMux()
		mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
			auths[r.URL.Path] = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		})
		ts := startServer(t, mux)

		doc := parseDoc(t, `
			openapi: 3.0.3
			servers:
			  - url: http://localhost:9999
			paths:
			  /api/v1/a:
			    get:
			      security:
			        - tokenA: []
			  /api/v1/b:
			    get:
			      security:
			        - tokenB: []
			components:
			  schemas: {}
			  securitySchemes:
			    basicAuth:
			      type: http
			      scheme: basic
			    tokenA:
			      type: http
			      scheme: bearer
			    tokenB:
			      type: http
			      scheme: bearer
		`)

		cfg := drill.NewConfig()
		cfg.URL = ts.URL
		cfg.Token = "tok"

		_, err := cfg.NewRunner().Run(t.Context(), doc)
		require.NoError(t, err)

		assert.Equal(t, "Bearer tok", auths["/api/v1/a"])
		assert.Empty(t, auths["/api/v1/b"])
	})
}
