package drill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go.jacobcolvin.com/snout/openapi"
)

// Sentinel errors returned before any request is made.
var (
	// ErrNoComponents indicates a document without a components section,
	// which leaves nothing to resolve request bodies against.
	ErrNoComponents = errors.New("no components in document")
	// ErrNoServers indicates a document without a servers list, so no base
	// URL can be derived.
	ErrNoServers = errors.New("no servers in document")
)

// Flags holds CLI flag names for run configuration, allowing callers to
// customize flag names while keeping sensible defaults.
type Flags struct {
	URL     string
	Token   string
	Timeout string
}

// Config holds CLI flag values for run configuration.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewRunner] to create a [Runner].
type Config struct {
	Flags   Flags
	URL     string
	Token   string
	Timeout time.Duration
}

// NewConfig returns a new [Config] with default flag names.
func NewConfig() *Config {
	f := Flags{
		URL:     "url",
		Token:   "token",
		Timeout: "timeout",
	}

	return &Config{Flags: f}
}

// RegisterFlags adds run flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&c.URL, c.Flags.URL, "u", "",
		"base URL override (defaults to the document's first server)")
	flags.StringVar(&c.Token, c.Flags.Token, "",
		"bearer token for operations that declare bearer security")
	flags.DurationVar(&c.Timeout, c.Flags.Timeout, 0,
		"per-request timeout (0 means none)")
}

// RegisterCompletions registers shell completions for run flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	noFileComp := func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	for _, flag := range []string{c.Flags.URL, c.Flags.Token, c.Flags.Timeout} {
		err := cmd.RegisterFlagCompletionFunc(flag, noFileComp)
		if err != nil {
			return fmt.Errorf("registering %s completion: %w", flag, err)
		}
	}

	return nil
}

// NewRunner creates a [Runner] using this [Config].
func (c *Config) NewRunner(opts ...Option) *Runner {
	r := &Runner{
		url:    c.URL,
		token:  c.Token,
		client: &http.Client{Timeout: c.Timeout},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Runner drives every operation in a document and aggregates the results.
//
// Create instances with [Config.NewRunner].
type Runner struct {
	url    string
	token  string
	client *http.Client
	obs    Observer
}

// Option configures a Runner.
type Option func(*Runner)

// WithHTTPClient sets the HTTP client used for all requests, replacing the
// client derived from the configured timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Runner) {
		r.client = client
	}
}

// WithObserver sets an [Observer] notified of run progress.
func WithObserver(obs Observer) Option {
	return func(r *Runner) {
		r.obs = obs
	}
}

// Observer receives progress notifications during [Runner.Run]. All methods
// are called from the runner's goroutine, in run order.
type Observer interface {
	// RunStarted delivers the collected operations before any request.
	RunStarted(ops []Op)
	// OperationStarted is called before an operation's first request.
	OperationStarted(op Op)
	// OperationResult is called after each completed request.
	OperationResult(op Op, result Result)
}

// Run drives every operation in doc and returns one result list per
// operation, in operation order.
//
// The base URL comes from the first declared server, or from that server's
// first variable default when it declares variables; a configured URL
// overrides both. Documents without components fail with
// [ErrNoComponents], documents without servers with [ErrNoServers]. Any
// transport error aborts the run and is returned.
func (r *Runner) Run(ctx context.Context, doc *openapi.Document) ([][]Result, error) {
	slog.Info("starting run", slog.String("openapi", doc.OpenAPI))

	if doc.Components == nil {
		return nil, ErrNoComponents
	}

	base, err := serverBaseURL(doc)
	if err != nil {
		return nil, err
	}

	if r.url != "" {
		base = r.url
	}

	ops := Collect(doc)

	e := &executor{
		client: r.client,
		base:   base,
		scheme: bearerSchemeName(doc.Components),
		token:  r.token,
		comps:  doc.Components,
		obs:    r.obs,
	}

	if r.obs != nil {
		r.obs.RunStarted(ops)
	}

	results := make([][]Result, 0, len(ops))

	for _, op := range ops {
		if r.obs != nil {
			r.obs.OperationStarted(op)
		}

		opResults, err := e.do(ctx, op)
		if err != nil {
			slog.Error("executing operation",
				slog.String("method", op.Method),
				slog.String("path", op.Path),
				slog.Any("error", err),
			)

			return nil, err
		}

		results = append(results, opResults)
	}

	return results, nil
}

// serverBaseURL derives the base URL from the document's first server. A
// server that declares variables contributes its first variable's default
// verbatim instead of its URL template.
func serverBaseURL(doc *openapi.Document) (string, error) {
	if len(doc.Servers) == 0 {
		return "", ErrNoServers
	}

	srv := doc.Servers[0]
	if len(srv.Variables) > 0 {
		return srv.Variables[0].Default, nil
	}

	return srv.URL, nil
}

// bearerSchemeName returns the name of the first declared security scheme
// of type "http" whose scheme is "bearer", case-insensitively. An empty
// name means no bearer header is ever attached.
func bearerSchemeName(comps *openapi.Components) string {
	for _, s := range comps.SecuritySchemes {
		if s.Type == "http" && strings.EqualFold(s.Scheme, "bearer") {
			return s.Name
		}
	}

	return ""
}
