package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/spf13/cobra"

	"go.jacobcolvin.com/snout/drill"
	"go.jacobcolvin.com/snout/openapi"
)

// schemaEntry pairs a POST path with the JSON Schema of its request body.
type schemaEntry struct {
	Schema *jsonschema.Schema `json:"schema"`
	Path   string             `json:"path"`
}

func newSchemaCmd() *cobra.Command {
	var indent int

	cmd := &cobra.Command{
		Use:   "schema [flags] <openapi.yaml>",
		Short: "Export request body schemas as JSON Schema",
		Long: `schema converts the request body of every drillable POST operation into a
standalone JSON Schema, resolving component references inline.`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, args []string) error {
			return runSchema(os.Stdout, args[0], indent)
		},
	}

	cmd.Flags().IntVar(&indent, "indent", 2, "number of spaces for JSON indentation")

	return cmd
}

func runSchema(w io.Writer, path string, indent int) error {
	doc, err := openapi.Load(path)
	if err != nil {
		return err
	}

	if doc.Components == nil {
		return drill.ErrNoComponents
	}

	var entries []schemaEntry

	for _, op := range drill.CollectPosts(doc) {
		if op.Body == nil {
			continue
		}

		schema, err := openapi.JSONSchema(op.Body, doc.Components)
		if err != nil {
			return fmt.Errorf("converting %s: %w", op.Path, err)
		}

		entries = append(entries, schemaEntry{Path: op.Path, Schema: schema})
	}

	out, err := json.MarshalIndent(entries, "", strings.Repeat(" ", indent))
	if err != nil {
		return fmt.Errorf("encoding schemas: %w", err)
	}

	out = append(out, '\n')

	_, err = w.Write(out)
	if err != nil {
		return fmt.Errorf("writing schemas: %w", err)
	}

	return nil
}
