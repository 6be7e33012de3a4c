package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"golang.org/x/term"

	"go.jacobcolvin.com/snout/drill"
)

var errUnknownOutput = errors.New("unknown output format")

// writeResults renders one section per operation in the requested format.
func writeResults(w io.Writer, results [][]drill.Result, format string) error {
	switch format {
	case "table", "":
		return writeTable(w, results)
	case "json":
		return writeJSON(w, results)
	}

	return fmt.Errorf("%w: %q", errUnknownOutput, format)
}

func writeTable(w io.Writer, results [][]drill.Result) error {
	budget := payloadBudget(w, results)

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tSTATUS\tPAYLOAD")

	for _, opResults := range results {
		for _, r := range opResults {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Path, r.StatusCode, truncate(r.Payload, budget))
		}
	}

	err := tw.Flush()
	if err != nil {
		return fmt.Errorf("writing table: %w", err)
	}

	return nil
}

func writeJSON(w io.Writer, results [][]drill.Result) error {
	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}

	out = append(out, '\n')

	_, err = w.Write(out)
	if err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	return nil
}

// payloadBudget returns how many payload bytes fit beside the longest path
// when w is a terminal. Zero means no limit.
func payloadBudget(w io.Writer, results [][]drill.Result) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}

	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}

	longestPath := 0
	for _, opResults := range results {
		for _, r := range opResults {
			longestPath = max(longestPath, len(r.Path))
		}
	}

	// Status column plus two tabwriter separators.
	budget := cols - longestPath - 6 - 4
	if budget < 16 {
		budget = 16
	}

	return budget
}

// truncate shortens s to at most n bytes, marking cuts with an ellipsis.
// A non-positive n disables truncation.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}

	if n <= 3 {
		return s[:n]
	}

	return s[:n-3] + "..."
}
