// Package main provides the CLI entry point for snout, a tool that drills
// HTTP endpoints described by an OpenAPI document.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go.jacobcolvin.com/snout/drill"
	"go.jacobcolvin.com/snout/log"
	"go.jacobcolvin.com/snout/openapi"
	"go.jacobcolvin.com/snout/profiler"
	"go.jacobcolvin.com/snout/version"
)

func main() {
	logCfg := log.NewConfig()
	drillCfg := drill.NewConfig()
	profCfg := profiler.NewConfig()

	var (
		output string
		useTUI bool
		prof   *profiler.Profiler
	)

	rootCmd := &cobra.Command{
		Use:   "snout [flags] <openapi.yaml>",
		Short: "Drill HTTP endpoints described by an OpenAPI document",
		Long: `snout reads an OpenAPI document and drills every GET and POST operation it
declares. POST bodies are permuted from the examples in the document's
component schemas, so each operation is exercised with every subset of its
properties.`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       version.String(),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if !useTUI {
				handler, err := logCfg.NewHandler(os.Stderr)
				if err != nil {
					return err
				}

				slog.SetDefault(slog.New(handler))
			}

			prof = profCfg.NewProfiler()

			return prof.Start()
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return prof.Stop()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), drillCfg, logCfg, args[0], output, useTUI)
		},
	}

	drillCfg.RegisterFlags(rootCmd.Flags())
	rootCmd.Flags().StringVarP(&output, "output", "o", "table",
		"output format, one of: [table json]")
	rootCmd.Flags().BoolVar(&useTUI, "tui", false,
		"show run progress in an interactive terminal UI")

	logCfg.RegisterFlags(rootCmd.PersistentFlags())
	profCfg.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newSchemaCmd())

	completionErr := registerCompletions(rootCmd, drillCfg, logCfg, profCfg)
	if completionErr != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", completionErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *drill.Config, logCfg *log.Config, path, output string, useTUI bool) error {
	doc, err := openapi.Load(path)
	if err != nil {
		return err
	}

	if useTUI {
		return runTUI(ctx, cfg, logCfg, doc)
	}

	results, err := cfg.NewRunner().Run(ctx, doc)
	if err != nil {
		return err
	}

	return writeResults(os.Stdout, results, output)
}

func registerCompletions(cmd *cobra.Command, drillCfg *drill.Config, logCfg *log.Config, profCfg *profiler.Config) error {
	err := drillCfg.RegisterCompletions(cmd)
	if err != nil {
		return err
	}

	err = logCfg.RegisterCompletions(cmd)
	if err != nil {
		return err
	}

	err = profCfg.RegisterCompletions(cmd)
	if err != nil {
		return err
	}

	err = cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions([]string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering output completion: %w", err)
	}

	return nil
}
