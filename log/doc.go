// Package log provides structured logging handler construction for use with
// [log/slog].
//
// It supports multiple output formats ([FormatJSON], [FormatLogfmt], and
// [FormatText]) and severity levels ([LevelError], [LevelWarn], [LevelInfo],
// and [LevelDebug]). Use [NewHandler] to create a handler directly, or use
// [Config] with CLI flag integration via [github.com/spf13/pflag] and shell
// completion support via [github.com/spf13/cobra].
//
// Typical usage creates a [Config], registers flags, then builds a handler
// at startup:
//
//	cfg := log.NewConfig()
//	cfg.RegisterFlags(rootCmd.PersistentFlags())
//	cfg.RegisterCompletions(rootCmd)
//
//	handler, err := cfg.NewHandler(os.Stderr)
//	slog.SetDefault(slog.New(handler))
//
// A [Tail] retains the most recent log lines, which is useful for displaying
// logs inside a Bubble Tea TUI:
//
//	tail := log.NewTail(100)
//	handler := log.NewHandler(tail, log.LevelInfo, log.FormatLogfmt)
//	slog.SetDefault(slog.New(handler))
//
//	go func() {
//	    for range tail.C() {
//	        // Render tail.Lines() in the TUI.
//	    }
//	}()
//
// Combine it with [io.MultiWriter] to write to multiple locations:
//
//	tail := log.NewTail(100)
//	w := io.MultiWriter(logFile, tail)
//	handler := log.NewHandler(w, log.LevelInfo, log.FormatLogfmt)
//	slog.SetDefault(slog.New(handler))
package log
