// Package profiler adds runtime profiling capabilities to CLI applications.
//
// It supports CPU and heap profiles through command-line flags. Use
// [Config.RegisterFlags] to add CLI flags and [Config.RegisterCompletions]
// to wire up shell completions.
//
// Typical usage creates a [Config], registers flags, then creates a
// [Profiler] once flags have been parsed:
//
//	cfg := profiler.NewConfig()
//
//	var p *profiler.Profiler
//
//	rootCmd := &cobra.Command{
//	    PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
//	        p = cfg.NewProfiler()
//
//	        return p.Start()
//	    },
//	    PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
//	        return p.Stop()
//	    },
//	}
//
//	cfg.RegisterFlags(rootCmd.PersistentFlags())
//
// Users can then enable profiling via flags like --cpu-profile=cpu.prof.
package profiler
