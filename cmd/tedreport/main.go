// Package main provides the tedreport binary entry point.
// Tedreport assembles the interactive HTML report for a multi-echo
// denoising run from the decomposition outputs on disk.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tedreport/bib"
	"tedreport/config"
	"tedreport/report"
	"tedreport/watch"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "tedreport"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// reportFlags are the flags shared by generate and watch.
type reportFlags struct {
	outDir     string
	prefix     string
	configPath string
	markdown   bool
	logLevel   string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.outDir, "out-dir", "d", ".", "Decomposition output directory")
	cmd.Flags().StringVarP(&f.prefix, "prefix", "p", "", "Run-specific filename prefix")
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().BoolVar(&f.markdown, "markdown", false, "Also write a markdown companion report")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "HTML report generator for multi-echo denoising runs",
		Long: `Tedreport reads the outputs of a multi-echo denoising run (component
metrics, mixing matrix, provenance record, narrative, bibliography and
figure images) and assembles a single self-contained HTML report with
linked interactive component visualizations.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(generateCmd(), watchCmd(), versionCmd())
	return cmd
}

func generateCmd() *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the report once",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := prepare(&flags)
			if err != nil {
				return err
			}
			outPath, err := env.composer.Generate(env.params)
			if err != nil {
				return err
			}
			fmt.Println(outPath)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func watchCmd() *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Generate the report and regenerate on input changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := prepare(&flags)
			if err != nil {
				return err
			}

			debounce := time.Duration(env.params.Config.Watch.DebounceMillis) * time.Millisecond
			w, err := watch.New(env.params.OutDir, env.params.Prefix, debounce, func() error {
				_, err := env.composer.Generate(env.params)
				return err
			}, env.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = w.Run(ctx)
			if ctx.Err() != nil {
				env.logger.Info("Shutting down")
				return nil
			}
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

// env bundles the pieces a report run needs.
type env struct {
	logger   *slog.Logger
	composer *report.Composer
	params   report.Params
}

// prepare configures logging, resolves the output directory and loads the
// layered configuration.
func prepare(flags *reportFlags) (*env, error) {
	logger := newLogger(flags.logLevel)
	slog.SetDefault(logger)

	outDir, err := filepath.Abs(flags.outDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	info, err := os.Stat(outDir)
	if err != nil {
		return nil, fmt.Errorf("stat output directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", outDir)
	}

	cfg, err := config.NewLoader(logger).Load(outDir, flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	templates, err := report.NewTemplateSet()
	if err != nil {
		return nil, err
	}

	return &env{
		logger:   logger,
		composer: report.NewComposer(templates, bib.NewAPAFormatter(), logger),
		params: report.Params{
			OutDir:      outDir,
			Prefix:      flags.prefix,
			Config:      cfg,
			ToolVersion: Version,
			Markdown:    flags.markdown,
		},
	}, nil
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
