// Package main provides the logcluster command line entry point.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thebtf/logcluster/internal/config"
	"github.com/thebtf/logcluster/internal/pipeline"
	"github.com/thebtf/logcluster/internal/privacy"
	"github.com/thebtf/logcluster/internal/render"
	"github.com/thebtf/logcluster/internal/telemetry"
)

// Version is set at build time via ldflags.
var Version = "dev"

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath string
	debug      bool
	threads    int
	thres      float64
	batchSize  int
	seed       uint64
}

type rootOptions struct {
	global        *globalOptions
	format        string
	output        string
	outputContext string
	sort          string
	maxWidth      int
	title         string
	redact        bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal().Err(err).Msg("logcluster failed")
	}
}

func newRootCmd() *cobra.Command {
	global := &globalOptions{}
	opts := &rootOptions{global: global}

	cmd := &cobra.Command{
		Use:   "logcluster [flags] FILE...",
		Short: "Group similar log lines into components",
		Long: `Read log files (plain or .gz), group lines whose similarity ratio reaches
the threshold, and print the result as an HTML page, a colored table or JSON.`,
		Version:       Version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(global.debug)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCluster(cmd, opts, args)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&global.configPath, "config", "", "settings file (default ~/.logcluster/settings.json)")
	pf.BoolVar(&global.debug, "debug", false, "enable debug logging")
	pf.IntVarP(&global.threads, "threads", "t", config.DefaultWorkers, "number of concurrent clustering jobs")
	pf.Float64Var(&global.thres, "thres", config.DefaultThreshold, "similarity threshold in (0, 1]")
	pf.IntVar(&global.batchSize, "batch-size", 0, "lines per clustering batch (default from config)")
	pf.Uint64Var(&global.seed, "seed", render.DefaultSeed, "component color seed")

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", config.DefaultFormat, "output format: html, table or json")
	f.StringVarP(&opts.output, "output", "o", "", "write the result to this file instead of stdout")
	f.StringVar(&opts.outputContext, "output-context", "", "also write the JSON context to this file")
	f.StringVar(&opts.sort, "sort", string(render.SortByLine), "table row order: line or comp")
	f.IntVar(&opts.maxWidth, "max-width", 0, "truncate table log column to this many characters")
	f.StringVar(&opts.title, "title", "", "HTML page title")
	f.BoolVar(&opts.redact, "redact", false, "mask credentials in displayed lines")

	cmd.AddCommand(newIndexCmd(), newServeCmd(global), newRenderCmd())
	return cmd
}

func setupLogging(debug bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	// stdout carries the report, so log to stderr.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Str("run", uuid.NewString()[:8]).
		Logger()
}

// loadConfig layers explicitly set flags over the settings file and env.
func loadConfig(cmd *cobra.Command, global *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(global.configPath)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
	}

	flags := cmd.Flags()
	if flags.Changed("threads") {
		cfg.Workers = global.threads
	}
	if flags.Changed("thres") {
		cfg.Threshold = global.thres
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = global.batchSize
	}
	if flags.Changed("seed") {
		cfg.Seed = global.seed
	}
	if flags.Lookup("format") != nil && flags.Changed("format") {
		format, _ := flags.GetString("format")
		cfg.Format = format
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runCluster(cmd *cobra.Command, opts *rootOptions, files []string) error {
	cfg, err := loadConfig(cmd, opts.global)
	if err != nil {
		return err
	}
	sortBy, err := render.ParseSortBy(opts.sort)
	if err != nil {
		return err
	}

	log.Debug().
		Float64("threshold", cfg.Threshold).
		Int("batchSize", cfg.BatchSize).
		Int("workers", cfg.Workers).
		Str("format", cfg.Format).
		Msg("Configuration")

	res, err := pipeline.New(cfg, telemetry.NewJobMetrics()).Run(cmd.Context(), files)
	if err != nil {
		return err
	}
	if opts.redact {
		redactReport(res.Report)
	}

	if opts.outputContext != "" {
		if err := writeFile(opts.outputContext, func(w io.Writer) error {
			return render.WriteContext(w, res.Report)
		}); err != nil {
			return err
		}
	}

	return writeOutput(cmd.OutOrStdout(), opts.output, func(w io.Writer) error {
		return writeReport(w, res.Report, cfg.Format, opts.title, render.TableOptions{Sort: sortBy, MaxWidth: opts.maxWidth})
	})
}

// redactReport masks credentials in the displayed content of r. Components
// are left as clustered from the raw lines.
func redactReport(r *render.Report) {
	for i := range r.LogLines {
		r.LogLines[i].Content = privacy.Redact(r.LogLines[i].Content)
	}
}

func writeReport(w io.Writer, r *render.Report, format, title string, table render.TableOptions) error {
	switch format {
	case config.FormatTable:
		return render.WriteTable(w, r, table)
	case config.FormatJSON:
		return render.WriteContext(w, r)
	default:
		return render.WriteHTML(w, r, render.HTMLOptions{Title: title})
	}
}
