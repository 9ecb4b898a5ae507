package main

import (
	"context"
	"io"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thebtf/logcluster/internal/pipeline"
	"github.com/thebtf/logcluster/internal/render"
	"github.com/thebtf/logcluster/internal/server"
	"github.com/thebtf/logcluster/internal/server/sse"
	"github.com/thebtf/logcluster/internal/telemetry"
	"github.com/thebtf/logcluster/internal/watcher"
)

type serveOptions struct {
	global  *globalOptions
	addr    string
	watch   []string
	name    string
	pattern string
	title   string
	redact  bool
}

func newServeCmd(global *globalOptions) *cobra.Command {
	opts := &serveOptions{global: global}

	cmd := &cobra.Command{
		Use:   "serve DIR",
		Short: "Serve the reports in DIR, optionally rebuilding one on input change",
		Long: `Serve DIR over HTTP. With --watch, the given log files are clustered into
DIR/NAME on start and again whenever they change; open pages reload
themselves through server-sent events.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", "127.0.0.1:8080", "listen address")
	f.StringSliceVar(&opts.watch, "watch", nil, "log files to cluster and watch")
	f.StringVar(&opts.name, "name", "access.html", "report file name inside DIR")
	f.StringVar(&opts.pattern, "pattern", render.DefaultIndexPattern, "glob selecting the reports to list")
	f.StringVar(&opts.title, "title", "", "HTML page title")
	f.BoolVar(&opts.redact, "redact", false, "mask credentials in displayed lines")
	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions, dir string) error {
	ctx := cmd.Context()
	events := sse.NewBroadcaster()

	if len(opts.watch) > 0 {
		cfg, err := loadConfig(cmd, opts.global)
		if err != nil {
			return err
		}
		b := &builder{
			runner:  pipeline.New(cfg, telemetry.NewJobMetrics()),
			events:  events,
			files:   opts.watch,
			dir:     dir,
			name:    opts.name,
			pattern: opts.pattern,
			title:   opts.title,
			redact:  opts.redact,
		}
		if err := b.build(ctx); err != nil {
			return err
		}

		w, err := watcher.New(opts.watch, func() {
			if err := b.build(ctx); err != nil {
				log.Error().Err(err).Msg("Rebuild failed, keeping previous report")
			}
		})
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer func() { _ = w.Stop() }()
	} else if _, err := render.WriteIndex(dir, opts.pattern, ""); err != nil {
		return err
	}

	return server.New(dir, events).ListenAndServe(ctx, opts.addr)
}

// builder regenerates one served report.
type builder struct {
	mu      sync.Mutex
	runner  *pipeline.Runner
	events  *sse.Broadcaster
	files   []string
	dir     string
	name    string
	pattern string
	title   string
	redact  bool
}

func (b *builder) build(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.runner.Run(ctx, b.files)
	if err != nil {
		return err
	}
	if b.redact {
		redactReport(res.Report)
	}

	path := filepath.Join(b.dir, b.name)
	err = writeFile(path, func(w io.Writer) error {
		return render.WriteHTML(w, res.Report, render.HTMLOptions{Title: b.title, LiveReload: true})
	})
	if err != nil {
		return err
	}
	if _, err := render.WriteIndex(b.dir, b.pattern, ""); err != nil {
		return err
	}

	log.Info().Str("report", path).Int("comps", res.Report.NumComps).Msg("Report rebuilt")
	b.events.ReportUpdated(b.name)
	return nil
}
