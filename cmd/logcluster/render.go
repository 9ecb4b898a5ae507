package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thebtf/logcluster/internal/config"
	"github.com/thebtf/logcluster/internal/render"
)

// newRenderCmd re-renders a saved --output-context file without clustering.
func newRenderCmd() *cobra.Command {
	var format, output, sort, title string
	var maxWidth int

	cmd := &cobra.Command{
		Use:   "render CONTEXT.json",
		Short: "Render a saved JSON context as HTML or a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sortBy, err := render.ParseSortBy(sort)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open context: %w", err)
			}
			defer f.Close()

			report, err := render.ReadContext(f)
			if err != nil {
				return err
			}

			switch format {
			case config.FormatHTML, config.FormatTable, config.FormatJSON:
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			return writeOutput(cmd.OutOrStdout(), output, func(w io.Writer) error {
				return writeReport(w, report, format, title, render.TableOptions{Sort: sortBy, MaxWidth: maxWidth})
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", config.FormatHTML, "output format: html, table or json")
	f.StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	f.StringVar(&sort, "sort", string(render.SortByLine), "table row order: line or comp")
	f.IntVar(&maxWidth, "max-width", 0, "truncate table log column to this many characters")
	f.StringVar(&title, "title", "", "HTML page title")
	return cmd
}
