package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thebtf/logcluster/internal/render"
)

func newIndexCmd() *cobra.Command {
	var pattern, title string

	cmd := &cobra.Command{
		Use:   "index DIR",
		Short: "Write DIR/index.html linking the reports in DIR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := render.WriteIndex(args[0], pattern, title)
			if err != nil {
				return err
			}
			log.Info().Str("dir", args[0]).Int("reports", len(names)).Msg("Index written")
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", render.DefaultIndexPattern, "glob selecting the reports to list")
	cmd.Flags().StringVar(&title, "title", "", "index page title")
	return cmd
}
