package main

import (
	"github.com/spf13/cobra"
)

// NewIngestCmd creates the "ingest" subcommand: replay the leaves of a
// previously built tree, optionally resuming after a given leaf path.
func NewIngestCmd() *cobra.Command {
	var resumeAfter string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Replay tree leaves into product records and images",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newContainer(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.Ingest(cmd.Context(), resumeAfter)
		},
	}

	cmd.Flags().StringVar(&resumeAfter, "resume-after", "",
		"Absolute path of the last processed leaf; ingestion resumes with the next leaf")

	return cmd
}
