package main

import (
	"github.com/spf13/cobra"
)

// NewRunCmd creates the "run" subcommand: build the tree, serialize it, then
// ingest its leaves in one go.
func NewRunCmd() *cobra.Command {
	var resumeAfter string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the tree and ingest its leaves in one run",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newContainer(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.Run(cmd.Context(), resumeAfter)
		},
	}

	cmd.Flags().StringVar(&resumeAfter, "resume-after", "",
		"Absolute path of the last processed leaf; ingestion resumes with the next leaf")

	return cmd
}
