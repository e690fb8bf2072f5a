package main

import (
	"github.com/spf13/cobra"
)

// NewBuildCmd creates the "build" subcommand: one full top-down catalog pass
// producing the tree snapshot and the category export.
func NewBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the navigation tree and write the snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newContainer(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.BuildTree(cmd.Context())
		},
	}
}
