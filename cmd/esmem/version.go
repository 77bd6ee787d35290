package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/esmem/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "esmem %s (commit %s, built %s, elasticsearch %s)\n",
				version.Version, version.Commit, version.Date, version.Compatibility)
			return err
		},
	}
}
