package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/esmem/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "esmem",
		Short: "In-memory Elasticsearch for tests",
		Long: `esmem serves an Elasticsearch-compatible REST API over an in-memory engine.
Data lives for the lifetime of the process.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("env", config.GetEnv(), "Config environment (loads config/<env>.yaml)")

	root.AddCommand(newServeCmd(), newVersionCmd())
	return root
}
