// Command server runs the atelier API and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the CLI. Bare invocation behaves as "serve".
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "atelier",
		Short:         "Fashion image generation API",
		Long:          "atelier serves image generation, credits, archive and billing over HTTP.",
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Flags().Bool("migrate", false, "apply schema migrations before serving")

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
