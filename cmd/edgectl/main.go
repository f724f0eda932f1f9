package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "edgectl",
		Short:         "Operator tooling for the edge health agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "path to YAML config (default: $EDGEHEALTH_CONFIG)")

	root.AddCommand(newCheckCommand())
	root.AddCommand(newRemediateCommand())
	root.AddCommand(newRunsCommand())
	root.AddCommand(newDiscoverCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
