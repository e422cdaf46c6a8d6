package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const defaultConfig = "shopfloor.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sf",
		Short: "Shopfloor — part tracking for cabinet shops",
		Long:  "Shopfloor tracks work orders through cutting, sorting into storage racks, assembly and shipping.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newRackCmd())
	cmd.AddCommand(newWorkOrderCmd())
	cmd.AddCommand(newProductCmd())
	cmd.AddCommand(newPartCmd())
	cmd.AddCommand(newSheetCmd())
	cmd.AddCommand(newSortCmd())
	cmd.AddCommand(newCutCmd())
	cmd.AddCommand(newAssembleCmd())
	cmd.AddCommand(newShipCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newExportCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sf %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
