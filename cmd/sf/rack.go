package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/shopfloor/internal/rack"
)

func newRackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rack",
		Short: "Storage rack commands",
	}

	cmd.AddCommand(newRackListCmd())
	cmd.AddCommand(newRackAddCmd())
	return cmd
}

func newRackListCmd() *cobra.Command {
	var (
		configPath string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List storage racks with occupancy",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			usage, err := rack.List(gormDB, all)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(usage) == 0 {
				fmt.Fprintln(out, "No racks found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSIZE\tOCCUPIED\tACTIVE")
			for _, u := range usage {
				fmt.Fprintf(w, "%d\t%s\t%dx%d\t%d/%d\t%t\n",
					u.Rack.ID, u.Rack.Name, u.Rack.Rows, u.Rack.Columns, u.Occupied, u.Rack.Capacity(), u.Rack.Active)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to shop floor config file")
	cmd.Flags().BoolVar(&all, "all", false, "include inactive racks")
	return cmd
}

func newRackAddCmd() *cobra.Command {
	var (
		configPath string
		opts       rack.AddOpts
		inactive   bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or resize a storage rack",
		Long:  "Adds a storage rack, or updates the size and active flag of an existing rack with the same name. A rack holding sorted parts cannot be resized.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			opts.Name = args[0]
			opts.Active = !inactive
			r, err := rack.Add(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rack %s (id %d): %d rows x %d columns\n", r.Name, r.ID, r.Rows, r.Columns)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to shop floor config file")
	cmd.Flags().IntVar(&opts.Rows, "rows", 0, "number of rows (required)")
	cmd.Flags().IntVar(&opts.Columns, "columns", 0, "number of columns (required)")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "add the rack without using it for sorting")
	cmd.MarkFlagRequired("rows")
	cmd.MarkFlagRequired("columns")
	return cmd
}
