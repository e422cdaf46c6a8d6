package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/shopfloor/internal/catalog"
	"github.com/zulandar/shopfloor/internal/part"
	"github.com/zulandar/shopfloor/internal/rollup"
)

func newWorkOrderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workorder",
		Aliases: []string{"wo"},
		Short:   "Work order commands",
	}

	cmd.AddCommand(newWorkOrderCreateCmd())
	cmd.AddCommand(newWorkOrderShowCmd())
	cmd.AddCommand(newWorkOrderListCmd())
	return cmd
}

func newWorkOrderCreateCmd() *cobra.Command {
	var (
		configPath string
		opts       catalog.WorkOrderOpts
	)

	cmd := &cobra.Command{
		Use:   "create <number>",
		Short: "Create a work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			opts.Number = args[0]
			wo, err := catalog.CreateWorkOrder(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created work order %s (%s)\n", wo.WorkOrderNumber, wo.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to shop floor config file")
	cmd.Flags().StringVar(&opts.Customer, "customer", "", "customer name")
	cmd.Flags().StringVar(&opts.ImportedBy, "by", "", "who entered the work order")
	return cmd
}

func newWorkOrderShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id|number>",
		Short: "Show a work order with its products and part counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			wo, err := catalog.LoadWorkOrder(gormDB, args[0])
			if err != nil {
				return err
			}
			sum, err := rollup.Summarize(gormDB, wo.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:          %s\n", wo.ID)
			fmt.Fprintf(out, "Number:      %s\n", wo.WorkOrderNumber)
			fmt.Fprintf(out, "Customer:    %s\n", wo.CustomerName)
			fmt.Fprintf(out, "Status:      %s\n", wo.Status)
			fmt.Fprintf(out, "Products:    %d\n", sum.TotalProducts)
			var counts []string
			for _, s := range part.Statuses {
				if n := sum.PartsByStatus[s]; n > 0 {
					counts = append(counts, fmt.Sprintf("%d %s", n, s))
				}
			}
			fmt.Fprintf(out, "Parts:       %d", sum.TotalParts)
			if len(counts) > 0 {
				fmt.Fprintf(out, " (%s)", strings.Join(counts, ", "))
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Created:     %s\n", wo.CreatedAt.Format("2006-01-02 15:04:05"))

			if len(wo.Products) > 0 {
				fmt.Fprintln(out, "\nProducts:")
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "  NUMBER\tNAME\tSTATUS\tPARTS")
				for _, p := range wo.Products {
					fmt.Fprintf(w, "  %s\t%s\t%s\t%d\n", p.ProductNumber, dash(p.ProductName), p.Status, len(p.Parts))
				}
				w.Flush()
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to shop floor config file")
	return cmd
}

func newWorkOrderListCmd() *cobra.Command {
	var (
		configPath string
		status     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			orders, err := catalog.ListWorkOrders(gormDB, status)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(orders) == 0 {
				fmt.Fprintln(out, "No work orders found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNUMBER\tCUSTOMER\tSTATUS\tPRODUCTS\tPARTS")
			for _, wo := range orders {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
					wo.ID, truncate(wo.WorkOrderNumber, 30), dash(wo.CustomerName), wo.Status, wo.TotalProducts, wo.TotalParts)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to shop floor config file")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (Active, Complete, Shipped)")
	return cmd
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
