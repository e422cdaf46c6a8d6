package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/shopfloor/internal/assembly"
	"github.com/zulandar/shopfloor/internal/catalog"
)

func newProductCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Product commands",
	}

	cmd.AddCommand(newProductAddCmd())
	cmd.AddCommand(newProductSubassemblyCmd())
	return cmd
}

func newProductAddCmd() *cobra.Command {
	var (
		configPath string
		workOrder  string
		opts       catalog.ProductOpts
	)

	cmd := &cobra.Command{
		Use:   "add <number>",
		Short: "Add a product to an active work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			wo, err := catalog.GetWorkOrder(gormDB, workOrder)
			if err != nil {
				return err
			}
			opts.WorkOrderID = wo.ID
			opts.Number = args[0]
			p, err := catalog.CreateProduct(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added product %s (%s) to %s\n", p.ProductNumber, p.ID, wo.WorkOrderNumber)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to shop floor config file")
	cmd.Flags().StringVarP(&workOrder, "work-order", "w", "", "work order id or number (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "product name")
	cmd.Flags().StringVar(&opts.Type, "type", "", "product type, e.g. Base or Wall")
	cmd.MarkFlagRequired("work-order")
	return cmd
}

func newProductSubassemblyCmd() *cobra.Command {
	var (
		configPath string
		product    string
		opts       catalog.SubassemblyOpts
	)

	cmd := &cobra.Command{
		Use:   "subassembly <number>",
		Short: "Add a subassembly to a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			p, err := assembly.FindProduct(gormDB, product)
			if err != nil {
				return err
			}
			opts.ProductID = p.ID
			opts.Number = args[0]
			sub, err := catalog.CreateSubassembly(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added subassembly %s (%s) to %s\n", sub.SubassemblyNumber, sub.ID, p.ProductNumber)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to shop floor config file")
	cmd.Flags().StringVarP(&product, "product", "p", "", "product id or number (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "subassembly name")
	cmd.MarkFlagRequired("product")
	return cmd
}
