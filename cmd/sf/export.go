package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zulandar/shopfloor/internal/catalog"
	"github.com/zulandar/shopfloor/internal/export"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export reports and labels",
	}

	cmd.AddCommand(newExportReportCmd())
	cmd.AddCommand(newExportLabelsCmd())
	return cmd
}

func newExportReportCmd() *cobra.Command {
	var (
		configPath string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "report <work-order>",
		Short: "Write an Excel status report of a work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if output == "" {
				wo, err := catalog.GetWorkOrder(gormDB, args[0])
				if err != nil {
					return err
				}
				output = wo.WorkOrderNumber + ".xlsx"
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := export.WriteReport(f, gormDB, args[0]); err != nil {
				f.Close()
				os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to shop floor config file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <work-order>.xlsx)")
	return cmd
}

func newExportLabelsCmd() *cobra.Command {
	var (
		configPath string
		workOrder  string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Write QR-coded slot labels for sorted parts as PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			var woID string
			if workOrder != "" {
				wo, err := catalog.GetWorkOrder(gormDB, workOrder)
				if err != nil {
					return err
				}
				woID = wo.ID
			}
			labels, err := export.CollectSlotLabels(gormDB, woID)
			if err != nil {
				return err
			}
			if len(labels) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sorted parts to label.")
				return nil
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := export.WriteLabels(f, labels); err != nil {
				f.Close()
				os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d labels to %s\n", len(labels), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to shop floor config file")
	cmd.Flags().StringVarP(&workOrder, "work-order", "w", "", "limit to one work order")
	cmd.Flags().StringVarP(&output, "output", "o", "labels.pdf", "output file")
	return cmd
}
