package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/shopfloor/internal/notify"
	"github.com/zulandar/shopfloor/internal/tracker"
)

// scanFlags are shared by every scan command.
type scanFlags struct {
	configPath string
	station    string
	operator   string
}

func (f *scanFlags) register(cmd *cobra.Command, station string) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", defaultConfig, "path to shop floor config file")
	cmd.Flags().StringVar(&f.station, "station", station, "station name recorded with the scan")
	cmd.Flags().StringVar(&f.operator, "operator", "", "operator id recorded with the scan")
}

func (f *scanFlags) opts() tracker.ScanOpts {
	return tracker.ScanOpts{Station: f.station, Operator: f.operator}
}

// withTracker opens the database, runs fn with a tracker wired to the
// configured chat sinks, and drains queued chat messages before returning.
func withTracker(f *scanFlags, fn func(context.Context, *tracker.Tracker) error) error {
	cfg, gormDB, err := connectFromConfig(f.configPath)
	if err != nil {
		return err
	}
	chat, closeChat, err := notify.Chat(cfg.Notify, nil)
	if err != nil {
		return err
	}
	defer closeChat()

	opts := tracker.Opts{DB: gormDB}
	if chat != nil {
		opts.Sink = chat
	}
	t, err := tracker.New(opts)
	if err != nil {
		return err
	}
	return fn(context.Background(), t)
}

// scanFailed turns an expected scan outcome into the operator message.
func scanFailed(err error) error {
	kind, msg := tracker.Classify(err)
	if kind == tracker.KindInternal {
		return err
	}
	return fmt.Errorf("%s: %s", kind, msg)
}

func newSortCmd() *cobra.Command {
	var f scanFlags

	cmd := &cobra.Command{
		Use:   "sort <part-number>",
		Short: "Scan a part at the sorting station",
		Long:  "Assigns the part a rack slot, next to other parts of its product when possible, and marks it Sorted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(&f, func(ctx context.Context, t *tracker.Tracker) error {
				res, err := t.ScanForSort(ctx, args[0], f.opts())
				if err != nil {
					return scanFailed(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s row %d column %d (product %s)\n",
					res.PartNumber, res.RackName, res.Row, res.Column, res.ProductNumber)
				return nil
			})
		},
	}

	f.register(cmd, "Sorting")
	return cmd
}

func newCutCmd() *cobra.Command {
	var f scanFlags

	cmd := &cobra.Command{
		Use:   "cut <sheet-barcode>",
		Short: "Scan a nest sheet coming off the CNC",
		Long:  "Marks every Pending part nested on the sheet as Cut. A sheet can only be cut once.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(&f, func(ctx context.Context, t *tracker.Tracker) error {
				res, err := t.ScanSheetCut(ctx, args[0], f.opts())
				if err != nil {
					return scanFailed(err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Sheet %s cut: %d parts\n", res.SheetName, res.PartsProcessed)
				if len(res.Skipped) > 0 {
					fmt.Fprintf(out, "Already past cut: %s\n", strings.Join(res.Skipped, ", "))
				}
				return nil
			})
		},
	}

	f.register(cmd, "CNC")
	return cmd
}

func newAssembleCmd() *cobra.Command {
	var f scanFlags

	cmd := &cobra.Command{
		Use:   "assemble <product-number>",
		Short: "Complete assembly of a product",
		Long:  "Marks every part of the product Assembled and the product Complete. Nothing changes unless every part is Sorted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(&f, func(ctx context.Context, t *tracker.Tracker) error {
				res, err := t.CompleteProductAssembly(ctx, args[0], f.opts())
				if err != nil {
					return scanFailed(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Product %s assembled: %d parts\n", res.ProductNumber, res.PartsAssembled)
				return nil
			})
		},
	}

	f.register(cmd, "Assembly")
	return cmd
}

func newShipCmd() *cobra.Command {
	var f scanFlags

	cmd := &cobra.Command{
		Use:   "ship <product-number>",
		Short: "Ship an assembled product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(&f, func(ctx context.Context, t *tracker.Tracker) error {
				res, err := t.ShipProduct(ctx, args[0], f.opts())
				if err != nil {
					return scanFailed(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Product %s shipped: %d parts\n", res.ProductNumber, res.PartsShipped)
				return nil
			})
		},
	}

	f.register(cmd, "Shipping")
	return cmd
}
