package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/zulandar/shopfloor/internal/catalog"
	"github.com/zulandar/shopfloor/internal/part"
	"github.com/zulandar/shopfloor/internal/sheet"
)

func newSheetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Nest sheet commands",
	}

	cmd.AddCommand(newSheetAddCmd())
	cmd.AddCommand(newSheetPlaceCmd())
	return cmd
}

func newSheetAddCmd() *cobra.Command {
	var (
		configPath string
		workOrder  string
		opts       sheet.CreateOpts
	)

	cmd := &cobra.Command{
		Use:   "add <barcode>",
		Short: "Register a nest sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if workOrder != "" {
				wo, err := catalog.GetWorkOrder(gormDB, workOrder)
				if err != nil {
					return err
				}
				opts.WorkOrderID = wo.ID
			}
			opts.Barcode = args[0]
			s, err := sheet.Create(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered sheet %s (%s), barcode %s\n", s.SheetName, s.ID, s.Barcode)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to shop floor config file")
	cmd.Flags().StringVarP(&workOrder, "work-order", "w", "", "work order id or number")
	cmd.Flags().StringVar(&opts.Name, "name", "", "sheet name (defaults to the barcode)")
	cmd.Flags().StringVar(&opts.FileName, "file", "", "nesting program file name")
	cmd.Flags().StringVar(&opts.MaterialType, "material", "", "sheet material")
	return cmd
}

func newSheetPlaceCmd() *cobra.Command {
	var (
		configPath string
		sheetRef   string
		x, y       float64
		rotation   int
		flipped    bool
	)

	cmd := &cobra.Command{
		Use:   "place <part-number>...",
		Short: "Nest parts on a sheet",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, number := range args {
				p, err := part.FindByNumber(gormDB, number)
				if err != nil {
					return err
				}
				opts := sheet.PlaceOpts{SheetID: sheetRef, PartID: p.ID, Rotation: rotation, Flipped: flipped}
				if cmd.Flags().Changed("x") {
					opts.X = decimal.NewNullDecimal(decimal.NewFromFloat(x))
				}
				if cmd.Flags().Changed("y") {
					opts.Y = decimal.NewNullDecimal(decimal.NewFromFloat(y))
				}
				if _, err := sheet.Place(gormDB, opts); err != nil {
					return err
				}
				fmt.Fprintf(out, "Placed %s on %s\n", p.PartNumber, sheetRef)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to shop floor config file")
	cmd.Flags().StringVarP(&sheetRef, "sheet", "s", "", "sheet id or barcode (required)")
	cmd.Flags().Float64Var(&x, "x", 0, "x offset on the sheet in mm")
	cmd.Flags().Float64Var(&y, "y", 0, "y offset on the sheet in mm")
	cmd.Flags().IntVar(&rotation, "rotation", 0, "rotation in degrees")
	cmd.Flags().BoolVar(&flipped, "flipped", false, "part is flipped")
	cmd.MarkFlagRequired("sheet")
	return cmd
}
