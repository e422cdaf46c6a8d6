package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/zulandar/shopfloor/internal/assembly"
	"github.com/zulandar/shopfloor/internal/catalog"
	"github.com/zulandar/shopfloor/internal/models"
	"github.com/zulandar/shopfloor/internal/part"
	"github.com/zulandar/shopfloor/internal/rack"
)

func newPartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "part",
		Short: "Part commands",
	}

	cmd.AddCommand(newPartAddCmd())
	cmd.AddCommand(newPartShowCmd())
	cmd.AddCommand(newPartListCmd())
	return cmd
}

func newPartAddCmd() *cobra.Command {
	var (
		configPath string
		product    string
		length     string
		width      string
		thickness  string
		opts       part.CreateOpts
	)

	cmd := &cobra.Command{
		Use:   "add <part-number>",
		Short: "Add a Pending part to a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dims := []struct {
				flag  string
				value string
				dst   *decimal.NullDecimal
			}{
				{"length", length, &opts.Length},
				{"width", width, &opts.Width},
				{"thickness", thickness, &opts.Thickness},
			}
			for _, d := range dims {
				if d.value == "" {
					continue
				}
				v, err := decimal.NewFromString(d.value)
				if err != nil {
					return fmt.Errorf("--%s %q: %w", d.flag, d.value, err)
				}
				*d.dst = decimal.NewNullDecimal(v)
			}

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
			created, err := part.Create(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added part %s (%s) to %s\n", created.PartNumber, created.ID, p.ProductNumber)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to shop floor config file")
	cmd.Flags().StringVarP(&product, "product", "p", "", "product id or number (required)")
	cmd.Flags().StringVar(&opts.SubassemblyID, "subassembly", "", "subassembly id")
	cmd.Flags().StringVar(&opts.Name, "name", "", "part name")
	cmd.Flags().StringVar(&opts.Material, "material", "", "material name")
	cmd.Flags().StringVar(&length, "length", "", "length in mm")
	cmd.Flags().StringVar(&width, "width", "", "width in mm")
	cmd.Flags().StringVar(&thickness, "thickness", "", "thickness in mm")
	cmd.Flags().StringVar(&opts.EdgeBanding, "edge", "", "edge banding")
	cmd.MarkFlagRequired("product")
	return cmd
}

func newPartShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <part-number|id>",
		Short: "Show part details and scan history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			p, err := part.Get(gormDB, args[0])
			if err != nil {
				p, err = part.FindByNumber(gormDB, args[0])
				if err != nil {
					return err
				}
			}
			history, err := part.History(gormDB, p.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:          %s\n", p.ID)
			fmt.Fprintf(out, "Number:      %s\n", p.PartNumber)
			if p.PartName != "" {
				fmt.Fprintf(out, "Name:        %s\n", p.PartName)
			}
			fmt.Fprintf(out, "Status:      %s\n", p.Status)
			if p.Material != "" {
				fmt.Fprintf(out, "Material:    %s\n", p.Material)
			}
			if p.Length.Valid && p.Width.Valid {
				fmt.Fprintf(out, "Size:        %s x %s", p.Length.Decimal, p.Width.Decimal)
				if p.Thickness.Valid {
					fmt.Fprintf(out, " x %s", p.Thickness.Decimal)
				}
				fmt.Fprintln(out, " mm")
			}
			if p.HasLocation() {
				loc := p.Location()
				name := fmt.Sprintf("rack %d", loc.RackID)
				if r, err := rack.Get(gormDB, loc.RackID); err == nil {
					name = r.Name
				}
				fmt.Fprintf(out, "Location:    %s R%d C%d\n", name, loc.Row, loc.Column)
			}
			if p.SortedAt != nil {
				fmt.Fprintf(out, "Sorted:      %s\n", p.SortedAt.Format("2006-01-02 15:04:05"))
			}
			if p.AssembledAt != nil {
				fmt.Fprintf(out, "Assembled:   %s\n", p.AssembledAt.Format("2006-01-02 15:04:05"))
			}

			if len(history) > 0 {
				fmt.Fprintln(out, "\nHistory:")
				for _, h := range history {
					fmt.Fprintf(out, "  [%s] %s -> %s %s", h.ScannedAt.Format("2006-01-02 15:04"), h.OldStatus, h.NewStatus, h.Activity)
					if h.StationName != "" {
						fmt.Fprintf(out, " at %s", h.StationName)
					}
					if h.OperatorID != "" {
						fmt.Fprintf(out, " by %s", h.OperatorID)
					}
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to shop floor config file")
	return cmd
}

func newPartListCmd() *cobra.Command {
	var (
		configPath string
		product    string
		workOrder  string
		statuses   []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List parts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			filters := part.ListFilters{Statuses: statuses}
			if product != "" {
				p, err := assembly.FindProduct(gormDB, product)
				if err != nil {
					return err
				}
				filters.ProductID = p.ID
			}
			if workOrder != "" {
				wo, err := catalog.GetWorkOrder(gormDB, workOrder)
				if err != nil {
					return err
				}
				filters.WorkOrderID = wo.ID
			}
			parts, err := part.List(gormDB, filters)
			if err != nil {
				return err
			}
			names, err := rack.Names(gormDB)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(parts) == 0 {
				fmt.Fprintln(out, "No parts found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNUMBER\tSTATUS\tLOCATION")
			for _, p := range parts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, truncate(p.PartNumber, 40), p.Status, location(p, names))
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to shop floor config file")
	cmd.Flags().StringVarP(&product, "product", "p", "", "filter by product id or number")
	cmd.Flags().StringVarP(&workOrder, "work-order", "w", "", "filter by work order id or number")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "filter by status (repeatable)")
	return cmd
}

func location(p models.Part, names map[uint]string) string {
	if !p.HasLocation() {
		return "-"
	}
	loc := p.Location()
	return fmt.Sprintf("%s R%d C%d", names[loc.RackID], loc.Row, loc.Column)
}
