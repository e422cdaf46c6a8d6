package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/shopfloor/internal/catalog"
	"github.com/zulandar/shopfloor/internal/models"
	"github.com/zulandar/shopfloor/internal/part"
	"github.com/zulandar/shopfloor/internal/rollup"
	"github.com/zulandar/shopfloor/internal/tracker"
	"gorm.io/gorm"
)

func newStatusCmd() *cobra.Command {
	var (
		configPath string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show shop floor status",
		Long:  "Displays rack occupancy, part counts of active work orders and the products ready for assembly. Use --watch for auto-refresh.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			t, err := tracker.New(tracker.Opts{DB: gormDB})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for {
				if watch {
					fmt.Fprint(out, "\033[2J\033[H")
				}
				if err := printStatus(cmd.Context(), out, gormDB, t); err != nil {
					return err
				}
				if !watch {
					return nil
				}
				time.Sleep(5 * time.Second)
			}
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to shop floor config file")
	cmd.Flags().BoolVar(&watch, "watch", false, "auto-refresh every 5 seconds")
	return cmd
}

func printStatus(ctx context.Context, out io.Writer, gormDB *gorm.DB, t *tracker.Tracker) error {
	sorting, err := t.GetSortingSummary(ctx)
	if err != nil {
		return err
	}
	asm, err := t.GetAssemblySummary(ctx)
	if err != nil {
		return err
	}
	orders, err := catalog.ListWorkOrders(gormDB, models.WorkOrderActive)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "RACKS")
	if len(sorting.RackOccupancy) == 0 {
		fmt.Fprintln(out, "  No active racks.")
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, r := range sorting.RackOccupancy {
		fmt.Fprintf(w, "  %s\t%d/%d\t%s\n", r.Name, r.Occupied, r.Total, bar(r.Occupied, r.Total, 20))
	}
	w.Flush()

	fmt.Fprintln(out, "\nACTIVE WORK ORDERS")
	if len(orders) == 0 {
		fmt.Fprintln(out, "  None.")
	}
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, wo := range orders {
		counts, err := rollup.PartStatusCounts(gormDB, wo.ID)
		if err != nil {
			return err
		}
		byStatus := make(map[string]int, len(counts))
		for _, c := range counts {
			byStatus[c.Status] = c.Count
		}
		var cols []string
		for _, s := range part.Statuses {
			cols = append(cols, fmt.Sprintf("%s %d", s, byStatus[s]))
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", truncate(wo.WorkOrderNumber, 30), dash(wo.CustomerName), strings.Join(cols, "\t"))
	}
	w.Flush()

	fmt.Fprintln(out, "\nREADY FOR ASSEMBLY")
	ready := 0
	for _, p := range asm.Products {
		if p.IsReady {
			fmt.Fprintf(out, "  %s (%s) %d parts\n", p.ProductNumber, p.WorkOrderNumber, p.TotalParts)
			ready++
		}
	}
	if ready == 0 {
		fmt.Fprintln(out, "  None.")
	}
	return nil
}

func bar(n, total, width int) string {
	if total <= 0 {
		return ""
	}
	filled := n * width / total
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}
