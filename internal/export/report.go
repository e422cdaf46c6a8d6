// Package export writes work-order reports and rack slot labels.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"github.com/zulandar/shopfloor/internal/catalog"
	"github.com/zulandar/shopfloor/internal/models"
	"github.com/zulandar/shopfloor/internal/part"
	"github.com/zulandar/shopfloor/internal/rack"
	"github.com/zulandar/shopfloor/internal/rollup"
	"gorm.io/gorm"
)

// Sheet names of the work-order report.
const (
	SummarySheet = "Summary"
	PartsSheet   = "Parts"
)

var partHeaders = []string{
	"Product", "Part Number", "Part Name", "Material", "Length", "Width", "Thickness",
	"Status", "Rack", "Row", "Column", "Sorted At", "Assembled At",
}

// WorkOrderReport builds an Excel workbook with a status summary and one row
// per part of the work order. The caller closes the returned file.
func WorkOrderReport(db *gorm.DB, idOrNumber string) (*excelize.File, error) {
	wo, err := catalog.LoadWorkOrder(db, idOrNumber)
	if err != nil {
		return nil, err
	}
	sum, err := rollup.Summarize(db, wo.ID)
	if err != nil {
		return nil, err
	}
	racks, err := rack.Names(db)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("export: rename sheet: %w", err)
	}
	if _, err := f.NewSheet(PartsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("export: add sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("export: header style: %w", err)
	}

	writeSummary(f, wo, sum, header)

	for i, name := range partHeaders {
		f.SetCellValue(PartsSheet, cellName(i+1, 1), name)
	}
	f.SetCellStyle(PartsSheet, "A1", cellName(len(partHeaders), 1), header)

	row := 2
	for _, p := range wo.Products {
		for _, pt := range p.Parts {
			writePart(f, row, p.ProductNumber, pt, racks)
			row++
		}
	}
	f.SetColWidth(PartsSheet, "A", "C", 18)
	return f, nil
}

// WriteReport writes the work-order report as .xlsx to w.
func WriteReport(w io.Writer, db *gorm.DB, idOrNumber string) error {
	f, err := WorkOrderReport(db, idOrNumber)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write report: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, wo *models.WorkOrder, sum *rollup.WorkOrderSummary, header int) {
	rows := [][]interface{}{
		{"Work Order", wo.WorkOrderNumber},
		{"Customer", wo.CustomerName},
		{"Status", wo.Status},
		{"Products", sum.TotalProducts},
		{"Parts", sum.TotalParts},
	}
	for i, r := range rows {
		f.SetCellValue(SummarySheet, cellName(1, i+1), r[0])
		f.SetCellValue(SummarySheet, cellName(2, i+1), r[1])
	}

	start := len(rows) + 2
	f.SetCellValue(SummarySheet, cellName(1, start), "Part Status")
	f.SetCellValue(SummarySheet, cellName(2, start), "Count")
	f.SetCellStyle(SummarySheet, cellName(1, start), cellName(2, start), header)
	for i, s := range part.Statuses {
		f.SetCellValue(SummarySheet, cellName(1, start+1+i), s)
		f.SetCellValue(SummarySheet, cellName(2, start+1+i), sum.PartsByStatus[s])
	}
	f.SetColWidth(SummarySheet, "A", "B", 20)
}

func writePart(f *excelize.File, row int, productNumber string, p models.Part, racks map[uint]string) {
	values := []interface{}{
		productNumber, p.PartNumber, p.PartName, p.Material,
		dimension(p.Length), dimension(p.Width), dimension(p.Thickness),
		p.Status,
	}
	if p.HasLocation() {
		loc := p.Location()
		values = append(values, racks[loc.RackID], loc.Row, loc.Column)
	} else {
		values = append(values, "", "", "")
	}
	values = append(values, timestamp(p.SortedAt), timestamp(p.AssembledAt))
	for i, v := range values {
		f.SetCellValue(PartsSheet, cellName(i+1, row), v)
	}
}

func dimension(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return ""
	}
	return d.Decimal.InexactFloat64()
}

func timestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
