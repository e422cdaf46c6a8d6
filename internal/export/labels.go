package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/zulandar/shopfloor/internal/models"
	"gorm.io/gorm"
)

// SlotLabel is the data printed on, and encoded into, one slot label.
type SlotLabel struct {
	PartID        string `json:"partId"`
	PartNumber    string `json:"partNumber"`
	ProductNumber string `json:"productNumber"`
	WorkOrder     string `json:"workOrder"`
	Rack          string `json:"rack"`
	Row           int    `json:"row"`
	Column        int    `json:"column"`
}

// Avery 5160 layout: 3 columns x 10 rows on US Letter.
const (
	labelMarginTop  = 12.7
	labelMarginLeft = 4.8
	labelWidth      = 66.7
	labelHeight     = 25.4
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0
	labelPadding    = 2.0
)

// ErrNoLabels is returned when there are no sorted parts to label.
var ErrNoLabels = errors.New("no sorted parts to label")

// CollectSlotLabels returns a label for every part currently sitting in a
// rack, ordered by rack, row and column. A non-empty workOrderID limits the
// labels to that work order.
func CollectSlotLabels(db *gorm.DB, workOrderID string) ([]SlotLabel, error) {
	q := db.Preload("Product.WorkOrder").Preload("StorageRack").
		Where("status = ? AND storage_rack_id IS NOT NULL", models.PartSorted)
	if workOrderID != "" {
		q = q.Where("product_id IN (?)",
			db.Model(&models.Product{}).Select("id").Where("work_order_id = ?", workOrderID))
	}
	var parts []models.Part
	if err := q.Order("storage_rack_id ASC, storage_row ASC, storage_column ASC").Find(&parts).Error; err != nil {
		return nil, fmt.Errorf("export: sorted parts: %w", err)
	}

	labels := make([]SlotLabel, 0, len(parts))
	for _, p := range parts {
		loc := p.Location()
		l := SlotLabel{
			PartID:     p.ID,
			PartNumber: p.PartNumber,
			Row:        loc.Row,
			Column:     loc.Column,
		}
		if p.StorageRack != nil {
			l.Rack = p.StorageRack.Name
		}
		if p.Product != nil {
			l.ProductNumber = p.Product.ProductNumber
			if p.Product.WorkOrder != nil {
				l.WorkOrder = p.Product.WorkOrder.WorkOrderNumber
			}
		}
		labels = append(labels, l)
	}
	return labels, nil
}

// WriteLabels renders labels as a PDF label sheet to w.
func WriteLabels(w io.Writer, labels []SlotLabel) error {
	if len(labels) == 0 {
		return ErrNoLabels
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	for i, l := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}
		pos := i % labelsPerPage
		x := labelMarginLeft + float64(pos%labelCols)*labelWidth
		y := labelMarginTop + float64(pos/labelCols)*labelHeight
		if err := renderLabel(pdf, x, y, l); err != nil {
			return fmt.Errorf("export: label for %s: %w", l.PartNumber, err)
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export: write labels: %w", err)
	}
	return nil
}

func renderLabel(pdf *fpdf.Fpdf, x, y float64, l SlotLabel) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	payload, err := json.Marshal(l)
	if err != nil {
		return err
	}
	png, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("qr code: %w", err)
	}
	img := "qr_" + l.PartID
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(img, opts, bytes.NewReader(png))
	pdf.ImageOptions(img, x+labelWidth-qrSize-labelPadding, y+(labelHeight-qrSize)/2, qrSize, qrSize, false, opts, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 5, fmt.Sprintf("%s R%d C%d", l.Rack, l.Row, l.Column), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(textX, y+labelPadding+6)
	pdf.CellFormat(textW, 3.5, truncate(pdf, l.PartNumber, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+10)
	pdf.CellFormat(textW, 3, truncate(pdf, l.ProductNumber+" / "+l.WorkOrder, textW), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	return nil
}

func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
