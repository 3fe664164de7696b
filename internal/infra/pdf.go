package infra

// Receipt PDF generation with go-pdf/fpdf: thermal-style ticket with the
// line items (cancellations shown negative), discount line, bold total and
// tender breakdown. Written to storagePath/receipt_{ticket}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
)

// GenerateReceiptPDF renders the receipt for a finalized sale and returns
// the path of the written file.
func GenerateReceiptPDF(sale *model.Sale, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	filePath := filepath.Join(storagePath, fmt.Sprintf("receipt_%d.pdf", sale.TicketNumber))

	// 74mm × 105mm ≈ thermal receipt paper
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, "PDV", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Sale receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Ticket #%d", sale.TicketNumber), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, sale.CreatedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range sale.Items {
		desc := item.Description
		if len(desc) > 22 {
			desc = desc[:21] + "…"
		}
		pdf.CellFormat(col1, 5, desc, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, item.Quantity.String(), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, item.Total.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 7)
	if !sale.DiscountAmount.IsZero() {
		pdf.CellFormat(col1+col2, 5, "Discount:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "-"+sale.DiscountAmount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, sale.FinalTotal.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 7)
	for _, t := range sale.Tenders {
		pdf.CellFormat(col1+col2, 4, t.Label+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, t.Amount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Thank you!", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
