package fuec

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// Renderer turns a manifest into a printable file.
type Renderer interface {
	Render(doc Document) ([]byte, error)
}

const (
	pageWidth  = 210.0
	margin     = 15.0
	labelWidth = 55.0
	rowHeight  = 7.0
)

// PDFRenderer draws A4 manifests with fpdf core fonts.
type PDFRenderer struct{}

func (PDFRenderer) Render(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; translate UTF-8 accents and ñ.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("fleetops", true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AddPage()

	content := pageWidth - 2*margin

	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(content, 9, tr(doc.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(content, 7, tr(doc.Company+"   No. "+doc.Number), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	for _, sec := range doc.Sections {
		pdf.SetFillColor(225, 232, 240)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(content, rowHeight+1, tr(sec.Title), "1", 1, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, f := range sec.Fields {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(labelWidth, rowHeight, tr(f.Label), "1", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.CellFormat(content-labelWidth, rowHeight, tr(f.Value), "1", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	pdf.Ln(10)
	half := content / 2
	pdf.CellFormat(half, rowHeight, "______________________________", "", 0, "C", false, 0, "")
	pdf.CellFormat(half, rowHeight, "______________________________", "", 1, "C", false, 0, "")
	pdf.CellFormat(half, rowHeight, tr("Company signature"), "", 0, "C", false, 0, "")
	pdf.CellFormat(half, rowHeight, tr("Driver signature"), "", 1, "C", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(content, 6, tr(doc.Footer), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
