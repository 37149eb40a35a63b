package rendering

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/jung-kurt/gofpdf"
	"github.com/quotedesk/backend/internal/domain/document"
)

// PDFRenderer implements document.Renderer using gofpdf. Output depends
// only on the snapshot and the verification URL: the embedded creation
// and modification dates come from the snapshot's issuance time, never
// from the wall clock, so the same input always yields identical bytes.
type PDFRenderer struct {
	companyName string
}

// NewPDFRenderer creates a new PDF renderer
func NewPDFRenderer(companyName string) *PDFRenderer {
	if companyName == "" {
		companyName = "QuoteDesk"
	}
	return &PDFRenderer{companyName: companyName}
}

// Render produces the quote artifact
func (r *PDFRenderer) Render(ctx context.Context, req *document.RenderRequest) (*document.RenderResult, error) {
	snap := req.Snapshot

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Cotización %s v%d", snap.Folio, snap.Version), true)
	pdf.SetAuthor(r.companyName, true)
	pdf.SetCreationDate(snap.IssuedAt)
	pdf.SetModificationDate(snap.IssuedAt)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Cotización Comercial")
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Folio %s  ·  Revisión %d  ·  %s",
		snap.Folio, snap.Version, snap.IssuedAt.Format("02-01-2006")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Cliente: %s", snap.ClientName))
	pdf.Ln(6)
	if snap.ClientTaxID != "" {
		pdf.Cell(0, 6, fmt.Sprintf("RUT: %s", snap.ClientTaxID))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Validez: %d días", snap.ValidityDays))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(30, 7, "Código")
	pdf.Cell(80, 7, "Descripción")
	pdf.Cell(15, 7, "Cant.")
	pdf.Cell(30, 7, "P. Unitario")
	pdf.Cell(30, 7, "Total")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range snap.Items {
		pdf.Cell(30, 6, item.PartNumber)
		pdf.Cell(80, 6, trim(item.Name, 45))
		pdf.Cell(15, 6, fmt.Sprintf("%d", item.Quantity))
		pdf.Cell(30, 6, item.UnitPrice.StringFixed(0))
		pdf.Cell(30, 6, item.LineTotal.StringFixed(0))
		pdf.Ln(6)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(155, 6, "Subtotal")
	pdf.Cell(30, 6, snap.Subtotal.StringFixed(0))
	pdf.Ln(6)
	pdf.Cell(155, 6, "IVA (19%)")
	pdf.Cell(30, 6, snap.Tax.StringFixed(0))
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(155, 7, "Total CLP")
	pdf.Cell(30, 7, snap.Total.StringFixed(0))
	pdf.Ln(10)

	if snap.Terms != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(0, 6, "Condiciones")
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, snap.Terms, "", "L", false)
		pdf.Ln(4)
	}
	if snap.Notes != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, snap.Notes, "", "L", false)
		pdf.Ln(4)
	}

	if req.VerificationURL != "" {
		if err := r.drawVerification(pdf, req.VerificationURL); err != nil {
			return nil, err
		}
	}

	pdf.SetFont("Helvetica", "", 8)
	pdf.Ln(4)
	pdf.Cell(0, 5, r.companyName)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output failed: %w", err)
	}

	return &document.RenderResult{
		Data:        buf.Bytes(),
		ContentType: "application/pdf",
	}, nil
}

// drawVerification embeds the verification URL as text and as a QR code
func (r *PDFRenderer) drawVerification(pdf *gofpdf.Fpdf, url string) error {
	code, err := qr.Encode(url, qr.M, qr.Auto)
	if err != nil {
		return fmt.Errorf("qr encode failed: %w", err)
	}
	code, err = barcode.Scale(code, 256, 256)
	if err != nil {
		return fmt.Errorf("qr scale failed: %w", err)
	}

	var img bytes.Buffer
	if err := png.Encode(&img, code); err != nil {
		return fmt.Errorf("qr png encode failed: %w", err)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("verification-qr", opts, &img)
	pdf.ImageOptions("verification-qr", 10, 245, 30, 30, false, opts, 0, "")

	pdf.SetY(246)
	pdf.SetX(45)
	pdf.SetFont("Helvetica", "", 8)
	pdf.Cell(0, 5, "Verifique esta cotización en:")
	pdf.SetY(251)
	pdf.SetX(45)
	pdf.Cell(0, 5, url)

	return pdf.Error()
}

func trim(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

var _ document.Renderer = (*PDFRenderer)(nil)
