package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"github.com/Carmen-Shannon/oxy-shot/internal/pipeline"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
)

// page geometry in millimetres (A4 portrait)
const (
	pdfMargin    = 15.0
	pdfColumns   = 2
	pdfGutter    = 10.0
	pdfImageH    = 48.0
	pdfCaptionH  = 7.0
	pdfRowGap    = 8.0
	pdfSizeWidth = 24.0

	// thumbnailWidth is the pixel width screenshots are reduced to before embedding.
	thumbnailWidth = 480
)

// WritePDFReport renders the report as a PDF: the title, the generation time and a two
// column grid of cards with a thumbnail (or placeholder), the model name and its size.
//
// Parameters:
//   - w: the destination
//   - records: the batch in intake order
//   - now: the generation time printed in the header and stored as the document date
//
// Returns:
//   - error: any layout or write error
func WritePDFReport(w io.Writer, records []pipeline.ModelRecord, now time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(ReportTitle, true)
	pdf.SetCreator("oxy-shot", true)
	pdf.SetCreationDate(now)
	pdf.SetModificationDate(now)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*pdfMargin
	cardW := (contentW - pdfGutter*(pdfColumns-1)) / pdfColumns
	cardH := pdfImageH + pdfCaptionH

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(37, 99, 235)
	pdf.CellFormat(contentW, 12, ReportTitle, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(107, 114, 128)
	pdf.CellFormat(contentW, 6, "Generated on "+now.Format(TimestampLayout), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	y := pdf.GetY()
	for i, rec := range records {
		col := i % pdfColumns
		if col == 0 && i > 0 {
			y += cardH + pdfRowGap
		}
		if col == 0 && y+cardH > pageH-pdfMargin {
			pdf.AddPage()
			y = pdfMargin
		}
		x := pdfMargin + float64(col)*(cardW+pdfGutter)
		drawCard(pdf, tr, rec, i, x, y, cardW)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf report: %w", err)
	}
	return nil
}

// drawCard places one record at x,y.
func drawCard(pdf *fpdf.Fpdf, tr func(string) string, rec pipeline.ModelRecord, index int, x, y, width float64) {
	placed := false
	if rec.HasScreenshot() {
		if thumb, err := thumbnail(rec.Screenshot.PNG, thumbnailWidth); err == nil {
			placed = placeImage(pdf, fmt.Sprintf("shot-%d", index), thumb, x, y, width, pdfImageH)
		}
	}
	if !placed {
		pdf.SetFillColor(229, 231, 235)
		pdf.Rect(x, y, width, pdfImageH, "F")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(107, 114, 128)
		pdf.SetXY(x, y+pdfImageH/2-3)
		pdf.CellFormat(width, 6, NoPreviewText, "", 0, "C", false, 0, "")
	}

	pdf.SetXY(x, y+pdfImageH+1)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(31, 41, 55)
	pdf.CellFormat(width-pdfSizeWidth, 6, fitText(pdf, tr(rec.Name), width-pdfSizeWidth), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(107, 114, 128)
	pdf.CellFormat(pdfSizeWidth, 6, FormatSize(rec.Size), "", 0, "R", false, 0, "")
}

// placeImage embeds img scaled to fit the box, centered. Returns false if the image
// could not be registered.
func placeImage(pdf *fpdf.Fpdf, name string, img image.Image, x, y, boxW, boxH float64) bool {
	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, img); err != nil {
		return false
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	info := pdf.RegisterImageOptionsReader(name, opts, &buf)
	if info == nil || pdf.Err() {
		return false
	}

	b := img.Bounds()
	scale := min(boxW/float64(b.Dx()), boxH/float64(b.Dy()))
	w, h := float64(b.Dx())*scale, float64(b.Dy())*scale
	pdf.ImageOptions(name, x+(boxW-w)/2, y+(boxH-h)/2, w, h, false, opts, 0, "")
	return true
}

// thumbnail decodes a PNG and shrinks it to at most maxWidth pixels wide, keeping the
// aspect ratio. Smaller images are returned unchanged.
func thumbnail(data []byte, maxWidth int) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= maxWidth || b.Dx() == 0 {
		return img, nil
	}
	height := max(1, b.Dy()*maxWidth/b.Dx())
	return transform.Resize(img, maxWidth, height, transform.Linear), nil
}

// fitText shortens s with an ellipsis until it fits width at the current font.
// s is already translated to the single byte core font encoding.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for n := len(s) - 1; n >= 0; n-- {
		candidate := s[:n] + "..."
		if pdf.GetStringWidth(candidate) <= width {
			return candidate
		}
	}
	return ""
}
