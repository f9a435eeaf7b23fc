package export

import (
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/internal/pipeline"
)

// TimestampLayout formats the report generation time.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

//go:embed assets/report.html.tmpl
var reportSource string

var reportTemplate = template.Must(template.New("report").Parse(reportSource))

// card is one model in a report.
type card struct {
	Name  string
	Size  string
	Image template.URL
}

type reportData struct {
	Title     string
	Generated string
	NoPreview string
	Cards     []card
}

// WriteHTMLReport renders a standalone HTML page listing every record with its size and
// inline screenshot. Records without a screenshot show a placeholder. The page carries a
// print button that is hidden when printing.
//
// Parameters:
//   - w: the destination
//   - records: the batch in intake order
//   - now: the generation time printed in the header
//
// Returns:
//   - error: any template or write error
func WriteHTMLReport(w io.Writer, records []pipeline.ModelRecord, now time.Time) error {
	data := reportData{
		Title:     ReportTitle,
		Generated: now.Format(TimestampLayout),
		NoPreview: NoPreviewText,
		Cards:     make([]card, 0, len(records)),
	}
	for _, rec := range records {
		c := card{Name: rec.Name, Size: FormatSize(rec.Size)}
		if rec.HasScreenshot() {
			c.Image = dataURI(rec.Screenshot.PNG)
		}
		data.Cards = append(data.Cards, c)
	}
	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// dataURI embeds PNG bytes so the report has no external references.
func dataURI(png []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}
