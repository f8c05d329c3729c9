package infra

// pdf.go: daily stock reconciliation report using go-pdf/fpdf.
// A4 landscape with:
//   - Header (date, location, status)
//   - One row per ingredient: opening, received, usage, expected, actual, variance, value
//   - Over / under rows shaded
//   - Totals line (matched / over / under counts, total variance value)

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bildin8/postergram-juice-sub001/internal/model"

	"github.com/go-pdf/fpdf"
)

// WriteReconciliationPDF renders rec (with Items loaded) to w.
func WriteReconciliationPDF(w io.Writer, rec *model.DailyReconciliation) error {
	pdf := buildReconciliationPDF(rec)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write: %w", err)
	}
	return nil
}

// GenerateReconciliationPDF writes the report to storagePath and returns the file path.
func GenerateReconciliationPDF(rec *model.DailyReconciliation, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("reconciliation_%s_%s.pdf", rec.Date, rec.Location))

	pdf := buildReconciliationPDF(rec)
	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func buildReconciliationPDF(rec *model.DailyReconciliation) *fpdf.Fpdf {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Stock Reconciliation", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Date: %s   Location: %s   Status: %s", rec.Date, rec.Location, rec.Status), "", 1, "L", false, 0, "")
	if rec.AcknowledgedBy != nil && rec.AcknowledgedAt != nil {
		pdf.CellFormat(contentW, 5, fmt.Sprintf("Acknowledged by %s at %s", *rec.AcknowledgedBy, rec.AcknowledgedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	// ── Table header ─────────────────────────────────────────────────────────
	headers := []string{"Ingredient", "Unit", "Opening", "Received", "Usage", "Expected", "Actual", "Variance", "Value", "Status"}
	widths := []float64{0.22, 0.06, 0.09, 0.09, 0.09, 0.09, 0.09, 0.09, 0.09, 0.09}
	for i := range widths {
		widths[i] *= contentW
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		align := "R"
		if i < 2 || i == len(headers)-1 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 6, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	// ── Rows ─────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 8)
	for _, it := range rec.Items {
		fill := false
		switch it.Status {
		case "over":
			pdf.SetFillColor(220, 240, 255)
			fill = true
		case "under":
			pdf.SetFillColor(255, 225, 225)
			fill = true
		}
		name := it.IngredientName
		if len(name) > 34 {
			name = name[:33] + "…"
		}
		cells := []string{
			name,
			it.Unit,
			it.Opening.StringFixed(3),
			it.Received.StringFixed(3),
			it.Usage.StringFixed(3),
			it.Expected.StringFixed(3),
			it.Actual.StringFixed(3),
			it.Variance.StringFixed(3),
			it.VarianceValue.StringFixed(2),
			it.Status,
		}
		for i, v := range cells {
			align := "R"
			if i < 2 || i == len(cells)-1 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 5, v, "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Matched: %d   Over: %d   Under: %d   Total variance value: %s",
		rec.MatchedCount, rec.OverCount, rec.UnderCount, rec.TotalVarianceValue.StringFixed(2)), "", 1, "L", false, 0, "")

	return pdf
}
