package export

import (
	"bytes"

	"github.com/go-pdf/fpdf"
)

// PDF renders the summary text as a single-column A4 document and returns
// the encoded bytes.
func PDF(text string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "", 11)

	// Core fonts are cp1252 only; map what we can and drop the rest.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.MultiCell(0, 8, tr(text), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
