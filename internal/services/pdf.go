package services

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

// ExtractText returns the concatenated plain text of the whole PDF along
// with its page count.
func (s *PDFService) ExtractText(path string) (string, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return "", 0, fmt.Errorf("pdf has no pages")
	}

	reader, err := r.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", 0, fmt.Errorf("read pdf text: %w", err)
	}

	return buf.String(), numPages, nil
}
