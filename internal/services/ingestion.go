package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cardforge/internal/models"
)

// ErrTextTooShort indicates that a document's extracted text is below the
// minimum accepted at the service boundary.
var ErrTextTooShort = errors.New("text is too short or empty")

// ErrUnreadableDocument indicates an upload that could not be parsed as a
// PDF. A client fault, not a pipeline failure.
var ErrUnreadableDocument = errors.New("document could not be parsed")

// IngestionService coordinates document storage, PDF text extraction, and
// flashcard generation.
type IngestionService struct {
	documents *DocumentService
	pdf       *PDFService
	generator *GeneratorService
}

func NewIngestionService(
	documents *DocumentService,
	pdf *PDFService,
	generator *GeneratorService,
) *IngestionService {
	return &IngestionService{
		documents: documents,
		pdf:       pdf,
		generator: generator,
	}
}

// ProcessDocument stores the upload, extracts its text, and runs the
// generation pipeline over it. The stored document record survives even
// when generation yields nothing; the flashcards themselves are never
// persisted.
func (s *IngestionService) ProcessDocument(ctx context.Context, original string, src io.Reader, distractorCount int) (*models.Document, []models.Flashcard, error) {
	doc, err := s.documents.Create(ctx, original, src)
	if err != nil {
		return nil, nil, fmt.Errorf("store document %s: %w", original, err)
	}

	text, pages, err := s.pdf.ExtractText(doc.StoredPath)
	if err != nil {
		return doc, nil, fmt.Errorf("extract text from %s: %w: %w", original, ErrUnreadableDocument, err)
	}

	if err := s.documents.UpdatePageCount(ctx, doc.ID, pages); err != nil {
		return doc, nil, err
	}
	doc.PageCount = pages

	if len(strings.TrimSpace(text)) < MinTextLength {
		return doc, nil, ErrTextTooShort
	}

	cards, err := s.generator.Generate(ctx, text, distractorCount)
	if err != nil {
		return doc, nil, err
	}
	return doc, cards, nil
}
