package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"cardforge/internal/models"
)

// ErrDocumentNotFound indicates a lookup for a document ID with no record.
var ErrDocumentNotFound = errors.New("document not found")

type DocumentService struct {
	db        *sql.DB
	uploadDir string
}

func NewDocumentService(db *sql.DB, uploadDir string) *DocumentService {
	return &DocumentService{db: db, uploadDir: uploadDir}
}

// Create stores the uploaded file under a UUID name and records it.
func (s *DocumentService) Create(ctx context.Context, original string, src io.Reader) (*models.Document, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure upload dir: %w", err)
	}

	name := uuid.NewString() + filepath.Ext(original)
	storedPath := filepath.Join(s.uploadDir, name)
	out, err := os.Create(storedPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (original_name, stored_path, page_count, uploaded_at)
		VALUES (?, ?, 0, ?);
	`, original, storedPath, now)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	id, _ := res.LastInsertId()

	return &models.Document{
		ID:           id,
		OriginalName: original,
		StoredPath:   storedPath,
		PageCount:    0,
		UploadedAt:   now,
	}, nil
}

func (s *DocumentService) UpdatePageCount(ctx context.Context, id int64, pages int) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE documents SET page_count = ? WHERE id = ?;
	`, pages, id); err != nil {
		return fmt.Errorf("update page count: %w", err)
	}
	return nil
}

func (s *DocumentService) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, original_name, stored_path, page_count, uploaded_at
		FROM documents WHERE id = ?;
	`, id)
	var doc models.Document
	if err := row.Scan(
		&doc.ID,
		&doc.OriginalName,
		&doc.StoredPath,
		&doc.PageCount,
		&doc.UploadedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %d: %w", id, ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}
