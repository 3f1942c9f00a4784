package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"cardforge/internal/db"
	"cardforge/internal/models"
	"cardforge/internal/services"
)

const parisText = "The capital city of France is Paris. Paris is famous for the Eiffel Tower and the Louvre Museum."

type stubAnnotator struct {
	doc *models.AnnotatedDocument
	err error
}

func (s *stubAnnotator) Annotate(ctx context.Context, text string) (*models.AnnotatedDocument, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.doc, nil
}

func (s *stubAnnotator) Health(ctx context.Context) error { return nil }

type stubLexicon struct{}

func (s *stubLexicon) Synonyms(ctx context.Context, word string) ([]string, error) { return nil, nil }

func (s *stubLexicon) Health(ctx context.Context) error { return nil }

func newTestServer(annotator *stubAnnotator) *Server {
	generator := services.NewGeneratorService(annotator, &stubLexicon{}, services.GeneratorOptions{}).
		WithRand(rand.New(rand.NewSource(1)))
	return NewServer(generator, nil, nil)
}

// newStorageBackedServer wires real document storage and ingestion over a
// temporary database for the upload and fetch handlers.
func newStorageBackedServer(t *testing.T) (*Server, *services.DocumentService) {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open database failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	documents := services.NewDocumentService(conn, t.TempDir())
	generator := services.NewGeneratorService(
		&stubAnnotator{doc: &models.AnnotatedDocument{}},
		&stubLexicon{},
		services.GeneratorOptions{},
	).WithRand(rand.New(rand.NewSource(1)))
	ingestion := services.NewIngestionService(documents, services.NewPDFService(), generator)
	return NewServer(generator, documents, ingestion), documents
}

func postJSON(t *testing.T, server *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(&stubAnnotator{doc: &models.AnnotatedDocument{}})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
}

func TestHandleGenerateFlashcards(t *testing.T) {
	doc := &models.AnnotatedDocument{
		Sentences: []models.AnnotatedSentence{
			{
				Text:     "The capital city of France is Paris.",
				Entities: []models.EntitySpan{{Text: "Paris", Label: "GPE"}},
			},
		},
	}

	t.Run("OK", func(t *testing.T) {
		server := newTestServer(&stubAnnotator{doc: doc})
		rec := postJSON(t, server, "/api/flashcards", `{"text":"`+parisText+`"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var payload struct {
			Flashcards []models.Flashcard `json:"flashcards"`
			Message    string             `json:"message"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("Invalid response JSON: %v", err)
		}
		if len(payload.Flashcards) != 1 {
			t.Fatalf("Expected 1 flashcard, got %d", len(payload.Flashcards))
		}
		card := payload.Flashcards[0]
		if card.Answer != "Paris" || len(card.Options) != 4 {
			t.Errorf("Unexpected card: %+v", card)
		}
	})

	t.Run("TextTooShort", func(t *testing.T) {
		server := newTestServer(&stubAnnotator{doc: doc})
		rec := postJSON(t, server, "/api/flashcards", `{"text":"too short"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("InvalidPayload", func(t *testing.T) {
		server := newTestServer(&stubAnnotator{doc: doc})
		rec := postJSON(t, server, "/api/flashcards", `{"text": `)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("NegativeDistractors", func(t *testing.T) {
		server := newTestServer(&stubAnnotator{doc: doc})
		rec := postJSON(t, server, "/api/flashcards", `{"text":"`+parisText+`","distractors":-1}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("NoFlashcards", func(t *testing.T) {
		server := newTestServer(&stubAnnotator{doc: &models.AnnotatedDocument{
			Sentences: []models.AnnotatedSentence{{Text: "It rained all day and then some more after that."}},
		}})
		rec := postJSON(t, server, "/api/flashcards", `{"text":"`+parisText+`"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		var payload struct {
			Flashcards []models.Flashcard `json:"flashcards"`
			Message    string             `json:"message"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("Invalid response JSON: %v", err)
		}
		if len(payload.Flashcards) != 0 {
			t.Errorf("Expected no flashcards, got %v", payload.Flashcards)
		}
		if payload.Message == "" {
			t.Error("Expected an informational message")
		}
	})

	t.Run("AnnotatorFailure", func(t *testing.T) {
		server := newTestServer(&stubAnnotator{err: errors.New("spacy sidecar exploded")})
		rec := postJSON(t, server, "/api/flashcards", `{"text":"`+parisText+`"}`)

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("Expected 502, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "exploded") {
			t.Errorf("Collaborator error leaked to the client: %s", rec.Body.String())
		}
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		server := newTestServer(&stubAnnotator{doc: doc})
		req := httptest.NewRequest(http.MethodGet, "/api/flashcards", nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("Expected 405, got %d", rec.Code)
		}
	})
}

func TestHandleGetDocument(t *testing.T) {
	server, documents := newStorageBackedServer(t)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		return rec
	}

	t.Run("OK", func(t *testing.T) {
		doc, err := documents.Create(context.Background(), "notes.pdf", strings.NewReader("contents"))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		rec := get(fmt.Sprintf("/api/documents/%d", doc.ID))
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var payload struct {
			DocumentID int64  `json:"documentId"`
			Name       string `json:"name"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("Invalid response JSON: %v", err)
		}
		if payload.DocumentID != doc.ID || payload.Name != "notes.pdf" {
			t.Errorf("Unexpected payload: %+v", payload)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		rec := get("/api/documents/9999")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("InvalidID", func(t *testing.T) {
		rec := get("/api/documents/latest")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/documents/1", nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("Expected 405, got %d", rec.Code)
		}
	})
}

func TestHandleUploadDocument_UnparseablePDF(t *testing.T) {
	server, _ := newStorageBackedServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.pdf")
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if _, err := fw.Write([]byte("this is not a pdf")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for an unparseable upload, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "could not be parsed") {
		t.Errorf("Unexpected error body: %s", rec.Body.String())
	}
}
