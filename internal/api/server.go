package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"cardforge/internal/services"
)

const maxMultipartMemory = 8 << 20 // 8 MB

const noFlashcardsMessage = "No flashcards could be generated from the provided text. Try a different text."

type Server struct {
	mux       *http.ServeMux
	generator *services.GeneratorService
	documents *services.DocumentService
	ingestion *services.IngestionService
}

func NewServer(
	generator *services.GeneratorService,
	documents *services.DocumentService,
	ingestion *services.IngestionService,
) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		generator: generator,
		documents: documents,
		ingestion: ingestion,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/flashcards", s.handleGenerateFlashcards)
	s.mux.HandleFunc("/api/documents", s.handleUploadDocument)
	s.mux.HandleFunc("/api/documents/", s.handleGetDocument)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type generateRequest struct {
	Text        string `json:"text"`
	Distractors int    `json:"distractors"`
}

func (s *Server) handleGenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload generateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if len(strings.TrimSpace(payload.Text)) < services.MinTextLength {
		writeError(w, http.StatusBadRequest, "input text is too short or empty")
		return
	}
	if payload.Distractors < 0 {
		writeError(w, http.StatusBadRequest, "distractors must be a positive integer")
		return
	}

	cards, err := s.generator.Generate(r.Context(), payload.Text, payload.Distractors)
	if err != nil {
		s.writeGenerationFailure(w, err)
		return
	}

	if len(cards) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":    noFlashcardsMessage,
			"flashcards": cards,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"flashcards": cards})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	if form := r.MultipartForm; form != nil {
		defer form.RemoveAll()
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	file := files[0]

	distractors := 0
	if raw := r.FormValue("distractors"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "distractors must be a positive integer")
			return
		}
		distractors = parsed
	}

	src, err := file.Open()
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable upload")
		return
	}
	defer src.Close()

	doc, cards, err := s.ingestion.ProcessDocument(r.Context(), file.Filename, src, distractors)
	if err != nil {
		if errors.Is(err, services.ErrTextTooShort) {
			writeError(w, http.StatusBadRequest, "document text is too short or empty")
			return
		}
		if errors.Is(err, services.ErrUnreadableDocument) {
			writeError(w, http.StatusBadRequest, "document could not be parsed")
			return
		}
		s.writeGenerationFailure(w, err)
		return
	}

	response := map[string]any{
		"documentId": doc.ID,
		"name":       doc.OriginalName,
		"pages":      doc.PageCount,
		"flashcards": cards,
	}
	if len(cards) == 0 {
		response["message"] = noFlashcardsMessage
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := s.documents.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documentId": doc.ID,
		"name":       doc.OriginalName,
		"pages":      doc.PageCount,
		"uploadedAt": doc.UploadedAt,
	})
}

// writeGenerationFailure maps collaborator failures to 502 with a generic
// body; the cause is logged, never echoed to the caller.
func (s *Server) writeGenerationFailure(w http.ResponseWriter, err error) {
	var genErr *services.GenerationError
	if errors.As(err, &genErr) {
		log.Printf("flashcard generation failed: %v", err)
		writeError(w, http.StatusBadGateway, "flashcard generation failed")
		return
	}
	log.Printf("internal error: %v", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
