package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"cardforge/internal/api"
	"cardforge/internal/config"
	"cardforge/internal/db"
	"cardforge/internal/lexicon"
	"cardforge/internal/nlp"
	"cardforge/internal/services"
)

func main() {
	cfg := config.Load()

	conn, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer conn.Close()

	annotator := nlp.NewClient(nlp.Config{BaseURL: cfg.AnnotatorURL})
	lex := lexicon.NewClient(lexicon.Config{BaseURL: cfg.LexiconURL})

	// Probe both collaborators before serving: a missing annotation model
	// or lexical corpus should surface to the operator at startup, not on
	// the first request.
	probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := annotator.Health(probeCtx); err != nil {
		log.Fatalf("annotation service unavailable at %s: %v", cfg.AnnotatorURL, err)
	}
	if err := lex.Health(probeCtx); err != nil {
		log.Fatalf("lexicon service unavailable at %s: %v", cfg.LexiconURL, err)
	}

	generatorService := services.NewGeneratorService(annotator, lex, services.GeneratorOptions{})
	documentService := services.NewDocumentService(conn, cfg.UploadDir)
	pdfService := services.NewPDFService()
	ingestionService := services.NewIngestionService(documentService, pdfService, generatorService)

	server := api.NewServer(generatorService, documentService, ingestionService)
	mux := http.NewServeMux()
	mux.Handle("/api", server.Handler())
	mux.Handle("/api/", server.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("listening on :%s", port)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}
