package models

import "time"

// FlashcardMultipleChoice is the only card kind this service produces.
const FlashcardMultipleChoice = "multiple-choice"

// Flashcard is one generated fill-in-the-blank multiple-choice item.
// Options holds the answer exactly once among the distractors, in
// shuffled order.
type Flashcard struct {
	ID       string   `json:"id"`
	Kind     string   `json:"type"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Options  []string `json:"options"`
}

// AnnotatedDocument is the annotation service's view of one input text:
// an ordered sequence of sentences with their spans. Immutable for the
// duration of a generation call.
type AnnotatedDocument struct {
	Sentences []AnnotatedSentence `json:"sentences"`
}

// AnnotatedSentence carries the raw sentence text plus the entity,
// noun-chunk, and token annotations the generator consumes. Span order is
// the annotator's emission order; answer picking is first-match-wins.
type AnnotatedSentence struct {
	Text       string          `json:"text"`
	Entities   []EntitySpan    `json:"entities"`
	NounChunks []NounChunkSpan `json:"noun_chunks"`
	Tokens     []Token         `json:"tokens"`
}

// EntitySpan is a named entity with its type label (e.g. GPE, PERSON, FAC).
type EntitySpan struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// NounChunkSpan is a noun phrase with the part-of-speech tag of its
// syntactic head.
type NounChunkSpan struct {
	Text    string `json:"text"`
	RootPOS string `json:"root_pos"`
}

// Token is a single word with its part-of-speech tag.
type Token struct {
	Text string `json:"text"`
	POS  string `json:"pos"`
}

// Document records an uploaded PDF. Only the document itself is persisted;
// flashcards generated from it are returned to the caller and forgotten.
type Document struct {
	ID           int64
	OriginalName string
	StoredPath   string
	PageCount    int
	UploadedAt   time.Time
}
