package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"cardforge/internal/lexicon"
	"cardforge/internal/models"
	"cardforge/internal/nlp"
)

// BlankMarker replaces the answer span in generated question text.
const BlankMarker = "______"

// MinTextLength is the minimum input size accepted at the service
// boundary. Validation happens in the API layer (and on extracted PDF
// text), never inside the generation core.
const MinTextLength = 50

// answerEntityLabels is the entity tag set eligible as answer spans:
// people, places, organizations, works, and quantities. A configuration
// constant, not business logic; the labels follow the annotator's
// inventory.
var answerEntityLabels = map[string]struct{}{
	"GPE":         {},
	"LOC":         {},
	"ORG":         {},
	"PERSON":      {},
	"NORP":        {},
	"FAC":         {},
	"PRODUCT":     {},
	"EVENT":       {},
	"WORK_OF_ART": {},
	"LAW":         {},
	"LANGUAGE":    {},
	"PERCENT":     {},
	"MONEY":       {},
	"QUANTITY":    {},
	"ORDINAL":     {},
}

// GenerationError reports an unrecoverable collaborator failure during
// flashcard generation. Heuristic shortfalls (no answer candidate, masking
// collision, sparse distractors) are never errors; they skip the sentence
// or pad with placeholders instead.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("flashcard generation failed during %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// GeneratorOptions tune the distractor synthesis heuristics.
type GeneratorOptions struct {
	// DistractorCount is the number of wrong answers per card (default 3).
	DistractorCount int

	// PoolFactor caps the candidate pool at PoolFactor*DistractorCount
	// entries when extending it from the document-wide fallback (default 2).
	PoolFactor int
}

// GeneratorService turns annotated prose into fill-in-the-blank
// multiple-choice flashcards. It holds no state across calls beyond its
// collaborators and is safe for concurrent use as long as they are,
// except for the random source, which callers replace per-instance via
// WithRand.
type GeneratorService struct {
	annotator nlp.Annotator
	lexicon   lexicon.Lexicon
	opts      GeneratorOptions
	rng       *rand.Rand
}

func NewGeneratorService(annotator nlp.Annotator, lex lexicon.Lexicon, opts GeneratorOptions) *GeneratorService {
	if opts.DistractorCount <= 0 {
		opts.DistractorCount = 3
	}
	if opts.PoolFactor <= 0 {
		opts.PoolFactor = 2
	}
	return &GeneratorService{
		annotator: annotator,
		lexicon:   lex,
		opts:      opts,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand substitutes the random source used for shuffling and sampling,
// so tests can make option order deterministic.
func (s *GeneratorService) WithRand(rng *rand.Rand) *GeneratorService {
	s.rng = rng
	return s
}

// Generate produces one flashcard per sentence that yields an answer span.
// The text is annotated in a single pass, reused per-sentence and for the
// document-wide fallback pool. Sentences without a usable candidate are
// skipped; an empty slice with a nil error is a valid result.
func (s *GeneratorService) Generate(ctx context.Context, text string, distractorCount int) ([]models.Flashcard, error) {
	if distractorCount <= 0 {
		distractorCount = s.opts.DistractorCount
	}

	doc, err := s.annotator.Annotate(ctx, text)
	if err != nil {
		return nil, &GenerationError{Stage: "annotate", Err: err}
	}

	pool := newFallbackPool(doc)

	cards := make([]models.Flashcard, 0, len(doc.Sentences))
	for _, sent := range doc.Sentences {
		sentence := strings.TrimSpace(sent.Text)
		if sentence == "" {
			continue
		}

		answer := pickAnswer(sent)
		if len(strings.TrimSpace(answer)) < 3 {
			continue
		}

		question := strings.Replace(sentence, answer, BlankMarker, 1)
		if !strings.Contains(question, BlankMarker) {
			// The span did not occur verbatim in the sentence text, so
			// masking failed.
			continue
		}

		distractors, err := s.synthesizeDistractors(ctx, answer, pool, distractorCount)
		if err != nil {
			return nil, err
		}

		options := append([]string{answer}, s.sample(distractors, distractorCount)...)
		s.rng.Shuffle(len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})

		cards = append(cards, models.Flashcard{
			ID:       uuid.NewString(),
			Kind:     models.FlashcardMultipleChoice,
			Question: strings.TrimSpace(question),
			Answer:   strings.TrimSpace(answer),
			Options:  options,
		})
	}

	return cards, nil
}

// pickAnswer selects the answer span for one sentence: the first entity
// with an accepted label, then the first noun chunk that spans multiple
// words, exceeds five characters, and is headed by a common noun. Chunks
// headed by pronouns or proper nouns are skipped on purpose; entities
// already cover proper-noun answers. Returns "" when the sentence has no
// usable candidate.
func pickAnswer(sent models.AnnotatedSentence) string {
	for _, ent := range sent.Entities {
		if _, ok := answerEntityLabels[ent.Label]; ok {
			return ent.Text
		}
	}
	for _, chunk := range sent.NounChunks {
		if len(strings.Fields(chunk.Text)) > 1 && len(chunk.Text) > 5 && chunk.RootPOS == "NOUN" {
			return chunk.Text
		}
	}
	return ""
}

// fallbackPool is the document-wide candidate source used when synonym
// lookup comes up short: every concise entity text followed by every
// common-noun token. Built once per document, read-only afterwards.
type fallbackPool struct {
	entities []string
	nouns    []string
}

func newFallbackPool(doc *models.AnnotatedDocument) *fallbackPool {
	pool := &fallbackPool{}
	for _, sent := range doc.Sentences {
		for _, ent := range sent.Entities {
			// Keep distractors concise.
			if len(strings.Fields(ent.Text)) < 4 {
				pool.entities = append(pool.entities, ent.Text)
			}
		}
	}
	for _, sent := range doc.Sentences {
		for _, tok := range sent.Tokens {
			if tok.POS == "NOUN" && len(tok.Text) > 2 {
				pool.nouns = append(pool.nouns, tok.Text)
			}
		}
	}
	return pool
}

// candidates lists every pool entry usable against the given answer,
// entities before nouns, in document order.
func (p *fallbackPool) candidates(answer string) []string {
	lowered := strings.ToLower(answer)
	out := make([]string, 0, len(p.entities)+len(p.nouns))
	for _, text := range p.entities {
		if strings.ToLower(text) != lowered {
			out = append(out, text)
		}
	}
	for _, text := range p.nouns {
		if strings.ToLower(text) != lowered {
			out = append(out, text)
		}
	}
	return out
}

// synthesizeDistractors returns exactly n strings, none equal to the
// answer, unique under case-insensitive comparison. Priority: synonyms of
// the answer's last word, then shuffled document-wide fallback candidates,
// then generic placeholders. Only a lexicon transport failure aborts.
func (s *GeneratorService) synthesizeDistractors(ctx context.Context, answer string, pool *fallbackPool, n int) ([]string, error) {
	key := answer
	if strings.Contains(answer, " ") {
		fields := strings.Fields(answer)
		key = fields[len(fields)-1]
	}

	synonyms, err := s.lexicon.Synonyms(ctx, key)
	if err != nil {
		return nil, &GenerationError{Stage: "synonym lookup", Err: err}
	}

	answerLower := strings.ToLower(answer)
	candidates := make([]string, 0, s.opts.PoolFactor*n)
	for _, syn := range synonyms {
		if strings.ToLower(syn) == answerLower {
			continue
		}
		candidates = append(candidates, syn)
	}

	if len(candidates) < n {
		fallback := pool.candidates(answer)
		s.rng.Shuffle(len(fallback), func(i, j int) {
			fallback[i], fallback[j] = fallback[j], fallback[i]
		})
		limit := s.opts.PoolFactor * n
		for _, text := range fallback {
			if containsExact(candidates, text) {
				continue
			}
			candidates = append(candidates, text)
			if len(candidates) >= limit {
				break
			}
		}
	}

	distractors := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	for _, cand := range candidates {
		lower := strings.ToLower(cand)
		if lower == answerLower {
			continue
		}
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		distractors = append(distractors, cand)
		if len(distractors) >= n {
			break
		}
	}

	// Last-resort filler so every card still carries n options.
	for len(distractors) < n {
		distractors = append(distractors, fmt.Sprintf("Option %d", len(distractors)+1))
	}

	return distractors, nil
}

// sample draws min(n, len(list)) elements without replacement.
func (s *GeneratorService) sample(list []string, n int) []string {
	if n > len(list) {
		n = len(list)
	}
	idx := s.rng.Perm(len(list))
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		out = append(out, list[i])
	}
	return out
}

func containsExact(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
