// Package segment splits extracted section text into bounded, training-ready
// segments. Strategy is a three-tier fallback: semantic similarity first,
// then subsection headings, then paragraphs, with a final pass that enforces
// the configured word bounds.
package segment

import (
	"strings"

	"github.com/filinglab/riskseg/internal/embedder"
	"github.com/filinglab/riskseg/internal/extract"
	"github.com/filinglab/riskseg/internal/filing"
)

// Config controls segmentation behavior.
type Config struct {
	MinWords       int
	MaxWords       int
	SimilarityDrop float64 // adjacent-sentence cosine below this opens a boundary
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MinWords: 50, MaxWords: 380, SimilarityDrop: 0.35}
}

// Segment is one bounded chunk of section text.
type Segment struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
	CharCount int    `json:"char_count"`
}

// Settings records how an output was produced, for downstream provenance.
type Settings struct {
	MinWords       int     `json:"min_words"`
	MaxWords       int     `json:"max_words"`
	SimilarityDrop float64 `json:"similarity_drop"`
	Strategy       string  `json:"strategy"`
}

// Output is the persisted per-file result.
type Output struct {
	SectionID string          `json:"section_id"`
	Title     string          `json:"title"`
	Identity  filing.Identity `json:"identity"`
	Settings  Settings        `json:"settings"`
	Segments  []Segment       `json:"segments"`
}

// Segmenter holds the embedder and configuration for one worker.
type Segmenter struct {
	emb *embedder.Embedder
	cfg Config
}

// New creates a Segmenter. The embedder is the expensive piece; callers
// construct it once per worker and pass it in.
func New(emb *embedder.Embedder, cfg Config) *Segmenter {
	if cfg.MinWords <= 0 || cfg.MaxWords <= cfg.MinWords {
		cfg = DefaultConfig()
	}
	if cfg.SimilarityDrop <= 0 || cfg.SimilarityDrop >= 1 {
		cfg.SimilarityDrop = DefaultConfig().SimilarityDrop
	}
	return &Segmenter{emb: emb, cfg: cfg}
}

// Split produces the segmented output for an extracted section. Tier order:
// semantic (needs >=2 segments), heading (needs >=3), paragraph. Bounds are
// enforced on whichever tier wins.
func (s *Segmenter) Split(sec *extract.Section, identity filing.Identity) *Output {
	out := &Output{
		SectionID: sec.SectionID,
		Title:     sec.Title,
		Identity:  identity,
		Settings: Settings{
			MinWords:       s.cfg.MinWords,
			MaxWords:       s.cfg.MaxWords,
			SimilarityDrop: s.cfg.SimilarityDrop,
		},
	}

	parts := s.semanticParts(sec.BodyText)
	strategy := "semantic"
	if len(parts) < 2 {
		parts = headingParts(sec.BodyText, sec.SubsectionTitles)
		strategy = "heading"
	}
	if strategy == "heading" && len(parts) < 3 {
		parts = paragraphParts(sec.BodyText)
		strategy = "paragraph"
	}
	out.Settings.Strategy = strategy

	bounded := s.enforceBounds(parts)
	out.Segments = make([]Segment, 0, len(bounded))
	for i, text := range bounded {
		out.Segments = append(out.Segments, Segment{
			Index:     i,
			Text:      text,
			WordCount: WordCount(text),
			CharCount: len(text),
		})
	}
	return out
}

// semanticParts splits on topical drift: embed each sentence, open a
// boundary where adjacent cosine similarity falls below the threshold. The
// max-word cap forces a split regardless of similarity.
func (s *Segmenter) semanticParts(body string) []string {
	sentences := SplitSentences(body)
	if len(sentences) < 2 {
		return nil
	}

	vectors := make([][]float32, len(sentences))
	for i, sent := range sentences {
		vectors[i] = s.emb.Embed(sent)
	}

	var parts []string
	var current []string
	words := 0
	for i, sent := range sentences {
		sw := WordCount(sent)
		boundary := false
		if len(current) > 0 {
			if words+sw > s.cfg.MaxWords {
				boundary = true
			} else if embedder.Cosine(vectors[i-1], vectors[i]) < s.cfg.SimilarityDrop {
				boundary = true
			}
		}
		if boundary {
			parts = append(parts, strings.Join(current, " "))
			current = current[:0]
			words = 0
		}
		current = append(current, sent)
		words += sw
	}
	if len(current) > 0 {
		parts = append(parts, strings.Join(current, " "))
	}
	return parts
}

// headingParts splits the body at subsection title blocks.
func headingParts(body string, titles []string) []string {
	isTitle := make(map[string]bool, len(titles))
	for _, t := range titles {
		isTitle[t] = true
	}

	var parts []string
	var current []string
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if isTitle[block] && len(current) > 0 {
			parts = append(parts, strings.Join(current, "\n\n"))
			current = current[:0]
		}
		current = append(current, block)
	}
	if len(current) > 0 {
		parts = append(parts, strings.Join(current, "\n\n"))
	}
	return parts
}

// paragraphParts splits on blank-line-delimited paragraphs.
func paragraphParts(body string) []string {
	var parts []string
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			parts = append(parts, block)
		}
	}
	return parts
}

// enforceBounds makes every segment respect [MinWords, MaxWords]. Oversize
// parts are re-split; undersize parts merge into a neighbor, borrowing
// sentences (then words) when a whole-part merge would blow the cap. At
// most the terminal segment may stay under minimum.
func (s *Segmenter) enforceBounds(parts []string) []string {
	atoms := s.resplitOversize(parts)
	if len(atoms) == 0 {
		return nil
	}

	var result []string
	current := atoms[0]
	for _, next := range atoms[1:] {
		if strings.TrimSpace(current) == "" {
			current = next
			continue
		}
		cw := WordCount(current)
		if cw >= s.cfg.MinWords {
			result = append(result, current)
			current = next
			continue
		}
		if cw+WordCount(next) <= s.cfg.MaxWords {
			current = current + " " + next
			continue
		}
		// Whole merge would exceed the cap: borrow from the front of next
		// until current reaches minimum.
		current, next = s.borrow(current, next)
		result = append(result, current)
		current = next
	}

	if strings.TrimSpace(current) == "" {
		return result
	}
	// Terminal remainder: merge back if it fits, otherwise it is the one
	// allowed under-minimum segment.
	if WordCount(current) < s.cfg.MinWords && len(result) > 0 {
		last := result[len(result)-1]
		if WordCount(last)+WordCount(current) <= s.cfg.MaxWords {
			result[len(result)-1] = last + " " + current
			return result
		}
	}
	return append(result, current)
}

// resplitOversize breaks any part exceeding MaxWords into sentence groups
// under the cap, hard-splitting single runaway sentences by words.
func (s *Segmenter) resplitOversize(parts []string) []string {
	var atoms []string
	for _, part := range parts {
		if WordCount(part) <= s.cfg.MaxWords {
			if strings.TrimSpace(part) != "" {
				atoms = append(atoms, part)
			}
			continue
		}
		var group []string
		words := 0
		for _, sent := range SplitSentences(part) {
			sw := WordCount(sent)
			if sw > s.cfg.MaxWords {
				if len(group) > 0 {
					atoms = append(atoms, strings.Join(group, " "))
					group, words = nil, 0
				}
				atoms = append(atoms, hardSplit(sent, s.cfg.MaxWords)...)
				continue
			}
			if words+sw > s.cfg.MaxWords && len(group) > 0 {
				atoms = append(atoms, strings.Join(group, " "))
				group, words = nil, 0
			}
			group = append(group, sent)
			words += sw
		}
		if len(group) > 0 {
			atoms = append(atoms, strings.Join(group, " "))
		}
	}
	return atoms
}

// hardSplit chops a single sentence that exceeds the cap into word runs of
// at most max words. Last resort for degenerate text with no punctuation.
func hardSplit(text string, max int) []string {
	fields := strings.Fields(text)
	var out []string
	for len(fields) > max {
		out = append(out, strings.Join(fields[:max], " "))
		fields = fields[max:]
	}
	if len(fields) > 0 {
		out = append(out, strings.Join(fields, " "))
	}
	return out
}

// borrow moves sentences (falling back to words) from the front of next
// into current until current reaches MinWords without exceeding MaxWords.
func (s *Segmenter) borrow(current, next string) (string, string) {
	sentences := SplitSentences(next)
	i := 0
	for i < len(sentences) && WordCount(current) < s.cfg.MinWords {
		if WordCount(current)+WordCount(sentences[i]) > s.cfg.MaxWords {
			break
		}
		current = current + " " + sentences[i]
		i++
	}
	if WordCount(current) < s.cfg.MinWords && i < len(sentences) {
		// A single oversized sentence blocks the merge: take words.
		need := s.cfg.MinWords - WordCount(current)
		fields := strings.Fields(sentences[i])
		if need > len(fields) {
			need = len(fields)
		}
		current = current + " " + strings.Join(fields[:need], " ")
		sentences[i] = strings.Join(fields[need:], " ")
	}
	rest := strings.TrimSpace(strings.Join(sentences[i:], " "))
	return current, rest
}
