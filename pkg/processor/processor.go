package processor

import (
	"strings"
	"unicode/utf8"

	"github.com/pawsona/pawsona/internal/models"
)

type Config struct {
	ChunkSize      int
	ChunkOverlap   int
	MinChunkLength int
}

// Processor splits guide pages into overlapping chunks sized for
// embedding. Chunk boundaries follow sentence ends where possible, and
// fragments shorter than MinChunkLength are dropped as noise.
type Processor struct {
	cfg Config
}

func New(cfg Config) *Processor {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 5
	}
	if cfg.MinChunkLength <= 0 {
		cfg.MinChunkLength = 100
	}
	return &Processor{cfg: cfg}
}

func (p *Processor) Chunk(pages []models.GuidePage) ([]models.ChunkedGuide, error) {
	out := make([]models.ChunkedGuide, 0, len(pages))
	for _, page := range pages {
		out = append(out, models.ChunkedGuide{
			GuidePage: page,
			Chunks:    p.split(normalizeWhitespace(page.Content)),
		})
	}
	return out, nil
}

func (p *Processor) split(text string) []string {
	if len(text) < p.cfg.MinChunkLength {
		return nil
	}
	if len(text) <= p.cfg.ChunkSize {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	for _, sentence := range splitSentences(text) {
		if current.Len() > 0 && current.Len()+1+len(sentence) > p.cfg.ChunkSize {
			chunk := strings.TrimSpace(current.String())
			current.Reset()
			if len(chunk) >= p.cfg.MinChunkLength {
				chunks = append(chunks, chunk)
			}
			if p.cfg.ChunkOverlap > 0 && len(chunk) > p.cfg.ChunkOverlap {
				current.WriteString(overlapTail(chunk, p.cfg.ChunkOverlap))
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}

	if chunk := strings.TrimSpace(current.String()); len(chunk) >= p.cfg.MinChunkLength {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// overlapTail returns the last n bytes of chunk, moved forward to the
// next rune boundary so the overlap never starts mid-character.
func overlapTail(chunk string, n int) string {
	tail := chunk[len(chunk)-n:]
	for len(tail) > 0 && !utf8.RuneStart(tail[0]) {
		tail = tail[1:]
	}
	return strings.TrimSpace(tail)
}

func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i := 0; i < len(text); i++ {
		current.WriteByte(text[i])
		if isSentenceEnd(text, i) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSentenceEnd(text string, i int) bool {
	switch text[i] {
	case '.', '!', '?':
		return i+1 < len(text) && text[i+1] == ' '
	}
	return false
}
