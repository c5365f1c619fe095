package models

// Document is a single knowledge-base entry. Every document carries its
// embedding; the two are inserted, persisted and loaded together.
type Document struct {
	ID        string
	TypeCode  string
	Category  string
	Title     string
	Content   string
	Embedding []float32
}

// RetrievedDocument is a Document plus the similarity score it got for one
// particular query. Created per search call, never persisted.
type RetrievedDocument struct {
	Document
	Score float64
}

// ComposedResponse is the final result of the retrieval/generation pipeline.
// Confidence is the top retrieved score, or 0.0 when nothing was retrieved.
type ComposedResponse struct {
	Text          string
	Sources       []string
	Confidence    float64
	UsedGenerator bool
}

type ChatMessage struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GuidePage is one fetched care-guide page before chunking.
type GuidePage struct {
	URL     string
	Title   string
	Content string
}

// ChunkedGuide is a guide page split into embedding-sized chunks.
type ChunkedGuide struct {
	GuidePage
	Chunks []string
}
