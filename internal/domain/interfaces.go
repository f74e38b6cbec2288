package domain

import "context"

// Unit is one addressable article of the corpus.
type Unit struct {
	Label     string
	Body      string
	SourceTag string
	// Ordinal is the unit's position in document order, starting at 0.
	Ordinal int
}

// Text is the representation that gets embedded and shown to the generator.
func (u Unit) Text() string {
	return u.Label + "\n" + u.Body
}

// SearchResult represents a matching unit with a relevance score.
type SearchResult struct {
	Unit  Unit
	Score float64
}

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single entry of the chat log kept by the shell.
type Turn struct {
	Role    Role
	Content string
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
// The same instance must serve both index build and queries.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}
