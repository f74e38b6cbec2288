package generation

import (
	"context"
	"strings"

	"anayasa/internal/prompt"
)

// Generator produces a reply for an assembled message sequence.
type Generator interface {
	Generate(ctx context.Context, msgs []prompt.Message) (Reply, error)
}

// Block is one typed content block of a reply.
type Block interface {
	isBlock()
}

// TextBlock carries generated text.
type TextBlock struct {
	Text string
}

func (TextBlock) isBlock() {}

// Reply is the structured output of a generator call.
type Reply struct {
	Blocks []Block
	Model  string
}

// Extract returns the text of the first block, or placeholder when the
// reply has no usable text.
func Extract(r Reply, placeholder string) string {
	if len(r.Blocks) == 0 {
		return placeholder
	}
	tb, ok := r.Blocks[0].(TextBlock)
	if !ok || strings.TrimSpace(tb.Text) == "" {
		return placeholder
	}
	return tb.Text
}
