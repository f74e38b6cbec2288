package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"unicode"

	"anayasa/internal/generation"
	"anayasa/internal/prompt"
)

// conceptEmbedder maps words onto a handful of concept axes so tests can
// reason about similarity without a model.
type conceptEmbedder struct {
	batchCalls atomic.Int32
	embedCalls atomic.Int32
	failEmbed  atomic.Int32 // number of upcoming Embed calls to fail
	failBatch  bool
	queryDim   int // when > 0, queries get this many dimensions
	raggedAt   int // when > 0, the vector at this index gets an extra dimension
}

var concepts = map[string]int{
	"republic": 0, "state": 0, "form": 0,
	"capital": 1, "ankara": 1, "city": 1,
	"language": 2, "turkish": 2,
	"president": 3, "elected": 3, "elect": 3, "elects": 3,
	"democratic": 4, "secular": 4, "social": 4, "law": 4,
	"sovereignty": 5, "nation": 5,
}

const conceptDims = 6

func (e *conceptEmbedder) Name() string                  { return "concept" }
func (e *conceptEmbedder) Prepare(corpus []string) error { return nil }
func (e *conceptEmbedder) Dimension() int                { return conceptDims }

func (e *conceptEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.batchCalls.Add(1)
	if e.failBatch {
		return nil, errors.New("model offline")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = vectorize(t, conceptDims)
		if e.raggedAt > 0 && i == e.raggedAt {
			out[i] = append(out[i], 0)
		}
	}
	return out, nil
}

func (e *conceptEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.embedCalls.Add(1)
	if e.failEmbed.Load() > 0 {
		e.failEmbed.Add(-1)
		return nil, errors.New("embedding service unavailable")
	}
	dims := conceptDims
	if e.queryDim > 0 {
		dims = e.queryDim
	}
	return vectorize(text, dims), nil
}

func vectorize(text string, dims int) []float32 {
	v := make([]float32, dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		if d, ok := concepts[w]; ok && d < dims {
			v[d]++
		}
	}
	return v
}

// citingGenerator answers with the first retrieved article and cites its
// label; with no documents it returns the refusal sentence.
type citingGenerator struct {
	calls atomic.Int32
	fail  atomic.Int32
	empty bool
}

func (g *citingGenerator) Generate(_ context.Context, msgs []prompt.Message) (generation.Reply, error) {
	g.calls.Add(1)
	if g.fail.Load() > 0 {
		g.fail.Add(-1)
		return generation.Reply{}, errors.New("upstream 503")
	}
	if g.empty {
		return generation.Reply{}, nil
	}
	user := msgs[1].Content
	docs := strings.TrimSpace(user[strings.Index(user, "Documents:")+len("Documents:") : strings.Index(user, "Question:")])
	if docs == "" {
		return refusalReply(msgs[0].Content), nil
	}
	lines := strings.SplitN(docs, "\n", 3)
	label := strings.TrimSpace(strings.TrimSuffix(lines[0], "—"))
	return generation.Reply{Blocks: []generation.Block{generation.TextBlock{Text: lines[1] + " (" + label + ")"}}}, nil
}

// evidenceFreeGenerator behaves as if no document supports the question.
type evidenceFreeGenerator struct{}

func (evidenceFreeGenerator) Generate(_ context.Context, msgs []prompt.Message) (generation.Reply, error) {
	return refusalReply(msgs[0].Content), nil
}

// refusalReply returns the sentence the instruction asks for verbatim.
func refusalReply(instruction string) generation.Reply {
	start := strings.Index(instruction, "'")
	end := strings.LastIndex(instruction, "'")
	if start < 0 || end <= start {
		return generation.Reply{}
	}
	return generation.Reply{Blocks: []generation.Block{generation.TextBlock{Text: instruction[start+1 : end]}}}
}
