package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"sync/atomic"

	"anayasa/internal/domain"
	"anayasa/internal/generation"
	"anayasa/internal/lexical"
	"anayasa/internal/prompt"
	"anayasa/internal/segmenter"
	"anayasa/internal/vectorstore"
)

// DefaultTopK is the number of articles handed to the generator.
const DefaultTopK = 7

// Options tunes retrieval.
type Options struct {
	TopK            int
	LexicalFallback bool
	BoundaryPattern string
	// SourceTag overrides the corpus file name recorded on each unit.
	SourceTag string
}

// Answer is the result of one question.
type Answer struct {
	Text    string
	Sources []domain.SearchResult
}

// Engine owns the article index and answers questions against it.
// Build must complete before any question is served; afterwards the index
// is read-only and Engine is safe for concurrent use.
type Engine struct {
	embedder  domain.Embedder
	store     vectorstore.Storage
	assembler *prompt.Assembler
	generator generation.Generator
	opts      Options

	buildMu     sync.Mutex
	ready       atomic.Bool
	units       []domain.Unit
	dimension   int
	lexical     *lexical.Index
	fingerprint string
	closed      bool
}

func NewEngine(embedder domain.Embedder, store vectorstore.Storage, assembler *prompt.Assembler, generator generation.Generator, opts Options) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Engine{embedder: embedder, store: store, assembler: assembler, generator: generator, opts: opts}
}

// BuildFromFile loads, segments and indexes the corpus at path.
func (e *Engine) BuildFromFile(ctx context.Context, path string) error {
	text, err := segmenter.LoadCorpus(path)
	if err != nil {
		return err
	}
	tag := e.opts.SourceTag
	if tag == "" {
		tag = filepath.Base(path)
	}
	seg, err := segmenter.NewArticleSegmenter(e.opts.BoundaryPattern, tag)
	if err != nil {
		return err
	}
	units := seg.Segment(text)
	if err := e.build(ctx, units, hashString(text)); err != nil {
		return err
	}
	log.Printf("indexed %d articles from %s (sha1 %s, embedder %s, dim %d)",
		len(units), path, e.fingerprint, e.embedder.Name(), e.dimension)
	return nil
}

// Build embeds all units in one batch and publishes the index. Nothing is
// published when any step fails. Calling Build again after success is a no-op.
func (e *Engine) Build(ctx context.Context, units []domain.Unit) error {
	return e.build(ctx, units, "")
}

func (e *Engine) build(ctx context.Context, units []domain.Unit, fingerprint string) error {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()
	if e.ready.Load() {
		return nil
	}
	if len(units) == 0 {
		return domain.ErrEmptyCorpus
	}
	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text()
	}
	if err := e.embedder.Prepare(texts); err != nil {
		return fmt.Errorf("%w: prepare embedder: %w", domain.ErrIndexBuild, err)
	}
	vectors, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embed articles: %w", domain.ErrIndexBuild, err)
	}
	dim, err := checkVectors(vectors, len(units))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexBuild, err)
	}
	if err := e.store.Init(ctx, dim); err != nil {
		return fmt.Errorf("%w: init store: %w", domain.ErrIndexBuild, err)
	}
	if err := e.store.Upsert(ctx, units, vectors); err != nil {
		return fmt.Errorf("%w: store vectors: %w", domain.ErrIndexBuild, err)
	}
	if e.opts.LexicalFallback {
		lx, err := lexical.Build(units)
		if err != nil {
			return fmt.Errorf("%w: keyword index: %w", domain.ErrIndexBuild, err)
		}
		e.lexical = lx
	}
	e.units = units
	e.dimension = dim
	e.fingerprint = fingerprint
	e.ready.Store(true)
	return nil
}

func checkVectors(vectors [][]float32, want int) (int, error) {
	if len(vectors) != want {
		return 0, fmt.Errorf("embedder returned %d vectors for %d articles", len(vectors), want)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return 0, errors.New("embedder returned empty vectors")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("%w: vector %d has %d, expected %d", domain.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return dim, nil
}

// Ready reports whether the index has been built.
func (e *Engine) Ready() bool { return e.ready.Load() }

// Units returns the indexed articles in document order.
func (e *Engine) Units() []domain.Unit {
	if !e.ready.Load() {
		return nil
	}
	return e.units
}

// Fingerprint is the sha1 of the corpus text, empty when built from units.
func (e *Engine) Fingerprint() string {
	if !e.ready.Load() {
		return ""
	}
	return e.fingerprint
}

// Retrieve embeds the question and returns at most k articles by
// descending similarity. k <= 0 uses the configured TopK.
func (e *Engine) Retrieve(ctx context.Context, question string, k int) ([]domain.SearchResult, error) {
	if !e.ready.Load() {
		return nil, domain.ErrNotReady
	}
	if k <= 0 {
		k = e.opts.TopK
	}
	vec, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embed question: %w", domain.ErrRetrieval, err)
	}
	if len(vec) != e.dimension {
		return nil, fmt.Errorf("%w: %w: query has %d, index has %d", domain.ErrRetrieval, domain.ErrDimensionMismatch, len(vec), e.dimension)
	}
	if isZero(vec) && e.lexical != nil {
		return e.keywordSearch(ctx, question, k)
	}
	res, err := e.store.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrRetrieval, err)
	}
	if allZero(res) && e.lexical != nil {
		return e.keywordSearch(ctx, question, k)
	}
	return res, nil
}

func (e *Engine) keywordSearch(ctx context.Context, question string, k int) ([]domain.SearchResult, error) {
	res, err := e.lexical.Search(ctx, question, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
	}
	return res, nil
}

// Ask answers one question independently of any earlier question.
func (e *Engine) Ask(ctx context.Context, question string) (*Answer, error) {
	sources, err := e.Retrieve(ctx, question, e.opts.TopK)
	if err != nil {
		return nil, err
	}
	msgs := e.assembler.Assemble(question, sources)
	reply, err := e.generator.Generate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	return &Answer{
		Text:    generation.Extract(reply, e.assembler.Preset().Placeholder),
		Sources: sources,
	}, nil
}

// Answer is Ask without the sources.
func (e *Engine) Answer(ctx context.Context, question string) (string, error) {
	a, err := e.Ask(ctx, question)
	if err != nil {
		return "", err
	}
	return a.Text, nil
}

// Close releases the keyword index. It waits for a build in progress.
func (e *Engine) Close() error {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()
	if e.lexical == nil || e.closed {
		return nil
	}
	e.closed = true
	return e.lexical.Close()
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func allZero(res []domain.SearchResult) bool {
	for _, r := range res {
		if r.Score > 1e-9 {
			return false
		}
	}
	return true
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
