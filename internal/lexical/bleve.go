package lexical

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"anayasa/internal/domain"
)

// Index is an in-memory keyword index over the corpus articles, used when
// the embedding space gives no signal for a question.
type Index struct {
	index bleve.Index
	units map[int]domain.Unit
}

type article struct {
	Label string `json:"label"`
	Body  string `json:"body"`
}

var newMemOnly = bleve.NewMemOnly

// Build indexes every unit. Unit ordinals become document ids.
func Build(units []domain.Unit) (*Index, error) {
	idx, err := newMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	batch := idx.NewBatch()
	for _, u := range units {
		if err := batch.Index(strconv.Itoa(u.Ordinal), article{Label: u.Label, Body: u.Body}); err != nil {
			idx.Close()
			return nil, fmt.Errorf("index %s: %w", u.Label, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return nil, fmt.Errorf("index batch: %w", err)
	}
	byOrdinal := make(map[int]domain.Unit, len(units))
	for _, u := range units {
		byOrdinal[u.Ordinal] = u
	}
	return &Index{index: idx, units: byOrdinal}, nil
}

// Search returns at most topK units matching the query words, by descending
// score and then document order.
func (x *Index) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	// bleve breaks score ties by document id, so every hit is fetched and
	// cut to topK only after ordering by ordinal.
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(q, max(len(x.units), 1), 0, false)
	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	out := make([]domain.SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ord, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		u, ok := x.units[ord]
		if !ok {
			continue
		}
		out = append(out, domain.SearchResult{Unit: u, Score: hit.Score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Unit.Ordinal < out[j].Unit.Ordinal
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// Close releases the index.
func (x *Index) Close() error {
	return x.index.Close()
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "standard"

	docMapping := bleve.NewDocumentMapping()

	labelField := bleve.NewTextFieldMapping()
	labelField.Store = false
	docMapping.AddFieldMappingsAt("label", labelField)

	bodyField := bleve.NewTextFieldMapping()
	bodyField.Store = false
	docMapping.AddFieldMappingsAt("body", bodyField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
