package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []string{
	"Article 1 —\nTurkey is a republic.",
	"Article 2 —\nThe Republic of Turkey is a democratic, secular and social state.",
	"Article 3 —\nIts language is Turkish. Its capital is Ankara.",
}

func prepared(t *testing.T) *Embedder {
	t.Helper()
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	return e
}

func TestEmbed_NotPrepared(t *testing.T) {
	_, err := NewEmbedder().Embed(context.Background(), "republic")
	assert.Error(t, err)
}

func TestPrepare_EmptyCorpus(t *testing.T) {
	assert.Error(t, NewEmbedder().Prepare(nil))
}

func TestEmbedBatch_DimensionAndNorm(t *testing.T) {
	e := prepared(t)

	vecs, err := e.EmbedBatch(context.Background(), corpus)
	require.NoError(t, err)
	require.Len(t, vecs, len(corpus))

	for _, v := range vecs {
		assert.Len(t, v, e.Dimension())
		var norm float64
		for _, x := range v {
			norm += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
	}
}

func TestEmbed_QueryMatchesBatch(t *testing.T) {
	e := prepared(t)
	ctx := context.Background()

	batch, err := e.EmbedBatch(ctx, corpus[:1])
	require.NoError(t, err)
	one, err := e.Embed(ctx, corpus[0])
	require.NoError(t, err)

	assert.Equal(t, batch[0], one)
}

func TestEmbed_UnknownTokensGiveZeroVector(t *testing.T) {
	e := prepared(t)

	v, err := e.Embed(context.Background(), "zzz qqq")
	require.NoError(t, err)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestTokenize_TurkishDottedCapital(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"İnsan hakları ve İstanbul"}))

	upper, err := e.Embed(context.Background(), "İnsan")
	require.NoError(t, err)
	lower, err := e.Embed(context.Background(), "insan")
	require.NoError(t, err)

	assert.Equal(t, upper, lower)
	assert.Contains(t, e.vocabulary, "insan")
	assert.Contains(t, e.vocabulary, "hakları")
	assert.NotContains(t, e.vocabulary, "ve")
}
