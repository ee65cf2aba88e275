package service

import (
	"context"
	"testing"

	"fashion-muse-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchService_Embed(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := NewSearchService(&fakeEmbedder{vector: []float32{0.1, 0.2}}, &fakeSearcher{})
		assert.Equal(t, []float32{0.1, 0.2}, svc.Embed(context.Background(), "gown"))
	})

	t.Run("failure yields nil", func(t *testing.T) {
		svc := NewSearchService(&fakeEmbedder{err: errBackend}, &fakeSearcher{})
		assert.Nil(t, svc.Embed(context.Background(), "gown"))
	})
}

func TestSearchService_Search(t *testing.T) {
	ctx := context.Background()
	vec := []float32{1, 0}

	t.Run("orders, clamps and truncates", func(t *testing.T) {
		searcher := &fakeSearcher{hits: []model.SearchHit{
			{Title: "c", Score: 0.4},
			{Title: "a", Score: 1.3},
			{Title: "b", Score: 0.8},
			{Title: "d", Score: -0.2},
		}}
		svc := NewSearchService(&fakeEmbedder{}, searcher)

		hits := svc.Search(ctx, vec, 3)
		require.Len(t, hits, 3)
		assert.Equal(t, 3, searcher.lastLimit)
		assert.Equal(t, []string{"a", "b", "c"}, []string{hits[0].Title, hits[1].Title, hits[2].Title})
		for i, h := range hits {
			assert.GreaterOrEqual(t, h.Score, 0.0)
			assert.LessOrEqual(t, h.Score, 1.0)
			if i > 0 {
				assert.GreaterOrEqual(t, hits[i-1].Score, h.Score)
			}
		}
		assert.Equal(t, 1.0, hits[0].Score)
	})

	t.Run("nil vector skips backend", func(t *testing.T) {
		searcher := &fakeSearcher{hits: []model.SearchHit{{Title: "a"}}}
		svc := NewSearchService(&fakeEmbedder{}, searcher)

		hits := svc.Search(ctx, nil, 3)
		assert.Empty(t, hits)
		assert.NotNil(t, hits)
		assert.Zero(t, searcher.calls)
	})

	t.Run("backend failure yields empty", func(t *testing.T) {
		svc := NewSearchService(&fakeEmbedder{}, &fakeSearcher{err: errBackend})
		hits := svc.Search(ctx, vec, 3)
		assert.Empty(t, hits)
		assert.NotNil(t, hits)
	})

	t.Run("non-positive k", func(t *testing.T) {
		searcher := &fakeSearcher{hits: []model.SearchHit{{Title: "a"}}}
		svc := NewSearchService(&fakeEmbedder{}, searcher)
		assert.Empty(t, svc.Search(ctx, vec, 0))
		assert.Zero(t, searcher.calls)
	})
}
