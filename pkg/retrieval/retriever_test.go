package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labourlens/labourlens/pkg/config"
	"github.com/labourlens/labourlens/pkg/databases"
)

type mockDB struct {
	searchFunc           func(ctx context.Context, collection string, vector []float32, topK int) ([]databases.SearchResult, error)
	searchWithFilterFunc func(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]databases.SearchResult, error)
}

func (m *mockDB) Upsert(ctx context.Context, collection, id string, vector []float32, metadata map[string]any) error {
	return nil
}

func (m *mockDB) Search(ctx context.Context, collection string, vector []float32, topK int) ([]databases.SearchResult, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, collection, vector, topK)
	}
	return nil, nil
}

func (m *mockDB) SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]databases.SearchResult, error) {
	if m.searchWithFilterFunc != nil {
		return m.searchWithFilterFunc(ctx, collection, vector, topK, filter)
	}
	return nil, nil
}

func (m *mockDB) Delete(ctx context.Context, collection, id string) error { return nil }

func (m *mockDB) CreateCollection(ctx context.Context, collection string, vectorSize uint64) error {
	return nil
}

func (m *mockDB) DeleteCollection(ctx context.Context, collection string) error { return nil }

func (m *mockDB) Close() error { return nil }

type mockEmbedder struct {
	embedFunc func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedFunc != nil {
		return m.embedFunc(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockEmbedder) Dimension() int    { return 3 }
func (m *mockEmbedder) ModelName() string { return "mock" }
func (m *mockEmbedder) Close() error      { return nil }

func searchConfig() config.SearchConfig {
	cfg := config.SearchConfig{}
	cfg.SetDefaults()
	return cfg
}

func TestEffectiveThreshold(t *testing.T) {
	r, err := NewRetriever(&mockDB{}, &mockEmbedder{}, searchConfig(), "policy_documents")
	require.NoError(t, err)

	tests := []struct {
		name      string
		suggested float64
		want      float64
	}{
		{"no suggestion uses default", 0, 0.7},
		{"low suggestion wins", 0.3, 0.3},
		{"high suggestion capped then compared", 0.9, 0.5},
		{"suggestion at cap", 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, r.EffectiveThreshold(tt.suggested), 1e-9)
		})
	}
}

func TestEffectiveLimit(t *testing.T) {
	r, err := NewRetriever(&mockDB{}, &mockEmbedder{}, searchConfig(), "policy_documents")
	require.NoError(t, err)

	assert.Equal(t, 5, r.EffectiveLimit(0))
	assert.Equal(t, 5, r.EffectiveLimit(-2))
	assert.Equal(t, 3, r.EffectiveLimit(3))
	assert.Equal(t, 20, r.EffectiveLimit(50))
}

func TestRetrieveDropsResultsBelowThreshold(t *testing.T) {
	db := &mockDB{
		searchFunc: func(ctx context.Context, collection string, vector []float32, topK int) ([]databases.SearchResult, error) {
			return []databases.SearchResult{
				{ID: "a", Score: 0.92, Content: "overtime rules"},
				{ID: "b", Score: 0.71, Content: "vacation accrual"},
				{ID: "c", Score: 0.40, Content: "unrelated"},
			}, nil
		},
	}

	r, err := NewRetriever(db, &mockEmbedder{}, searchConfig(), "policy_documents")
	require.NoError(t, err)

	docs, err := r.Retrieve(context.Background(), Params{Query: "overtime after 44 hours"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.InDelta(t, 0.92, docs[0].Similarity, 1e-6)
	assert.Equal(t, "b", docs[1].ID)
}

func TestRetrieveAppliesProvinceFilter(t *testing.T) {
	var gotFilter map[string]any
	db := &mockDB{
		searchWithFilterFunc: func(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]databases.SearchResult, error) {
			gotFilter = filter
			return []databases.SearchResult{{ID: "on-1", Score: 0.85}}, nil
		},
	}

	r, err := NewRetriever(db, &mockEmbedder{}, searchConfig(), "policy_documents")
	require.NoError(t, err)

	docs, err := r.Retrieve(context.Background(), Params{Query: "statutory holidays", Province: "ON"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, map[string]any{"province": "ON"}, gotFilter)
}

func TestRetrievePassesDerivedLimit(t *testing.T) {
	var gotTopK int
	db := &mockDB{
		searchFunc: func(ctx context.Context, collection string, vector []float32, topK int) ([]databases.SearchResult, error) {
			gotTopK = topK
			return nil, nil
		},
	}

	r, err := NewRetriever(db, &mockEmbedder{}, searchConfig(), "policy_documents")
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), Params{Query: "notice period", SuggestedDocCount: 8})
	require.NoError(t, err)
	assert.Equal(t, 8, gotTopK)
}

func TestRetrieveErrors(t *testing.T) {
	r, err := NewRetriever(&mockDB{}, &mockEmbedder{}, searchConfig(), "policy_documents")
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), Params{Query: "   "})
	var retErr *RetrievalError
	require.ErrorAs(t, err, &retErr)
	assert.Equal(t, "Retrieve", retErr.Operation)

	embedErr := errors.New("embedder down")
	failing := &mockEmbedder{
		embedFunc: func(ctx context.Context, text string) ([]float32, error) {
			return nil, embedErr
		},
	}
	r, err = NewRetriever(&mockDB{}, failing, searchConfig(), "policy_documents")
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), Params{Query: "overtime"})
	require.ErrorAs(t, err, &retErr)
	assert.ErrorIs(t, err, embedErr)
}

func TestNewRetrieverValidation(t *testing.T) {
	_, err := NewRetriever(nil, &mockEmbedder{}, searchConfig(), "policy_documents")
	assert.Error(t, err)

	_, err = NewRetriever(&mockDB{}, nil, searchConfig(), "policy_documents")
	assert.Error(t, err)

	_, err = NewRetriever(&mockDB{}, &mockEmbedder{}, searchConfig(), "")
	assert.Error(t, err)
}
