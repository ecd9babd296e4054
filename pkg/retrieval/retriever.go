package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/labourlens/labourlens/pkg/config"
	"github.com/labourlens/labourlens/pkg/databases"
	"github.com/labourlens/labourlens/pkg/embedders"
)

const (
	MinQueryLength = 1

	MaxQueryLength = 10000
)

type RetrievalError struct {
	Component string
	Operation string
	Message   string
	Query     string
	Err       error
}

func (e *RetrievalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s (query: %q): %v", e.Component, e.Operation, e.Message, e.Query, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s (query: %q)", e.Component, e.Operation, e.Message, e.Query)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

func NewRetrievalError(component, operation, message, query string, err error) *RetrievalError {
	return &RetrievalError{
		Component: component,
		Operation: operation,
		Message:   message,
		Query:     query,
		Err:       err,
	}
}

// Document is one passage returned by retrieval, scored by similarity.
type Document struct {
	ID         string
	Content    string
	Similarity float64
	Metadata   map[string]any
}

// Params carry the retrieval hints produced by query analysis. Zero
// values mean "no suggestion" and fall back to configured defaults.
type Params struct {
	Query              string
	Province           string
	SuggestedDocCount  int
	SuggestedThreshold float64
}

// Retriever embeds the query and searches the policy collection,
// optionally filtered to one jurisdiction.
type Retriever struct {
	db         databases.Provider
	embedder   embedders.Provider
	cfg        config.SearchConfig
	collection string
}

func NewRetriever(db databases.Provider, embedder embedders.Provider, cfg config.SearchConfig, collection string) (*Retriever, error) {
	if db == nil {
		return nil, NewRetrievalError("Retriever", "NewRetriever", "database provider is required", "", nil)
	}
	if embedder == nil {
		return nil, NewRetrievalError("Retriever", "NewRetriever", "embedder provider is required", "", nil)
	}
	if collection == "" {
		return nil, NewRetrievalError("Retriever", "NewRetriever", "collection name is required", "", nil)
	}

	return &Retriever{
		db:         db,
		embedder:   embedder,
		cfg:        cfg,
		collection: collection,
	}, nil
}

// EffectiveThreshold resolves the similarity cutoff. Analyzer
// suggestions are capped before comparing against the configured
// default, and the lower of the two wins: an overly strict suggestion
// must not suppress passages the default would have admitted.
func (r *Retriever) EffectiveThreshold(suggested float64) float64 {
	if suggested <= 0 {
		return r.cfg.DefaultThreshold
	}
	capped := suggested
	if capped > r.cfg.SuggestedThresholdCap {
		capped = r.cfg.SuggestedThresholdCap
	}
	if capped < r.cfg.DefaultThreshold {
		return capped
	}
	return r.cfg.DefaultThreshold
}

// EffectiveLimit resolves how many passages to fetch, clamping
// analyzer suggestions into [1, MaxDocCount].
func (r *Retriever) EffectiveLimit(suggested int) int {
	if suggested <= 0 {
		return r.cfg.DefaultDocCount
	}
	if suggested > r.cfg.MaxDocCount {
		return r.cfg.MaxDocCount
	}
	return suggested
}

// Retrieve runs the search. Results below the effective threshold are
// dropped; the rest come back ordered by similarity descending, as the
// store returns them.
func (r *Retriever) Retrieve(ctx context.Context, p Params) ([]Document, error) {
	query := strings.TrimSpace(p.Query)
	if len(query) < MinQueryLength {
		return nil, NewRetrievalError("Retriever", "Retrieve", "query cannot be empty", p.Query, nil)
	}
	if len(query) > MaxQueryLength {
		return nil, NewRetrievalError("Retriever", "Retrieve",
			fmt.Sprintf("query exceeds maximum length of %d", MaxQueryLength), query[:50], nil)
	}

	start := time.Now()

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, NewRetrievalError("Retriever", "Retrieve", "failed to embed query", query, err)
	}

	threshold := r.EffectiveThreshold(p.SuggestedThreshold)
	limit := r.EffectiveLimit(p.SuggestedDocCount)

	var results []databases.SearchResult
	if p.Province != "" {
		filter := map[string]any{r.cfg.ProvinceField: p.Province}
		results, err = r.db.SearchWithFilter(ctx, r.collection, vector, limit, filter)
	} else {
		results, err = r.db.Search(ctx, r.collection, vector, limit)
	}
	if err != nil {
		return nil, NewRetrievalError("Retriever", "Retrieve", "vector search failed", query, err)
	}

	docs := make([]Document, 0, len(results))
	for _, res := range results {
		similarity := float64(res.Score)
		if similarity < threshold {
			continue
		}
		docs = append(docs, Document{
			ID:         res.ID,
			Content:    res.Content,
			Similarity: similarity,
			Metadata:   res.Metadata,
		})
	}

	slog.Debug("Retrieved context",
		"collection", r.collection,
		"province", p.Province,
		"limit", limit,
		"threshold", threshold,
		"returned", len(results),
		"kept", len(docs),
		"duration", time.Since(start),
	)

	return docs, nil
}
