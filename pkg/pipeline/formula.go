package pipeline

import (
	"github.com/labourlens/labourlens/pkg/config"
)

// scoreFormula is the deterministic strategy: no external calls, same
// inputs always give the same score.
func scoreFormula(docs []ContextDocument, responseLen int, cfg config.ConfidenceConfig) ConfidenceResult {
	if len(docs) == 0 {
		return ConfidenceResult{
			Score:  0,
			Method: config.ConfidenceMethodFormula,
			Breakdown: map[string]any{
				"reason": "no_context_documents",
			},
		}
	}

	similarityScore := weightedSimilarity(docs)
	sourceBoost := sourceBoost(docs, cfg.HighSimilarityCutoff)
	lengthBoost := lengthBoost(responseLen, cfg)

	score := similarityScore*cfg.Formula.Similarity +
		sourceBoost*cfg.Formula.Sources +
		lengthBoost*cfg.Formula.Length
	if score > 1.0 {
		score = 1.0
	}

	return ConfidenceResult{
		Score:  score,
		Method: config.ConfidenceMethodFormula,
		Breakdown: map[string]any{
			"similarity_score": similarityScore,
			"source_boost":     sourceBoost,
			"length_boost":     lengthBoost,
			"weights": map[string]float64{
				"similarity": cfg.Formula.Similarity,
				"sources":    cfg.Formula.Sources,
				"length":     cfg.Formula.Length,
			},
			"document_count": len(docs),
		},
	}
}

// weightedSimilarity weights the top three passages 0.6/0.3/0.1; with
// two, 0.7/0.3; with one, its own similarity.
func weightedSimilarity(docs []ContextDocument) float64 {
	switch {
	case len(docs) >= 3:
		return docs[0].Similarity*0.6 + docs[1].Similarity*0.3 + docs[2].Similarity*0.1
	case len(docs) == 2:
		return docs[0].Similarity*0.7 + docs[1].Similarity*0.3
	default:
		return docs[0].Similarity
	}
}

func sourceBoost(docs []ContextDocument, cutoff float64) float64 {
	count := 0
	for _, doc := range docs {
		if doc.Similarity > cutoff {
			count++
		}
	}

	switch {
	case count >= 3:
		return 1.0
	case count == 2:
		return 0.6
	case count == 1:
		return 0.3
	default:
		return 0.0
	}
}

func lengthBoost(responseLen int, cfg config.ConfidenceConfig) float64 {
	switch {
	case responseLen >= cfg.FullLengthChars:
		return 1.0
	case responseLen >= cfg.HalfLengthChars:
		return 0.5
	default:
		return 0.0
	}
}
