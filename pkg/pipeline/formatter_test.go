package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labourlens/labourlens/pkg/config"
)

func newFormatter() *Formatter {
	cfg := config.SearchConfig{}
	cfg.SetDefaults()
	return NewFormatter(cfg)
}

func TestDisplayNameFromTitle(t *testing.T) {
	f := newFormatter()

	tests := []struct {
		name string
		doc  ContextDocument
		want string
	}{
		{
			name: "chunk suffix stripped",
			doc: ContextDocument{
				Metadata: map[string]any{"title": "employment_standards_act (chunk 3/12)"},
			},
			want: "Employment Standards Act",
		},
		{
			name: "extension and underscores cleaned",
			doc: ContextDocument{
				Metadata: map[string]any{"filename": "vacation_pay_policy.pdf"},
			},
			want: "Vacation Pay Policy",
		},
		{
			name: "already clean title kept",
			doc: ContextDocument{
				Metadata: map[string]any{"title": "Overtime Rules Ontario"},
			},
			want: "Overtime Rules Ontario",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.DisplayName(tt.doc))
		})
	}
}

func TestDisplayNameTempArtifactFallsBack(t *testing.T) {
	f := newFormatter()

	doc := ContextDocument{
		Metadata: map[string]any{
			"filename":      "tmp_a8f3bc2291",
			"document_name": "termination_notice_guide.docx",
		},
	}
	assert.Equal(t, "Termination Notice Guide", f.DisplayName(doc))

	doc = ContextDocument{
		Metadata: map[string]any{"filename": "tmp_a8f3bc2291"},
	}
	assert.Equal(t, "Uploaded Document", f.DisplayName(doc))
}

func TestDisplayNameLastResort(t *testing.T) {
	f := newFormatter()

	doc := ContextDocument{
		ID:         "abc123def456",
		SourceType: "policy",
	}
	assert.Equal(t, "Policy abc123de", f.DisplayName(doc))

	doc = ContextDocument{ID: "x1"}
	assert.Equal(t, "Document x1", f.DisplayName(doc))
}

func TestExcerptPicksRelevantSentence(t *testing.T) {
	f := newFormatter()

	content := "Employers must keep payroll records. Overtime pay is required after 44 hours of work in a week. " +
		"The overtime rate is one and a half times the regular rate. Records must be retained for three years."

	excerpt := f.Excerpt("When is overtime pay required?", content)
	assert.Contains(t, excerpt, "Overtime pay is required after 44 hours")
	// One neighboring sentence comes along.
	assert.Contains(t, excerpt, "one and a half times")
	assert.NotContains(t, excerpt, "retained for three years")
}

func TestExcerptTruncationPrefersSentenceBoundary(t *testing.T) {
	cfg := config.SearchConfig{}
	cfg.SetDefaults()
	cfg.MaxExcerptChars = 80
	f := NewFormatter(cfg)

	content := "Overtime pay applies after 44 hours. " + strings.Repeat("Extra detail follows here. ", 10)
	excerpt := f.Excerpt("overtime pay", content)

	assert.LessOrEqual(t, len(excerpt), 80)
	assert.True(t, strings.HasSuffix(excerpt, ".") || strings.HasSuffix(excerpt, "..."),
		"excerpt should end at a sentence boundary or ellipsis: %q", excerpt)
}

func TestExcerptEmptyContent(t *testing.T) {
	f := newFormatter()
	assert.Empty(t, f.Excerpt("query", "   "))
}

func TestFormatDeduplicatesByDisplayName(t *testing.T) {
	f := newFormatter()

	docs := []ContextDocument{
		{ID: "1", Content: "Overtime rules.", Similarity: 0.6, Metadata: map[string]any{"title": "esa_guide"}},
		{ID: "2", Content: "More overtime rules.", Similarity: 0.9, Metadata: map[string]any{"title": "esa_guide (chunk 2/5)"}},
		{ID: "3", Content: "Vacation rules.", Similarity: 0.7, Metadata: map[string]any{"title": "vacation_guide"}},
	}

	citations := f.Format("overtime", docs)
	require.Len(t, citations, 2)

	assert.Equal(t, "Esa Guide", citations[0].DisplayName)
	assert.InDelta(t, 0.9, citations[0].Similarity, 1e-9)
	assert.Equal(t, "2", citations[0].SourceID)

	assert.Equal(t, "Vacation Guide", citations[1].DisplayName)
}

func TestFormatSortsBySimilarityDescending(t *testing.T) {
	f := newFormatter()

	docs := []ContextDocument{
		{ID: "low", Content: "a.", Similarity: 0.4, Metadata: map[string]any{"title": "doc_a"}},
		{ID: "high", Content: "b.", Similarity: 0.95, Metadata: map[string]any{"title": "doc_b"}},
		{ID: "mid", Content: "c.", Similarity: 0.7, Metadata: map[string]any{"title": "doc_c"}},
	}

	citations := f.Format("query", docs)
	require.Len(t, citations, 3)
	assert.Equal(t, "high", citations[0].SourceID)
	assert.Equal(t, "mid", citations[1].SourceID)
	assert.Equal(t, "low", citations[2].SourceID)
}

func TestFormatEmptyInput(t *testing.T) {
	f := newFormatter()
	assert.Empty(t, f.Format("query", nil))
}
