package pipeline

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/labourlens/labourlens/pkg/config"
)

var (
	chunkSuffixRe = regexp.MustCompile(`\s*\(chunk \d+/\d+\)\s*$`)

	// Temp-upload artifacts: tmp/temp prefixes and long hex or UUID-ish
	// names carry no meaning for the reader.
	tempArtifactRe = regexp.MustCompile(`(?i)^(tmp|temp)[\w-]*$|^[0-9a-f-]{20,}$`)
)

// stopWords are dropped from excerpt keyword matching.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "can": true, "do": true, "does": true,
	"for": true, "from": true, "has": true, "have": true, "how": true,
	"i": true, "if": true, "in": true, "is": true, "it": true, "its": true,
	"my": true, "not": true, "of": true, "on": true, "or": true, "our": true,
	"the": true, "their": true, "them": true, "there": true, "they": true,
	"this": true, "to": true, "was": true, "we": true, "what": true,
	"when": true, "where": true, "which": true, "who": true, "will": true,
	"with": true, "would": true, "you": true, "your": true,
}

// Formatter turns retrieved passages into ranked, deduplicated
// citations with reader-friendly names and relevant excerpts.
type Formatter struct {
	cfg config.SearchConfig
}

func NewFormatter(cfg config.SearchConfig) *Formatter {
	return &Formatter{cfg: cfg}
}

// Format deduplicates by display name, keeping the highest-similarity
// entry per name, and returns citations sorted by similarity
// descending.
func (f *Formatter) Format(query string, docs []ContextDocument) []Citation {
	best := make(map[string]Citation, len(docs))

	for _, doc := range docs {
		name := f.DisplayName(doc)
		citation := Citation{
			DisplayName: name,
			Excerpt:     f.Excerpt(query, doc.Content),
			Similarity:  doc.Similarity,
			SourceType:  doc.SourceType,
			SourceID:    doc.ID,
		}
		if existing, ok := best[name]; !ok || citation.Similarity > existing.Similarity {
			best[name] = citation
		}
	}

	citations := make([]Citation, 0, len(best))
	for _, c := range best {
		citations = append(citations, c)
	}
	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].Similarity > citations[j].Similarity
	})
	return citations
}

// DisplayName derives a readable source name for one passage.
func (f *Formatter) DisplayName(doc ContextDocument) string {
	raw := firstMetadataString(doc.Metadata, "title", "filename", "file_name", "chunk_title", "source")

	if raw != "" {
		name := cleanDocumentName(raw)
		if name != "" && !tempArtifactRe.MatchString(raw) {
			return name
		}
		// The raw name is a temp-upload artifact; look for something
		// better before giving up.
		if fallback := firstMetadataString(doc.Metadata, "document_name", "original_name"); fallback != "" {
			if name := cleanDocumentName(fallback); name != "" {
				return name
			}
		}
		return "Uploaded Document"
	}

	sourceType := doc.SourceType
	if sourceType == "" {
		sourceType = "document"
	}
	return fmt.Sprintf("%s %s", titleCase(sourceType), shortID(doc.ID))
}

func firstMetadataString(metadata map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := metadata[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// cleanDocumentName strips the chunk suffix and file extension, turns
// underscores into spaces, and title-cases the result.
func cleanDocumentName(raw string) string {
	name := chunkSuffixRe.ReplaceAllString(raw, "")
	name = strings.TrimSpace(name)

	if ext := filepath.Ext(name); len(ext) > 1 && len(ext) <= 6 {
		name = strings.TrimSuffix(name, ext)
	}

	name = strings.ReplaceAll(name, "_", " ")
	name = strings.Join(strings.Fields(name), " ")
	return titleCase(name)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "unknown"
	}
	return id
}

// Excerpt picks the passage sentence most relevant to the query plus
// one neighboring sentence, bounded by the configured max length.
func (f *Formatter) Excerpt(query, content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	sentences := splitSentences(content)
	keywords := queryKeywords(query)

	bestIdx, bestScore := 0, 0
	for i, sentence := range sentences {
		lower := strings.ToLower(sentence)
		score := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				score += len(kw)
			}
		}
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}

	excerpt := sentences[bestIdx]
	if bestIdx+1 < len(sentences) {
		excerpt = excerpt + " " + sentences[bestIdx+1]
	} else if bestIdx > 0 {
		excerpt = sentences[bestIdx-1] + " " + excerpt
	}

	return truncateAtBoundary(strings.TrimSpace(excerpt), f.cfg.MaxExcerptChars)
}

func queryKeywords(query string) []string {
	var keywords []string
	for _, field := range strings.Fields(strings.ToLower(query)) {
		word := strings.Trim(field, ".,;:!?\"'()")
		if len(word) < 3 || stopWords[word] {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]*`)

func splitSentences(text string) []string {
	matches := sentenceRe.FindAllString(text, -1)
	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		if s := strings.TrimSpace(m); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return []string{text}
	}
	return sentences
}

// truncateAtBoundary cuts to max characters, preferring the last
// sentence end before the limit.
func truncateAtBoundary(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}

	cut := s[:max]
	if idx := strings.LastIndexAny(cut, ".!?"); idx > max/2 {
		return strings.TrimSpace(cut[:idx+1])
	}
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "..."
}
