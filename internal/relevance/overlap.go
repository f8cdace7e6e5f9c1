package relevance

import (
	"context"
	"strings"
)

// OverlapJudge scores candidates by query term overlap.
//
// It tokenizes query and candidate into lowercased terms, filters common
// stopwords, and returns the ratio of unique query terms found in the
// candidate. Cheap and deterministic; the default judge when no external
// scorer is configured.
type OverlapJudge struct{}

// NewOverlapJudge creates a new OverlapJudge.
func NewOverlapJudge() *OverlapJudge {
	return &OverlapJudge{}
}

// Score returns the term-overlap ratio between query and text.
// A query with no usable tokens scores 0 for every candidate.
func (j *OverlapJudge) Score(ctx context.Context, query, text string) (float32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return 0, nil
	}
	return termOverlap(queryTokens, tokenize(text)), nil
}

// ScoreBatch scores each text against the query.
func (j *OverlapJudge) ScoreBatch(ctx context.Context, query string, texts []string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryTokens := tokenize(query)
	scores := make([]float32, len(texts))
	if len(queryTokens) == 0 {
		return scores, nil
	}
	for i, text := range texts {
		scores[i] = termOverlap(queryTokens, tokenize(text))
	}
	return scores, nil
}

// tokenize splits text into lowercase terms, filtering out stopwords and
// terms shorter than three characters.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !isAlphanumeric(r)
	})

	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !isStopword(token) && len(token) > 2 {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

// isAlphanumeric returns true if the rune is alphanumeric or underscore.
func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_'
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "was": true,
	"are": true, "be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "can": true, "this": true,
	"that": true, "these": true, "those": true, "i": true, "you": true, "he": true,
	"she": true, "it": true, "we": true, "they": true, "what": true, "which": true,
	"who": true, "when": true, "where": true, "why": true, "how": true,
}

// isStopword returns true if the token is a common English stopword.
func isStopword(token string) bool {
	return stopwords[token]
}

// termOverlap calculates the ratio of unique query terms found in the
// document tokens. Returns a score in [0,1].
func termOverlap(queryTokens, docTokens []string) float32 {
	if len(queryTokens) == 0 {
		return 0
	}

	docTokenSet := make(map[string]bool, len(docTokens))
	for _, token := range docTokens {
		docTokenSet[token] = true
	}

	matchCount := 0
	counted := make(map[string]bool, len(queryTokens))
	for _, queryToken := range queryTokens {
		if docTokenSet[queryToken] && !counted[queryToken] {
			matchCount++
			counted[queryToken] = true
		}
	}

	return float32(matchCount) / float32(len(queryTokens))
}

var (
	_ Judge      = (*OverlapJudge)(nil)
	_ BatchJudge = (*OverlapJudge)(nil)
)
