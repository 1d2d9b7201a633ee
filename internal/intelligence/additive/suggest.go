package additive

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// DefaultSuggestSimilarity is the edit-distance similarity a name needs to be
// offered as a suggestion.
const DefaultSuggestSimilarity = 0.6

// Suggestion is a catalog name close in spelling to a query that did not
// resolve. It is informational only and never counts as a match.
type Suggestion struct {
	Substance  string  `json:"substance"`
	Matched    string  `json:"matched"`
	Similarity float64 `json:"similarity"`
}

// editSimilarity is 1 - distance/maxLen over runes, 1.0 for two empty strings.
func editSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if lb := len([]rune(b)); lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

// Suggest returns up to limit records whose substance name or one of whose
// alternate names is within minSimilarity of query. Each record appears once,
// under its closest name; ties keep catalog order.
func (r *Resolver) Suggest(query string, limit int, minSimilarity float64) []Suggestion {
	q := strings.ToLower(cleanQuery(query))
	if q == "" || limit <= 0 {
		return nil
	}

	var out []Suggestion
	for i := range r.catalog.records {
		rec := &r.catalog.records[i]
		best := Suggestion{Substance: rec.Substance, Matched: rec.Substance, Similarity: -1}
		if s := editSimilarity(q, strings.ToLower(rec.Substance)); s > best.Similarity {
			best.Similarity = s
		}
		for _, alias := range rec.Aliases() {
			if s := editSimilarity(q, strings.ToLower(alias)); s > best.Similarity {
				best.Similarity = s
				best.Matched = alias
			}
		}
		if best.Similarity >= minSimilarity {
			out = append(out, best)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
