package additive

import "strings"

// SubstanceRecord is one entry of the additive catalog. Records are immutable
// once the catalog is built.
type SubstanceRecord struct {
	Substance       string    `json:"substance"`
	OtherNames      string    `json:"other_names"`
	TechnicalEffect string    `json:"technical_effect"`
	SearchableText  string    `json:"searchable_text"`
	Embedding       []float32 `json:"-"`
}

// Aliases splits OtherNames on "|" and returns the trimmed, non-empty names
// in their original order.
func (r SubstanceRecord) Aliases() []string {
	return splitPipe(r.OtherNames)
}

func splitPipe(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Method records which stage produced a match.
type Method string

const (
	MethodFlavor Method = "flavor"
	MethodDirect Method = "direct"
	MethodSearch Method = "search"
)

// Confidence is the informational band attached to a search-path match.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// MatchResult is the outcome of resolving one query. Score and Confidence are
// only meaningful for MethodSearch.
type MatchResult struct {
	OriginalQuery   string     `json:"original_query"`
	Substance       string     `json:"substance"`
	OtherNames      string     `json:"other_names"`
	TechnicalEffect string     `json:"technical_effect"`
	Method          Method     `json:"method"`
	Score           float32    `json:"score,omitempty"`
	Confidence      Confidence `json:"confidence,omitempty"`
}

func resultFromRecord(query string, rec *SubstanceRecord, method Method) *MatchResult {
	return &MatchResult{
		OriginalQuery:   query,
		Substance:       rec.Substance,
		OtherNames:      rec.OtherNames,
		TechnicalEffect: rec.TechnicalEffect,
		Method:          method,
	}
}
