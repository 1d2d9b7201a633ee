package additive

import (
	"regexp"
	"strings"
)

const (
	// ExactMatchBonus is added when the query equals the substance name.
	ExactMatchBonus float32 = 0.5
	// PartialMatchBonus is added when the query only partially agrees.
	PartialMatchBonus float32 = 0.3

	wordOverlapRatio    = 0.7
	wordOverlapMinWords = 2
)

var (
	reInteriorNumber = regexp.MustCompile(`-\d+-`)
	reLeadingNumber  = regexp.MustCompile(`^\d+-`)
	reTrailingNumber = regexp.MustCompile(`-\d+$`)
	reWhitespace     = regexp.MustCompile(`\s+`)
)

// NormalizeChemicalName drops locant numbers that vary between spellings of
// the same chemical ("2-methyl-1-propanol" vs "methyl propanol") and
// collapses whitespace.
func NormalizeChemicalName(name string) string {
	n := reInteriorNumber.ReplaceAllString(name, "-")
	n = reLeadingNumber.ReplaceAllString(n, "")
	n = reTrailingNumber.ReplaceAllString(n, "")
	n = reWhitespace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// Candidate is a catalog record with its blended score for one query.
type Candidate struct {
	Index      int
	Record     *SubstanceRecord
	Similarity float32
	Exact      bool
	Partial    bool
	Score      float32
}

// IsExactMatch reports case-insensitive equality of the trimmed strings.
func IsExactMatch(query, substance string) bool {
	return normalizeForCompare(query) == normalizeForCompare(substance)
}

// IsPartialMatch reports whether query and the record agree loosely: equal
// normalized names, containment either way, a large shared word set, or
// agreement with one of the record's alternate names.
func IsPartialMatch(query string, rec *SubstanceRecord) bool {
	q := normalizeForCompare(query)
	s := normalizeForCompare(rec.Substance)

	qNorm := NormalizeChemicalName(q)
	if qNorm == NormalizeChemicalName(s) {
		return true
	}
	if strings.Contains(q, s) || strings.Contains(s, q) {
		return true
	}
	if wordOverlap(q, s) {
		return true
	}
	for _, other := range strings.Split(strings.ToLower(rec.OtherNames), "|") {
		other = strings.TrimSpace(other)
		if other == "" {
			continue
		}
		if strings.Contains(other, q) || strings.Contains(q, other) {
			return true
		}
		if qNorm == NormalizeChemicalName(other) {
			return true
		}
	}
	return false
}

func normalizeForCompare(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// wordOverlap requires at least two shared words and a shared fraction of at
// least 0.7 of the larger word set.
func wordOverlap(a, b string) bool {
	wa := wordSet(a)
	wb := wordSet(b)
	larger := len(wa)
	if len(wb) > larger {
		larger = len(wb)
	}
	if larger == 0 {
		return false
	}
	shared := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			shared++
		}
	}
	ratio := float64(shared) / float64(larger)
	return ratio >= wordOverlapRatio && shared >= wordOverlapMinWords
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// scoreRecord blends cosine similarity with the string-level bonuses.
func scoreRecord(query string, queryVec []float32, idx int, rec *SubstanceRecord) Candidate {
	c := Candidate{
		Index:      idx,
		Record:     rec,
		Similarity: CosineSimilarity(queryVec, rec.Embedding),
	}
	c.Score = c.Similarity
	if IsExactMatch(query, rec.Substance) {
		c.Exact = true
		c.Score += ExactMatchBonus
	} else if IsPartialMatch(query, rec) {
		c.Partial = true
		c.Score += PartialMatchBonus
	}
	return c
}

// Score rates every catalog record against query, in catalog order.
func (r *Resolver) Score(query string) []Candidate {
	queryVec := r.encoder.Encode(query)
	out := make([]Candidate, len(r.catalog.records))
	for i := range r.catalog.records {
		out[i] = scoreRecord(query, queryVec, i, &r.catalog.records[i])
	}
	return out
}

// Best returns the highest scoring record. A record replaces the running best
// only when strictly greater, so the first maximum in catalog order wins and a
// record scoring zero or below is never chosen.
func (r *Resolver) Best(query string) (Candidate, bool) {
	queryVec := r.encoder.Encode(query)
	var (
		best  Candidate
		found bool
	)
	bestScore := float32(0)
	for i := range r.catalog.records {
		c := scoreRecord(query, queryVec, i, &r.catalog.records[i])
		if c.Score > bestScore {
			bestScore = c.Score
			best = c
			found = true
		}
	}
	return best, found
}
