package additive

// DefaultThreshold is the minimum blended score a search-path candidate needs.
// The comparison is inclusive.
const DefaultThreshold float32 = 0.244

const (
	highConfidenceScore   float32 = 0.7
	mediumConfidenceScore float32 = 0.5
)

// ConfidenceFor bands a blended score. The band is informational and never
// gates acceptance.
func ConfidenceFor(score float32) Confidence {
	switch {
	case score >= highConfidenceScore:
		return ConfidenceHigh
	case score >= mediumConfidenceScore:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Accept reports whether score clears threshold.
func Accept(score, threshold float32) bool {
	return score >= threshold
}

// Decide turns the best candidate into a match, or rejects it. A missing
// candidate and a candidate under the threshold look the same to the caller.
func Decide(query string, best Candidate, found bool, threshold float32) (*MatchResult, bool) {
	if !found || best.Record == nil || !Accept(best.Score, threshold) {
		return nil, false
	}
	res := resultFromRecord(query, best.Record, MethodSearch)
	res.Score = best.Score
	res.Confidence = ConfidenceFor(best.Score)
	return res, true
}
