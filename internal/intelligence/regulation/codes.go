package regulation

import (
	"strings"
	"unicode/utf8"

	"github.com/turtacn/additive-lens/internal/intelligence/additive"
)

// GeneralProvisionsCode is 21 CFR 170.3, the definitions section that covers
// flavor, color and preservative category names.
const GeneralProvisionsCode = "170.3"

const (
	fuzzyMinTermLen  = 4
	fuzzyMinLenRatio = 0.6
)

// categoryPhrases resolve to the general provisions section.
var categoryPhrases = []string{
	"artificial flavor",
	"artificial flavors",
	"natural flavor",
	"natural flavors",
	"natural and artificial flavor",
	"natural and artificial flavors",
	"artificial colors",
	"artificial color",
	"natural colors",
	"natural color",
	"preservatives",
	"preservative",
}

// Codes returns the CFR codes for substance, or an empty slice.
//
// Category phrases ("natural flavors", "preservative" and so on) map to
// 170.3, by exact phrase and then by containment either way. Basic
// ingredients such as sugar or water never have codes. Otherwise the
// upper-cased name is looked up directly and then against every indexed name
// that contains it or is contained in it, provided the term has at least four
// characters and the shorter name is at least 60% of the longer one's length.
// Indexed names are scanned in sorted order.
func (x *Index) Codes(substance string) []string {
	term := strings.TrimSpace(substance)
	if term == "" {
		return []string{}
	}
	lower := strings.ToLower(term)

	for _, p := range categoryPhrases {
		if lower == p {
			return []string{GeneralProvisionsCode}
		}
	}
	for _, p := range categoryPhrases {
		if strings.Contains(lower, p) || strings.Contains(p, lower) {
			return []string{GeneralProvisionsCode}
		}
	}

	if additive.IsBasicIngredient(term) || x == nil {
		return []string{}
	}

	upper := strings.ToUpper(term)
	if codes, ok := x.codes[upper]; ok {
		return append([]string(nil), codes...)
	}
	for _, key := range x.keys {
		if !strings.Contains(key, upper) && !strings.Contains(upper, key) {
			continue
		}
		if relevantOverlap(upper, key) {
			return append([]string(nil), x.codes[key]...)
		}
	}
	return []string{}
}

func relevantOverlap(term, key string) bool {
	tl := utf8.RuneCountInString(term)
	if tl < fuzzyMinTermLen {
		return false
	}
	kl := utf8.RuneCountInString(key)
	shorter, longer := tl, kl
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	return float64(shorter)/float64(longer) >= fuzzyMinLenRatio
}
