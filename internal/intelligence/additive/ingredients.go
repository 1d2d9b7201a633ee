package additive

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var basicIngredients = map[string]struct{}{
	"sugar": {}, "cane sugar": {}, "brown sugar": {}, "white sugar": {}, "granulated sugar": {},
	"flour": {}, "wheat flour": {}, "water": {}, "salt": {}, "oil": {}, "milk": {}, "eggs": {}, "butter": {},
	"honey": {}, "molasses": {}, "corn syrup": {}, "rice": {}, "oats": {}, "barley": {},
}

// IsBasicIngredient reports whether s names a staple food that is never an
// additive (sugar, flour, water and so on).
func IsBasicIngredient(s string) bool {
	_, ok := basicIngredients[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

var (
	reLeadingAnd = regexp.MustCompile(`^\s*AND\s+`)

	reListNumber = regexp.MustCompile(`^[\d]+[.)]\s*`)
	reListBullet = regexp.MustCompile(`^[-*•]\s*`)
	reListLabel  = regexp.MustCompile(`(?i)^(Additive|Chemical|Preservative|Emulsifier|Color|Stabilizer):\s*`)
)

var labelMarkers = []string{"INGREDIENTS:", "CONTAINS:"}

// CleanLabelText tidies text read off a package: whitespace is collapsed,
// anything before an "INGREDIENTS:" or "CONTAINS:" marker is dropped and the
// result is upper-cased.
func CleanLabelText(text string) string {
	cleaned := strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))
	upper := strings.ToUpper(cleaned)
	for _, marker := range labelMarkers {
		if idx := strings.Index(upper, marker); idx >= 0 {
			cleaned = strings.TrimSpace(upper[idx+len(marker):])
			break
		}
	}
	return strings.ToUpper(cleaned)
}

// SplitIngredients splits an ingredient list on commas and parentheses.
// A leading "AND " is removed from each item and single characters are
// dropped.
func SplitIngredients(text string) []string {
	text = strings.NewReplacer("(", ",", ")", ",").Replace(text)
	var out []string
	for _, part := range strings.Split(text, ",") {
		part = reLeadingAnd.ReplaceAllString(strings.TrimSpace(part), "")
		if utf8.RuneCountInString(part) > 1 {
			out = append(out, part)
		}
	}
	return out
}

var parentheticalDescriptors = []string{"contains", "including", "such as"}

// ExpandParenthetical splits a composite additive such as
// "SPICES (PAPRIKA, AND TURMERIC)" into the main name and the names inside the
// parentheses. The main name is left out when it only introduces the list
// ("contains", "including", "such as"). Text without parentheses is returned
// as the only element.
func ExpandParenthetical(text string) []string {
	open := strings.Index(text, "(")
	closing := strings.LastIndex(text, ")")
	if open < 0 || closing < 0 {
		return []string{text}
	}

	var out []string
	main := strings.TrimSpace(text[:open])
	mainLower := strings.ToLower(main)
	keep := main != ""
	for _, d := range parentheticalDescriptors {
		if strings.Contains(mainLower, d) {
			keep = false
			break
		}
	}
	if keep {
		out = append(out, main)
	}

	if open+1 < closing {
		for _, part := range strings.Split(text[open+1:closing], ",") {
			part = reLeadingAnd.ReplaceAllString(strings.TrimSpace(part), "")
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

var (
	noAdditiveMarkers = []string{"NONE", "NO ADDITIVES", "NO FOOD ADDITIVES"}
	listHeaderWords   = []string{
		"following", "additives", "identified", "found", "list",
		"includes", "contains", "ingredients", "analysis", "none",
		"food additive", "chemical", "preservative", "emulsifier",
	}
)

const listHeaderMaxLen = 30

// ParseCandidateList extracts additive names from a line-per-item list such
// as a model or OCR response. Numbering, bullets and "Additive:" style labels
// are removed, short header lines are skipped and a parenthetical tail is
// dropped. The result is sorted and free of duplicates; a response that says
// there are none yields nothing.
func ParseCandidateList(response string) []string {
	trimmed := strings.TrimSpace(response)
	upper := strings.ToUpper(trimmed)
	if trimmed == "" {
		return nil
	}
	for _, m := range noAdditiveMarkers {
		if strings.Contains(upper, m) {
			return nil
		}
	}

	normalized := strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(trimmed)
	seen := make(map[string]struct{})
	for _, line := range strings.Split(normalized, "\n") {
		cleaned := strings.TrimSpace(line)
		if cleaned == "" {
			continue
		}
		cleaned = reListNumber.ReplaceAllString(cleaned, "")
		cleaned = reListBullet.ReplaceAllString(cleaned, "")
		cleaned = reListLabel.ReplaceAllString(cleaned, "")
		cleaned = strings.TrimSpace(cleaned)

		if isListHeader(cleaned) {
			continue
		}
		if utf8.RuneCountInString(cleaned) < 2 {
			continue
		}
		if strings.Contains(cleaned, "(") && strings.Contains(cleaned, ")") {
			main := strings.TrimSpace(cleaned[:strings.Index(cleaned, "(")])
			if utf8.RuneCountInString(main) < 2 {
				continue
			}
			cleaned = main
		}
		seen[cleaned] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func isListHeader(line string) bool {
	lower := strings.ToLower(line)
	if utf8.RuneCountInString(lower) >= listHeaderMaxLen {
		return false
	}
	for _, w := range listHeaderWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
