package additive

import (
	"regexp"
	"sort"
	"strings"
)

// flavorKnowledge is a fixed answer for flavor phrases, which the catalog
// does not carry.
type flavorKnowledge struct {
	Substance       string
	OtherNames      string
	TechnicalEffect string
}

const (
	naturalFlavorEffect = "Natural flavors are derived from plants, animals, or microorganisms and are used to " +
		"enhance or add taste to food products. They must come from natural sources but can be processed or concentrated."
	artificialFlavorEffect = "Artificial flavors are chemically synthesized compounds that mimic natural flavors. " +
		"They are used to enhance or add taste to food products and are often more consistent and cost-effective " +
		"than natural alternatives."
	mixedFlavorEffect = "A combination of natural flavors (derived from natural sources) and artificial flavors " +
		"(chemically synthesized). This blend allows manufacturers to achieve desired taste profiles while " +
		"balancing cost and consistency."
)

var flavorTable = map[string]flavorKnowledge{
	"natural flavors": {"Natural Flavors", "Natural Flavor, Flavoring", naturalFlavorEffect},
	"natural flavor":  {"Natural Flavor", "Natural Flavors, Flavoring", naturalFlavorEffect},

	"artificial flavors": {"Artificial Flavors", "Artificial Flavor, Artificial Flavoring", artificialFlavorEffect},
	"artificial flavor":  {"Artificial Flavor", "Artificial Flavors, Artificial Flavoring", artificialFlavorEffect},

	"natural and artificial flavors": {"Natural and Artificial Flavors", "Mixed Flavors, Natural & Artificial Flavoring", mixedFlavorEffect},
	"natural and artificial flavor":  {"Natural and Artificial Flavor", "Mixed Flavor, Natural & Artificial Flavoring", mixedFlavorEffect},
}

type colorAlias struct {
	phrase    string
	canonical string
}

// colorAliases maps label shorthand to FD&C catalog names. Order matters for
// the partial scan, see matchColorPartial.
var colorAliases = []colorAlias{
	{"blue 1", "FD&C BLUE NO. 1"},
	{"blue 1 lake", "FD&C BLUE NO. 1, ALUMINUM LAKE"},
	{"blue 1 aluminum lake", "FD&C BLUE NO. 1, ALUMINUM LAKE"},
	{"blue 1 calcium lake", "FD&C BLUE NO. 1, CALCIUM LAKE"},
	{"blue 2", "FD&C BLUE NO. 2"},
	{"blue 2 lake", "FD&C BLUE NO. 2, CALCIUM LAKE"},
	{"blue 2 calcium lake", "FD&C BLUE NO. 2, CALCIUM LAKE"},

	{"yellow 5", "FD&C YELLOW NO. 5"},
	{"yellow 5 lake", "FD&C YELLOW NO. 5, ALUMINUM LAKE"},
	{"yellow 5 aluminum lake", "FD&C YELLOW NO. 5, ALUMINUM LAKE"},
	{"yellow 5 calcium lake", "FD&C YELLOW NO. 5, CALCIUM LAKE"},
	{"yellow 6", "FD&C YELLOW NO. 6"},
	{"yellow 6 lake", "FD&C YELLOW NO. 6, ALUMINUM LAKE"},
	{"yellow 6 aluminum lake", "FD&C YELLOW NO. 6, ALUMINUM LAKE"},
	{"yellow 6 calcium lake", "FD&C YELLOW NO. 6, CALCIUM LAKE"},

	{"red 3", "FD&C RED NO. 3"},
	{"red 40", "FD&C RED NO. 40"},
	{"red 40 lake", "FD&C RED NO. 40, ALUMINUM LAKE"},
	{"red 40 aluminum lake", "FD&C RED NO. 40, ALUMINUM LAKE"},
	{"red 40 calcium lake", "FD&C RED NO. 40, CALCIUM LAKE"},

	{"green 3", "FD&C GREEN NO. 3"},
	{"green 3 lake", "FD&C GREEN NO. 3, ALUMINUM LAKE"},
	{"green 3 aluminum lake", "FD&C GREEN NO. 3, ALUMINUM LAKE"},
	{"green 3 calcium lake", "FD&C GREEN NO. 3, CALCIUM LAKE"},

	{"fd&c blue 1", "FD&C BLUE NO. 1"},
	{"fd&c yellow 5", "FD&C YELLOW NO. 5"},
	{"fd&c red 40", "FD&C RED NO. 40"},
}

var (
	colorTable = func() map[string]string {
		m := make(map[string]string, len(colorAliases))
		for _, a := range colorAliases {
			m[a.phrase] = a.canonical
		}
		return m
	}()

	// longest phrase first, table order within equal lengths
	colorByLengthDesc = sortedColorAliases(func(a, b int) bool { return a > b })
	// shortest phrase first, table order within equal lengths
	colorByLengthAsc = sortedColorAliases(func(a, b int) bool { return a < b })
)

func sortedColorAliases(less func(a, b int) bool) []colorAlias {
	out := make([]colorAlias, len(colorAliases))
	copy(out, colorAliases)
	sort.SliceStable(out, func(i, j int) bool {
		return less(len(out[i].phrase), len(out[j].phrase))
	})
	return out
}

// lookupFlavor returns the fixed knowledge for an exact lowercase phrase.
func lookupFlavor(lower string) (flavorKnowledge, bool) {
	k, ok := flavorTable[lower]
	return k, ok
}

// lookupColor returns the canonical name for an exact lowercase phrase.
func lookupColor(lower string) (string, bool) {
	c, ok := colorTable[lower]
	return c, ok
}

// matchColorPartial finds a color alias by containment. Phrases found inside
// the query are tried first, longest first, so "red 40 lake dye" picks the lake
// variant. Otherwise the shortest phrase containing the query wins.
func matchColorPartial(lower string) (string, bool) {
	if lower == "" {
		return "", false
	}
	for _, a := range colorByLengthDesc {
		if strings.Contains(lower, a.phrase) {
			return a.canonical, true
		}
	}
	for _, a := range colorByLengthAsc {
		if strings.Contains(a.phrase, lower) {
			return a.canonical, true
		}
	}
	return "", false
}

// IsFlavorPhrase reports whether query is one of the fixed flavor phrases.
func IsFlavorPhrase(query string) bool {
	_, ok := lookupFlavor(strings.ToLower(cleanQuery(query)))
	return ok
}

// CanonicalColor returns the FD&C catalog name for a label shorthand such as
// "red 40 lake".
func CanonicalColor(query string) (string, bool) {
	return lookupColor(strings.ToLower(cleanQuery(query)))
}

var preservativeMarker = regexp.MustCompile(`(?i)\(preservative\)`)

// cleanQuery strips the decorations that labels put around additive names.
// The "(preservative)" marker is matched in any case.
func cleanQuery(q string) string {
	q = strings.TrimSpace(q)
	q = preservativeMarker.ReplaceAllString(q, "")
	q = strings.ReplaceAll(q, "(", "")
	q = strings.ReplaceAll(q, ")", "")
	return strings.TrimSpace(q)
}

// CleanQuery returns query with its label decorations removed, as every
// resolution path sees it.
func CleanQuery(query string) string { return cleanQuery(query) }

// QueryKey folds query to the form resolution depends on. Two queries with
// the same key resolve to the same record by the same method; only
// OriginalQuery differs.
func QueryKey(query string) string { return strings.ToLower(cleanQuery(query)) }

// ResolveDirect answers a query from the alias tables and exact catalog names
// without scoring. The flavor table is consulted first and never touches the
// catalog. A color shorthand is replaced by its canonical name before the
// catalog is scanned; aliases are compared with the cleaned query itself.
func (r *Resolver) ResolveDirect(query string) (*MatchResult, bool) {
	cleaned := cleanQuery(query)
	lower := strings.ToLower(cleaned)

	if k, ok := lookupFlavor(lower); ok {
		return &MatchResult{
			OriginalQuery:   cleaned,
			Substance:       k.Substance,
			OtherNames:      k.OtherNames,
			TechnicalEffect: k.TechnicalEffect,
			Method:          MethodFlavor,
			Confidence:      ConfidenceHigh,
		}, true
	}
	if lower == "" {
		return nil, false
	}

	term := cleaned
	if canonical, ok := lookupColor(lower); ok {
		term = canonical
	}
	termLower := strings.ToLower(term)

	for i := range r.catalog.records {
		rec := &r.catalog.records[i]
		if strings.ToLower(rec.Substance) == termLower {
			return r.direct(cleaned, rec), true
		}
		for _, alias := range strings.Split(strings.ToLower(rec.OtherNames), "|") {
			if strings.TrimSpace(alias) == lower {
				return r.direct(cleaned, rec), true
			}
		}
	}
	return nil, false
}

func (r *Resolver) direct(query string, rec *SubstanceRecord) *MatchResult {
	res := resultFromRecord(query, rec, MethodDirect)
	res.Confidence = ConfidenceHigh
	return res
}
