package additive

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCase is not safe for concurrent use, so every call builds its own.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func isAllCaps(s string) bool {
	return s == strings.ToUpper(s)
}

func displayName(s string) string {
	if isAllCaps(s) {
		return titleCase(s)
	}
	return s
}

// FormatChemicalName title-cases a name stored in capitals and leaves mixed
// case alone.
func FormatChemicalName(name string) string {
	return displayName(strings.TrimSpace(name))
}

// FormatTechnicalEffect renders a "|" separated effect list as prose:
// "a", "a and b", "a, b, and c".
func FormatTechnicalEffect(effect string) string {
	parts := splitPipe(effect)
	for i := range parts {
		parts[i] = displayName(parts[i])
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
	}
}

// FormatOtherNames renders the alternate names as a comma separated list,
// leaving out the substance's own name.
func FormatOtherNames(otherNames, substance string) string {
	self := strings.ToLower(substance)
	var names []string
	for _, n := range splitPipe(otherNames) {
		if strings.ToLower(n) == self {
			continue
		}
		names = append(names, displayName(n))
	}
	return strings.Join(names, ", ")
}
