// Package regulation maps food substances to the 21 CFR sections that govern
// them and builds eCFR links for those sections.
package regulation

import (
	"bytes"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/turtacn/additive-lens/pkg/errors"
)

const (
	// headerLine is the zero-based line that carries the column names. The
	// lines above it are the publisher's preamble.
	headerLine      = 8
	substanceColumn = "Substance"
)

var codeColumnPrefixes = []string{"Reg add", "Regadd"}

// Index is an immutable substance -> CFR codes table keyed by upper-case
// substance name.
type Index struct {
	codes map[string][]string
	keys  []string
}

// NewIndex builds an index from an in-memory table. Keys are upper-cased and
// empty code lists are dropped.
func NewIndex(entries map[string][]string) *Index {
	idx := &Index{codes: make(map[string][]string, len(entries))}
	for k, v := range entries {
		if len(v) == 0 {
			continue
		}
		idx.codes[strings.ToUpper(k)] = append([]string(nil), v...)
	}
	idx.sortKeys()
	return idx
}

func (x *Index) sortKeys() {
	x.keys = make([]string, 0, len(x.codes))
	for k := range x.codes {
		x.keys = append(x.keys, k)
	}
	sort.Strings(x.keys)
}

// Len returns the number of substances with at least one code.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.codes)
}

// Substances returns the indexed substance names in sorted order.
func (x *Index) Substances() []string {
	if x == nil {
		return nil
	}
	return append([]string(nil), x.keys...)
}

// LoadIndex reads the FDA "Substances Added to Food" CSV export, encoded as
// UTF-8 or Windows-1252. The column names are on line 9; every column whose
// name starts with "Reg add" or "Regadd" holds a code. Cells that are blank, "0" or "n/a" are ignored and substances left
// without codes are not indexed.
func LoadIndex(r io.Reader) (*Index, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRegulationLoad, "read regulation csv")
	}
	content, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(content, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	if len(lines) <= headerLine {
		return nil, errors.Newf(errors.CodeRegulationLoad, "regulation csv has %d lines, header expected on line %d", len(lines), headerLine+1)
	}

	header := ParseLine(lines[headerLine])
	substanceIdx := -1
	for i, h := range header {
		if h == substanceColumn {
			substanceIdx = i
			break
		}
	}
	if substanceIdx < 0 {
		return nil, errors.New(errors.CodeRegulationLoad, "regulation csv has no Substance column")
	}
	var codeCols []int
	for i, h := range header {
		h = strings.TrimSpace(h)
		for _, p := range codeColumnPrefixes {
			if strings.HasPrefix(h, p) {
				codeCols = append(codeCols, i)
				break
			}
		}
	}

	idx := &Index{codes: make(map[string][]string)}
	for _, line := range lines[headerLine+1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cols := ParseLine(line)
		if len(cols) <= substanceIdx {
			continue
		}
		substance := strings.TrimSpace(cols[substanceIdx])
		if substance == "" {
			continue
		}
		var codes []string
		for _, c := range codeCols {
			if c >= len(cols) {
				continue
			}
			code := strings.TrimSpace(cols[c])
			if code == "" || code == "0" || strings.EqualFold(code, "n/a") {
				continue
			}
			codes = append(codes, code)
		}
		if len(codes) > 0 {
			idx.codes[strings.ToUpper(substance)] = codes
		}
	}
	idx.sortKeys()
	return idx, nil
}

// decodeText prefers UTF-8 when the bytes are valid UTF-8; a Windows-1252
// export with accented names practically never is.
func decodeText(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeRegulationLoad, "regulation csv is neither utf-8 nor windows-1252")
	}
	return string(decoded), nil
}

// ParseLine splits one CSV line. A double quote toggles quoting and is not
// kept; commas inside quotes are literal. Each cell is trimmed and a pair of
// surrounding quotes is removed.
func ParseLine(line string) []string {
	var (
		cols   []string
		cur    bytes.Buffer
		quoted bool
	)
	for _, ch := range line {
		switch {
		case ch == '"':
			quoted = !quoted
		case ch == ',' && !quoted:
			cols = append(cols, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	cols = append(cols, cur.String())

	for i, c := range cols {
		c = strings.TrimSpace(c)
		if len(c) >= 2 && strings.HasPrefix(c, `"`) && strings.HasSuffix(c, `"`) {
			c = c[1 : len(c)-1]
		}
		cols[i] = c
	}
	return cols
}
