package testutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/additive-lens/internal/intelligence/additive"
)

// FixtureDim is the embedding dimension of the fixture catalog.
const FixtureDim = 64

// FixtureRecord is one catalog row before encoding.
type FixtureRecord struct {
	Substance       string
	OtherNames      string
	TechnicalEffect string
}

// FixtureRecords is a small catalog covering the direct, alias and color
// paths.
var FixtureRecords = []FixtureRecord{
	{"SODIUM BENZOATE", "BENZOATE OF SODA|E211", "ANTIMICROBIAL AGENT|PRESERVATIVE"},
	{"FD&C RED NO. 40", "ALLURA RED AC|RED 40", "COLOR ADDITIVE"},
	{"FD&C YELLOW NO. 5", "TARTRAZINE|YELLOW 5", "COLOR ADDITIVE"},
	{"CITRIC ACID", "2-HYDROXY-1,2,3-PROPANETRICARBOXYLIC ACID", "ACIDIFIER|FLAVORING AGENT|SEQUESTRANT"},
	{"ASCORBIC ACID", "VITAMIN C|L-ASCORBIC ACID", "NUTRIENT|ANTIOXIDANT"},
	{"XANTHAN GUM", "CORN SUGAR GUM", "STABILIZER|THICKENER"},
}

// FixtureCodes are the regulation codes written by RegulationCSV when no rows
// are given.
var FixtureCodes = map[string][]string{
	"SODIUM BENZOATE": {"184.1733"},
	"FD&C RED NO. 40": {"74.340", "74.1340"},
	"CITRIC ACID":     {"182.1033", "184.1033"},
	"XANTHAN GUM":     {"172.695"},
}

type catalogDoc struct {
	EmbeddingDimension int          `json:"embedding_dimension"`
	TotalRecords       int          `json:"total_records"`
	Data               []catalogRow `json:"data"`
}

type catalogRow struct {
	Substance       string    `json:"substance"`
	OtherNames      string    `json:"other_names"`
	TechnicalEffect string    `json:"technical_effect"`
	SearchableText  string    `json:"searchable_text"`
	Embedding       []float32 `json:"embedding"`
}

// CatalogJSON renders records as a catalog document with embeddings produced
// by the lexical encoder, so search-path tests see realistic similarities.
func CatalogJSON(t testing.TB, records []FixtureRecord) []byte {
	t.Helper()
	enc := additive.NewEncoder(FixtureDim)
	doc := catalogDoc{EmbeddingDimension: FixtureDim, TotalRecords: len(records)}
	for _, r := range records {
		doc.Data = append(doc.Data, catalogRow{
			Substance:       r.Substance,
			OtherNames:      r.OtherNames,
			TechnicalEffect: r.TechnicalEffect,
			SearchableText:  strings.ToLower(r.Substance + " " + strings.ReplaceAll(r.OtherNames, "|", " ")),
			Embedding:       enc.Encode(r.Substance),
		})
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

// RegulationCSV renders rows in the layout of the FDA export: eight preamble
// lines, the header on line nine, then one row per substance.
func RegulationCSV(rows map[string][]string) []byte {
	if rows == nil {
		rows = FixtureCodes
	}
	var b bytes.Buffer
	for i := 0; i < 8; i++ {
		b.WriteString("Substances Added to Food (formerly EAFUS),,,,\n")
	}
	b.WriteString("CAS Reg No (or other ID),Substance,Other Names,Reg add01,Reg add02\r\n")

	names := make([]string, 0, len(rows))
	for name := range rows {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		codes := append([]string{}, rows[name]...)
		for len(codes) < 2 {
			codes = append(codes, "")
		}
		b.WriteString(`"0000-00-0","` + name + `","",` + codes[0] + "," + codes[1] + "\r\n")
	}
	return b.Bytes()
}

// WriteFixtureAssets writes the fixture catalog and regulation CSV into a
// temporary directory and returns it.
func WriteFixtureAssets(t testing.TB) string {
	t.Helper()
	return WriteAssets(t, CatalogJSON(t, FixtureRecords), RegulationCSV(nil))
}

// WriteAssets writes catalog.json and regulations.csv with the given
// contents into a temporary directory and returns it.
func WriteAssets(t testing.TB, catalog, regulations []byte) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.json"), catalog, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "regulations.csv"), regulations, 0o644))
	return dir
}
