package additive

import (
	"encoding/json"
	"io"

	"github.com/turtacn/additive-lens/pkg/errors"
)

// Catalog is the ordered, read-only set of substance records together with
// the embedding dimension they share. Scan order is record order, and ties in
// every lookup are broken in favour of the earlier record.
type Catalog struct {
	records []SubstanceRecord
	dim     int
	stats   LoadStats
}

// LoadStats describes what happened while a catalog was parsed.
type LoadStats struct {
	Dimension     int `json:"dimension"`
	DeclaredTotal int `json:"declared_total"`
	Loaded        int `json:"loaded"`
	Skipped       int `json:"skipped"`
}

type rawCatalog struct {
	EmbeddingDimension *int              `json:"embedding_dimension"`
	TotalRecords       int               `json:"total_records"`
	Data               []json.RawMessage `json:"data"`
}

type rawRecord struct {
	Substance       *string   `json:"substance"`
	OtherNames      *string   `json:"other_names"`
	TechnicalEffect *string   `json:"technical_effect"`
	SearchableText  *string   `json:"searchable_text"`
	Embedding       []float64 `json:"embedding"`
}

// LoadCatalog decodes a catalog document:
//
//	{"embedding_dimension": 384, "total_records": 2, "data": [{"substance": ..., "embedding": [...]}]}
//
// A row that fails to decode, lacks a field or whose embedding length differs
// from embedding_dimension is skipped and counted. A document that is not
// valid JSON or declares no positive dimension fails with CodeCatalogLoad.
// total_records is advisory and never checked against the parsed count.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var raw rawCatalog
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, errors.CodeCatalogLoad, "decode catalog document")
	}
	if raw.EmbeddingDimension == nil || *raw.EmbeddingDimension <= 0 {
		return nil, errors.New(errors.CodeCatalogLoad, "catalog declares no positive embedding_dimension")
	}
	dim := *raw.EmbeddingDimension

	records := make([]SubstanceRecord, 0, len(raw.Data))
	skipped := 0
	for _, item := range raw.Data {
		rec, ok := decodeRecord(item, dim)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	return &Catalog{
		records: records,
		dim:     dim,
		stats: LoadStats{
			Dimension:     dim,
			DeclaredTotal: raw.TotalRecords,
			Loaded:        len(records),
			Skipped:       skipped,
		},
	}, nil
}

func decodeRecord(item json.RawMessage, dim int) (SubstanceRecord, bool) {
	var rr rawRecord
	if err := json.Unmarshal(item, &rr); err != nil {
		return SubstanceRecord{}, false
	}
	if rr.Substance == nil || rr.OtherNames == nil || rr.TechnicalEffect == nil ||
		rr.SearchableText == nil || rr.Embedding == nil {
		return SubstanceRecord{}, false
	}
	if len(rr.Embedding) != dim {
		return SubstanceRecord{}, false
	}
	emb := make([]float32, dim)
	for i, v := range rr.Embedding {
		emb[i] = float32(v)
	}
	return SubstanceRecord{
		Substance:       *rr.Substance,
		OtherNames:      *rr.OtherNames,
		TechnicalEffect: *rr.TechnicalEffect,
		SearchableText:  *rr.SearchableText,
		Embedding:       emb,
	}, true
}

// NewCatalog builds a catalog from records already in memory. Records whose
// embedding length is not dim are dropped, the same as during LoadCatalog.
func NewCatalog(dim int, records []SubstanceRecord) *Catalog {
	kept := make([]SubstanceRecord, 0, len(records))
	for _, rec := range records {
		if dim <= 0 || len(rec.Embedding) != dim {
			continue
		}
		rec.Embedding = cloneVector(rec.Embedding)
		kept = append(kept, rec)
	}
	return &Catalog{
		records: kept,
		dim:     dim,
		stats: LoadStats{
			Dimension:     dim,
			DeclaredTotal: len(records),
			Loaded:        len(kept),
			Skipped:       len(records) - len(kept),
		},
	}
}

// EmptyCatalog returns a catalog with no records. Lookups against it only
// succeed through the flavor table.
func EmptyCatalog() *Catalog {
	return &Catalog{}
}

// Ready reports whether the catalog holds at least one usable record.
func (c *Catalog) Ready() bool {
	return c != nil && len(c.records) > 0
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// Dimension returns the shared embedding dimension.
func (c *Catalog) Dimension() int {
	if c == nil {
		return 0
	}
	return c.dim
}

// Stats returns load statistics.
func (c *Catalog) Stats() LoadStats {
	if c == nil {
		return LoadStats{}
	}
	return c.stats
}

// Record returns the i-th record.
func (c *Catalog) Record(i int) (SubstanceRecord, bool) {
	if c == nil || i < 0 || i >= len(c.records) {
		return SubstanceRecord{}, false
	}
	return c.records[i], true
}

// Substances lists the canonical names in catalog order.
func (c *Catalog) Substances() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.records))
	for i := range c.records {
		out[i] = c.records[i].Substance
	}
	return out
}

func cloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
