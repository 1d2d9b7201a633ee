package additive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeChemicalName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2-methyl-1-propanol", "methyl-propanol"},
		{"citric acid", "citric acid"},
		{"  mono   and  diglycerides ", "mono and diglycerides"},
		{"propanoic-2", "propanoic"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeChemicalName(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeChemicalName(got), "normalization must be idempotent")
		})
	}
}

func TestIsExactMatch(t *testing.T) {
	assert.True(t, IsExactMatch(" Citric Acid ", "CITRIC ACID"))
	assert.False(t, IsExactMatch("citric", "CITRIC ACID"))
}

func TestIsPartialMatch(t *testing.T) {
	rec := &SubstanceRecord{
		Substance:  "MONO- AND DIGLYCERIDES",
		OtherNames: "GLYCERYL MONOSTEARATE| |DISTILLED MONOGLYCERIDES",
	}

	t.Run("containment", func(t *testing.T) {
		assert.True(t, IsPartialMatch("diglycerides", rec))
		assert.True(t, IsPartialMatch("mono- and diglycerides of fatty acids", rec))
	})
	t.Run("alias containment", func(t *testing.T) {
		assert.True(t, IsPartialMatch("glyceryl monostearate", rec))
		assert.True(t, IsPartialMatch("monoglycerides", rec))
	})
	t.Run("word overlap", func(t *testing.T) {
		r := &SubstanceRecord{Substance: "SODIUM ALUMINUM PHOSPHATE"}
		assert.True(t, IsPartialMatch("phosphate aluminum sodium", r))
		assert.False(t, IsPartialMatch("sodium chloride", r))
	})
	t.Run("normalized alias", func(t *testing.T) {
		r := &SubstanceRecord{Substance: "ISOBUTANOL", OtherNames: "2-METHYL-1-PROPANOL"}
		assert.True(t, IsPartialMatch("methyl-propanol", r))
	})
	t.Run("blank alias tokens never match", func(t *testing.T) {
		r := &SubstanceRecord{Substance: "GUAR GUM", OtherNames: "| |"}
		assert.False(t, IsPartialMatch("xanthan", r))
	})
}

func TestWordOverlap(t *testing.T) {
	assert.True(t, wordOverlap("red beet juice", "beet juice red"))
	assert.False(t, wordOverlap("beet", "beet"), "one shared word is not enough")
	assert.False(t, wordOverlap("a b c", "a b x y"))
	assert.False(t, wordOverlap("", ""))
}

func TestBest_FirstMaximumWins(t *testing.T) {
	rec := testRecord("CALCIUM PROPIONATE", "", "PRESERVATIVE")
	catalog := NewCatalog(testDim, []SubstanceRecord{rec, rec})
	r := NewResolver(catalog, DefaultResolverConfig(), nil)

	best, found := r.Best("calcium propionate")
	require.True(t, found)
	assert.Equal(t, 0, best.Index)
}

func TestBest_NonPositiveScoreNeverWins(t *testing.T) {
	rec := SubstanceRecord{Substance: "X", Embedding: make([]float32, testDim)}
	r := NewResolver(NewCatalog(testDim, []SubstanceRecord{rec}), DefaultResolverConfig(), nil)

	_, found := r.Best("something unrelated")
	assert.False(t, found)
}

func TestDecide_ThresholdBoundary(t *testing.T) {
	rec := &SubstanceRecord{Substance: "LECITHIN"}

	res, ok := Decide("lecithin", Candidate{Record: rec, Score: 0.244}, true, DefaultThreshold)
	require.True(t, ok)
	assert.Equal(t, MethodSearch, res.Method)
	assert.Equal(t, ConfidenceLow, res.Confidence)

	_, ok = Decide("lecithin", Candidate{Record: rec, Score: 0.2439}, true, DefaultThreshold)
	assert.False(t, ok)

	_, ok = Decide("lecithin", Candidate{}, false, DefaultThreshold)
	assert.False(t, ok)
}

func TestConfidenceFor(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, ConfidenceFor(0.7))
	assert.Equal(t, ConfidenceHigh, ConfidenceFor(1.5))
	assert.Equal(t, ConfidenceMedium, ConfidenceFor(0.5))
	assert.Equal(t, ConfidenceMedium, ConfidenceFor(0.69))
	assert.Equal(t, ConfidenceLow, ConfidenceFor(0.4999))
}
