package additive

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestEncode_EmptyTextIsZeroVector(t *testing.T) {
	e := NewEncoder(16)
	for _, text := range []string{"", "   ", "\t\n"} {
		v := e.Encode(text)
		require.Len(t, v, 16)
		assert.Zero(t, magnitude(v))
	}
}

func TestEncode_NonPositiveDimension(t *testing.T) {
	assert.Empty(t, NewEncoder(0).Encode("citric acid"))
	assert.Empty(t, NewEncoder(-3).Encode("citric acid"))
}

func TestEncode_UnitLengthAndDeterministic(t *testing.T) {
	e := NewEncoder(384)
	a := e.Encode("Sodium Benzoate")
	b := e.Encode("sodium   benzoate")

	require.Len(t, a, 384)
	assert.InDelta(t, 1.0, magnitude(a), 1e-5)
	assert.Equal(t, a, b, "case and spacing must not change the fingerprint")
}

func TestEncode_SingleWordFeatures(t *testing.T) {
	e := NewEncoder(64)
	v := e.Encode("a")

	// "a": sin(9.7) at index 0 and tanh(0.1) at index 7, before normalization.
	s := float32(math.Sin(9.7))
	l := float32(math.Tanh(0.1))
	norm := float32(math.Sqrt(float64(s*s + l*l)))
	assert.InDelta(t, s/norm, v[0], 1e-6)
	assert.InDelta(t, l/norm, v[7], 1e-6)
}

func TestEncode_ChemicalPatternFeature(t *testing.T) {
	e := NewEncoder(64)
	// one word: four character features, length at 4*7, "ate" at 1*23
	v := e.Encode("bate")
	raw := make([]float32, 64)
	for j, ch := range "bate" {
		raw[j] += sin32(asciiValue(ch) * 0.1)
	}
	raw[28] += tanh32(0.4)
	raw[23] += 0.5
	normalizeL2(raw)
	for i := range raw {
		assert.InDelta(t, raw[i], v[i], 1e-6, "index %d", i)
	}
}

func TestEncode_MultiWordGolden(t *testing.T) {
	v := NewEncoder(64).Encode("sodium benzoate acid")
	require.Len(t, v, 64)

	// Three words: word weight 1/3, position weights 1, 2/3 and 1/3. Word i
	// writes its characters from i*10 and its suffix features at p*23+i*5.
	want := map[int]float32{
		// sodium, characters at 0..5; "ium" (p=3) lands on 5
		0: -0.3310564, 1: -0.3760948, 2: -0.2057242, 3: -0.3326612, 4: -0.2881478, 5: -0.1873516,
		// benzoate, characters at 10..17; "acid" of word 2 (p=0) lands on 10
		10: 0.0966868, 11: -0.1575824, 12: -0.2521007, 13: -0.0903108,
		14: -0.2507298, 15: -0.0685117, 16: -0.2074376, 17: -0.1575824,
		// acid, characters at 20..23
		20: -0.0342558, 21: -0.0576732, 22: -0.1108870, 23: -0.0685747,
		// "ate" of benzoate (23+5) shares 28 with the length of acid (4*7)
		28: 0.3327569,
		// lengths of sodium (6*7) and benzoate (8*7)
		42: 0.2030879, 56: 0.2511086,
	}
	for i, x := range v {
		if w, ok := want[i]; ok {
			assert.InDelta(t, w, x, 2e-7, "index %d", i)
		} else {
			assert.Zero(t, x, "index %d", i)
		}
	}
}

func TestEncode_NonASCIIContributesLengthOnly(t *testing.T) {
	e := NewEncoder(32)
	v := e.Encode("é")
	// one rune, ascii value 0: the character feature is sin(0) = 0
	assert.Zero(t, v[0])
	assert.InDelta(t, 1.0, v[7], 1e-6)
}

func TestEncode_CountsGraphemeClusters(t *testing.T) {
	e := NewEncoder(32)
	precomposed := e.Encode("caf\u00e9")
	combining := e.Encode("cafe\u0301")

	// four characters either way: the length feature sits at 4*7, not at
	// 5*7 % 32, and nothing is written at a fifth character position
	assert.NotZero(t, combining[28])
	assert.Zero(t, combining[3])
	assert.Zero(t, combining[4])
	for i := range precomposed {
		assert.InDelta(t, precomposed[i], combining[i], 1e-7, "index %d", i)
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 2, 3}
	assert.InDelta(t, 1.0, CosineSimilarity(a, a), 1e-6)
	assert.InDelta(t, -1.0, CosineSimilarity(a, []float32{-1, -2, -3}), 1e-6)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)

	assert.Zero(t, CosineSimilarity(a, []float32{1, 2}))
	assert.Zero(t, CosineSimilarity(nil, nil))
	assert.Zero(t, CosineSimilarity(a, []float32{0, 0, 0}))
}
