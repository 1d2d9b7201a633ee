package additive

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// chemicalPatterns are the substrings that earn a word an extra feature. The
// slice position is part of the feature index, so the order is fixed.
var chemicalPatterns = [...]string{"acid", "ate", "ine", "ium", "ide", "oxy", "meth", "eth", "prop"}

// Encoder turns text into the lexical fingerprint stored with every catalog
// record. It is not a learned embedding: each word contributes sine features
// of its characters, a length feature and chemical-suffix features, and the
// sum is L2-normalized.
//
// All arithmetic is float32 and every product is rounded explicitly so the
// compiler cannot fuse operations; the catalog vectors and the 0.244 match
// threshold were produced with exactly this arithmetic.
type Encoder struct {
	Dim int
}

// NewEncoder returns an encoder for vectors of length dim.
func NewEncoder(dim int) Encoder {
	return Encoder{Dim: dim}
}

// Encode returns the fingerprint of text. Empty or blank text yields the zero
// vector; a non-positive dimension yields an empty vector.
func (e Encoder) Encode(text string) []float32 {
	if e.Dim <= 0 {
		return []float32{}
	}
	vec := make([]float32, e.Dim)

	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return vec
	}

	n := float32(len(words))
	wordWeight := float32(1.0) / n
	for i, word := range words {
		positionWeight := float32(1.0) - float32(float32(i)/n)

		// Characters are grapheme clusters, so "é" is one character whether
		// it is precomposed or written with a combining accent.
		j := 0
		g := uniseg.NewGraphemes(word)
		for g.Next() {
			idx := (j + i*10) % e.Dim
			vec[idx] += float32(float32(sin32(graphemeASCII(g.Runes())*0.1)*wordWeight) * positionWeight)
			j++
		}

		lengthIdx := (j * 7) % e.Dim
		vec[lengthIdx] += float32(tanh32(float32(j)/10.0) * wordWeight)

		for p, pattern := range chemicalPatterns {
			if strings.Contains(word, pattern) {
				vec[(p*23+i*5)%e.Dim] += float32(0.5 * wordWeight)
			}
		}
	}

	normalizeL2(vec)
	return vec
}

// asciiValue is the code point for ASCII characters and 0 for anything else.
func asciiValue(r rune) float32 {
	if r >= 0 && r < utf8.RuneSelf {
		return float32(r)
	}
	return 0
}

// graphemeASCII is asciiValue for a cluster of a single rune and 0 for a
// longer cluster.
func graphemeASCII(cluster []rune) float32 {
	if len(cluster) != 1 {
		return 0
	}
	return asciiValue(cluster[0])
}

func sin32(x float32) float32 {
	return float32(math.Sin(float64(x)))
}

func tanh32(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}

func normalizeL2(vec []float32) {
	var sum float32
	for _, v := range vec {
		sum += float32(v * v)
	}
	magnitude := float32(math.Sqrt(float64(sum)))
	if magnitude <= 0 {
		return
	}
	for i := range vec {
		vec[i] = vec[i] / magnitude
	}
}

// CosineSimilarity returns the cosine of the angle between a and b. It is 0
// when the lengths differ, either vector is empty or has zero magnitude.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float32
	for i := range a {
		dot += float32(a[i] * b[i])
		magA += float32(a[i] * a[i])
		magB += float32(b[i] * b[i])
	}
	normA := float32(math.Sqrt(float64(magA)))
	normB := float32(math.Sqrt(float64(magB)))
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / float32(normA*normB)
}
