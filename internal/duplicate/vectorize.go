package duplicate

import (
	"hash/fnv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// PreviewDimensions is the size of the hashed bag-of-words vector stored
// alongside fingerprints for candidate prefiltering.
const PreviewDimensions = 256

// PreviewVector maps a content preview to a fixed-size term-frequency
// vector: each lower-cased token is hashed into one of the dimensions and
// the result is L2-normalized. Cosine distance between two such vectors
// approximates word-set overlap, which lets a vector index narrow the
// corpus before the exact cascade runs.
func PreviewVector(preview string) []float32 {
	counts := make([]float64, PreviewDimensions)
	for _, w := range strings.Fields(strings.ToLower(preview)) {
		h := fnv.New32a()
		h.Write([]byte(w))
		counts[h.Sum32()%PreviewDimensions]++
	}

	norm := floats.Norm(counts, 2)
	vec := make([]float32, PreviewDimensions)
	if norm == 0 {
		return vec
	}
	floats.Scale(1/norm, counts)
	for i, v := range counts {
		vec[i] = float32(v)
	}
	return vec
}
