package duplicate

import "strings"

// JaccardSimilarity computes word-set overlap between two content
// previews: |intersection| / |union| over lower-cased, whitespace-split
// tokens. Identical normalized strings short-circuit to 1; an empty
// string on either side short-circuits to 0.
func JaccardSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	na := normalize(a)
	nb := normalize(b)
	if na == nb {
		return 1
	}

	setA := wordSet(na)
	setB := wordSet(nb)

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}
