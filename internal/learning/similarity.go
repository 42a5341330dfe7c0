package learning

// Weights for combining the two sequence-similarity signals. Positional
// agreement dominates because command order is what makes a workflow.
const (
	jaccardWeight    = 0.4
	positionalWeight = 0.6
)

// DuplicateCheck is the result of comparing a candidate sequence against a
// stored pattern. An exact sequence match short-circuits to similarity 1.0.
type DuplicateCheck struct {
	Exact      bool    `json:"exact"`
	Similarity float64 `json:"similarity"`
}

// CompareSequences scores how alike two command sequences are by combining
// Jaccard similarity of the command sets with positional similarity.
func CompareSequences(a, b []string) DuplicateCheck {
	if sequencesEqual(a, b) {
		return DuplicateCheck{Exact: true, Similarity: 1.0}
	}
	score := jaccardWeight*jaccardSimilarity(a, b) + positionalWeight*positionalSimilarity(a, b)
	return DuplicateCheck{Similarity: score}
}

func sequencesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return len(a) > 0
}

// jaccardSimilarity is |intersection| / |union| over the command sets.
func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, cmd := range a {
		setA[cmd] = true
	}
	setB := make(map[string]bool, len(b))
	for _, cmd := range b {
		setB[cmd] = true
	}

	intersection := 0
	for cmd := range setA {
		if setB[cmd] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// positionalSimilarity is the fraction of positions holding the identical
// command, over the longer sequence.
func positionalSimilarity(a, b []string) float64 {
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 0
	}

	shorter := len(a)
	if len(b) < shorter {
		shorter = len(b)
	}
	matches := 0
	for i := 0; i < shorter; i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(longer)
}
