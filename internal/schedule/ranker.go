package schedule

import (
	"math"
	"math/rand"
)

// defaultCandidateSample is how many eligible sources the ranker inspects
// per selection when the config leaves it unset.
const defaultCandidateSample = 3

// Ranker prefers sources that look different from recently used footage.
// It scores candidates by mean dissimilarity (1 - cosine similarity) of the
// catalog's coarse color feature vectors against the recency window.
type Ranker struct {
	features map[string][]float64
	sample   int
}

// NewRanker builds a ranker over the given feature vectors. sample bounds
// how many candidates are inspected per selection; <=0 picks the default.
func NewRanker(features map[string][]float64, sample int) *Ranker {
	if sample <= 0 {
		sample = defaultCandidateSample
	}
	return &Ranker{features: features, sample: sample}
}

// Score returns the mean dissimilarity between the candidate and every
// recent source, in [0,1]. A pair with a missing vector or a zero norm
// contributes 0, never maximal dissimilarity.
func (r *Ranker) Score(candidate string, recent []string) float64 {
	if len(recent) == 0 {
		return 0
	}
	cvec, ok := r.features[candidate]
	if !ok || !hasNorm(cvec) {
		return 0
	}
	total := 0.0
	for _, id := range recent {
		rvec, ok := r.features[id]
		if !ok || !hasNorm(rvec) {
			continue
		}
		total += 1 - cosine(cvec, rvec)
	}
	score := total / float64(len(recent))
	return math.Max(0, math.Min(1, score))
}

// Select samples up to the configured number of candidates, scores each
// against the recent set and returns the most dissimilar one, breaking ties
// by first encounter. It degrades to a uniform random pick when there is no
// recent history or no feature vectors to score with.
func (r *Ranker) Select(rng *rand.Rand, candidates, recent []string) string {
	if len(candidates) == 0 {
		return ""
	}
	if len(recent) == 0 || len(r.features) == 0 {
		return candidates[rng.Intn(len(candidates))]
	}

	n := r.sample
	if n > len(candidates) {
		n = len(candidates)
	}
	perm := rng.Perm(len(candidates))

	best := candidates[perm[0]]
	bestScore := r.Score(best, recent)
	for _, idx := range perm[1:n] {
		id := candidates[idx]
		if s := r.Score(id, recent); s > bestScore {
			best, bestScore = id, s
		}
	}
	return best
}

// hasNorm reports whether the vector has any non-zero component.
func hasNorm(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return true
		}
	}
	return false
}

// cosine returns the cosine similarity of two vectors, 0 when either norm
// is zero or the lengths differ.
func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
