package retrieval

import "math"

// MMR greedily picks k candidates maximizing
// lambda*sim(query, d) - (1-lambda)*max sim(d, picked).
// cands carry their query similarity in Score. Ties keep the earlier candidate.
func MMR(cands []Candidate, k int, lambda float64) []Candidate {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	if k > len(cands) {
		k = len(cands)
	}

	picked := make([]Candidate, 0, k)
	used := make([]bool, len(cands))
	// maxSim[i] is the highest similarity of candidate i to anything picked so far.
	maxSim := make([]float64, len(cands))
	for i := range maxSim {
		maxSim[i] = math.Inf(-1)
	}

	for len(picked) < k {
		best, bestScore := -1, math.Inf(-1)
		for i, c := range cands {
			if used[i] {
				continue
			}
			score := lambda * c.Score
			if len(picked) > 0 {
				score -= (1 - lambda) * maxSim[i]
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		used[best] = true
		picked = append(picked, cands[best])

		for i, c := range cands {
			if used[i] {
				continue
			}
			if s := Cosine(c.Vector, cands[best].Vector); s > maxSim[i] {
				maxSim[i] = s
			}
		}
	}
	return picked
}
