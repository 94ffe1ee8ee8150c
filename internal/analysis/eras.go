package analysis

import (
	"math"
	"sort"
)

const (
	// Divergence above this many bits closes the open era.
	eraThreshold = 1.3

	// Additive smoothing applied per artist key before comparing
	// distributions, so absent artists never produce log(0).
	eraSmoothing = 0.01
)

// segmentEras walks the months in order, comparing each month's artist
// distribution against the running aggregate of the open era. Comparing
// against the aggregate rather than the previous month makes boundaries
// resistant to single-month noise, at the cost of biasing toward longer
// eras as the aggregate grows. Order matters; the divergence is
// deliberately asymmetric.
func (r *Run) segmentEras() []Era {
	months := make([]string, 0, len(r.monthly))
	for m := range r.monthly {
		months = append(months, m)
	}
	sort.Strings(months)

	if len(months) == 0 {
		return nil
	}

	var eras []Era
	start := months[0]
	prev := months[0]
	aggregate := cloneScores(r.monthly[months[0]].artistScores)

	for _, month := range months[1:] {
		current := r.monthly[month].artistScores

		if klDivergence(current, aggregate) > eraThreshold {
			eras = append(eras, Era{
				Start:  start,
				End:    prev,
				Artist: r.displayArtist(dominantArtist(aggregate)),
			})
			start = month
			aggregate = cloneScores(current)
		} else {
			for artist, score := range current {
				aggregate[artist] += score
			}
		}
		prev = month
	}

	eras = append(eras, Era{
		Start:  start,
		End:    prev,
		Artist: r.displayArtist(dominantArtist(aggregate)),
	})

	return eras
}

// klDivergence computes D(p || q) in bits over the union of artist
// keys, with additive smoothing and renormalization on both sides.
func klDivergence(p, q map[string]float64) float64 {
	keys := make(map[string]struct{}, len(p)+len(q))
	for k := range p {
		keys[k] = struct{}{}
	}
	for k := range q {
		keys[k] = struct{}{}
	}

	var pTotal, qTotal float64
	for k := range keys {
		pTotal += p[k] + eraSmoothing
		qTotal += q[k] + eraSmoothing
	}

	var bits float64
	for k := range keys {
		pk := (p[k] + eraSmoothing) / pTotal
		qk := (q[k] + eraSmoothing) / qTotal
		bits += pk * math.Log2(pk/qk)
	}
	return bits
}

// dominantArtist is the single most-weighted artist in a distribution;
// ties break lexicographically so the label is deterministic.
func dominantArtist(scores map[string]float64) string {
	var best string
	bestScore := math.Inf(-1)
	for artist, score := range scores {
		if score > bestScore || (score == bestScore && artist < best) {
			best = artist
			bestScore = score
		}
	}
	return best
}

func cloneScores(scores map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	return out
}
