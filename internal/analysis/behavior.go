package analysis

// behavior derives descriptive loyalty and binge tags per artist from
// the completed aggregation. Loyalty is the share of observed months in
// which the artist scored at all; the binge index is how much of the
// artist's all-time score landed in their single biggest month.
func (r *Run) behavior() (loyalty, binge map[string]float64) {
	loyalty = make(map[string]float64, len(r.artistMonths))
	binge = make(map[string]float64, len(r.artistMonths))

	totalMonths := len(r.monthly)
	if totalMonths == 0 {
		return loyalty, binge
	}

	for artist, months := range r.artistMonths {
		loyalty[artist] = float64(len(months)) / float64(totalMonths)
	}

	for artist, allTime := range r.global.artistScores {
		if allTime <= 0 {
			continue
		}
		var peak float64
		for _, b := range r.monthly {
			if s := b.artistScores[artist]; s > peak {
				peak = s
			}
		}
		binge[artist] = peak / allTime
	}

	return loyalty, binge
}

// peakHours returns, per artist, the hour of day (UTC) with the most
// listens.
func (r *Run) peakHours() map[string]int {
	out := make(map[string]int, len(r.artistHours))
	for artist, hours := range r.artistHours {
		best := 0
		for h := 1; h < 24; h++ {
			if hours[h] > hours[best] {
				best = h
			}
		}
		out[artist] = best
	}
	return out
}
