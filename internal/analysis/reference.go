package analysis

// Duration observations at or below this are too noisy to establish a
// reference play length, and effective durations below it never score.
const minListenMs = 5000

// nearCompleteShare of the reference counts as a completed play when
// computing trust.
const nearCompleteShare = 0.8

// buildTrackStats derives a reference duration and trust score per
// canonical track from the whole corpus. This pass must see every
// listen before scoring starts, which is what makes the algorithm
// two-pass rather than streaming.
func (r *Run) buildTrackStats() {
	for _, l := range r.listens {
		if l.Ms <= minListenMs {
			continue
		}
		hist, ok := r.histograms[l.ID]
		if !ok {
			hist = make(map[int64]int)
			r.histograms[l.ID] = hist
		}
		hist[l.Ms]++
	}

	for _, l := range r.listens {
		if _, ok := r.tracks[l.ID]; ok {
			continue
		}
		r.tracks[l.ID] = r.computeTrackStats(l.ID)
	}
}

func (r *Run) computeTrackStats(id TrackID) TrackStats {
	stats := TrackStats{
		ReferenceMs: 1,
		Name:        r.display[id].track,
		Artist:      r.display[id].artist,
	}

	hist := r.histograms[id]
	if len(hist) == 0 {
		return stats
	}

	// Mode of the histogram; ties go to the longer duration so the
	// fuller edition wins as the canonical length.
	var best int64
	bestCount := 0
	total := 0
	for ms, count := range hist {
		total += count
		if count > bestCount || (count == bestCount && ms > best) {
			best = ms
			bestCount = count
		}
	}
	stats.ReferenceMs = best

	nearComplete := 0
	threshold := float64(best) * nearCompleteShare
	for ms, count := range hist {
		if float64(ms) >= threshold {
			nearComplete += count
		}
	}
	stats.Trust = float64(nearComplete) / float64(total)

	return stats
}

// trackStats returns the reference stats for a canonical track,
// defaulting to the degenerate reference for tracks never observed
// above the noise floor.
func (r *Run) trackStats(id TrackID) TrackStats {
	if s, ok := r.tracks[id]; ok {
		return s
	}
	return TrackStats{ReferenceMs: 1}
}
