package analysis

import (
	"sort"
	"time"
)

const (
	// Re-reports of the same track within this window are fragments of
	// one physical play.
	fusionWindow = 1000 * time.Millisecond

	// A reported duration under this share of the reference looks like a
	// logging glitch rather than a short listen.
	glitchShare = 0.15

	// Wall-clock gap bounds that count as evidence of one full play.
	repairGapLow  = 0.8
	repairGapHigh = 1.2

	// Minimum trust for gap repair to be believed.
	repairTrust = 0.5

	// FLE cap: one anomalously long entry (device left open) can't
	// outweigh repeat full listens.
	maxFle = 2.0
)

// score is the chronological repair-and-scoring pass. Listens are
// walked in timestamp order; each decision looks one step back (fusion)
// and one step forward (gap repair). Output is side effects on the
// run's accumulators only.
func (r *Run) score() {
	sort.SliceStable(r.listens, func(i, j int) bool {
		return r.listens[i].Time.Before(r.listens[j].Time)
	})

	var prev *Listen
	for i := range r.listens {
		curr := &r.listens[i]

		// Fragment fusion: same track re-reported almost immediately is
		// the same physical play split by the client. It neither scores
		// nor becomes the new predecessor.
		if prev != nil && prev.ID == curr.ID && curr.Time.Sub(prev.Time) < fusionWindow {
			r.stats.Fused++
			continue
		}

		stats := r.trackStats(curr.ID)
		effective := curr.Ms

		// Gap repair: a near-zero report whose wall-clock gap to the next
		// event matches a full play of known length, for a track whose
		// history shows consistent completion.
		if i+1 < len(r.listens) {
			ref := float64(stats.ReferenceMs)
			gap := float64(r.listens[i+1].Time.Sub(curr.Time).Milliseconds())
			if float64(curr.Ms) < glitchShare*ref &&
				gap > repairGapLow*ref && gap < repairGapHigh*ref &&
				stats.Trust > repairTrust {
				effective = stats.ReferenceMs
				r.stats.Repaired++
			}
		}

		// Too short to count as a listen, but it still advances the
		// predecessor so a following fragment can fuse against it.
		if effective < minListenMs {
			prev = curr
			continue
		}

		fle := float64(effective) / float64(stats.ReferenceMs)
		if fle > maxFle {
			fle = maxFle
		}

		r.accumulate(curr, fle)
		prev = curr
	}
}

// accumulate records one scored listen into the month, year, and
// global buckets, plus the hour-of-day and month-presence indexes.
func (r *Run) accumulate(l *Listen, fle float64) {
	month := monthKey(l.Time)
	year := yearKey(l.Time)

	mb, ok := r.monthly[month]
	if !ok {
		mb = newBucket()
		r.monthly[month] = mb
	}
	yb, ok := r.yearly[year]
	if !ok {
		yb = newBucket()
		r.yearly[year] = yb
	}

	artist := l.ID.Artist
	for _, b := range []*bucket{mb, yb, r.global} {
		b.addTrack(l.ID, fle)
		b.addArtist(artist, fle)
	}

	hours, ok := r.artistHours[artist]
	if !ok {
		hours = new([24]int)
		r.artistHours[artist] = hours
	}
	hours[l.Hour]++

	months, ok := r.artistMonths[artist]
	if !ok {
		months = make(map[string]struct{})
		r.artistMonths[artist] = months
	}
	months[month] = struct{}{}
}
