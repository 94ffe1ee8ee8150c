package analysis

import (
	"math"
	"sort"
)

// bucket accumulates FLE per track and per artist for one period.
// Insertion order is kept so that ranking ties resolve stably by first
// accumulation, which is an observable property of the output.
type bucket struct {
	trackScores  map[TrackID]float64
	trackOrder   []TrackID
	artistScores map[string]float64
	artistOrder  []string
}

func newBucket() *bucket {
	return &bucket{
		trackScores:  make(map[TrackID]float64),
		artistScores: make(map[string]float64),
	}
}

func (b *bucket) addTrack(id TrackID, fle float64) {
	if _, ok := b.trackScores[id]; !ok {
		b.trackOrder = append(b.trackOrder, id)
	}
	b.trackScores[id] += fle
}

func (b *bucket) addArtist(artist string, fle float64) {
	if _, ok := b.artistScores[artist]; !ok {
		b.artistOrder = append(b.artistOrder, artist)
	}
	b.artistScores[artist] += fle
}

// topArtists returns up to n artists by descending score, ties stable
// by discovery order.
func (b *bucket) topArtists(n int) []string {
	ranked := make([]string, len(b.artistOrder))
	copy(ranked, b.artistOrder)
	sort.SliceStable(ranked, func(i, j int) bool {
		return b.artistScores[ranked[i]] > b.artistScores[ranked[j]]
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func (b *bucket) topTracks(n int) []TrackID {
	ranked := make([]TrackID, len(b.trackOrder))
	copy(ranked, b.trackOrder)
	sort.SliceStable(ranked, func(i, j int) bool {
		return b.trackScores[ranked[i]] > b.trackScores[ranked[j]]
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// summarize produces one bucket's ranked lists. loyalty is attached to
// every artist entry; binge and peakHours only apply to the all-time
// bucket and may be nil.
func (r *Run) summarize(b *bucket, topN int, loyalty, binge map[string]float64, peakHours map[string]int) *PeriodSummary {
	s := &PeriodSummary{}

	for _, artist := range b.topArtists(topN) {
		ra := RankedArtist{
			Name:         r.displayArtist(artist),
			Score:        b.artistScores[artist],
			LoyaltyScore: loyalty[artist],
		}
		if binge != nil {
			ra.BingeIndex = binge[artist]
		}
		if peakHours != nil {
			ra.PeakHour = peakHours[artist]
		}
		s.Artists = append(s.Artists, ra)
	}

	for _, id := range b.topTracks(topN) {
		name := r.display[id]
		s.Songs = append(s.Songs, RankedSong{
			Name:   name.track,
			Artist: name.artist,
			Score:  b.trackScores[id],
		})
	}

	return s
}

// displayArtist recovers the first-seen display name for a lowercased
// artist key.
func (r *Run) displayArtist(artist string) string {
	if name, ok := r.artistDisplay[artist]; ok {
		return name
	}
	return artist
}

// entropy is the Shannon entropy in bits of a score distribution: a
// pure diversity measure, high when listening is spread across many
// artists.
func entropy(scores map[string]float64) float64 {
	var total float64
	for _, s := range scores {
		total += s
	}
	if total == 0 {
		return 0
	}

	var bits float64
	for _, s := range scores {
		if s <= 0 {
			continue
		}
		p := s / total
		bits -= p * math.Log2(p)
	}
	return bits
}

func (r *Run) monthlyEntropy() map[string]float64 {
	out := make(map[string]float64, len(r.monthly))
	for month, b := range r.monthly {
		out[month] = entropy(b.artistScores)
	}
	return out
}
