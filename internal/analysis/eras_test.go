package analysis

import (
	"fmt"
	"testing"
	"time"

	"github.com/ademuri/spotify-history-tools/internal/history"
)

// monthOfListening emits count plays of one track in the given month,
// spaced far enough apart that nothing fuses.
func monthOfListening(year int, month time.Month, count int, track, artist string) []history.RawEvent {
	events := make([]history.RawEvent, 0, count)
	base := time.Date(year, month, 3, 10, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		ts := base.Add(time.Duration(i) * time.Hour).Format("2006-01-02T15:04:05Z")
		events = append(events, musicEvent(ts, 240000, track, artist))
	}
	return events
}

func TestEraSegmentationSplitsOnTasteShift(t *testing.T) {
	var events []history.RawEvent
	for m := time.January; m <= time.March; m++ {
		events = append(events, monthOfListening(2019, m, 10, "Song A", "Artist A")...)
	}
	for m := time.April; m <= time.June; m++ {
		events = append(events, monthOfListening(2019, m, 10, "Song B", "Artist B")...)
	}

	run := NewRun()
	run.Collect(events)
	report := run.Report(10)

	eras := report.Intelligence.Eras
	if len(eras) != 2 {
		t.Fatalf("Expected 2 eras, got %d: %v", len(eras), eras)
	}

	if eras[0].Start != "2019-01" || eras[0].End != "2019-03" || eras[0].Artist != "Artist A" {
		t.Errorf("First era = %+v, want 2019-01..2019-03 by Artist A", eras[0])
	}
	if eras[1].Start != "2019-04" || eras[1].End != "2019-06" || eras[1].Artist != "Artist B" {
		t.Errorf("Second era = %+v, want 2019-04..2019-06 by Artist B", eras[1])
	}
}

func TestStableTasteIsOneEra(t *testing.T) {
	var events []history.RawEvent
	for m := time.January; m <= time.June; m++ {
		events = append(events, monthOfListening(2019, m, 10, "Song A", "Artist A")...)
	}

	run := NewRun()
	run.Collect(events)
	report := run.Report(10)

	if got := len(report.Intelligence.Eras); got != 1 {
		t.Fatalf("Expected 1 era, got %d", got)
	}
	era := report.Intelligence.Eras[0]
	if era.Start != "2019-01" || era.End != "2019-06" {
		t.Errorf("Era = %+v, want 2019-01..2019-06", era)
	}
}

func TestKlDivergenceOfIdenticalDistributionsIsZero(t *testing.T) {
	p := map[string]float64{"a": 3, "b": 1}
	if got := klDivergence(p, p); !approx(got, 0) {
		t.Errorf("klDivergence(p, p) = %v, want 0", got)
	}
}

func TestKlDivergenceIsAsymmetric(t *testing.T) {
	p := map[string]float64{"a": 10}
	q := map[string]float64{"a": 5, "b": 5}
	if klDivergence(p, q) == klDivergence(q, p) {
		t.Errorf("Expected asymmetric divergence for %v and %v", p, q)
	}
}

func TestDominantArtistTieBreaksLexicographically(t *testing.T) {
	scores := map[string]float64{"zeta": 2, "alpha": 2, "mid": 1}
	if got := dominantArtist(scores); got != "alpha" {
		t.Errorf("dominantArtist = %q, want %q", got, "alpha")
	}
}

func TestMonthlyEntropy(t *testing.T) {
	// Two artists with equal weight in one month: exactly one bit.
	var events []history.RawEvent
	events = append(events, monthOfListening(2019, time.January, 5, "Song A", "Artist A")...)
	events = append(events, monthOfListening(2019, time.January, 5, "Song B", "Artist B")...)

	run := NewRun()
	run.Collect(events)
	report := run.Report(10)

	got, ok := report.Intelligence.Entropy["2019-01"]
	if !ok {
		t.Fatalf("No entropy recorded for 2019-01: %v", report.Intelligence.Entropy)
	}
	if !approx(got, 1.0) {
		t.Errorf("Entropy = %v, want 1.0", got)
	}
	if summary := report.Monthly["2019-01"]; summary == nil || !approx(summary.Entropy, 1.0) {
		t.Errorf("Monthly summary entropy = %+v, want 1.0", summary)
	}
}

func TestLoyaltyAndBinge(t *testing.T) {
	var events []history.RawEvent
	// Artist A plays in all four months, Artist B only in January.
	for m := time.January; m <= time.April; m++ {
		events = append(events, monthOfListening(2019, m, 5, "Song A", "Artist A")...)
	}
	events = append(events, monthOfListening(2019, time.January, 5, "Song B", "Artist B")...)

	run := NewRun()
	run.Collect(events)
	report := run.Report(10)

	byName := make(map[string]RankedArtist)
	for _, a := range report.AllTime.Artists {
		byName[a.Name] = a
	}

	if a := byName["Artist A"]; !approx(a.LoyaltyScore, 1.0) {
		t.Errorf("Artist A loyalty = %v, want 1.0", a.LoyaltyScore)
	}
	if b := byName["Artist B"]; !approx(b.LoyaltyScore, 0.25) {
		t.Errorf("Artist B loyalty = %v, want 0.25", b.LoyaltyScore)
	}

	// A's listening is spread evenly; B's is all in one month.
	if a := byName["Artist A"]; !approx(a.BingeIndex, 0.25) {
		t.Errorf("Artist A binge index = %v, want 0.25", a.BingeIndex)
	}
	if b := byName["Artist B"]; !approx(b.BingeIndex, 1.0) {
		t.Errorf("Artist B binge index = %v, want 1.0", b.BingeIndex)
	}
}

func TestPeakHour(t *testing.T) {
	var events []history.RawEvent
	for i, hour := range []int{22, 22, 22, 9} {
		ts := fmt.Sprintf("2019-01-%02dT%02d:00:00Z", i+1, hour)
		events = append(events, musicEvent(ts, 240000, "Song", "Night Owl"))
	}

	run := NewRun()
	run.Collect(events)
	report := run.Report(10)

	if got := report.AllTime.Artists[0].PeakHour; got != 22 {
		t.Errorf("PeakHour = %d, want 22", got)
	}
}
