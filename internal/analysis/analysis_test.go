package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/ademuri/spotify-history-tools/internal/history"
)

func msPtr(v int64) *int64 {
	return &v
}

func musicEvent(ts string, played int64, track, artist string) history.RawEvent {
	return history.RawEvent{
		Ts:         ts,
		MsPlayed:   msPtr(played),
		TrackName:  track,
		ArtistName: artist,
	}
}

var testBase = time.Date(2019, 3, 1, 12, 0, 0, 0, time.UTC)

func tsAt(offset time.Duration) string {
	return testBase.Add(offset).Format("2006-01-02T15:04:05Z")
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestReferenceIsModeOfDurations(t *testing.T) {
	run := NewRun()
	run.Collect([]history.RawEvent{
		musicEvent(tsAt(0), 200000, "Song", "Artist"),
		musicEvent(tsAt(10*time.Minute), 200000, "Song", "Artist"),
		musicEvent(tsAt(20*time.Minute), 200000, "Song", "Artist"),
		musicEvent(tsAt(30*time.Minute), 150000, "Song", "Artist"),
	})
	report := run.Report(10)

	if len(report.AllTime.Songs) != 1 {
		t.Fatalf("Expected 1 song, got %d", len(report.AllTime.Songs))
	}
	// Three full listens plus a 150000/200000 partial.
	want := 3.75
	if got := report.AllTime.Songs[0].Score; !approx(got, want) {
		t.Errorf("Song score = %v, want %v", got, want)
	}
}

func TestFleIsCapped(t *testing.T) {
	run := NewRun()
	run.Collect([]history.RawEvent{
		musicEvent(tsAt(0), 200000, "Song", "Artist"),
		musicEvent(tsAt(10*time.Minute), 200000, "Song", "Artist"),
		musicEvent(tsAt(20*time.Minute), 200000, "Song", "Artist"),
		// Device left playing: 2.5x the reference, capped at 2.
		musicEvent(tsAt(30*time.Minute), 500000, "Song", "Artist"),
	})
	report := run.Report(10)

	want := 5.0
	if got := report.AllTime.Songs[0].Score; !approx(got, want) {
		t.Errorf("Song score = %v, want %v", got, want)
	}
}

func TestShortListensNeverScore(t *testing.T) {
	run := NewRun()
	run.Collect([]history.RawEvent{
		musicEvent(tsAt(0), 3000, "Song", "Artist"),
	})
	report := run.Report(10)

	if run.Stats().Processed != 1 {
		t.Errorf("Processed = %d, want 1", run.Stats().Processed)
	}
	if len(report.AllTime.Songs) != 0 {
		t.Errorf("Expected no scored songs, got %d", len(report.AllTime.Songs))
	}
}

func TestDuplicateEventsScoreOnce(t *testing.T) {
	events := []history.RawEvent{
		musicEvent(tsAt(0), 200000, "Song", "Artist"),
		musicEvent(tsAt(10*time.Minute), 200000, "Song", "Artist"),
	}

	run := NewRun()
	run.Collect(events)
	run.Collect(events)
	report := run.Report(10)

	if got := run.Stats().Duplicates; got != 2 {
		t.Errorf("Duplicates = %d, want 2", got)
	}
	want := 2.0
	if got := report.AllTime.Songs[0].Score; !approx(got, want) {
		t.Errorf("Song score = %v, want %v", got, want)
	}
}

func TestFragmentFusion(t *testing.T) {
	run := NewRun()
	run.Collect([]history.RawEvent{
		// Re-reported within the same second: one physical play split by
		// the client, with slightly different logged durations.
		musicEvent(tsAt(0), 200000, "Song", "Artist"),
		musicEvent(tsAt(0), 150000, "Song", "Artist"),
	})
	report := run.Report(10)

	if got := run.Stats().Fused; got != 1 {
		t.Errorf("Fused = %d, want 1", got)
	}
	want := 1.0
	if got := report.AllTime.Songs[0].Score; !approx(got, want) {
		t.Errorf("Song score = %v, want %v", got, want)
	}
}

func TestGapRepair(t *testing.T) {
	events := make([]history.RawEvent, 0, 12)
	for i := 0; i < 10; i++ {
		events = append(events, musicEvent(tsAt(time.Duration(i)*10*time.Minute), 180000, "Song", "Artist"))
	}
	// Glitched report: 10s logged, but the gap to the next event matches
	// a full play of the 3-minute reference.
	glitchAt := 100 * time.Minute
	events = append(events, musicEvent(tsAt(glitchAt), 10000, "Song", "Artist"))
	events = append(events, musicEvent(tsAt(glitchAt+185*time.Second), 200000, "Other", "Artist"))

	run := NewRun()
	run.Collect(events)
	report := run.Report(10)

	if got := run.Stats().Repaired; got != 1 {
		t.Errorf("Repaired = %d, want 1", got)
	}

	var songScore float64
	for _, song := range report.AllTime.Songs {
		if song.Name == "Song" {
			songScore = song.Score
		}
	}
	want := 11.0
	if !approx(songScore, want) {
		t.Errorf("Song score = %v, want %v", songScore, want)
	}
}

func TestGapRepairRequiresTrust(t *testing.T) {
	events := make([]history.RawEvent, 0, 8)
	// Histogram ties 3-3 between full and abandoned plays; the tie goes
	// to the longer duration, leaving trust at exactly 0.5.
	for i := 0; i < 3; i++ {
		events = append(events, musicEvent(tsAt(time.Duration(i)*10*time.Minute), 180000, "Song", "Artist"))
	}
	for i := 3; i < 6; i++ {
		events = append(events, musicEvent(tsAt(time.Duration(i)*10*time.Minute), 30000, "Song", "Artist"))
	}
	glitchAt := 60 * time.Minute
	events = append(events, musicEvent(tsAt(glitchAt), 10000, "Song", "Artist"))
	events = append(events, musicEvent(tsAt(glitchAt+185*time.Second), 200000, "Other", "Artist"))

	run := NewRun()
	run.Collect(events)
	run.Process()

	if got := run.Stats().Repaired; got != 0 {
		t.Errorf("Repaired = %d, want 0", got)
	}
}

func TestTopNLimitsRankings(t *testing.T) {
	events := make([]history.RawEvent, 0)
	offset := time.Duration(0)
	for artist := 0; artist < 20; artist++ {
		name := string(rune('A' + artist))
		for play := 0; play <= artist; play++ {
			events = append(events, musicEvent(tsAt(offset), 200000, "Song "+name, "Artist "+name))
			offset += time.Minute
		}
	}

	run := NewRun()
	run.Collect(events)
	report := run.Report(5)

	if got := len(report.AllTime.Artists); got != 5 {
		t.Fatalf("Expected 5 ranked artists, got %d", got)
	}
	if got := report.AllTime.Artists[0].Name; got != "Artist T" {
		t.Errorf("Top artist = %q, want %q", got, "Artist T")
	}
	for i := 1; i < len(report.AllTime.Artists); i++ {
		if report.AllTime.Artists[i].Score > report.AllTime.Artists[i-1].Score {
			t.Errorf("Rankings not descending at index %d", i)
		}
	}
}

func TestTiedScoresKeepFirstSeenOrder(t *testing.T) {
	run := NewRun()
	run.Collect([]history.RawEvent{
		musicEvent(tsAt(0), 200000, "Song X", "Zeta"),
		musicEvent(tsAt(10*time.Minute), 200000, "Song Y", "Alpha"),
	})
	report := run.Report(10)

	if got := report.AllTime.Artists[0].Name; got != "Zeta" {
		t.Errorf("First ranked artist = %q, want %q (first accumulated)", got, "Zeta")
	}
}

func TestReportIsRepeatable(t *testing.T) {
	run := NewRun()
	run.Collect([]history.RawEvent{
		musicEvent(tsAt(0), 200000, "Song", "Artist"),
	})

	first := run.Report(10)
	second := run.Report(10)

	if !approx(first.AllTime.Songs[0].Score, second.AllTime.Songs[0].Score) {
		t.Errorf("Second report rescored: %v vs %v", first.AllTime.Songs[0].Score, second.AllTime.Songs[0].Score)
	}
}
