package store

import (
	"path/filepath"
	"testing"
	"time"
)

func createTestDb(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "spotify.db")

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("New(%s) error: %v", dbPath, err)
	}

	return store
}

func testListen(track, artist string, date time.Time, ms int64) ListenImport {
	return ListenImport{
		TrackName: track,
		Artist:    artist,
		Date:      date,
		MsPlayed:  ms,
	}
}

func TestAddListens(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	date := time.Date(2019, 3, 1, 12, 0, 0, 0, time.UTC)
	listens := []ListenImport{
		testListen("Test Track", "Test Artist", date, 200000),
	}

	inserted, err := s.AddListens(listens)
	if err != nil {
		t.Fatalf("AddListens failed: %v", err)
	}
	if inserted != 1 {
		t.Errorf("Expected 1 inserted, got %d", inserted)
	}

	// Idempotent re-import
	inserted, err = s.AddListens(listens)
	if err != nil {
		t.Fatalf("AddListens (repeat) failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("Expected 0 inserted on repeat, got %d", inserted)
	}

	count, err := s.CountListens(date.Add(-time.Hour), date.Add(time.Hour))
	if err != nil {
		t.Fatalf("CountListens: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 listen, got %d", count)
	}
}

func TestGetListensRange(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	base := time.Date(2019, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err := s.AddListens([]ListenImport{
		testListen("Track 1", "Artist", base, 200000),
		testListen("Track 2", "Artist", base.AddDate(0, 1, 0), 180000),
		testListen("Track 3", "Artist", base.AddDate(0, 2, 0), 160000),
	})
	if err != nil {
		t.Fatalf("AddListens: %v", err)
	}

	// Range covers the first two listens only; the end bound is
	// exclusive.
	listens, err := s.GetListens(base, base.AddDate(0, 2, 0))
	if err != nil {
		t.Fatalf("GetListens: %v", err)
	}
	if len(listens) != 2 {
		t.Fatalf("Expected 2 listens, got %d", len(listens))
	}
	if listens[0].TrackName != "Track 1" || listens[1].TrackName != "Track 2" {
		t.Errorf("Listens not ascending by date: %v", listens)
	}
	if !listens[0].Time.Equal(base) {
		t.Errorf("Time = %v, want %v", listens[0].Time, base)
	}
}

func TestFirstAndLatestListen(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	first, err := s.GetFirstListen()
	if err != nil {
		t.Fatalf("GetFirstListen on empty db: %v", err)
	}
	if !first.IsZero() {
		t.Errorf("Expected zero time for empty db, got %v", first)
	}

	base := time.Date(2019, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err = s.AddListens([]ListenImport{
		testListen("Track 1", "Artist", base, 200000),
		testListen("Track 2", "Artist", base.AddDate(0, 1, 0), 180000),
	})
	if err != nil {
		t.Fatalf("AddListens: %v", err)
	}

	first, err = s.GetFirstListen()
	if err != nil {
		t.Fatalf("GetFirstListen: %v", err)
	}
	if !first.Equal(base) {
		t.Errorf("First listen = %v, want %v", first, base)
	}

	latest, err := s.GetLatestListen()
	if err != nil {
		t.Fatalf("GetLatestListen: %v", err)
	}
	if !latest.Equal(base.AddDate(0, 1, 0)) {
		t.Errorf("Latest listen = %v, want %v", latest, base.AddDate(0, 1, 0))
	}
}

func TestTopArtistsAndTracks(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	base := time.Date(2019, 3, 1, 12, 0, 0, 0, time.UTC)
	var listens []ListenImport
	for i := 0; i < 3; i++ {
		listens = append(listens, testListen("Song A", "Artist A", base.Add(time.Duration(i)*time.Hour), 200000))
	}
	listens = append(listens, testListen("Song B", "Artist B", base.Add(10*time.Hour), 180000))

	if _, err := s.AddListens(listens); err != nil {
		t.Fatalf("AddListens: %v", err)
	}

	start := base.Add(-time.Hour)
	end := base.AddDate(0, 0, 1)

	artists, err := s.GetTopArtists(start, end, 10)
	if err != nil {
		t.Fatalf("GetTopArtists: %v", err)
	}
	if len(artists) != 2 {
		t.Fatalf("Expected 2 artists, got %d", len(artists))
	}
	if artists[0].Artist != "Artist A" || artists[0].Plays != 3 {
		t.Errorf("Top artist = %+v, want Artist A with 3 plays", artists[0])
	}
	if artists[0].TotalMs != 600000 {
		t.Errorf("Top artist TotalMs = %d, want 600000", artists[0].TotalMs)
	}

	tracks, err := s.GetTopTracks(start, end, 1)
	if err != nil {
		t.Fatalf("GetTopTracks: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("Expected limit of 1 track, got %d", len(tracks))
	}
	if tracks[0].Name != "Song A" {
		t.Errorf("Top track = %+v, want Song A", tracks[0])
	}
}

func TestMeta(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	value, err := s.GetMeta("last_imported")
	if err != nil {
		t.Fatalf("GetMeta on empty db: %v", err)
	}
	if value != "" {
		t.Errorf("Expected empty value, got %q", value)
	}

	if err := s.SetMeta("last_imported", "2019-03-01"); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := s.SetMeta("last_imported", "2019-04-01"); err != nil {
		t.Fatalf("SetMeta (overwrite): %v", err)
	}

	value, err = s.GetMeta("last_imported")
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if value != "2019-04-01" {
		t.Errorf("GetMeta = %q, want %q", value, "2019-04-01")
	}
}

func TestReports(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	report := ReportConfig{
		Name:   "monthly",
		Email:  "test@example.com",
		RunDay: 1,
		Types:  "top-n,fle-report",
		Params: "n=20;",
	}
	if err := s.AddReport(report); err != nil {
		t.Fatalf("AddReport: %v", err)
	}

	reports, err := s.ListReports()
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("Expected 1 report, got %d", len(reports))
	}
	got := reports[0]
	if got.Name != report.Name || got.Email != report.Email || got.RunDay != report.RunDay || got.Types != report.Types {
		t.Errorf("ListReports = %+v, want %+v", got, report)
	}
	if !got.Sent.IsZero() {
		t.Errorf("Expected zero sent time for a new report, got %v", got.Sent)
	}

	sent := time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := s.MarkReportSent(report.Name, report.Email, sent); err != nil {
		t.Fatalf("MarkReportSent: %v", err)
	}
	reports, err = s.ListReports()
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if reports[0].Sent.IsZero() {
		t.Errorf("Expected sent time to be recorded")
	}

	if err := s.DeleteReport(report.Name, report.Email); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if err := s.DeleteReport(report.Name, report.Email); err == nil {
		t.Error("Expected an error deleting a missing report")
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "spotify.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	date := time.Date(2019, 3, 1, 12, 0, 0, 0, time.UTC)
	if _, err := s.AddListens([]ListenImport{testListen("Track", "Artist", date, 200000)}); err != nil {
		t.Fatalf("AddListens: %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("New (reopen): %v", err)
	}
	defer s.Close()

	count, err := s.CountListens(date.Add(-time.Hour), date.Add(time.Hour))
	if err != nil {
		t.Fatalf("CountListens: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 listen after reopen, got %d", count)
	}
}
