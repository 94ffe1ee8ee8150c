package history

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleJSON = `[
  {
    "ts": "2019-03-01T12:00:00Z",
    "ms_played": 200000,
    "master_metadata_track_name": "Song",
    "master_metadata_album_artist_name": "Artist",
    "skipped": false
  },
  {
    "ts": "2019-03-01T13:00:00Z",
    "ms_played": null,
    "master_metadata_track_name": null,
    "master_metadata_album_artist_name": null,
    "episode_name": "Episode 1",
    "episode_show_name": "Some Show"
  }
]`

func writeFile(t *testing.T, path string, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Streaming_History_Audio_2019_0.json")
	writeFile(t, path, sampleJSON)

	events, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}

	first := events[0]
	if first.Ts != "2019-03-01T12:00:00Z" {
		t.Errorf("Ts = %q", first.Ts)
	}
	if first.MsPlayed == nil || *first.MsPlayed != 200000 {
		t.Errorf("MsPlayed = %v, want 200000", first.MsPlayed)
	}
	if name, ok := first.TrackName.(string); !ok || name != "Song" {
		t.Errorf("TrackName = %v, want %q", first.TrackName, "Song")
	}

	// Null fields stay nil rather than becoming empty strings.
	second := events[1]
	if second.MsPlayed != nil {
		t.Errorf("Expected nil MsPlayed, got %v", *second.MsPlayed)
	}
	if second.TrackName != nil {
		t.Errorf("Expected nil TrackName, got %v", second.TrackName)
	}
}

func TestFindFilesSorted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Streaming_History_Audio_2019_1.json"), "[]")
	writeFile(t, filepath.Join(dir, "Streaming_History_Audio_2019_0.json"), "[]")
	writeFile(t, filepath.Join(dir, "Identity.json"), "{}")

	files, err := FindFiles(dir)
	if err != nil {
		t.Fatalf("FindFiles error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Expected 2 files, got %d: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "Streaming_History_Audio_2019_0.json" {
		t.Errorf("Files not sorted: %v", files)
	}
}

func TestFindFilesNestedExport(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "Spotify Extended Streaming History", "Streaming_History_Audio_2019_0.json")
	writeFile(t, nested, "[]")

	files, err := FindFiles(dir)
	if err != nil {
		t.Fatalf("FindFiles error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("Expected 1 file, got %d: %v", len(files), files)
	}
}

func TestLoadSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Streaming_History_Audio_2019_0.json"), sampleJSON)
	writeFile(t, filepath.Join(dir, "Streaming_History_Audio_2019_1.json"), "not json at all")

	events, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("Expected 2 events from the good file, got %d", len(events))
	}
}

func TestLoadNoFiles(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Expected an error for a directory with no export files")
	}
}
