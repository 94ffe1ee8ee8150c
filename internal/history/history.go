// Package history locates and decodes Spotify streaming-history export
// files. It knows nothing about scoring; it just yields raw events.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// RawEvent is one entry from a streaming-history JSON file. Spotify has
// shipped several schema variants (music vs. podcast fields, extended
// vs. standard export), so the metadata fields are left untyped and
// resolved during normalization.
type RawEvent struct {
	Ts          string      `json:"ts"`
	MsPlayed    *int64      `json:"ms_played"`
	TrackName   interface{} `json:"master_metadata_track_name"`
	ArtistName  interface{} `json:"master_metadata_album_artist_name"`
	EpisodeName interface{} `json:"episode_name"`
	ShowName    interface{} `json:"episode_show_name"`
	Skipped     bool        `json:"skipped"`
}

// FindFiles returns the export files under dataDir, sorted by path.
// Both the extended and the standard export layouts are recognized,
// including the nested "Spotify Extended Streaming History" directory.
func FindFiles(dataDir string) ([]string, error) {
	patterns := []string{
		filepath.Join(dataDir, "Streaming_History_Audio_*.json"),
		filepath.Join(dataDir, "StreamingHistory*.json"),
		filepath.Join(dataDir, "Spotify Extended Streaming History", "Streaming_History_Audio_*.json"),
	}

	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("globbing %q: %w", pattern, err)
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		// Fallback for exports unpacked into a deeper subdirectory.
		err := filepath.Walk(dataDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			if ok, _ := filepath.Match("Streaming_History_Audio_*.json", info.Name()); ok {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %q: %w", dataDir, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// LoadFile decodes one export file into raw events.
func LoadFile(path string) ([]RawEvent, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}

	var events []RawEvent
	if err := json.Unmarshal(contents, &events); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", path, err)
	}
	return events, nil
}

// Load reads all export files under dataDir. A file that fails to
// decode is reported on stderr and skipped; a bad file never aborts the
// run.
func Load(dataDir string) ([]RawEvent, error) {
	files, err := FindFiles(dataDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no streaming history files found in %q", dataDir)
	}

	var events []RawEvent
	for _, path := range files {
		batch, err := LoadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipping malformed file %s: %v\n", path, err)
			continue
		}
		events = append(events, batch...)
	}
	return events, nil
}
