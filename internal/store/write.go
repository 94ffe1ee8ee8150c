package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ListenImport is one play to archive. Skipped is kept as informational
// metadata only; scoring never consults it.
type ListenImport struct {
	TrackName string
	Artist    string
	Date      time.Time
	MsPlayed  int64
	Skipped   bool
}

// AddListens inserts a batch of listens transactionally. A listen that
// already exists with the same track, date, and duration is left alone,
// so re-importing overlapping export files is idempotent. Returns how
// many rows were actually inserted.
func (s *Store) AddListens(listens []ListenImport) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, l := range listens {
		trackID, err := createTrack(tx, l.TrackName, l.Artist)
		if err != nil {
			return 0, err
		}
		added, err := createListen(tx, trackID, l)
		if err != nil {
			return 0, err
		}
		if added {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return inserted, nil
}

func createTrack(tx *sql.Tx, name, artist string) (int64, error) {
	var id int64
	err := tx.QueryRow("SELECT id FROM Track WHERE name = ? AND artist = ?", name, artist).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("checking track %q: %w", name, err)
	}

	res, err := tx.Exec("INSERT INTO Track (name, artist) VALUES (?, ?)", name, artist)
	if err != nil {
		return 0, fmt.Errorf("inserting track %q: %w", name, err)
	}
	return res.LastInsertId()
}

func createListen(tx *sql.Tx, trackID int64, l ListenImport) (bool, error) {
	var dummy int64
	err := tx.QueryRow(
		"SELECT id FROM Listen WHERE track = ? AND date = ? AND ms_played = ?",
		trackID, l.Date.Unix(), l.MsPlayed).Scan(&dummy)
	if err == nil {
		return false, nil // Already archived
	}
	if err != sql.ErrNoRows {
		return false, fmt.Errorf("checking listen: %w", err)
	}

	skipped := 0
	if l.Skipped {
		skipped = 1
	}
	_, err = tx.Exec(
		"INSERT INTO Listen (track, date, ms_played, skipped) VALUES (?, ?, ?, ?)",
		trackID, l.Date.Unix(), l.MsPlayed, skipped)
	if err != nil {
		return false, fmt.Errorf("inserting listen: %w", err)
	}
	return true, nil
}

// SetMeta upserts a bookkeeping value.
func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO Meta (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("setting meta %q: %w", key, err)
	}
	return nil
}

func (s *Store) GetMeta(key string) (string, error) {
	row := s.db.QueryRow("SELECT value FROM Meta WHERE key = ?", key)
	var value string
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting meta %q: %w", key, err)
	}
	return value, nil
}
