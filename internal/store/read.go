package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ListenRecord is one archived play read back for analysis.
type ListenRecord struct {
	Time      time.Time
	TrackName string
	Artist    string
	MsPlayed  int64
	Skipped   bool
}

// GetListens returns archived listens in [start, end), ascending by
// date.
func (s *Store) GetListens(start, end time.Time) ([]ListenRecord, error) {
	query := `
	SELECT Listen.date, Track.name, Track.artist, Listen.ms_played, Listen.skipped
	FROM Listen
	INNER JOIN Track ON Track.id = Listen.track
	WHERE Listen.date >= ? AND Listen.date < ?
	ORDER BY Listen.date ASC
	`
	rows, err := s.db.Query(query, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("querying listens: %w", err)
	}
	defer rows.Close()

	var listens []ListenRecord
	for rows.Next() {
		var date int64
		var skipped int
		var l ListenRecord
		if err := rows.Scan(&date, &l.TrackName, &l.Artist, &l.MsPlayed, &skipped); err != nil {
			return nil, err
		}
		l.Time = time.Unix(date, 0).UTC()
		l.Skipped = skipped != 0
		listens = append(listens, l)
	}
	return listens, rows.Err()
}

// CountListens counts archived listens in [start, end).
func (s *Store) CountListens(start, end time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(id) FROM Listen WHERE date >= ? AND date < ?",
		start.Unix(), end.Unix()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting listens: %w", err)
	}
	return count, nil
}

// GetLatestListen returns the time of the newest archived listen, or
// the zero time for an empty archive.
func (s *Store) GetLatestListen() (time.Time, error) {
	row := s.db.QueryRow("SELECT date FROM Listen ORDER BY date DESC LIMIT 1")
	var date int64
	err := row.Scan(&date)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("scanning latest listen: %w", err)
	}
	return time.Unix(date, 0).UTC(), nil
}

// GetFirstListen returns the time of the oldest archived listen, or the
// zero time for an empty archive.
func (s *Store) GetFirstListen() (time.Time, error) {
	row := s.db.QueryRow("SELECT date FROM Listen ORDER BY date ASC LIMIT 1")
	var date int64
	err := row.Scan(&date)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("scanning first listen: %w", err)
	}
	return time.Unix(date, 0).UTC(), nil
}
