package store

import (
	"fmt"
	"time"
)

type ArtistPlayCount struct {
	Artist  string
	Plays   int64
	TotalMs int64
}

type TrackPlayCount struct {
	Name    string
	Artist  string
	Plays   int64
	TotalMs int64
}

func (s *Store) GetTopArtists(start, end time.Time, limit int) ([]ArtistPlayCount, error) {
	query := `
	SELECT Track.artist, COUNT(Listen.id), SUM(Listen.ms_played)
	FROM Listen
	INNER JOIN Track ON Track.id = Listen.track
	WHERE Listen.date >= ? AND Listen.date < ?
	GROUP BY Track.artist
	ORDER BY COUNT(*) DESC
	LIMIT ?
	`
	rows, err := s.db.Query(query, start.Unix(), end.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("querying top artists: %w", err)
	}
	defer rows.Close()

	var results []ArtistPlayCount
	for rows.Next() {
		var apc ArtistPlayCount
		if err := rows.Scan(&apc.Artist, &apc.Plays, &apc.TotalMs); err != nil {
			return nil, err
		}
		results = append(results, apc)
	}
	return results, rows.Err()
}

func (s *Store) GetTopTracks(start, end time.Time, limit int) ([]TrackPlayCount, error) {
	query := `
	SELECT Track.name, Track.artist, COUNT(Listen.id), SUM(Listen.ms_played)
	FROM Listen
	INNER JOIN Track ON Track.id = Listen.track
	WHERE Listen.date >= ? AND Listen.date < ?
	GROUP BY Track.name, Track.artist
	ORDER BY COUNT(*) DESC
	LIMIT ?
	`
	rows, err := s.db.Query(query, start.Unix(), end.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("querying top tracks: %w", err)
	}
	defer rows.Close()

	var results []TrackPlayCount
	for rows.Next() {
		var tpc TrackPlayCount
		if err := rows.Scan(&tpc.Name, &tpc.Artist, &tpc.Plays, &tpc.TotalMs); err != nil {
			return nil, err
		}
		results = append(results, tpc)
	}
	return results, rows.Err()
}
