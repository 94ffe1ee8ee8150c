package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ReportConfig is a stored email-report subscription.
type ReportConfig struct {
	Name   string
	Email  string
	RunDay int
	Sent   time.Time
	Types  string
	Params string
}

func (s *Store) AddReport(r ReportConfig) error {
	_, err := s.db.Exec(
		"INSERT INTO Report (name, email, run_day, types, params) VALUES (?, ?, ?, ?, ?)",
		r.Name, r.Email, r.RunDay, r.Types, r.Params)
	if err != nil {
		return fmt.Errorf("inserting report %q: %w", r.Name, err)
	}
	return nil
}

func (s *Store) ListReports() ([]ReportConfig, error) {
	rows, err := s.db.Query("SELECT name, email, run_day, sent, types, params FROM Report")
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var reports []ReportConfig
	for rows.Next() {
		var r ReportConfig
		var sent sql.NullTime
		var params sql.NullString
		if err := rows.Scan(&r.Name, &r.Email, &r.RunDay, &sent, &r.Types, &params); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		if sent.Valid {
			r.Sent = sent.Time
		}
		if params.Valid {
			r.Params = params.String
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *Store) DeleteReport(name, email string) error {
	res, err := s.db.Exec("DELETE FROM Report WHERE name = ? AND email = ?", name, email)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no report found with name %q and email %q", name, email)
	}
	return nil
}

// MarkReportSent records that a report went out now.
func (s *Store) MarkReportSent(name, email string, sent time.Time) error {
	_, err := s.db.Exec("UPDATE Report SET sent = ? WHERE name = ? AND email = ?", sent, name, email)
	if err != nil {
		return fmt.Errorf("recording last run: %w", err)
	}
	return nil
}
