package store

import (
	"database/sql"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Insert(rec VisitRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO scan_logs(created_at, ip, ip_raw, x_forwarded_for, headers, user_agent, fp_data)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		rec.CreatedAt, rec.IP, rec.IPRaw, rec.XForwardedFor, rec.Headers, rec.UserAgent, rec.FPData,
	)
	return err
}

func (s *SQLite) ListRecent(limit int) ([]VisitRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, ip, ip_raw, x_forwarded_for, headers, user_agent, fp_data
		 FROM scan_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func (s *SQLite) ListAll() ([]VisitRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, ip, ip_raw, x_forwarded_for, headers, user_agent, fp_data
		 FROM scan_logs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]VisitRecord, error) {
	defer rows.Close()
	var res []VisitRecord
	for rows.Next() {
		var rec VisitRecord
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.IP, &rec.IPRaw, &rec.XForwardedFor, &rec.Headers, &rec.UserAgent, &rec.FPData); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// Migrate ensures schema exists
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			ip TEXT,
			ip_raw TEXT,
			x_forwarded_for TEXT,
			headers TEXT NOT NULL,
			user_agent TEXT NOT NULL DEFAULT '',
			fp_data TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_scan_logs_created_at ON scan_logs(created_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
