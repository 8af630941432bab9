// Package store archives critique reports in SQLite so past runs can be
// listed and re-rendered without re-spending reasoning tokens.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"sdcritic/internal/critique"
	"sdcritic/internal/logging"
)

// ReportStore persists reports to a local SQLite database.
type ReportStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// ReportSummary is the listing row: enough to pick a run without decoding
// the full report payload.
type ReportSummary struct {
	RunID       string    `json:"runId"`
	RecordID    string    `json:"recordId"`
	Mode        string    `json:"mode"`
	Passed      bool      `json:"passed"`
	Confidence  float64   `json:"confidence"`
	IssueCount  int       `json:"issueCount"`
	GeneratedAt time.Time `json:"generatedAt"`
}

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	run_id       TEXT PRIMARY KEY,
	record_id    TEXT NOT NULL,
	mode         TEXT NOT NULL,
	passed       INTEGER NOT NULL,
	confidence   REAL NOT NULL,
	issue_count  INTEGER NOT NULL,
	generated_at TEXT NOT NULL,
	payload      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_record ON reports(record_id);
CREATE INDEX IF NOT EXISTS idx_reports_generated ON reports(generated_at);
`

// NewReportStore opens (or creates) the archive at the given path.
func NewReportStore(path string) (*ReportStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewReportStore")
	defer timer.Stop()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.Get(logging.CategoryStore).Debug("failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.Get(logging.CategoryStore).Debug("failed to set journal_mode=WAL: %v", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Store("report archive ready at %s", path)
	return &ReportStore{db: db, dbPath: path}, nil
}

// Save archives one report under the record it critiqued.
func (s *ReportStore) Save(recordID string, rep critique.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO reports
		 (run_id, record_id, mode, passed, confidence, issue_count, generated_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.RunID, recordID, string(rep.Mode), boolToInt(rep.PassedValidation),
		rep.OverallConfidence, len(rep.Issues),
		rep.GeneratedAt.UTC().Format(time.RFC3339Nano), string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", rep.RunID, err)
	}

	logging.Store("archived report %s for record %s", rep.RunID, recordID)
	return nil
}

// Get loads a full report by run ID.
func (s *ReportStore) Get(runID string) (critique.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRow(`SELECT payload FROM reports WHERE run_id = ?`, runID).Scan(&payload)
	if err == sql.ErrNoRows {
		return critique.Report{}, fmt.Errorf("no report with run ID %s", runID)
	}
	if err != nil {
		return critique.Report{}, fmt.Errorf("failed to load report %s: %w", runID, err)
	}

	var rep critique.Report
	if err := json.Unmarshal([]byte(payload), &rep); err != nil {
		return critique.Report{}, fmt.Errorf("failed to decode report %s: %w", runID, err)
	}
	return rep, nil
}

// List returns the most recent report summaries, newest first. limit <= 0
// means no limit.
func (s *ReportStore) List(limit int) ([]ReportSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT run_id, record_id, mode, passed, confidence, issue_count, generated_at
	          FROM reports ORDER BY generated_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var sum ReportSummary
		var passed int
		var generatedAt string
		if err := rows.Scan(&sum.RunID, &sum.RecordID, &sum.Mode, &passed,
			&sum.Confidence, &sum.IssueCount, &generatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		sum.Passed = passed != 0
		sum.GeneratedAt, _ = time.Parse(time.RFC3339Nano, generatedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// ListForRecord returns summaries of all runs over one record, newest first.
func (s *ReportStore) ListForRecord(recordID string) ([]ReportSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT run_id, record_id, mode, passed, confidence, issue_count, generated_at
		 FROM reports WHERE record_id = ? ORDER BY generated_at DESC`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports for %s: %w", recordID, err)
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var sum ReportSummary
		var passed int
		var generatedAt string
		if err := rows.Scan(&sum.RunID, &sum.RecordID, &sum.Mode, &passed,
			&sum.Confidence, &sum.IssueCount, &generatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		sum.Passed = passed != 0
		sum.GeneratedAt, _ = time.Parse(time.RFC3339Nano, generatedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *ReportStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
