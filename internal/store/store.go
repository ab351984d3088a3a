// Package store persists the job journal in SQLite. The default DSN is
// ":memory:", so history lives only as long as the server process unless
// the operator points SOOT_DB_PATH at a file.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sootlabs/soot/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	instruction TEXT NOT NULL,
	repo TEXT NOT NULL,
	stage TEXT NOT NULL,
	slot INTEGER NOT NULL DEFAULT 0,
	pr_url TEXT NOT NULL DEFAULT '',
	preview_url TEXT NOT NULL DEFAULT '',
	validate_url TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS job_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT NOT NULL,
	type TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_job_events_job ON job_events(job_id);
`

// Store is the SQLite-backed job journal.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the journal at the given DSN.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// The in-memory DSN gives each connection its own database; cap the
	// pool at one so every query sees the same data.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateJob inserts a new job row.
func (s *Store) CreateJob(job *model.Job) error {
	_, err := s.db.Exec(`
		INSERT INTO jobs (id, instruction, repo, stage, slot, pr_url, preview_url, validate_url, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Instruction, job.Repo, string(job.Stage), job.Slot,
		job.PRUrl, job.PreviewURL, job.ValidateURL, job.Error,
		job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting job: %w", err)
	}
	return nil
}

// UpdateJob writes the mutable fields of a job back to the journal.
func (s *Store) UpdateJob(job *model.Job) error {
	job.UpdatedAt = time.Now().UTC()
	res, err := s.db.Exec(`
		UPDATE jobs
		SET stage = ?, slot = ?, pr_url = ?, preview_url = ?, validate_url = ?, error = ?, updated_at = ?
		WHERE id = ?`,
		string(job.Stage), job.Slot, job.PRUrl, job.PreviewURL, job.ValidateURL,
		job.Error, job.UpdatedAt, job.ID,
	)
	if err != nil {
		return fmt.Errorf("updating job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job %s not found", job.ID)
	}
	return nil
}

// GetJob loads one job by ID.
func (s *Store) GetJob(id string) (*model.Job, error) {
	row := s.db.QueryRow(`
		SELECT id, instruction, repo, stage, slot, pr_url, preview_url, validate_url, error, created_at, updated_at
		FROM jobs WHERE id = ?`, id)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading job: %w", err)
	}
	return job, nil
}

// ListJobs returns all jobs, newest first.
func (s *Store) ListJobs() ([]*model.Job, error) {
	rows, err := s.db.Query(`
		SELECT id, instruction, repo, stage, slot, pr_url, preview_url, validate_url, error, created_at, updated_at
		FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// AppendEvent journals one lifecycle event against a job.
func (s *Store) AppendEvent(jobID string, ev model.Event) error {
	payload, err := ev.Encode()
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO job_events (job_id, type, payload, created_at)
		VALUES (?, ?, ?, ?)`,
		jobID, string(ev.Type), string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// ListEvents returns a job's journaled events in publication order.
func (s *Store) ListEvents(jobID string) ([]model.Event, error) {
	rows, err := s.db.Query(`
		SELECT payload FROM job_events WHERE job_id = ? ORDER BY id ASC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		ev, err := model.DecodeEvent([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("decoding journaled event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*model.Job, error) {
	var job model.Job
	var stage string
	err := row.Scan(
		&job.ID, &job.Instruction, &job.Repo, &stage, &job.Slot,
		&job.PRUrl, &job.PreviewURL, &job.ValidateURL, &job.Error,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Stage = model.Stage(stage)
	return &job, nil
}
