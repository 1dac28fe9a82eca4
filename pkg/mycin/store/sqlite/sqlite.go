package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/mycin/pkg/mycin/facts"
	"github.com/cognicore/mycin/pkg/mycin/inference"
	"github.com/cognicore/mycin/pkg/mycin/internalerr"
	"github.com/cognicore/mycin/pkg/mycin/store"
)

// timeLayout is fixed width so started_at sorts as text in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS consultations (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	contexts TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS findings (
	consultation_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	context TEXT NOT NULL,
	seq INTEGER NOT NULL,
	param TEXT NOT NULL,
	value TEXT NOT NULL,
	cf REAL NOT NULL,
	PRIMARY KEY(consultation_id, position),
	FOREIGN KEY(consultation_id) REFERENCES consultations(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS steps (
	consultation_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	kind TEXT NOT NULL,
	param TEXT,
	context TEXT,
	seq INTEGER,
	rule_id INTEGER,
	value TEXT,
	cf REAL,
	depth INTEGER,
	PRIMARY KEY(consultation_id, position),
	FOREIGN KEY(consultation_id) REFERENCES consultations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_consultations_started ON consultations(started_at);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveConsultation writes the consultation and all its rows in one transaction.
func (s *sqliteStore) SaveConsultation(ctx context.Context, c store.Consultation) error {
	if c.ID == "" {
		return fmt.Errorf("consultation without id: %w", internalerr.ErrInvalidInput)
	}
	contexts, err := json.Marshal(c.Contexts)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM consultations WHERE id = ?", c.ID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("consultation %s: %w", c.ID, internalerr.ErrDuplicate)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO consultations (id, started_at, contexts) VALUES (?, ?, ?)",
		c.ID, c.StartedAt.UTC().Format(timeLayout), string(contexts))
	if err != nil {
		return fmt.Errorf("insert consultation: %w", err)
	}

	for i, f := range c.Findings {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO findings (consultation_id, position, context, seq, param, value, cf) VALUES (?, ?, ?, ?, ?, ?, ?)",
			c.ID, i, f.Instance.Context, f.Instance.Seq, f.Param, f.Value, f.CF)
		if err != nil {
			return fmt.Errorf("insert finding: %w", err)
		}
	}

	for i, st := range c.Steps {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO steps (consultation_id, position, kind, param, context, seq, rule_id, value, cf, depth) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			c.ID, i, string(st.Kind), st.Param, st.Instance.Context, st.Instance.Seq, st.RuleID, st.Value, st.CF, st.Depth)
		if err != nil {
			return fmt.Errorf("insert step: %w", err)
		}
	}

	return tx.Commit()
}

// GetConsultation loads one consultation with its findings and steps.
func (s *sqliteStore) GetConsultation(ctx context.Context, id string) (store.Consultation, error) {
	c, err := scanConsultation(s.db.QueryRowContext(ctx,
		"SELECT id, started_at, contexts FROM consultations WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return store.Consultation{}, fmt.Errorf("consultation %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Consultation{}, err
	}

	if c.Findings, err = s.findings(ctx, id); err != nil {
		return store.Consultation{}, err
	}
	if c.Steps, err = s.steps(ctx, id); err != nil {
		return store.Consultation{}, err
	}
	return c, nil
}

func (s *sqliteStore) findings(ctx context.Context, id string) ([]store.Finding, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT context, seq, param, value, cf FROM findings WHERE consultation_id = ? ORDER BY position", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Finding
	for rows.Next() {
		var f store.Finding
		if err := rows.Scan(&f.Instance.Context, &f.Instance.Seq, &f.Param, &f.Value, &f.CF); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *sqliteStore) steps(ctx context.Context, id string) ([]inference.Step, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT kind, param, context, seq, rule_id, value, cf, depth FROM steps WHERE consultation_id = ? ORDER BY position", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inference.Step
	for rows.Next() {
		var (
			st   inference.Step
			kind string
			inst facts.Instance
		)
		if err := rows.Scan(&kind, &st.Param, &inst.Context, &inst.Seq, &st.RuleID, &st.Value, &st.CF, &st.Depth); err != nil {
			return nil, err
		}
		st.Kind = inference.StepKind(kind)
		st.Instance = inst
		out = append(out, st)
	}
	return out, rows.Err()
}

// ListConsultations returns consultation headers, newest first.
func (s *sqliteStore) ListConsultations(ctx context.Context, limit int) ([]store.Consultation, error) {
	query := "SELECT id, started_at, contexts FROM consultations ORDER BY started_at DESC, id DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanConsultation(row scanner) (store.Consultation, error) {
	var (
		c        store.Consultation
		started  string
		contexts string
	)
	if err := row.Scan(&c.ID, &started, &contexts); err != nil {
		return store.Consultation{}, err
	}

	t, err := time.Parse(timeLayout, started)
	if err != nil {
		return store.Consultation{}, fmt.Errorf("consultation %s: started_at: %w", c.ID, err)
	}
	c.StartedAt = t
	if err := json.Unmarshal([]byte(contexts), &c.Contexts); err != nil {
		return store.Consultation{}, fmt.Errorf("consultation %s: contexts: %w", c.ID, err)
	}
	return c, nil
}
