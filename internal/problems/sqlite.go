package problems

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

const createProblemsTable = `
CREATE TABLE IF NOT EXISTS problems (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	difficulty TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]',
	patterns TEXT NOT NULL DEFAULT '[]',
	description TEXT NOT NULL DEFAULT ''
);
`

// sqliteStore persists the catalog in SQLite so it survives restarts and
// can be shared with the rest of DSATrain's tooling.
type sqliteStore struct {
	db     *sql.DB
	closed atomic.Bool
}

var _ Store = (*sqliteStore)(nil)

// NewSQLite opens (and migrates) a SQLite-backed catalog at the given path.
func NewSQLite(path string) (Store, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("problems: open db: %w", err)
	}

	if _, err := db.Exec(createProblemsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("problems: migrate db: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*Problem, error) {
	var p Problem
	var tags, patterns []byte

	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, difficulty, tags, patterns, description FROM problems WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Title, &p.Difficulty, &tags, &patterns, &p.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("problems: get %q: %w", id, err)
	}

	if err := decodeList(tags, &p.Tags); err != nil {
		return nil, err
	}
	if err := decodeList(patterns, &p.Patterns); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *sqliteStore) Put(ctx context.Context, p *Problem) error {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("problems: encode tags: %w", err)
	}
	patterns, err := json.Marshal(p.Patterns)
	if err != nil {
		return fmt.Errorf("problems: encode patterns: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO problems (id, title, difficulty, tags, patterns, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Difficulty, tags, patterns, p.Description,
	)
	if err != nil {
		return fmt.Errorf("problems: put %q: %w", p.ID, err)
	}
	return nil
}

func (s *sqliteStore) List(ctx context.Context) ([]*Problem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, difficulty, tags, patterns, description FROM problems`)
	if err != nil {
		return nil, fmt.Errorf("problems: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Problem
	for rows.Next() {
		var p Problem
		var tags, patterns []byte
		if err := rows.Scan(&p.ID, &p.Title, &p.Difficulty, &tags, &patterns, &p.Description); err != nil {
			return nil, fmt.Errorf("problems: scan: %w", err)
		}
		if err := decodeList(tags, &p.Tags); err != nil {
			return nil, err
		}
		if err := decodeList(patterns, &p.Patterns); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func decodeList(raw []byte, dst *[]string) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("problems: decode list: %w", err)
	}
	return nil
}
