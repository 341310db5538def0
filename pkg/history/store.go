package history

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/antibyte/minilang/pkg/lexer"
	"github.com/antibyte/minilang/pkg/logger"
	"github.com/antibyte/minilang/pkg/output"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("scan run not found")

// Run is one recorded analysis.
type Run struct {
	ID          string    `json:"id"`
	SourceName  string    `json:"sourceName"`
	SourceHash  string    `json:"sourceHash"`
	TokenCount  int       `json:"tokenCount"`
	ErrorCount  int       `json:"errorCount"`
	IndentCount int       `json:"indentCount"`
	DedentCount int       `json:"dedentCount"`
	Output      string    `json:"output"`
	Errors      string    `json:"errors"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store reads and writes scan runs.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore wraps an initialized database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// HashSource returns the hex BLAKE2b-256 digest of source after line ending
// normalization, so LF and CRLF copies of a file hash the same.
func HashSource(source string) string {
	sum := blake2b.Sum256([]byte(strings.ReplaceAll(source, "\r\n", "\n")))
	return hex.EncodeToString(sum[:])
}

// Record stores the result of scanning source under name.
func (s *Store) Record(ctx context.Context, name, source string, tokens []lexer.Token, errs []lexer.LexError) (Run, error) {
	sum := lexer.Summarize(tokens, errs)
	run := Run{
		ID:          uuid.New().String(),
		SourceName:  name,
		SourceHash:  HashSource(source),
		TokenCount:  sum.Tokens,
		ErrorCount:  sum.Errors,
		IndentCount: sum.Indents,
		DedentCount: sum.Dedents,
		Output:      strings.Join(output.FormatTokens(tokens), "\n"),
		Errors:      strings.Join(output.FormatErrors(errs), "\n"),
		CreatedAt:   s.now(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_runs (
			id, source_name, source_hash, token_count, error_count,
			indent_count, dedent_count, output, errors, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.SourceName, run.SourceHash, run.TokenCount, run.ErrorCount,
		run.IndentCount, run.DedentCount, run.Output, run.Errors, run.CreatedAt.UnixNano())
	if err != nil {
		return Run{}, fmt.Errorf("failed to record scan run: %w", err)
	}

	logger.Info(logger.AreaHistory, "recorded run %s for %s (%d tokens, %d errors)",
		run.ID, name, run.TokenCount, run.ErrorCount)
	return run, nil
}

const selectRun = `SELECT id, source_name, source_hash, token_count, error_count,
	indent_count, dedent_count, output, errors, created_at FROM scan_runs`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var created int64
	err := row.Scan(&run.ID, &run.SourceName, &run.SourceHash, &run.TokenCount, &run.ErrorCount,
		&run.IndentCount, &run.DedentCount, &run.Output, &run.Errors, &created)
	if err != nil {
		return Run{}, err
	}
	run.CreatedAt = time.Unix(0, created)
	return run, nil
}

// Get returns the run with the given id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return run, nil
}

// List returns up to limit runs, newest first. A limit <= 0 means 50.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.query(ctx, selectRun+` ORDER BY created_at DESC, id LIMIT ?`, limit)
}

// FindByHash returns all runs of sources with the given hash, newest first.
func (s *Store) FindByHash(ctx context.Context, hash string) ([]Run, error) {
	return s.query(ctx, selectRun+` WHERE source_hash = ? ORDER BY created_at DESC, id`, hash)
}

func (s *Store) query(ctx context.Context, query string, args ...interface{}) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Delete removes a run.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scan_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// Prune keeps the newest keep runs and deletes the rest.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM scan_runs WHERE id NOT IN (
			SELECT id FROM scan_runs ORDER BY created_at DESC, id LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logger.Info(logger.AreaHistory, "pruned %d old runs", n)
	}
	return n, nil
}
