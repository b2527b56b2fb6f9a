package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/cypherbuild/cypher"
	"github.com/roach88/cypherbuild/internal/canon"
)

// ErrNotFound is returned when no build matches a lookup.
var ErrNotFound = errors.New("build not found")

// Build is a stored build result.
type Build struct {
	Seq         int64          `json:"seq"`
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Fingerprint string         `json:"fingerprint"`
	Cypher      string         `json:"cypher"`
	Params      map[string]any `json:"params"`
	ParamKeys   []string       `json:"param_keys"`
}

// SaveBuild records a build under name. Builds are keyed by fingerprint:
// saving the same text and parameters again returns the existing row with
// created=false and does not consume an id.
//
// Params are stored as RFC 8785 canonical JSON.
func (s *Store) SaveBuild(ctx context.Context, name string, result *cypher.Result) (Build, bool, error) {
	if result == nil {
		return Build{}, false, fmt.Errorf("save build: result is nil")
	}
	if strings.TrimSpace(name) == "" {
		return Build{}, false, fmt.Errorf("save build: name is required")
	}

	fp, err := result.Fingerprint()
	if err != nil {
		return Build{}, false, fmt.Errorf("save build: %w", err)
	}

	existing, err := s.GetByFingerprint(ctx, fp)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return Build{}, false, fmt.Errorf("save build: %w", err)
	}

	paramsJSON, err := canon.Marshal(result.Params)
	if err != nil {
		return Build{}, false, fmt.Errorf("save build: marshal params: %w", err)
	}
	keysJSON, err := json.Marshal(result.ParamKeys())
	if err != nil {
		return Build{}, false, fmt.Errorf("save build: marshal param keys: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO builds
		(id, name, fingerprint, cypher, params, param_keys)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`,
		s.ids.Generate(),
		name,
		fp,
		result.Cypher,
		string(paramsJSON),
		string(keysJSON),
	)
	if err != nil {
		return Build{}, false, fmt.Errorf("save build: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Build{}, false, fmt.Errorf("save build: %w", err)
	}

	saved, err := s.GetByFingerprint(ctx, fp)
	if err != nil {
		return Build{}, false, fmt.Errorf("save build: read back: %w", err)
	}
	return saved, n == 1, nil
}

// GetByFingerprint returns the build with the given fingerprint, or
// ErrNotFound.
func (s *Store) GetByFingerprint(ctx context.Context, fingerprint string) (Build, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, name, fingerprint, cypher, params, param_keys
		FROM builds
		WHERE fingerprint = ?
	`, fingerprint)

	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, fmt.Errorf("%w: %s", ErrNotFound, fingerprint)
	}
	if err != nil {
		return Build{}, fmt.Errorf("get build: %w", err)
	}
	return b, nil
}

// List returns stored builds, newest first. name filters by definition
// name when non-empty. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, name string, limit int) ([]Build, error) {
	query := `
		SELECT seq, id, name, fingerprint, cypher, params, param_keys
		FROM builds`
	var args []any
	if name != "" {
		query += `
		WHERE name = ?`
		args = append(args, name)
	}
	query += `
		ORDER BY seq DESC`
	if limit > 0 {
		query += `
		LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer rows.Close()

	builds := []Build{}
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("list builds: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return builds, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(row rowScanner) (Build, error) {
	var (
		b          Build
		paramsJSON string
		keysJSON   string
	)
	if err := row.Scan(&b.Seq, &b.ID, &b.Name, &b.Fingerprint, &b.Cypher, &paramsJSON, &keysJSON); err != nil {
		return Build{}, err
	}
	if err := json.Unmarshal([]byte(paramsJSON), &b.Params); err != nil {
		return Build{}, fmt.Errorf("unmarshal params: %w", err)
	}
	if b.Params == nil {
		b.Params = map[string]any{}
	}
	if err := json.Unmarshal([]byte(keysJSON), &b.ParamKeys); err != nil {
		return Build{}, fmt.Errorf("unmarshal param keys: %w", err)
	}
	if b.ParamKeys == nil {
		b.ParamKeys = []string{}
	}
	return b, nil
}
