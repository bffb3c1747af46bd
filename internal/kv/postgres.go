package kv

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// PostgresStore keeps entries in the kv_store table (key TEXT PRIMARY KEY,
// value JSONB). See database/migration for the schema.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const q = `SELECT value FROM kv_store WHERE key = $1`
	var value []byte
	if err := s.db.QueryRowContext(ctx, q, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	const q = `
		INSERT INTO kv_store (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`
	_, err := s.db.ExecContext(ctx, q, key, string(value))
	return err
}

func (s *PostgresStore) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	const q = `
		INSERT INTO kv_store (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, q, key, string(value))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes a key. It does not return an error if the row does not exist.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM kv_store WHERE key = $1`
	_, err := s.db.ExecContext(ctx, q, key)
	return err
}

func (s *PostgresStore) ScanByPrefix(ctx context.Context, prefix string) ([][]byte, error) {
	const q = `SELECT value FROM kv_store WHERE key LIKE $1 ESCAPE '\'`
	rows, err := s.db.QueryContext(ctx, q, escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([][]byte, 0)
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes prefix match literally inside a LIKE pattern.
func escapeLike(prefix string) string {
	return likeEscaper.Replace(prefix)
}
