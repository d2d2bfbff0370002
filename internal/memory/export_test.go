package memory

import (
	"context"
	"database/sql"
	"strings"
)

// DB exposes the internal *sql.DB for test helpers in memory_test.
// This file only compiles during `go test`.
func (s *Store) DB() *sql.DB {
	return s.db
}

// FailCommit makes every subsequent transaction commit fail with err.
func (s *Store) FailCommit(err error) {
	s.hooks.commit = func(*sql.Tx) error { return err }
}

// FailExecMatching makes exec calls whose query contains substr fail with err.
func (s *Store) FailExecMatching(substr string, err error) {
	s.hooks.exec = func(ctx context.Context, db execer, query string, args ...any) (sql.Result, error) {
		if strings.Contains(strings.ToLower(query), strings.ToLower(substr)) {
			return nil, err
		}
		return db.ExecContext(ctx, query, args...)
	}
}
