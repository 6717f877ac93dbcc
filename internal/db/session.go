package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LoadToken returns the stored session token, "" when logged out
func (db *DB) LoadToken(ctx context.Context) (string, error) {
	var token string
	err := db.GetContext(ctx, &token, `SELECT token FROM session WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

// SaveToken replaces the stored session token
func (db *DB) SaveToken(ctx context.Context, token string) error {
	const q = `
		INSERT INTO session (id, token, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(ctx, q, token, time.Now()); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// ClearToken removes the stored session token
func (db *DB) ClearToken(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM session WHERE id = 1`); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
