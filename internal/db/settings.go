package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Setting keys
const (
	SettingSelectedProject = "selected_project"
	SettingTheme           = "theme"
)

// Setting is one stored key/value pair
type Setting struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GetSetting returns the value for key and whether it was set
func (db *DB) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting stores value under key. An empty value deletes the key.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	return db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if value == "" {
			_, err := tx.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
			return err
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at) VALUES (:key, :value, :updated_at)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, Setting{Key: key, Value: value, UpdatedAt: time.Now()})
		return err
	})
}

// Settings returns every stored setting ordered by key
func (db *DB) Settings(ctx context.Context) ([]Setting, error) {
	var out []Setting
	if err := db.SelectContext(ctx, &out, `SELECT key, value, updated_at FROM settings ORDER BY key`); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return out, nil
}
