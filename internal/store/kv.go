package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sadopc/focusflow/internal/domain"
)

// Document keys used by the application.
const (
	KeySettings     = "settings"
	KeyTasks        = "tasks"
	KeyStats        = "stats"
	KeyStreak       = "streak"
	KeyActiveTaskID = "activeTaskId"
)

// Keys lists every application key, in load order.
var Keys = []string{KeySettings, KeyTasks, KeyStats, KeyStreak, KeyActiveTaskID}

// SanitizeKey strips every character outside [A-Za-z0-9_-]. An empty result
// is rejected with domain.ErrInvalidKey.
func SanitizeKey(key string) (string, error) {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return -1
	}, key)
	if clean == "" {
		return "", fmt.Errorf("sanitize %q: %w", key, domain.ErrInvalidKey)
	}
	return clean, nil
}

// Get returns the value stored under key. ok is false when the key is absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	k, err := SanitizeKey(key)
	if err != nil {
		return nil, false, err
	}
	var value string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, k).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &domain.StorageError{Op: "get", Key: k, Err: err}
	}
	return []byte(value), true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	k, err := SanitizeKey(key)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%SZ','now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		k, string(value),
	)
	if err != nil {
		return &domain.StorageError{Op: "set", Key: k, Err: err}
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	k, err := SanitizeKey(key)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, k); err != nil {
		return &domain.StorageError{Op: "delete", Key: k, Err: err}
	}
	return nil
}
