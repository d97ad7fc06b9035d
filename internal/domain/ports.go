// Package domain holds the error taxonomy and the collaborator interfaces
// consumed by the focus engine.
package domain

import "context"

// Store is durable key-value storage. Each key is written independently and
// atomically. Get reports ok=false when the key has never been written.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Notifier delivers a desktop-style notification. Best effort: callers log
// and discard errors.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Sound plays the phase completion chime. Best effort.
type Sound interface {
	PlayChime(ctx context.Context) error
}
