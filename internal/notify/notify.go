// Package notify provides Notifier implementations that do not depend on
// the terminal UI.
package notify

import (
	"context"
	"errors"

	"github.com/sadopc/focusflow/internal/domain"
	"github.com/sadopc/focusflow/internal/logger"
)

// Log writes notifications to the application log.
type Log struct {
	Log *logger.Logger
}

// Notify logs title and body at info level.
func (n Log) Notify(_ context.Context, title, body string) error {
	if n.Log != nil {
		n.Log.Info("notification: %s: %s", title, body)
	}
	return nil
}

// Multi fans a notification out to every notifier, in order. All notifiers
// are attempted; their errors are joined.
type Multi []domain.Notifier

// Notify delivers to each notifier.
func (m Multi) Notify(ctx context.Context, title, body string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ domain.Notifier = Log{}
	_ domain.Notifier = Multi(nil)
)
