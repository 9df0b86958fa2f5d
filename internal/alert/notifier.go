package alert

import (
	"context"
	"errors"
)

type Notifier interface {
	Notify(ctx context.Context, msg string) error
}

// NotifyAll sends msg through every notifier, even after one fails.
func NotifyAll(ctx context.Context, msg string, notifiers ...Notifier) error {
	var errs []error
	for _, n := range notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
