package notify

import (
	"context"
	"errors"
	"fmt"

	"lexivault/application/ports"
)

// Named pairs a notifier with a label used in error messages.
type Named struct {
	Name     string
	Notifier ports.ChangeNotifier
}

// Fanout delivers every scope to all notifiers, in order, and reports every
// failure. One failing notifier does not stop the others.
type Fanout struct {
	targets []Named
}

func NewFanout(targets ...Named) *Fanout {
	return &Fanout{targets: targets}
}

// Add appends a notifier
func (f *Fanout) Add(name string, n ports.ChangeNotifier) {
	f.targets = append(f.targets, Named{Name: name, Notifier: n})
}

// Len returns the number of notifiers
func (f *Fanout) Len() int { return len(f.targets) }

func (f *Fanout) Invalidate(ctx context.Context, scope ports.InvalidationScope) error {
	var errs []error
	for _, t := range f.targets {
		if err := t.Notifier.Invalidate(ctx, scope); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Noop discards scopes
type Noop struct{}

func (Noop) Invalidate(context.Context, ports.InvalidationScope) error { return nil }
