package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Ordering decides which of several overlapping dashboard responses is applied.
type Ordering uint8

const (
	// LastIssuedWins discards responses from dispatches that were superseded by a
	// newer dispatch, regardless of arrival order.
	LastIssuedWins Ordering = iota
	// LastResolverWins applies every response in arrival order.
	LastResolverWins
)

// ParseOrdering maps configuration values onto an Ordering.
func ParseOrdering(value string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "last-issued":
		return LastIssuedWins, nil
	case "last-resolver":
		return LastResolverWins, nil
	default:
		return LastIssuedWins, fmt.Errorf("dashboard: unknown ordering %q", value)
	}
}

func (o Ordering) String() string {
	if o == LastResolverWins {
		return "last-resolver"
	}
	return "last-issued"
}

// Recorder observes fetch outcomes. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveFetch(op, outcome string, duration time.Duration)
}

// Option customises a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMessages sets the error-message catalog locale.
func WithMessages(messages Messages) Option {
	return func(c *Controller) {
		c.messages = messages
	}
}

// WithOrdering selects the overlap policy for dashboard fetches.
func WithOrdering(ordering Ordering) Option {
	return func(c *Controller) {
		c.ordering = ordering
	}
}

// WithStrictSelection makes SetSelectedYear reject years that the backend did not
// report as available.
func WithStrictSelection() Option {
	return func(c *Controller) {
		c.strict = true
	}
}

// WithInitialYear overrides the default selection (the current calendar year).
func WithInitialYear(year int) Option {
	return func(c *Controller) {
		c.selectedYear = year
	}
}

// WithRecorder attaches a fetch outcome recorder.
func WithRecorder(recorder Recorder) Option {
	return func(c *Controller) {
		c.recorder = recorder
	}
}

// WithBaseContext sets the context used by background dispatches. It should live
// as long as the dashboard session.
func WithBaseContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.baseCtx = ctx
		}
	}
}
