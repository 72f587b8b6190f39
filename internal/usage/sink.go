// internal/usage/sink.go
package usage

import (
	"context"
	"errors"

	"capability-explorer/internal/models"
)

// Sink persists one usage event.
type Sink interface {
	Write(ctx context.Context, event models.UsageEvent) error
}

// MultiSink writes each event to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, event models.UsageEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
