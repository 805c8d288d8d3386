package nop

import (
	"context"

	"github.com/papercomputeco/spool/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishFlush validates input and otherwise does nothing.
func (p *Publisher) PublishFlush(_ context.Context, event *eventstream.GroupFlushedEvent) error {
	if event == nil {
		return eventstream.ErrNilFlushEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
