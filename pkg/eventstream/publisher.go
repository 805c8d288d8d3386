// Package eventstream defines the transport-neutral events spool emits after
// persisting buffered records, and the Publisher contract backends implement.
package eventstream

import "context"

// Publisher publishes flush events to an event stream backend.
type Publisher interface {
	PublishFlush(ctx context.Context, event *GroupFlushedEvent) error
	Close() error
}
