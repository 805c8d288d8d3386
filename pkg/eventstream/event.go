package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeGroupFlushed is emitted after a group of jobs sharing one
	// destination has been written.
	EventTypeGroupFlushed = "spool.group.flushed"
)

// GroupFlushedEvent is a transport-neutral event payload for one written group.
type GroupFlushedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	Group         GroupMeta `json:"group"`
	JobIDs        []string  `json:"job_ids"`
	Count         int       `json:"count"`
	DurationMs    int64     `json:"duration_ms"`
}

// GroupMeta identifies the group that was written.
type GroupMeta struct {
	Destination string   `json:"destination"`
	Format      string   `json:"format"`
	Key         []string `json:"key,omitempty"`
	Mode        string   `json:"mode"`
	StrictKeys  bool     `json:"strict_keys"`
}

// NewGroupFlushedEvent stamps a new event with a fresh ID and emission time.
func NewGroupFlushedEvent(group GroupMeta, jobIDs []string, duration time.Duration, now time.Time) *GroupFlushedEvent {
	return &GroupFlushedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeGroupFlushed,
		EventID:       uuid.NewString(),
		EmittedAt:     now.UTC(),
		Group:         group,
		JobIDs:        jobIDs,
		Count:         len(jobIDs),
		DurationMs:    duration.Milliseconds(),
	}
}
