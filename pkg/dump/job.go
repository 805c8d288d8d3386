// Package dump turns records into write jobs and dispatches batches of jobs to
// the format writers, one writer invocation per destination group.
package dump

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/papercomputeco/spool/pkg/merge"
	"github.com/papercomputeco/spool/pkg/value"
	"github.com/papercomputeco/spool/pkg/writer"
)

// ErrValidation wraps every rejected job parameter: mode, format, key or
// payload.
var ErrValidation = errors.New("invalid dump job")

// Target is where and how a job writes. An empty Format is inferred from the
// destination's extension and an empty Mode means overwrite.
type Target struct {
	Destination string
	Format      writer.Format
	Mode        merge.Mode
	Key         []string
	StrictKeys  bool
}

// Job is one payload bound to a resolved Target.
type Job struct {
	ID          uuid.UUID
	Destination string
	Format      writer.Format
	Mode        merge.Mode
	Key         []string
	StrictKeys  bool
	Payload     value.Value
}

// NewJob validates t, makes the destination absolute and creates its parent
// directories. Validation happens before any filesystem access.
func NewJob(t Target, payload value.Value) (*Job, error) {
	resolved, err := resolve(t)
	if err != nil {
		return nil, err
	}

	dest, err := prepareDestination(resolved.Destination)
	if err != nil {
		return nil, err
	}

	return &Job{
		ID:          uuid.New(),
		Destination: dest,
		Format:      resolved.Format,
		Mode:        resolved.Mode,
		Key:         resolved.Key,
		StrictKeys:  resolved.StrictKeys,
		Payload:     payload,
	}, nil
}

// Request returns the writer request addressing this job's destination.
func (j *Job) Request() writer.Request {
	return writer.Request{
		Path:       j.Destination,
		Mode:       j.Mode,
		Key:        j.Key,
		StrictKeys: j.StrictKeys,
	}
}

// Write persists the job on its own through the registry's writer.
func (j *Job) Write(ctx context.Context, writers *writer.Registry) error {
	if j.Payload.IsNull() {
		return fmt.Errorf("%w: no data to write", ErrValidation)
	}

	w, err := writers.Get(j.Format)
	if err != nil {
		return err
	}
	return w.WriteSingle(ctx, j.Request(), j.Payload)
}

// resolve validates t without touching the filesystem.
func resolve(t Target) (Target, error) {
	if t.Destination == "" {
		return Target{}, fmt.Errorf("%w: empty destination", ErrValidation)
	}

	if t.Mode == "" {
		t.Mode = merge.ModeOverwrite
	}
	mode, err := merge.ParseMode(string(t.Mode))
	if err != nil {
		return Target{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	t.Mode = mode

	if len(t.Key) == 0 {
		t.Key = nil
	} else {
		if err := merge.ValidateKey(t.Key); err != nil {
			return Target{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		t.Key = append([]string(nil), t.Key...)
	}

	var format writer.Format
	if t.Format == "" {
		format, err = writer.FormatFromPath(t.Destination)
	} else {
		format, err = writer.ParseFormat(string(t.Format))
	}
	if err != nil {
		return Target{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	t.Format = format

	return t, nil
}

func prepareDestination(dest string) (string, error) {
	abs, err := filepath.Abs(dest)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dest, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil { //nolint:gosec // history directories are meant to be shared
		return "", fmt.Errorf("creating parent of %s: %w", abs, err)
	}
	return abs, nil
}
