package dump

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/spool/pkg/merge"
	"github.com/papercomputeco/spool/pkg/value"
)

// StampStyle selects how a timestamp is attached to a sequence or scalar
// payload.
type StampStyle string

const (
	// StampAsKey adds the timestamp under TimestampKey.
	StampAsKey StampStyle = "key"

	// StampAsAppend appends the raw timestamp.
	StampAsAppend StampStyle = "append"
)

// ParseStampStyle accepts "key" or "append".
func ParseStampStyle(s string) (StampStyle, error) {
	switch StampStyle(s) {
	case StampAsKey, StampAsAppend:
		return StampStyle(s), nil
	default:
		return "", fmt.Errorf("%w: stamp style %q (expected key or append)", ErrValidation, s)
	}
}

// TimeFormat selects the timestamp renderer.
type TimeFormat int

const (
	// TimeFormatDefault renders DefaultTimeLayout.
	TimeFormatDefault TimeFormat = iota

	// TimeFormatCustom renders with FactoryConfig.FormatTime.
	TimeFormatCustom
)

func (f TimeFormat) String() string {
	if f == TimeFormatCustom {
		return "custom"
	}
	return "default"
}

const (
	// DefaultTimeLayout renders as YYYY-MM-DD HH:MM:SS.
	DefaultTimeLayout = "2006-01-02 15:04:05"

	// DefaultTimestampKey is the key a stamped mapping gains.
	DefaultTimestampKey = "timestamp"
)

// FactoryConfig holds the settings shared by every job a Factory creates.
type FactoryConfig struct {
	Target

	// LogTime enables timestamp stamping of payloads.
	LogTime bool

	// StampAs defaults to StampAsKey.
	StampAs StampStyle

	// TimestampKey defaults to DefaultTimestampKey.
	TimestampKey string

	// TimeFormat picks between DefaultTimeLayout and FormatTime.
	TimeFormat TimeFormat
	FormatTime func(time.Time) string

	// Clock defaults to time.Now.
	Clock func() time.Time

	Logger *zap.Logger
}

// Factory creates jobs with consistent settings.
type Factory struct {
	target       Target
	logTime      bool
	stampAs      StampStyle
	timestampKey string
	formatTime   func(time.Time) string
	clock        func() time.Time
	logger       *zap.Logger
}

// NewFactory validates the shared target up front. An empty mode defaults to
// append.
func NewFactory(c *FactoryConfig) (*Factory, error) {
	target := c.Target
	if target.Mode == "" {
		target.Mode = merge.ModeAppend
	}
	resolved, err := resolve(target)
	if err != nil {
		return nil, err
	}

	stampAs := c.StampAs
	if stampAs == "" {
		stampAs = StampAsKey
	}
	if _, err := ParseStampStyle(string(stampAs)); err != nil {
		return nil, err
	}

	timestampKey := c.TimestampKey
	if timestampKey == "" {
		timestampKey = DefaultTimestampKey
	}

	formatTime := func(t time.Time) string { return t.Format(DefaultTimeLayout) }
	if c.TimeFormat == TimeFormatCustom {
		if c.FormatTime == nil {
			return nil, fmt.Errorf("%w: custom time format without a FormatTime function", ErrValidation)
		}
		formatTime = c.FormatTime
	}

	clock := c.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Factory{
		target:       resolved,
		logTime:      c.LogTime,
		stampAs:      stampAs,
		timestampKey: timestampKey,
		formatTime:   formatTime,
		clock:        clock,
		logger:       logger,
	}, nil
}

// Target returns the resolved target jobs are created for.
func (f *Factory) Target() Target { return f.target }

// Create builds one job for record, stamping it first when enabled.
func (f *Factory) Create(record value.Value) (*Job, error) {
	if f.logTime {
		record = f.Stamp(record)
	}

	job, err := NewJob(f.target, record)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("job created",
		zap.String("job_id", job.ID.String()),
		zap.String("destination", job.Destination),
		zap.String("format", job.Format.String()),
		zap.String("mode", job.Mode.String()),
	)
	return job, nil
}

// CreateMany builds one job per record, in order.
func (f *Factory) CreateMany(records ...value.Value) ([]*Job, error) {
	jobs := make([]*Job, 0, len(records))
	for _, r := range records {
		job, err := f.Create(r)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Stamp attaches the current time to payload without modifying it:
//   - null becomes an empty mapping, then is stamped
//   - a mapping gains the timestamp key
//   - a sequence gains the raw timestamp (append) or a one-key mapping (key)
//   - anything else becomes [payload, ts] (append) or {data: payload, key: ts}
func (f *Factory) Stamp(payload value.Value) value.Value {
	ts := value.String(f.formatTime(f.clock()))

	switch payload.Kind() {
	case value.KindNull:
		return value.FromMapping(value.MappingOf(value.P(f.timestampKey, ts)))
	case value.KindMapping:
		m, _ := payload.AsMapping()
		stamped := m.Clone()
		stamped.Set(f.timestampKey, ts)
		return value.FromMapping(stamped)
	case value.KindSequence:
		if f.stampAs == StampAsAppend {
			return payload.Push(ts)
		}
		return payload.Push(value.FromMapping(value.MappingOf(value.P(f.timestampKey, ts))))
	case value.KindBool, value.KindInt, value.KindFloat, value.KindString, value.KindSet:
		if f.stampAs == StampAsAppend {
			return value.Sequence(payload, ts)
		}
		return value.FromMapping(value.MappingOf(
			value.P("data", payload),
			value.P(f.timestampKey, ts),
		))
	}
	return payload
}
