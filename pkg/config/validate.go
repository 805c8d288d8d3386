package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/papercomputeco/spool/pkg/buffer"
	"github.com/papercomputeco/spool/pkg/dump"
	"github.com/papercomputeco/spool/pkg/history"
	"github.com/papercomputeco/spool/pkg/merge"
	"github.com/papercomputeco/spool/pkg/writer"
)

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	add := func(err error) {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	if c.History.Capacity < 0 {
		add(fmt.Errorf("history.capacity must be non-negative, got %d", c.History.Capacity))
	}
	if c.History.Tolerance < -1 {
		add(fmt.Errorf("history.tolerance must be -1 (unlimited) or non-negative, got %d", c.History.Tolerance))
	}
	if _, err := history.ParseFormatter(c.History.Formatter); err != nil {
		add(fmt.Errorf("history.formatter: %w", err))
	}

	if _, err := merge.ParseMode(c.Dump.Mode); err != nil {
		add(fmt.Errorf("dump.mode: %w", err))
	}
	if c.Dump.Format != "" {
		if _, err := writer.ParseFormat(c.Dump.Format); err != nil {
			add(fmt.Errorf("dump.format: %w", err))
		}
	} else if c.Dump.Destination != "" {
		if _, err := writer.FormatFromPath(c.Dump.Destination); err != nil {
			add(fmt.Errorf("dump.destination: %w", err))
		}
	}
	if _, err := merge.ParseKey(c.Dump.Key); err != nil {
		add(fmt.Errorf("dump.key: %w", err))
	}
	if _, err := dump.ParseStampStyle(c.Dump.LogAs); err != nil {
		add(fmt.Errorf("dump.log_as: %w", err))
	}
	if c.Dump.MaxConcurrency < 0 {
		add(fmt.Errorf("dump.max_concurrency must be non-negative, got %d", c.Dump.MaxConcurrency))
	}

	switch c.EventStream.Provider {
	case ProviderNone, "":
	case ProviderKafka:
		if len(c.EventStream.Brokers) == 0 {
			add(fmt.Errorf("eventstream.brokers is required for the %s provider", ProviderKafka))
		}
		if c.EventStream.Topic == "" {
			add(fmt.Errorf("eventstream.topic is required for the %s provider", ProviderKafka))
		}
	default:
		add(fmt.Errorf("eventstream.provider: unknown provider %q (expected none or kafka)", c.EventStream.Provider))
	}

	return result.ErrorOrNil()
}

// HistoryTolerance converts history.tolerance, where -1 is unlimited.
func (c *Config) HistoryTolerance() buffer.Tolerance {
	if c.History.Tolerance < 0 {
		return buffer.Unlimited
	}
	return buffer.Limit(c.History.Tolerance)
}
