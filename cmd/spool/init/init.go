// Package initcmder provides the init command for initializing a local .spool
// directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/spool/pkg/cliui"
	"github.com/papercomputeco/spool/pkg/config"
)

const (
	dirName = ".spool"

	fetchTimeout = 10 * time.Second
)

const initLongDesc string = `Initialize a new .spool/ directory in the current working directory.

Creates a local .spool/ directory that takes precedence over the default
~/.spool/ directory, and writes a config.toml into it unless one already
exists.

Use --preset to start from a configuration tuned for one output format
(json, csv, txt), or pass an http(s) URL to fetch a shared config.toml.
A preset always replaces an existing config.toml.

Examples:
  spool init
  spool init --preset csv
  spool init --preset https://example.com/team/spool.toml`

const initShortDesc string = "Initialize a local .spool/ directory"

type initCommander struct {
	preset string
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		fmt.Sprintf("Config preset (%s) or URL of a config.toml", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func (c *initCommander) run(ctx context.Context, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // dot dir is meant to be readable
		return fmt.Errorf("creating .spool directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return err
	}

	_, statErr := os.Stat(cfger.GetTarget())
	exists := statErr == nil
	if exists && c.preset == "" {
		fmt.Fprintf(w, "  %s Already initialized: %s\n", cliui.SuccessMark, dir)
		return nil
	}
	if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", statErr)
	}

	cfg, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Initialized %s\n", cliui.SuccessMark, cliui.DimStyle.Render(cfger.GetTarget()))
	return nil
}

// resolve returns the default config, a named preset or a fetched one.
func (c *initCommander) resolve(ctx context.Context) (*config.Config, error) {
	switch {
	case c.preset == "":
		return config.NewDefaultConfig(), nil
	case strings.HasPrefix(c.preset, "http://"), strings.HasPrefix(c.preset, "https://"):
		return fetchConfig(ctx, c.preset)
	default:
		return config.PresetConfig(c.preset)
	}
}

func fetchConfig(ctx context.Context, url string) (*config.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}

	cfg, err := config.ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("remote config is invalid: %w", err)
	}
	return cfg, nil
}
