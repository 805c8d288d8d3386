// Package statuscmder provides the status command, which reports the state of
// a running spool server.
package statuscmder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/spool/api"
	"github.com/papercomputeco/spool/pkg/cliui"
	"github.com/papercomputeco/spool/pkg/config"
)

const requestTimeout = 5 * time.Second

const statusLongDesc string = `Show the state of a running spool server.

Queries GET /status on the server and prints the buffer state, the number of
pending records, capacity, tolerance and the active formatter.

The server address defaults to api.listen from config.toml.

Examples:
  spool status
  spool status --api-target http://localhost:9000`

const statusShortDesc string = "Show the state of a running spool server"

type statusCommander struct {
	apiTarget string
}

func NewStatusCmd() *cobra.Command {
	cmder := &statusCommander{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := cmder.apiTarget
			if target == "" {
				configDir, _ := cmd.Flags().GetString("config-dir")
				t, err := defaultTarget(configDir)
				if err != nil {
					return err
				}
				target = t
			}
			return runStatus(cmd.Context(), cmd.OutOrStdout(), target)
		},
	}

	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", "", "Base URL of the spool server (default: from api.listen)")

	return cmd
}

// defaultTarget turns api.listen into a URL, using localhost for a bare port.
func defaultTarget(configDir string) (string, error) {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return "", fmt.Errorf("loading config: %w", err)
	}
	listen, err := cfger.GetConfigValue("api.listen")
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(listen, ":") {
		listen = "localhost" + listen
	}
	return "http://" + listen, nil
}

func runStatus(ctx context.Context, w io.Writer, target string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	status, err := fetchStatus(ctx, target)
	if err != nil {
		return err
	}

	rendered, err := cliui.RenderMarkdown(statusMarkdown(target, status))
	if err != nil {
		return fmt.Errorf("rendering status: %w", err)
	}
	fmt.Fprint(w, rendered)
	return nil
}

func fetchStatus(ctx context.Context, target string) (*api.StatusResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	url := strings.TrimSuffix(target, "/") + "/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("is spool serve running? %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	var status api.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decoding status: %w", err)
	}
	return &status, nil
}

func statusMarkdown(target string, s *api.StatusResponse) string {
	capacity := "disabled"
	if s.Enabled {
		capacity = strconv.Itoa(s.Capacity)
	}
	tolerance := "unlimited"
	if s.Tolerance != nil {
		tolerance = strconv.Itoa(*s.Tolerance)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## spool at %s\n\n", target)
	sb.WriteString("| setting | value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| state | %s |\n", s.State)
	fmt.Fprintf(&sb, "| pending | %d |\n", s.Pending)
	fmt.Fprintf(&sb, "| capacity | %s |\n", capacity)
	fmt.Fprintf(&sb, "| tolerance | %s |\n", tolerance)
	fmt.Fprintf(&sb, "| formatter | %s |\n", s.Formatter)
	return sb.String()
}
