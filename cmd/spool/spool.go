// Package spoolcmder
package spoolcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/spool/cmd/spool/config"
	dumpcmder "github.com/papercomputeco/spool/cmd/spool/dump"
	initcmder "github.com/papercomputeco/spool/cmd/spool/init"
	servecmder "github.com/papercomputeco/spool/cmd/spool/serve"
	statuscmder "github.com/papercomputeco/spool/cmd/spool/status"
	versioncmder "github.com/papercomputeco/spool/cmd/version"
)

const spoolLongDesc string = `Spool buffers records in memory and merges them into JSON, CSV or
text history files in batches.

Run services using:
  spool serve          Run the history API server
  spool dump           Write records straight to a history file
  spool status         Show the state of a running server
  spool init           Create a local .spool/ directory
  spool config         Manage persistent configuration`

const spoolShortDesc string = "Spool - buffered history capture"

func NewSpoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "spool",
		Short:         spoolShortDesc,
		Long:          spoolLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .spool/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(dumpcmder.NewDumpCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
