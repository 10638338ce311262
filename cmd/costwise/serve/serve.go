// Package servecmder provides the serve command with subcommands for running
// local services.
package servecmder

import (
	"github.com/spf13/cobra"
)

const serveLongDesc string = `Run local costwise services.

  costwise serve mock    Run the in-memory mock of the cost backend`

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run local services",
		Long:  serveLongDesc,
	}

	cmd.AddCommand(NewMockCmd())

	return cmd
}
