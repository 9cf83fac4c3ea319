package run

import (
	"github.com/snowfork/lane-relayer/cmd/run/messages"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a relay service",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.AddCommand(messages.Command())

	return cmd
}
