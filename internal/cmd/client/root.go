package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the streamer client.
// It registers ping and the stream and group command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "streamer",
		Short: "Streamer client commands",
	}
	AddCommands(root, baseURL)
	return root
}

// AddCommands registers the client commands on an existing root.
func AddCommands(root *cobra.Command, baseURL BaseURLFunc) {
	root.AddCommand(NewPingCommand(baseURL))
	root.AddCommand(NewStreamCommand(baseURL))
	root.AddCommand(NewGroupCommand(baseURL))
}

// NewPingCommand constructs the `ping` command.
func NewPingCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Round-trip to the log store through the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := newTransport(baseURL).Ping(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("%s (%.3fms)\n", res.Reply, res.LatencyMs)
			return nil
		},
	}
}
