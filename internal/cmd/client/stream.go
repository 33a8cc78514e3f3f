package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	transports "github.com/rzbill/streamer/internal/cmd/client/transports"
	"github.com/spf13/cobra"
)

// NewStreamCommand constructs the `stream` command group and subcommands.
func NewStreamCommand(baseURL BaseURLFunc) *cobra.Command {
	streamCmd := &cobra.Command{Use: "stream", Short: "Stream operations"}
	streamCmd.AddCommand(
		newStreamAppendCommand(baseURL),
		newStreamGetCommand(baseURL),
		newStreamTailCommand(baseURL),
	)
	return streamCmd
}

// newStreamAppendCommand constructs the `stream append` subcommand.
func newStreamAppendCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append one entry; --data is a JSON object of fields",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, _ := cmd.Flags().GetString("data")
			var fields map[string]any
			if err := json.Unmarshal([]byte(data), &fields); err != nil {
				return fmt.Errorf("invalid --data: %w", err)
			}
			if len(fields) == 0 {
				return errors.New("--data must contain at least one field")
			}
			entryID, err := newTransport(baseURL).Append(cmd.Context(), fields)
			if err != nil {
				return err
			}
			cmd.Println("id:", entryID)
			return nil
		},
	}
	cmd.Flags().String("data", "", `Fields as JSON, e.g. {"hello":"world"}`)
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

// newStreamGetCommand constructs the `stream get` subcommand.
func newStreamGetCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Wait for new entries and print their parsed fields",
		RunE: func(cmd *cobra.Command, _ []string) error {
			count, _ := cmd.Flags().GetInt("count")
			filter, _ := cmd.Flags().GetString("filter")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			if count <= 0 {
				return errors.New("--count must be positive")
			}
			msgs, err := newTransport(baseURL).GetMany(cmd.Context(), count, filter, timeout)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), msgs)
		},
	}
	cmd.Flags().Int("count", 1, "Number of entries to wait for")
	cmd.Flags().String("filter", "", "CEL filter over id, ts_ms, seq and fields")
	cmd.Flags().Duration("timeout", 30*time.Second, "Give up after this long (0 waits indefinitely)")
	return cmd
}

// newStreamTailCommand constructs the `stream tail` subcommand.
func newStreamTailCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print new entries as they are appended",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			limit, _ := cmd.Flags().GetInt("limit")
			enc := json.NewEncoder(cmd.OutOrStdout())
			return newTransport(baseURL).Tail(cmd.Context(), transports.TailRequest{Filter: filter, Limit: limit}, func(m transports.Message) error {
				return enc.Encode(m)
			})
		},
	}
	cmd.Flags().String("filter", "", "CEL filter over id, ts_ms, seq and fields")
	cmd.Flags().Int("limit", 0, "Stop after this many entries (0 = no limit)")
	return cmd
}
