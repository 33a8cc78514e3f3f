package client

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewGroupCommand constructs the `group` command group and subcommands.
func NewGroupCommand(baseURL BaseURLFunc) *cobra.Command {
	groupCmd := &cobra.Command{Use: "group", Short: "Consumer group operations"}
	groupCmd.AddCommand(
		newGroupCreateCommand(baseURL),
		newGroupConsumeCommand(baseURL),
		newGroupPendingCommand(baseURL),
	)
	return groupCmd
}

func newGroupCreateCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a consumer group (no-op if it exists)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			group, _ := cmd.Flags().GetString("group")
			start, _ := cmd.Flags().GetString("start")
			if err := newTransport(baseURL).CreateGroup(cmd.Context(), group, start); err != nil {
				return err
			}
			cmd.Println("group:", group)
			return nil
		},
	}
	cmd.Flags().String("group", "", "Group name")
	cmd.Flags().String("start", "$", `Start position: "$" (new entries only), "0" (all) or an entry ID`)
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func newGroupConsumeCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Consume entries as a group member; entries are acknowledged on delivery",
		RunE: func(cmd *cobra.Command, _ []string) error {
			group, _ := cmd.Flags().GetString("group")
			consumer, _ := cmd.Flags().GetString("consumer")
			count, _ := cmd.Flags().GetInt("count")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			if count <= 0 {
				return errors.New("--count must be positive")
			}
			if consumer == "" {
				consumer = "cli-" + uuid.NewString()
			}
			batch, err := newTransport(baseURL).Consume(cmd.Context(), group, consumer, count, timeout)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), batch)
		},
	}
	cmd.Flags().String("group", "", "Group name")
	cmd.Flags().String("consumer", "", "Consumer name (default: random)")
	cmd.Flags().Int("count", 1, "Number of entries to consume")
	cmd.Flags().Duration("timeout", 30*time.Second, "Give up after this long (0 waits indefinitely)")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func newGroupPendingCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List a group's unacknowledged entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			group, _ := cmd.Flags().GetString("group")
			count, _ := cmd.Flags().GetInt("count")
			items, err := newTransport(baseURL).Pending(cmd.Context(), group, count)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().String("group", "", "Group name")
	cmd.Flags().Int("count", 100, "Maximum entries to list")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}
