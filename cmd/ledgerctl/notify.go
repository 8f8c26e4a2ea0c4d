package main

import (
	"github.com/spf13/cobra"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
)

func (c *cli) notifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify [counterparty-id...]",
		Short: "Send balance messages to counterparties over the selected channel",
		Long: `Send each counterparty its current balance. Without IDs every active
counterparty of the role is messaged. Counterparties without a phone are skipped
and messages are paced by NOTIFY_INTERVAL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := roleFlag(cmd)
			if err != nil {
				return err
			}
			ctx := c.ctx(cmd)
			all, err := c.app.AllCounterparties(ctx, c.shop.ShopID, role)
			if err != nil {
				return err
			}
			targets := all
			if len(args) > 0 {
				byID := make(map[string]counterparty.Counterparty, len(all))
				for _, cp := range all {
					byID[cp.ID] = cp
				}
				targets = targets[:0:0]
				for _, id := range args {
					cp, ok := byID[id]
					if !ok {
						return errors.NewNotFoundError("counterparty not found").WithDetail("counterpartyId", id)
					}
					targets = append(targets, cp)
				}
			}

			result, err := c.app.Dispatcher.NotifyGroup(ctx, c.shop.ShopID, c.shop.Name(), targets)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().String("role", "customer", "customer or supplier")
	return cmd
}

func (c *cli) channelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channel",
		Short: "Show or change the shop's messaging channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := c.app.Selections.Get(c.ctx(cmd), c.shop.ShopID)
			if err != nil {
				return err
			}
			return printJSON(cmd, sel)
		},
	}

	selectCmd := &cobra.Command{
		Use:   "select <channel-id>",
		Short: "Send balance messages through a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			sel, err := c.app.Selections.Select(c.ctx(cmd), c.shop.ShopID, args[0], name)
			if err != nil {
				return err
			}
			return printJSON(cmd, sel)
		},
	}
	selectCmd.Flags().String("name", "", "Label for the channel")

	offCmd := &cobra.Command{
		Use:   "off",
		Short: "Stop sending balance messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := c.app.Selections.OptOut(c.ctx(cmd), c.shop.ShopID)
			if err != nil {
				return err
			}
			return printJSON(cmd, sel)
		},
	}

	cmd.AddCommand(selectCmd, offCmd)
	return cmd
}
