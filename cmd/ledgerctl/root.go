package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hirosato/shop-ledger/backend/internal/app"
	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shop"
)

var version = "1.0.0"

type opener func(ctx context.Context) (*app.App, func() error, error)

// cli carries the opened application and the shop flags between cobra hooks
type cli struct {
	open  opener
	app   *app.App
	close func() error
	shop  shop.Context
}

func newRootCmd(open opener) *cobra.Command {
	c := &cli{open: open}

	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "ledgerctl - operate a shop's customer and supplier ledger",
		Long: `ledgerctl records sales, purchases, payments and receipts against a shop's
customers and suppliers, lists balances, repairs stale balances by replaying
the transaction log, and sends balance messages.

The storage backend and notification channel come from the environment
(STORE_BACKEND, SQLITE_PATH, DYNAMODB_TABLE_NAME, NOTIFY_CHANNEL, ...); a .env
file in the working directory is loaded first.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.shop.Validate(); err != nil {
				return err
			}
			a, closeFn, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			c.app, c.close = a, closeFn
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.close == nil {
				return nil
			}
			return c.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.shop.ShopID, "shop", "", "Shop ID (required)")
	rootCmd.PersistentFlags().StringVar(&c.shop.ShopName, "shop-name", "", "Shop name used in balance messages")
	rootCmd.PersistentFlags().StringVar(&c.shop.UserID, "user", "ledgerctl", "User recorded on new rows")

	rootCmd.AddCommand(
		c.createCmd(),
		c.recordCmd(),
		c.listCmd(),
		c.statementCmd(),
		c.reconcileCmd(),
		c.notifyCmd(),
		c.channelCmd(),
		c.expenseCmd(),
		c.shortageCmd(),
	)
	return rootCmd
}

func (c *cli) ctx(cmd *cobra.Command) context.Context {
	return shop.WithContext(cmd.Context(), &c.shop)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func roleFlag(cmd *cobra.Command) (counterparty.Role, error) {
	s, _ := cmd.Flags().GetString("role")
	role, ok := counterparty.ParseRole(s)
	if !ok {
		return "", errors.NewValidationError(fmt.Sprintf("--role must be customer or supplier, got %q", s))
	}
	return role, nil
}
