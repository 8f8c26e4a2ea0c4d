package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hirosato/shop-ledger/backend/internal/common/utils"
	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/ledger"
	"github.com/hirosato/shop-ledger/backend/internal/domain/listing"
	"github.com/hirosato/shop-ledger/backend/internal/jobs"
)

func (c *cli) createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a customer or supplier, optionally with an opening balance",
		Example: `  ledgerctl create --shop s1 --role customer --name "Asha" --phone +8801700000001
  ledgerctl create --shop s1 --role supplier --name "Mill" --opening 700 --direction due`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := roleFlag(cmd)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")
			phone, _ := cmd.Flags().GetString("phone")
			address, _ := cmd.Flags().GetString("address")
			opening, _ := cmd.Flags().GetString("opening")
			direction, _ := cmd.Flags().GetString("direction")
			date, _ := cmd.Flags().GetString("date")

			if err := utils.ValidateRequiredString(name, "--name"); err != nil {
				return err
			}
			phone, err = utils.NormalizePhone(phone)
			if err != nil {
				return err
			}
			amount, err := utils.ParseAmount(opening, "--opening")
			if err != nil {
				return err
			}
			dir, ok := counterparty.ParseDirection(direction)
			if !ok {
				return errors.NewValidationError("--direction must be due or advance")
			}
			occurredAt, err := utils.ParseISODate(date)
			if err != nil {
				return err
			}

			cp, err := c.app.Engine.CreateCounterparty(c.ctx(cmd), &c.shop, ledger.CreateCounterpartyRequest{
				Role:             role,
				DisplayName:      name,
				Phone:            phone,
				Address:          address,
				OpeningAmount:    amount,
				OpeningDirection: dir,
				OccurredAt:       occurredAt,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, cp)
		},
	}
	cmd.Flags().String("role", "customer", "customer or supplier")
	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().String("phone", "", "Phone number for balance messages")
	cmd.Flags().String("address", "", "Address")
	cmd.Flags().String("opening", "", "Opening balance amount")
	cmd.Flags().String("direction", string(counterparty.Due), "Opening balance side: due or advance")
	cmd.Flags().String("date", "", "Opening balance date (YYYY-MM-DD, default: today)")
	return cmd
}

func (c *cli) recordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <counterparty-id>",
		Short: "Record amounts given to and received from a counterparty",
		Long: `Record what the shop gave (--out) and received (--in) in one action.

For a customer --out is a sale on credit and --in a receipt.
For a supplier --out is a payment and --in a purchase on credit.`,
		Example: `  ledgerctl record --shop s1 --role customer 5b0c... --out 500 --in 200`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := roleFlag(cmd)
			if err != nil {
				return err
			}
			outStr, _ := cmd.Flags().GetString("out")
			inStr, _ := cmd.Flags().GetString("in")
			date, _ := cmd.Flags().GetString("date")
			note, _ := cmd.Flags().GetString("note")

			out, err := utils.ParseAmount(outStr, "--out")
			if err != nil {
				return err
			}
			in, err := utils.ParseAmount(inStr, "--in")
			if err != nil {
				return err
			}
			occurredAt, err := utils.ParseISODate(date)
			if err != nil {
				return err
			}
			if occurredAt.IsZero() {
				now := time.Now().UTC()
				occurredAt = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			}

			balance, err := c.app.Engine.RecordTransactions(c.ctx(cmd), &c.shop, ledger.RecordRequest{
				CounterpartyID: args[0],
				Role:           role,
				OutgoingAmount: out,
				IncomingAmount: in,
				OccurredAt:     occurredAt,
				Note:           note,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, balance)
		},
	}
	cmd.Flags().String("role", "customer", "customer or supplier")
	cmd.Flags().String("out", "", "Amount given by the shop")
	cmd.Flags().String("in", "", "Amount received by the shop")
	cmd.Flags().String("date", "", "Transaction date (YYYY-MM-DD, default: today)")
	cmd.Flags().String("note", "", "Note stored on the rows")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active customers or suppliers with the shop's due totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := roleFlag(cmd)
			if err != nil {
				return err
			}
			page, _ := cmd.Flags().GetInt("page")
			size, _ := cmd.Flags().GetInt("size")
			search, _ := cmd.Flags().GetString("search")
			sort, _ := cmd.Flags().GetString("sort")
			all, _ := cmd.Flags().GetBool("all")

			ctrl := c.app.CounterpartyController(c.shop.ShopID, role)
			result, err := ctrl.Load(c.ctx(cmd), page, size, search, sort, listing.Replace)
			for err == nil && all && result.HasMore {
				result, err = ctrl.LoadMore(c.ctx(cmd))
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().String("role", "customer", "customer or supplier")
	cmd.Flags().Int("page", 1, "1-based page number")
	cmd.Flags().Int("size", 0, "Rows per page (default: DEFAULT_PAGE_SIZE)")
	cmd.Flags().String("search", "", "Match on name or phone")
	cmd.Flags().String("sort", listing.SortUpdatedDesc,
		fmt.Sprintf("%s, %s, %s or %s", listing.SortUpdatedDesc, listing.SortNameAsc, listing.SortBalanceDesc, listing.SortCreatedDesc))
	cmd.Flags().Bool("all", false, "Keep loading pages until every row is shown")
	return cmd
}

func (c *cli) statementCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "statement <counterparty-id>",
		Short: "Show a counterparty's transactions with the running balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.app.Engine.Statement(c.ctx(cmd), c.shop.ShopID, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, st)
		},
	}
}

func (c *cli) reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile [counterparty-id]",
		Short: "Replay transaction logs and repair stored balances",
		Long: `Replay the transaction log of one counterparty, or of every counterparty in
the shop, and overwrite stored balances that disagree.

With --schedule the whole-shop pass runs on a cron schedule until interrupted.`,
		Example: `  ledgerctl reconcile --shop s1 5b0c...
  ledgerctl reconcile --shop s1
  ledgerctl reconcile --shop s1 --schedule "0 3 * * *"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := c.ctx(cmd)
			schedule, _ := cmd.Flags().GetString("schedule")

			if schedule != "" {
				if len(args) > 0 {
					return errors.NewValidationError("--schedule reconciles the whole shop; drop the counterparty ID")
				}
				job := jobs.NewReconciler(c.app.Engine, []string{c.shop.ShopID}, c.app.Logger)
				if err := job.Start(schedule, time.Local); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reconciling shop %s on schedule %q\n", c.shop.ShopID, schedule)
				<-ctx.Done()
				job.Stop()
				return nil
			}

			if len(args) == 1 {
				result, err := c.app.Engine.Reconcile(ctx, c.shop.ShopID, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			}
			report, err := c.app.Engine.ReconcileShop(ctx, c.shop.ShopID)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
	cmd.Flags().String("schedule", "", "Cron spec for repeated runs, e.g. RECONCILE_SCHEDULE")
	return cmd
}
