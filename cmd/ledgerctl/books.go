package main

import (
	"github.com/spf13/cobra"

	"github.com/hirosato/shop-ledger/backend/internal/common/utils"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/expense"
	"github.com/hirosato/shop-ledger/backend/internal/domain/listing"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shortage"
)

func (c *cli) expenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Record and list shop expenses",
	}

	addCmd := &cobra.Command{
		Use:   "add <title> <amount>",
		Short: "Record an expense",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := utils.ParseAmount(args[1], "amount")
			if err != nil {
				return err
			}
			date, _ := cmd.Flags().GetString("date")
			note, _ := cmd.Flags().GetString("note")
			spentOn, err := utils.ParseISODate(date)
			if err != nil {
				return err
			}
			e, err := c.app.Expenses.Add(c.ctx(cmd), &c.shop, expense.AddRequest{
				Title:   args[0],
				Amount:  amount,
				SpentOn: spentOn,
				Note:    note,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, e)
		},
	}
	addCmd.Flags().String("date", "", "Date spent (YYYY-MM-DD, default: today)")
	addCmd.Flags().String("note", "", "Note")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, _ := cmd.Flags().GetInt("page")
			search, _ := cmd.Flags().GetString("search")
			ctrl := listing.NewController[expense.Expense](c.shop.ShopID, c.app.Stores.Expenses, c.app.Logger,
				listing.WithPageSize[expense.Expense](c.app.Config.DefaultPageSize))
			result, err := ctrl.Load(c.ctx(cmd), page, 0, search, listing.SortDateDesc, listing.Replace)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	listCmd.Flags().Int("page", 1, "1-based page number")
	listCmd.Flags().String("search", "", "Match on title")

	totalCmd := &cobra.Command{
		Use:   "total",
		Short: "Show the sum of all expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := c.app.Expenses.Total(c.ctx(cmd), c.shop.ShopID)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"total": total.String()})
		},
	}

	cmd.AddCommand(addCmd, listCmd, totalCmd)
	return cmd
}

func (c *cli) shortageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shortage",
		Short: "Track items the shop has run short of",
	}

	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Note a shortage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.app.Shortages.Add(c.ctx(cmd), &c.shop, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, n)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status <id> <open|done>",
		Short: "Reopen or close a shortage note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := shortage.ParseStatus(args[1])
			if !ok {
				return errors.NewValidationError("status must be open or done")
			}
			return c.app.Shortages.SetStatus(c.ctx(cmd), c.shop.ShopID, args[0], status)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List shortage notes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, _ := cmd.Flags().GetInt("page")
			ctrl := listing.NewController[shortage.Note](c.shop.ShopID, c.app.Stores.Shortages, c.app.Logger,
				listing.WithPageSize[shortage.Note](c.app.Config.DefaultPageSize))
			result, err := ctrl.Load(c.ctx(cmd), page, 0, "", listing.SortCreatedDesc, listing.Replace)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	listCmd.Flags().Int("page", 1, "1-based page number")

	cmd.AddCommand(addCmd, statusCmd, listCmd)
	return cmd
}
