package main

import (
	"fmt"
	"time"

	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/spf13/cobra"
)

func newTransactionsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Record and inspect transactions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the user's transactions, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := e.requireUser()
			if err != nil {
				return err
			}
			a, err := e.open()
			if err != nil {
				return err
			}
			defer a.Close()

			txs, err := a.Service.List(e.ctx, userID)
			if err != nil {
				return err
			}
			return printTransactions(cmd.OutOrStdout(), txs, currencyOf(e.ctx, a, userID))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "analysis",
		Short: "Spending per category since the first of the month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := e.requireUser()
			if err != nil {
				return err
			}
			a, err := e.open()
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.Service.Analysis(e.ctx, userID, time.Now())
			if err != nil {
				return err
			}
			return printSpending(cmd.OutOrStdout(), rows, currencyOf(e.ctx, a, userID))
		},
	})

	var req ledger.CreateTransactionRequest
	var amount, date string
	add := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction; the category is inferred when omitted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := e.requireUser()
			if err != nil {
				return err
			}
			if req.Amount, err = parseAmount("amount", amount); err != nil {
				return err
			}
			req.Date = time.Now().UTC()
			if date != "" {
				if req.Date, err = time.Parse(time.DateOnly, date); err != nil {
					return fmt.Errorf("--date: want YYYY-MM-DD: %w", err)
				}
			}
			req.UserID = userID

			a, err := e.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if req.AccountID == "" {
				acc, err := a.Store.AccountByUser(e.ctx, userID)
				if err != nil {
					return err
				}
				req.AccountID = acc.ID
			}

			tx, err := a.Service.CreateTransaction(e.ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s as %s (%s)\n",
				tx.Type, formatMoney(tx.Amount, currencyOf(e.ctx, a, userID)), tx.Category, tx.ID)
			return nil
		},
	}
	add.Flags().StringVar(&amount, "amount", "", "amount as a positive number (required)")
	_ = add.MarkFlagRequired("amount")
	add.Flags().StringVar(&req.Type, "type", "EXPENSE", "INCOME, EXPENSE or TRANSFER")
	add.Flags().StringVar(&req.Category, "category", "", "category; inferred from history when empty")
	add.Flags().StringVar(&req.Description, "description", "", "description")
	add.Flags().StringVar(&req.AccountID, "account", "", "account ID; defaults to the user's primary account")
	add.Flags().StringVar(&date, "date", "", "transaction date YYYY-MM-DD; defaults to today")
	cmd.AddCommand(add)

	return cmd
}
