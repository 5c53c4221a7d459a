package main

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-ledger/internal/app"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newAccountsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List and open accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the user's accounts",
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

			accounts, err := a.Service.Accounts(e.ctx, userID)
			if err != nil {
				return err
			}
			return printAccounts(cmd.OutOrStdout(), accounts)
		},
	})

	var req ledger.OpenAccountRequest
	var balance, monthly string
	create := &cobra.Command{
		Use:   "create",
		Short: "Open a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := e.requireUser()
			if err != nil {
				return err
			}
			if req.OpeningBalance, err = parseAmount("balance", balance); err != nil {
				return err
			}
			if req.MonthlyExpenses, err = parseAmount("monthly-expenses", monthly); err != nil {
				return err
			}
			req.UserID = userID

			a, err := e.open()
			if err != nil {
				return err
			}
			defer a.Close()

			acc, err := a.Service.OpenAccount(e.ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened account %s (%s) with balance %s\n",
				acc.ID, acc.Name, formatMoney(acc.Balance, acc.Currency))
			return nil
		},
	}
	create.Flags().StringVar(&req.Name, "name", "", "account name (required)")
	_ = create.MarkFlagRequired("name")
	create.Flags().StringVar(&req.Type, "type", string(domain.AccountTypeChecking), "CHECKING, SAVINGS, CREDIT_CARD or INVESTMENT")
	create.Flags().StringVar(&req.Currency, "currency", domain.DefaultCurrency, "ISO currency code")
	create.Flags().StringVar(&balance, "balance", "0", "opening balance")
	create.Flags().StringVar(&monthly, "monthly-expenses", "0", "expected monthly expenses")
	cmd.AddCommand(create)

	return cmd
}

func parseAmount(flag, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %q is not a number", flag, s)
	}
	return d, nil
}

// currencyOf returns the currency of the user's primary account, or the
// default when the user has none yet.
func currencyOf(ctx context.Context, a *app.App, userID string) string {
	acc, err := a.Store.AccountByUser(ctx, userID)
	if err != nil || acc.Currency == "" {
		return domain.DefaultCurrency
	}
	return acc.Currency
}
