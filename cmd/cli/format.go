package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// formatMoney renders amount in the currency's conventional format, e.g.
// "€1,234.50". Unknown currency codes fall back to "1234.50 XYZ".
func formatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printAccounts(w io.Writer, accounts []*domain.Account) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tBALANCE\tMONTHLY EXPENSES")
	for _, a := range accounts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Name, a.Type,
			formatMoney(a.Balance, a.Currency),
			formatMoney(a.MonthlyExpenses, a.Currency))
	}
	return tw.Flush()
}

func printTransactions(w io.Writer, txs []*domain.Transaction, currency string) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION\tID")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.Date.Format("2006-01-02"), tx.Type, tx.Category,
			formatMoney(tx.SignedAmount(), currency), tx.Description, tx.ID)
	}
	return tw.Flush()
}

func printGoals(w io.Writer, goals []*domain.Goal, currency string) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tCURRENT\tTARGET\tDEADLINE")
	for _, g := range goals {
		deadline := "-"
		if !g.Deadline.IsZero() {
			deadline = g.Deadline.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			g.ID, g.Name, g.Status,
			formatMoney(g.CurrentAmount, currency),
			formatMoney(g.TargetAmount, currency),
			deadline)
	}
	return tw.Flush()
}

func printSpending(w io.Writer, rows []domain.CategorySpend, currency string) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "CATEGORY\tTOTAL")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r.Category, formatMoney(r.Total, currency))
	}
	return tw.Flush()
}
