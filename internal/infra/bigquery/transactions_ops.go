package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

const transactionColumns = `
			transaction_id,
			user_id,
			account_id,
			goal_id,
			amount,
			type,
			category,
			description,
			transaction_date,
			created_ts`

// ledgerEntry applies @delta to the account and inserts the transaction.
// It expects ledgerParams to be bound.
func ledgerEntry(ds Dataset) string {
	return fmt.Sprintf(`
  UPDATE %s
  SET balance = balance + @delta,
      updated_ts = CURRENT_TIMESTAMP()
  WHERE account_id = @account_id;`, ds.table(accountsTable)) +
		raiseIfNoRows(notFoundMarker, "account") +
		fmt.Sprintf(`
  INSERT INTO %s (%s)
  VALUES (
    @transaction_id, @user_id, @account_id, @goal_id, @amount,
    @type, @category, @description, @transaction_date, @created_ts
  );`, ds.table(transactionsTable), transactionColumns)
}

func ledgerParams(row *TransactionRow, delta decimal.Decimal) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "delta", Value: delta.Rat()},
		{Name: "transaction_id", Value: row.TransactionID},
		{Name: "user_id", Value: row.UserID},
		{Name: "account_id", Value: row.AccountID},
		{Name: "goal_id", Value: row.GoalID},
		{Name: "amount", Value: row.Amount},
		{Name: "type", Value: row.Type},
		{Name: "category", Value: row.Category},
		{Name: "description", Value: row.Description},
		{Name: "transaction_date", Value: row.TransactionDate},
		{Name: "created_ts", Value: row.CreatedTS},
	}
}

// RecordTransactionWithClient inserts the transaction and applies delta to
// its account's balance in one multi-statement transaction.
func RecordTransactionWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, tx *domain.Transaction, delta decimal.Decimal) error {
	q := client.Query(atomically(ledgerEntry(ds)))
	q.Parameters = ledgerParams(NewTransactionRow(tx), delta)

	if err := runQuery(ctx, q); err != nil {
		return classify("RecordTransactionWithClient", err)
	}
	return nil
}

func GetTransactionWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, transactionID string) (*TransactionRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE transaction_id = @transaction_id
		LIMIT 1
	`, transactionColumns, ds.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: transactionID},
	}

	rows, err := readRows[TransactionRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("GetTransactionWithClient: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.NotFoundf("GetTransactionWithClient", "transaction %s not found", transactionID)
	}
	return rows[0], nil
}

// ListTransactionsByUserWithClient returns the user's transactions in the
// order they were recorded.
func ListTransactionsByUserWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) ([]*TransactionRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = @user_id
		ORDER BY created_ts ASC, transaction_id ASC
	`, transactionColumns, ds.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	rows, err := readRows[TransactionRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListTransactionsByUserWithClient: %w", err)
	}
	return rows, nil
}

// SpendingByCategoryWithClient sums EXPENSE amounts dated on or after since,
// in category declaration order.
func SpendingByCategoryWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string, since time.Time) ([]domain.CategorySpend, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT category, SUM(amount) AS total
		FROM %s
		WHERE user_id = @user_id
		  AND type = 'EXPENSE'
		  AND transaction_date >= @since
		GROUP BY category
	`, ds.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "since", Value: dateOf(since)},
	}

	rows, err := readRows[categoryTotalRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("SpendingByCategoryWithClient: %w", err)
	}
	return orderSpending(rows)
}

func orderSpending(rows []*categoryTotalRow) ([]domain.CategorySpend, error) {
	totals := make(map[domain.Category]decimal.Decimal, len(rows))
	for _, r := range rows {
		total, err := ratToDecimal(r.Total)
		if err != nil {
			return nil, fmt.Errorf("orderSpending: %w", err)
		}
		totals[domain.Category(r.Category)] = total
	}

	var result []domain.CategorySpend
	for _, c := range domain.Categories {
		if total, ok := totals[c]; ok {
			result = append(result, domain.CategorySpend{Category: c, Total: total})
		}
	}
	return result, nil
}
