package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-ledger/internal/domain"
)

const accountColumns = `
			account_id,
			user_id,
			account_name,
			account_type,
			balance,
			monthly_expenses,
			currency,
			created_ts,
			updated_ts`

// InsertAccountWithClient inserts a new account with DML so its balance can
// be updated right away (rows in the streaming buffer cannot be).
func InsertAccountWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *AccountRow) error {
	q := client.Query(fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (
			@account_id, @user_id, @account_name, @account_type,
			@balance, @monthly_expenses, @currency,
			@created_ts, @updated_ts
		)
	`, ds.table(accountsTable), accountColumns))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: row.AccountID},
		{Name: "user_id", Value: row.UserID},
		{Name: "account_name", Value: row.AccountName},
		{Name: "account_type", Value: row.AccountType},
		{Name: "balance", Value: row.Balance},
		{Name: "monthly_expenses", Value: row.MonthlyExpenses},
		{Name: "currency", Value: row.Currency},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "updated_ts", Value: row.UpdatedTS},
	}

	if err := runQuery(ctx, q); err != nil {
		return fmt.Errorf("InsertAccountWithClient: %w", err)
	}
	return nil
}

// GetAccountWithClient returns a NotFound error when no row matches.
func GetAccountWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, accountID string) (*AccountRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE account_id = @account_id
		LIMIT 1
	`, accountColumns, ds.table(accountsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: accountID},
	}

	rows, err := readRows[AccountRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("GetAccountWithClient: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.NotFoundf("GetAccountWithClient", "account %s not found", accountID)
	}
	return rows[0], nil
}

// ListAccountsByUserWithClient returns the user's accounts, oldest first.
func ListAccountsByUserWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) ([]*AccountRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = @user_id
		ORDER BY created_ts ASC, account_id ASC
	`, accountColumns, ds.table(accountsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	rows, err := readRows[AccountRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListAccountsByUserWithClient: %w", err)
	}
	return rows, nil
}
