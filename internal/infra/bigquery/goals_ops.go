package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/store"
)

const goalColumns = `
			goal_id,
			account_id,
			goal_name,
			target_amount,
			current_amount,
			deadline,
			status,
			created_ts,
			updated_ts`

// InsertGoalWithClient inserts a goal after checking that its account
// exists.
func InsertGoalWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *GoalRow) error {
	script := fmt.Sprintf(`
  IF NOT EXISTS (SELECT 1 FROM %[1]s WHERE account_id = @account_id) THEN
    RAISE USING MESSAGE = '%[3]s account';
  END IF;
  INSERT INTO %[2]s (%[4]s)
  VALUES (
    @goal_id, @account_id, @goal_name, @target_amount, @current_amount,
    @deadline, @status, @created_ts, @updated_ts
  );`, ds.table(accountsTable), ds.table(goalsTable), notFoundMarker, goalColumns)

	q := client.Query(script)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "goal_id", Value: row.GoalID},
		{Name: "account_id", Value: row.AccountID},
		{Name: "goal_name", Value: row.GoalName},
		{Name: "target_amount", Value: row.TargetAmount},
		{Name: "current_amount", Value: row.CurrentAmount},
		{Name: "deadline", Value: row.Deadline},
		{Name: "status", Value: row.Status},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "updated_ts", Value: row.UpdatedTS},
	}

	if err := runQuery(ctx, q); err != nil {
		return classify("InsertGoalWithClient", err)
	}
	return nil
}

func GetGoalWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, goalID string) (*GoalRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE goal_id = @goal_id
		LIMIT 1
	`, goalColumns, ds.table(goalsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "goal_id", Value: goalID},
	}

	rows, err := readRows[GoalRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("GetGoalWithClient: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.NotFoundf("GetGoalWithClient", "goal %s not found", goalID)
	}
	return rows[0], nil
}

// ListGoalsByAccountWithClient returns an account's goals, newest first.
func ListGoalsByAccountWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, accountID string) ([]*GoalRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE account_id = @account_id
		ORDER BY created_ts DESC, goal_id ASC
	`, goalColumns, ds.table(goalsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: accountID},
	}

	rows, err := readRows[GoalRow](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListGoalsByAccountWithClient: %w", err)
	}
	return rows, nil
}

// UpdateGoalDetailsWithClient rewrites name, target and deadline only.
func UpdateGoalDetailsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *GoalRow) error {
	script := fmt.Sprintf(`
  UPDATE %s
  SET goal_name = @goal_name,
      target_amount = @target_amount,
      deadline = @deadline,
      updated_ts = CURRENT_TIMESTAMP()
  WHERE goal_id = @goal_id;`, ds.table(goalsTable)) + raiseIfNoRows(notFoundMarker, "goal")

	q := client.Query(script)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "goal_id", Value: row.GoalID},
		{Name: "goal_name", Value: row.GoalName},
		{Name: "target_amount", Value: row.TargetAmount},
		{Name: "deadline", Value: row.Deadline},
	}

	if err := runQuery(ctx, q); err != nil {
		return classify("UpdateGoalDetailsWithClient", err)
	}
	return nil
}

// goalGuard is the compare-and-swap check shared by goal changes and
// deletes. It runs right after the guarded statement.
func goalGuard(ds Dataset) string {
	return fmt.Sprintf(`
  IF @@row_count = 0 THEN
    IF EXISTS (SELECT 1 FROM %s WHERE goal_id = @goal_id) THEN
      RAISE USING MESSAGE = '%s goal changed concurrently';
    END IF;
    RAISE USING MESSAGE = '%s goal';
  END IF;`, ds.table(goalsTable), conflictMarker, notFoundMarker)
}

func applyGoalChangeScript(ds Dataset) string {
	return atomically(fmt.Sprintf(`
  UPDATE %s
  SET current_amount = @current_amount,
      status = @status,
      updated_ts = CURRENT_TIMESTAMP()
  WHERE goal_id = @goal_id AND current_amount = @expected_current;`, ds.table(goalsTable)) +
		goalGuard(ds) +
		ledgerEntry(ds))
}

func deleteGoalScript(ds Dataset, withTransaction bool) string {
	body := fmt.Sprintf(`
  DELETE FROM %s
  WHERE goal_id = @goal_id AND current_amount = @expected_current;`, ds.table(goalsTable)) +
		goalGuard(ds)
	if withTransaction {
		body += ledgerEntry(ds)
	}
	return atomically(body)
}

// ApplyGoalChangeWithClient moves money between a goal and its account in
// one multi-statement transaction.
func ApplyGoalChangeWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, change store.GoalChange) error {
	q := client.Query(applyGoalChangeScript(ds))
	q.Parameters = append(goalChangeParams(change),
		bigquery.QueryParameter{Name: "current_amount", Value: change.Goal.CurrentAmount.Rat()},
		bigquery.QueryParameter{Name: "status", Value: string(change.Goal.Status)},
	)
	q.Parameters = append(q.Parameters, ledgerParams(NewTransactionRow(change.Transaction), change.Delta)...)

	if err := runQuery(ctx, q); err != nil {
		return classify("ApplyGoalChangeWithClient", err)
	}
	return nil
}

// DeleteGoalWithClient removes a goal and, when change.Transaction is set,
// returns its funds to the account in the same transaction.
func DeleteGoalWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, change store.GoalChange) error {
	q := client.Query(deleteGoalScript(ds, change.Transaction != nil))
	q.Parameters = goalChangeParams(change)
	if change.Transaction != nil {
		q.Parameters = append(q.Parameters, ledgerParams(NewTransactionRow(change.Transaction), change.Delta)...)
	}

	if err := runQuery(ctx, q); err != nil {
		return classify("DeleteGoalWithClient", err)
	}
	return nil
}

func goalChangeParams(change store.GoalChange) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "goal_id", Value: change.Goal.ID},
		{Name: "expected_current", Value: change.ExpectedCurrent.Rat()},
	}
}
