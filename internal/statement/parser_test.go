package statement

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(text string) []Candidate {
	return slices.Collect(Parse(strings.NewReader(text), "user-1", "acct-1"))
}

func TestParseCarriesDate(t *testing.T) {
	got := collect("01/02/2024\nGrocery Store -45.00\nUber 12.00\n")
	require.Len(t, got, 2)

	want := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "Grocery Store", got[0].Description)
	assert.Equal(t, domain.TransactionTypeExpense, got[0].Type)
	assert.Equal(t, "45", got[0].Amount.String())
	assert.Equal(t, want, got[0].Date)
	assert.Equal(t, 2, got[0].Line)

	assert.Equal(t, "Uber", got[1].Description)
	assert.Equal(t, domain.TransactionTypeIncome, got[1].Type)
	assert.Equal(t, "12", got[1].Amount.String())
	assert.Equal(t, want, got[1].Date)
	assert.Equal(t, "user-1", got[1].UserID)
	assert.Equal(t, "acct-1", got[1].AccountID)
}

func TestParseDropsLinesBeforeFirstDate(t *testing.T) {
	got := collect("Opening balance 100.00\n05 Mar, 2024\nSalary 2.500,00\n")
	require.Len(t, got, 1)
	assert.Equal(t, "Salary", got[0].Description)
	assert.Equal(t, "2500", got[0].Amount.String())
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), got[0].Date)
}

func TestParseSkipsPeriodLines(t *testing.T) {
	text := strings.Join([]string{
		"Statement period 01/01/2024 - 31/01/2024",
		"Coffee -3.50",
		"15 Jan 2024",
		"Coffee -3.50",
	}, "\n")

	got := collect(text)
	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), got[0].Date)
	assert.Equal(t, 4, got[0].Line)
}

func TestParseDateAndAmountOnSameLine(t *testing.T) {
	got := collect("01/02/2024 Coffee -3.50\n")
	require.Len(t, got, 1)
	assert.Equal(t, "Coffee", got[0].Description)
	assert.Equal(t, "3.5", got[0].Amount.String())
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), got[0].Date)
}

func TestParseDefaultDescription(t *testing.T) {
	got := collect("01/02/2024\n-20.00\n")
	require.Len(t, got, 1)
	assert.Equal(t, DefaultDescription, got[0].Description)
}

func TestParseIgnoresLinesWithoutAmount(t *testing.T) {
	got := collect("01/02/2024\nThank you for banking with us\n\nRent -800.00\n")
	require.Len(t, got, 1)
	assert.Equal(t, "Rent", got[0].Description)
}

func TestParseLocales(t *testing.T) {
	text := "01/02/2024\nA 1,234.56\nB 1'234.56\nC -1.234,56\nD 1 234,56\nE -1 234.56\nF 1\u00a0234,56\n"
	got := collect(text)
	require.Len(t, got, 6)
	for i, c := range got {
		assert.Equal(t, "1234.56", c.Amount.String(), c.Description)
		assert.Equal(t, string(rune('A'+i)), c.Description)
	}
	assert.Equal(t, domain.TransactionTypeIncome, got[3].Type)
	assert.Equal(t, domain.TransactionTypeExpense, got[2].Type)
	assert.Equal(t, domain.TransactionTypeExpense, got[4].Type)
}

func TestParseUngroupedLargeAmounts(t *testing.T) {
	got := collect("01/02/2024\nSalary 1234.56\nBonus 12345,67\nRent -2000.00\n")
	require.Len(t, got, 3)

	assert.Equal(t, "Salary", got[0].Description)
	assert.Equal(t, "1234.56", got[0].Amount.String())
	assert.Equal(t, domain.TransactionTypeIncome, got[0].Type)

	assert.Equal(t, "Bonus", got[1].Description)
	assert.Equal(t, "12345.67", got[1].Amount.String())

	assert.Equal(t, "Rent", got[2].Description)
	assert.Equal(t, "2000", got[2].Amount.String())
	assert.Equal(t, domain.TransactionTypeExpense, got[2].Type)
}

func TestParseTabIsNotAGroupSeparator(t *testing.T) {
	got := collect("01/02/2024\nCoffee x2\t3.50\n")
	require.Len(t, got, 1)
	assert.Equal(t, "3.5", got[0].Amount.String())
}

func TestScannerIsSingleUse(t *testing.T) {
	s := NewScanner(strings.NewReader("01/02/2024\nTaxi -9.00\n"), "u", "a")
	first := slices.Collect(s.Candidates())
	second := slices.Collect(s.Candidates())

	assert.Len(t, first, 1)
	assert.Empty(t, second)
	assert.NoError(t, s.Err())
}

func TestParseStopsWhenConsumerBreaks(t *testing.T) {
	n := 0
	for range Parse(strings.NewReader("01/02/2024\nA -1.00\nB -2.00\nC -3.00\n"), "u", "a") {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}
