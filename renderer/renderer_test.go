package renderer

import (
	"strings"
	"testing"

	"github.com/etnz/dough"
	"github.com/etnz/dough/date"
	"github.com/rs/zerolog"
)

func newBalances(t *testing.T) *dough.Balances {
	t.Helper()
	chart, err := dough.NewChart([]dough.AccountConfig{
		{ID: "assets", Name: "Assets", DisplayName: "Assets", CreditOrDebit: "debit"},
		{ID: "checking", Name: "Checking", DisplayName: "Checking", Parent: "Assets"},
		{ID: "expenses", Name: "Expenses", DisplayName: "Expenses", CreditOrDebit: "debit", Description: "Money spent"},
		{ID: "groceries", Name: "Groceries", DisplayName: "Groceries", Parent: "Expenses"},
		{ID: "travel", Name: "Travel", DisplayName: "Travel", Parent: "Expenses"},
	})
	if err != nil {
		t.Fatalf("NewChart() error = %v", err)
	}
	m := dough.NewModel(chart, zerolog.Nop())
	err = m.Apply(&dough.JournalEntry{
		ID:   "e1",
		Date: date.New(2024, 3, 2),
		Memo: "Corner shop",
		Accounts: []dough.EntryLeg{
			{AccountID: "groceries", CreditOrDebit: dough.Debit, Currency: "USD", AmountInCents: 1234},
			{AccountID: "checking", CreditOrDebit: dough.Credit, Currency: "USD", AmountInCents: 1234},
		},
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	b, err := m.ComputeBalances(nil)
	if err != nil {
		t.Fatalf("ComputeBalances() error = %v", err)
	}
	return b
}

func TestBalancesMarkdown(t *testing.T) {
	got := BalancesMarkdown(newBalances(t), "Balances")

	for _, want := range []string{"# Balances", "Groceries", "Checking", "Expenses", "$12.34", "-$12.34"} {
		if !strings.Contains(got, want) {
			t.Errorf("BalancesMarkdown() does not contain %q:\n%s", want, got)
		}
	}
	// accounts without entries have no balance
	if strings.Contains(got, "Travel") {
		t.Errorf("BalancesMarkdown() contains Travel:\n%s", got)
	}
}

func TestBalancesOnMarkdown(t *testing.T) {
	b := newBalances(t)
	testCases := []struct {
		on   date.Date
		want string
	}{
		{on: date.New(2024, 3, 1), want: "$0.00"},
		{on: date.New(2024, 3, 2), want: "$12.34"},
	}
	for _, tc := range testCases {
		t.Run(tc.on.String(), func(t *testing.T) {
			got := BalancesOnMarkdown(b, "Balances", tc.on)
			if !strings.Contains(got, tc.want) {
				t.Errorf("BalancesOnMarkdown(%s) does not contain %q:\n%s", tc.on, tc.want, got)
			}
		})
	}
	if got := BalancesOnMarkdown(b, "Balances", date.New(2024, 3, 1)); strings.Contains(got, "$12.34") {
		t.Errorf("BalancesOnMarkdown() before the entry contains $12.34:\n%s", got)
	}
}

func TestBalancesMarkdown_Empty(t *testing.T) {
	chart, err := dough.NewChart([]dough.AccountConfig{{ID: "a", Name: "A"}})
	if err != nil {
		t.Fatalf("NewChart() error = %v", err)
	}
	b, err := dough.NewModel(chart, zerolog.Nop()).ComputeBalances(nil)
	if err != nil {
		t.Fatalf("ComputeBalances() error = %v", err)
	}
	if got := BalancesMarkdown(b, "Balances"); !strings.Contains(got, "No balance.") {
		t.Errorf("BalancesMarkdown() = %q, want a no balance message", got)
	}
}

func TestHistoryMarkdown(t *testing.T) {
	b := newBalances(t)
	checking := b.Chart().Account("checking")

	got := HistoryMarkdown(b, checking, "USD")
	for _, want := range []string{"History of Assets/Checking in USD", "2024-03-02", "Corner shop", "actual", "-$12.34"} {
		if !strings.Contains(got, want) {
			t.Errorf("HistoryMarkdown() does not contain %q:\n%s", want, got)
		}
	}

	if got := HistoryMarkdown(b, checking, "EUR"); !strings.Contains(got, "No entry.") {
		t.Errorf("HistoryMarkdown(EUR) = %q, want a no entry message", got)
	}
}

func TestAccountsMarkdown(t *testing.T) {
	b := newBalances(t)
	got := AccountsMarkdown(b.Chart())

	testCases := []struct {
		line string
	}{
		{line: "- **Assets** `assets` (debit)"},
		{line: "  - **Checking** `checking` (debit)"},
		{line: "- **Expenses** `expenses` (debit): Money spent"},
		{line: "  - **Travel** `travel` (debit)"},
	}
	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			if !strings.Contains(got, tc.line+"\n") {
				t.Errorf("AccountsMarkdown() does not contain line %q:\n%s", tc.line, got)
			}
		})
	}
}

func TestAmount(t *testing.T) {
	testCases := []struct {
		cents    int64
		currency string
		want     string
	}{
		{cents: 1234, currency: "USD", want: "$12.34"},
		{cents: -5, currency: "USD", want: "-$0.05"},
		{cents: 0, currency: "USD", want: "$0.00"},
	}
	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			if got := Amount(tc.cents, tc.currency); got != tc.want {
				t.Errorf("Amount(%d, %q) = %q, want %q", tc.cents, tc.currency, got, tc.want)
			}
		})
	}
}
