package dough

import (
	"testing"

	"github.com/etnz/dough/date"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

// newTestBalances applies the entries on the test chart and computes balances.
func newTestBalances(t *testing.T, assertions []BalanceAssertion, lines ...JournalLine) *Balances {
	t.Helper()
	m := NewModel(newTestChart(t), zerolog.Nop())
	if err := m.ApplyAll(lines); err != nil {
		t.Fatalf("ApplyAll() error = %v", err)
	}
	b, err := m.ComputeBalances(assertions)
	if err != nil {
		t.Fatalf("ComputeBalances() error = %v", err)
	}
	return b
}

func TestComputeBalances_Propagation(t *testing.T) {
	b := newTestBalances(t, nil,
		entry("e1", "2024-01-05", "checking", "fees-bank", 300),
		entry("e2", "2024-01-06", "checking", "groceries", 1000),
		entry("e3", "2024-01-07", "salary", "checking", 5000),
	)

	testCases := []struct {
		account string
		want    Balance
		entries int
	}{
		{account: "fees-bank", want: Balance{Actual: 300}, entries: 1},
		{account: "bank", want: Balance{Actual: 300}, entries: 1},
		{account: "expenses", want: Balance{Actual: 1300}, entries: 2},
		{account: "groceries", want: Balance{Actual: 1000}, entries: 1},
		{account: "checking", want: Balance{Actual: 3700}, entries: 3},
		{account: "assets", want: Balance{Actual: 3700}, entries: 3},
		{account: "salary", want: Balance{Actual: 5000}, entries: 1},
		{account: "income", want: Balance{Actual: 5000}, entries: 1},
		{account: "card", want: Balance{}, entries: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.account, func(t *testing.T) {
			if got := b.Current(tc.account, "USD"); got != tc.want {
				t.Errorf("Current() = %+v, want %+v", got, tc.want)
			}
			entries := b.Entries(tc.account)
			if len(entries) != tc.entries {
				t.Fatalf("len(Entries()) = %d, want %d", len(entries), tc.entries)
			}
			// the last running balance is the current balance
			if len(entries) > 0 {
				if got := entries[len(entries)-1].Running["USD"]; got != tc.want {
					t.Errorf("last running balance = %+v, want %+v", got, tc.want)
				}
			}
		})
	}
}

func TestComputeBalances_FanOut(t *testing.T) {
	// a leg on an account at depth k yields k+1 records
	b := newTestBalances(t, nil, entry("e1", "2024-01-05", "checking", "fees-card", 300))
	total := 0
	for _, a := range b.Chart().Accounts() {
		total += len(b.Entries(a.ID))
	}
	if total != 2+3 {
		t.Errorf("got %d fan-out records, want 5", total)
	}
}

func TestComputeBalances_Running(t *testing.T) {
	b := newTestBalances(t, nil,
		entry("late", "2024-01-09", "checking", "groceries", 100),
		entry("early", "2024-01-02", "checking", "groceries", 200),
		entry("same-day", "2024-01-09", "checking", "groceries", 400),
	)
	var got []int64
	for _, e := range b.Entries("groceries") {
		got = append(got, e.Running["USD"].Actual)
	}
	if diff := cmp.Diff([]int64{200, 300, 700}, got); diff != "" {
		t.Errorf("running balances mismatch (-want +got):\n%s", diff)
	}
	if got := b.AsOf("groceries", "USD", date.New(2024, 1, 8)); got.Actual != 200 {
		t.Errorf("AsOf(01-08) = %+v, want 200", got)
	}
}

func TestComputeBalances_Budget(t *testing.T) {
	budget := entry("b1", "2024-01-01", "checking", "groceries", 5000)
	budget.Kind = Budget
	b := newTestBalances(t, nil, budget, entry("a1", "2024-01-03", "checking", "groceries", 1200))

	want := Balance{Actual: 1200, Budget: 5000}
	if got := b.Current("groceries", "USD"); got != want {
		t.Errorf("Current() = %+v, want %+v", got, want)
	}
}

func TestComputeBalances_MultiCurrency(t *testing.T) {
	eur := entry("e2", "2024-01-05", "checking", "groceries", 700)
	for i := range eur.Accounts {
		eur.Accounts[i].Currency = "EUR"
	}
	b := newTestBalances(t, nil, entry("e1", "2024-01-05", "checking", "groceries", 100), eur)

	if diff := cmp.Diff([]string{"EUR", "USD"}, b.Currencies("expenses")); diff != "" {
		t.Errorf("Currencies() mismatch (-want +got):\n%s", diff)
	}
	if got := b.Current("expenses", "EUR").Actual; got != 700 {
		t.Errorf("EUR balance = %d, want 700", got)
	}
	last := b.Entries("expenses")[1]
	if diff := cmp.Diff(map[string]Balance{"USD": {Actual: 100}, "EUR": {Actual: 700}}, last.Running); diff != "" {
		t.Errorf("running balances mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeBalances_AsOf(t *testing.T) {
	lines := []JournalLine{
		entry("e1", "2024-01-05", "salary", "checking", 1000),
		entry("e2", "2024-01-10", "salary", "checking", 500),
		entry("e3", "2024-01-20", "salary", "checking", 250),
	}
	testCases := []struct {
		name        string
		assertions  []BalanceAssertion
		wantRunning []int64
		wantCurrent int64
	}{
		{
			name:        "no assertion",
			wantRunning: []int64{1000, 1500, 1750},
			wantCurrent: 1750,
		},
		{
			name:        "before the first entry",
			assertions:  []BalanceAssertion{{Account: "Checking", Date: date.New(2024, 1, 1), Actual: cents(2000)}},
			wantRunning: []int64{3000, 3500, 3750},
			wantCurrent: 3750,
		},
		{
			name:        "on the date of an entry, before it",
			assertions:  []BalanceAssertion{{Account: "Checking", Date: date.New(2024, 1, 10), Actual: cents(3000)}},
			wantRunning: []int64{1000, 3500, 3750},
			wantCurrent: 3750,
		},
		{
			name: "two assertions, oldest first",
			assertions: []BalanceAssertion{
				{Account: "Assets/Checking", Date: date.New(2024, 1, 15), Actual: cents(0)},
				{Account: "Checking", Date: date.New(2024, 1, 1), Actual: cents(100)},
			},
			wantRunning: []int64{1100, 1600, 250},
			wantCurrent: 250,
		},
		{
			name:        "after the last entry",
			assertions:  []BalanceAssertion{{Account: "Checking", Date: date.New(2024, 2, 1), Actual: cents(2000)}},
			wantRunning: []int64{1000, 1500, 1750},
			wantCurrent: 2000,
		},
		{
			name:        "budget only",
			assertions:  []BalanceAssertion{{Account: "Checking", Date: date.New(2024, 1, 1), Budget: cents(42)}},
			wantRunning: []int64{1000, 1500, 1750},
			wantCurrent: 1750,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBalances(t, tc.assertions, lines...)
			var got []int64
			for _, e := range b.Entries("checking") {
				got = append(got, e.Running["USD"].Actual)
			}
			if diff := cmp.Diff(tc.wantRunning, got); diff != "" {
				t.Errorf("running balances mismatch (-want +got):\n%s", diff)
			}
			if got := b.Current("checking", "USD").Actual; got != tc.wantCurrent {
				t.Errorf("Current() = %d, want %d", got, tc.wantCurrent)
			}
		})
	}
}

func TestComputeBalances_AsOfUnknownAccount(t *testing.T) {
	m := NewModel(newTestChart(t), zerolog.Nop())
	_, err := m.ComputeBalances([]BalanceAssertion{{Account: "Savings", Date: date.New(2024, 1, 1), Actual: cents(1)}})
	if err == nil {
		t.Error("ComputeBalances() succeeded, want an unknown account error")
	}
}
