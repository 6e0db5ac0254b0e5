package dough

import (
	"fmt"
	"maps"
	"slices"

	"github.com/etnz/dough/date"
)

// Balance is a pair of cumulative actual and budget amounts, in cents.
type Balance struct {
	Actual int64
	Budget int64
}

func (b *Balance) add(kind BudgetOrActual, amount int64) {
	if kind == Budget {
		b.Budget += amount
	} else {
		b.Actual += amount
	}
}

// AccountEntry links one leg of a journal entry to one account of the leg
// account's ancestor chain (the leg's own account included).
type AccountEntry struct {
	Account *Account
	Entry   *JournalEntry
	Leg     int // index in Entry.Accounts

	// Running holds, for every currency seen so far on the account, the
	// cumulative balances as of this entry.
	Running map[string]Balance
}

// LegOf returns the journal entry leg e stands for.
func (e *AccountEntry) LegOf() EntryLeg { return e.Entry.Accounts[e.Leg] }

// Date is the date of the journal entry.
func (e *AccountEntry) Date() date.Date { return e.Entry.Date }

// BalanceAssertion declares externally known balances of an account as of
// a date, before any entry of that date.
type BalanceAssertion struct {
	Account  string // account name, optionally qualified
	Date     date.Date
	Currency string
	Actual   *int64 // nil leaves the actual balance as computed
	Budget   *int64 // nil leaves the budget balance as computed
}

// Balances is the balance state of a model: fan-out records, running
// balances and current balances per account and currency.
type Balances struct {
	chart     *Chart
	byAccount map[string][]*AccountEntry    // account id, sorted by date
	current   map[string]map[string]*Balance // account id, currency
}

// ComputeBalances fans every leg of the live entries out to its account and
// ancestors, computes current and running balances, then reconciles them
// with the assertions.
func (m *Model) ComputeBalances(assertions []BalanceAssertion) (*Balances, error) {
	b := &Balances{
		chart:     m.chart,
		byAccount: make(map[string][]*AccountEntry),
		current:   make(map[string]map[string]*Balance),
	}

	// Fan-out.
	for e := range m.Entries() {
		for i, leg := range e.Accounts {
			a := m.chart.Account(leg.AccountID)
			for anc := range m.chart.Ancestors(a) {
				b.byAccount[anc.ID] = append(b.byAccount[anc.ID], &AccountEntry{Account: anc, Entry: e, Leg: i})
			}
		}
	}

	for id, entries := range b.byAccount {
		// ties keep the model order: entry, then leg
		slices.SortStableFunc(entries, func(x, y *AccountEntry) int {
			if c := x.Entry.Date.Compare(y.Entry.Date); c != 0 {
				return c
			}
			if c := x.Entry.seq - y.Entry.seq; c != 0 {
				return c
			}
			return x.Leg - y.Leg
		})
		running := make(map[string]Balance)
		for _, ae := range entries {
			leg := ae.LegOf()
			adjust := b.Adjustment(ae)
			b.balance(id, leg.Currency).add(ae.Entry.Kind, adjust)
			r := running[leg.Currency]
			r.add(ae.Entry.Kind, adjust)
			running[leg.Currency] = r
			ae.Running = maps.Clone(running)
		}
	}

	if err := b.reconcile(assertions); err != nil {
		return nil, err
	}
	return b, nil
}

// Adjustment returns the signed effect of e on its account: the leg amount
// if the leg is on the side of the account's polarity, its opposite otherwise.
func (b *Balances) Adjustment(e *AccountEntry) int64 {
	leg := e.LegOf()
	if leg.CreditOrDebit != b.chart.Polarity(e.Account) {
		return -leg.AmountInCents
	}
	return leg.AmountInCents
}

func (b *Balances) balance(accountID, currency string) *Balance {
	byCur := b.current[accountID]
	if byCur == nil {
		byCur = make(map[string]*Balance)
		b.current[accountID] = byCur
	}
	bal := byCur[currency]
	if bal == nil {
		bal = &Balance{}
		byCur[currency] = bal
	}
	return bal
}

// reconcile applies the assertions, oldest first. Each one compares with the
// running balance of the latest entry strictly before its date (zero if
// none), already including the deltas of older assertions, and shifts every
// running balance from its date on, and the current balance, by the
// difference.
func (b *Balances) reconcile(assertions []BalanceAssertion) error {
	sorted := slices.Clone(assertions)
	slices.SortStableFunc(sorted, func(x, y BalanceAssertion) int { return x.Date.Compare(y.Date) })
	for _, as := range sorted {
		a, err := b.chart.Find(as.Account)
		if err != nil {
			return fmt.Errorf("balance as of %s: %w", as.Date, err)
		}
		cur := as.Currency
		if cur == "" {
			cur = DefaultCurrency
		}
		entries := b.byAccount[a.ID]
		// first entry on or after the date
		from, _ := slices.BinarySearchFunc(entries, as.Date, func(e *AccountEntry, d date.Date) int {
			if e.Entry.Date.Before(d) {
				return -1
			}
			return 1
		})
		var computed Balance
		if from > 0 {
			computed = entries[from-1].Running[cur]
		}
		var delta Balance
		if as.Actual != nil {
			delta.Actual = *as.Actual - computed.Actual
		}
		if as.Budget != nil {
			delta.Budget = *as.Budget - computed.Budget
		}
		for _, e := range entries[from:] {
			r := e.Running[cur]
			r.Actual += delta.Actual
			r.Budget += delta.Budget
			e.Running[cur] = r
		}
		bal := b.balance(a.ID, cur)
		bal.Actual += delta.Actual
		bal.Budget += delta.Budget
	}
	return nil
}

// Current returns the current balance of the account in currency.
func (b *Balances) Current(accountID, currency string) Balance {
	if bal := b.current[accountID][currency]; bal != nil {
		return *bal
	}
	return Balance{}
}

// Currencies returns the currencies the account has a balance in, sorted.
func (b *Balances) Currencies(accountID string) []string {
	return slices.Sorted(maps.Keys(b.current[accountID]))
}

// Entries returns the account's fan-out records in running order.
func (b *Balances) Entries(accountID string) []*AccountEntry { return b.byAccount[accountID] }

// Chart returns the chart the balances were computed on.
func (b *Balances) Chart() *Chart { return b.chart }

// AsOf returns the running balance of the account in currency at the end of
// day d, that is after every entry dated d or earlier.
func (b *Balances) AsOf(accountID, currency string, d date.Date) Balance {
	var bal Balance
	for _, e := range b.byAccount[accountID] {
		if e.Entry.Date.After(d) {
			break
		}
		bal = e.Running[currency]
	}
	return bal
}
