package dough

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/etnz/dough/date"
	"github.com/rs/zerolog"
)

// BudgetOrActual tags an entry as part of the budget or of the actual ledger.
type BudgetOrActual string

const (
	Budget BudgetOrActual = "budget"
	Actual BudgetOrActual = "actual"
)

// EntryLeg is one side of a journal entry.
type EntryLeg struct {
	AccountID     string        `json:"accountId"`
	CreditOrDebit CreditOrDebit `json:"creditOrDebit"`
	Currency      string        `json:"currency"`
	AmountInCents int64         `json:"amountInCents"`
}

// JournalEntry is a balanced set of legs on a given day.
type JournalEntry struct {
	CreatedAt           string     `json:"createdAt"`
	ID                  string     `json:"id"`
	Date                date.Date  `json:"date"`
	Memo                string     `json:"memo,omitempty"`
	SourceTransactionID string     `json:"sourceTransactionId,omitempty"`
	Accounts            []EntryLeg `json:"accounts"`

	// Kind is not persisted: logged entries are actual, expanded ones carry the expansion's kind.
	Kind BudgetOrActual `json:"-"`

	seq int // insertion order in the model
}

// SourceKind discriminates the origin of a source transaction.
type SourceKind string

const (
	FeedTransaction        SourceKind = "FeedTransaction"
	ScheduledTransaction   SourceKind = "ScheduledTransaction"
	UtilityBillTransaction SourceKind = "UtilityBillTransaction"
)

// SourceTransaction is a raw transaction, as received from a feed, a schedule, or an import.
type SourceTransaction struct {
	Type              SourceKind `json:"type"`
	TransactionID     string     `json:"transactionId"`
	AccountName       string     `json:"accountName"`
	Date              date.Date  `json:"date"`
	AmountInCents     int64      `json:"amountInCents"`
	Currency          string     `json:"currency"`
	Name              string     `json:"name,omitempty"`
	Description       string     `json:"description"`
	SuggestedCategory string     `json:"suggestedCategory,omitempty"`
	CheckNumber       string     `json:"checkNumber,omitempty"`
	FeedAccountID     string     `json:"feedAccountId,omitempty"`
}

// Model is the working set of one run: the chart, the live journal entries,
// and the source transactions.
type Model struct {
	chart *Chart
	log   zerolog.Logger

	entries                table[JournalEntry]
	entriesByID            uniqueIndex[string]
	entriesBySource        uniqueIndex[string]
	nextSeq                int
	sources                table[SourceTransaction]
	sourcesByTransactionID uniqueIndex[string]
}

// NewModel returns an empty model over the chart.
func NewModel(chart *Chart, log zerolog.Logger) *Model {
	return &Model{
		chart:                  chart,
		log:                    log,
		entriesByID:            make(uniqueIndex[string]),
		entriesBySource:        make(uniqueIndex[string]),
		sourcesByTransactionID: make(uniqueIndex[string]),
	}
}

// Chart returns the chart of accounts of the model.
func (m *Model) Chart() *Chart { return m.chart }

// Entry returns the live entry with that id, or nil.
func (m *Model) Entry(id string) *JournalEntry {
	h, ok := m.entriesByID.lookup(id)
	if !ok {
		return nil
	}
	return m.entries.get(h)
}

// EntryForSource returns the live entry recording that source transaction, or nil.
func (m *Model) EntryForSource(transactionID string) *JournalEntry {
	h, ok := m.entriesBySource.lookup(transactionID)
	if !ok {
		return nil
	}
	return m.entries.get(h)
}

// Entries iterates over the live entries in insertion order.
func (m *Model) Entries() iter.Seq[*JournalEntry] {
	return func(yield func(*JournalEntry) bool) {
		for _, e := range m.entries.all() {
			if !yield(e) {
				return
			}
		}
	}
}

// EntryCount returns the number of live entries.
func (m *Model) EntryCount() int { return m.entries.len() }

// addEntry validates e and makes it live.
func (m *Model) addEntry(e *JournalEntry) error {
	if e.ID == "" {
		return fmt.Errorf("journal entry on %s has no id", e.Date)
	}
	if _, exists := m.entriesByID.lookup(e.ID); exists {
		return &DuplicateEntryError{EntryID: e.ID, Field: "id", Value: e.ID}
	}
	if e.SourceTransactionID != "" {
		if _, exists := m.entriesBySource.lookup(e.SourceTransactionID); exists {
			return &DuplicateEntryError{EntryID: e.ID, Field: "sourceTransactionId", Value: e.SourceTransactionID}
		}
	}
	if err := m.validateLegs(e); err != nil {
		return err
	}
	if e.Kind == "" {
		e.Kind = Actual
	}
	e.seq = m.nextSeq
	m.nextSeq++
	h := m.entries.add(e)
	m.entriesByID[e.ID] = h
	if e.SourceTransactionID != "" {
		m.entriesBySource[e.SourceTransactionID] = h
	}
	return nil
}

// validateLegs checks that legs refer to known accounts and that, for every
// currency, credits equal debits.
func (m *Model) validateLegs(e *JournalEntry) error {
	if len(e.Accounts) == 0 {
		return fmt.Errorf("journal entry %q has no accounts", e.ID)
	}
	credits := make(map[string]int64)
	debits := make(map[string]int64)
	seen := make(map[string]int64)
	for _, leg := range e.Accounts {
		if m.chart.Account(leg.AccountID) == nil {
			return &UnknownAccountError{Name: leg.AccountID, Context: fmt.Sprintf("journal entry %q", e.ID)}
		}
		if leg.AmountInCents < 0 {
			return fmt.Errorf("journal entry %q: negative amountInCents %d on account %q", e.ID, leg.AmountInCents, leg.AccountID)
		}
		if leg.Currency == "" {
			return fmt.Errorf("journal entry %q: missing currency on account %q", e.ID, leg.AccountID)
		}
		seen[leg.Currency] = 0
		switch leg.CreditOrDebit {
		case Credit:
			credits[leg.Currency] += leg.AmountInCents
		case Debit:
			debits[leg.Currency] += leg.AmountInCents
		default:
			return fmt.Errorf("journal entry %q: invalid creditOrDebit %q on account %q", e.ID, leg.CreditOrDebit, leg.AccountID)
		}
	}
	for _, cur := range slices.Sorted(maps.Keys(seen)) {
		if credits[cur] != debits[cur] {
			return &UnbalancedEntryError{EntryID: e.ID, Currency: cur, Credits: credits[cur], Debits: debits[cur]}
		}
	}
	return nil
}

// removeEntry drops the live entry with that id. It reports whether there was one.
func (m *Model) removeEntry(id string) bool {
	h, ok := m.entriesByID.lookup(id)
	if !ok {
		return false
	}
	e := m.entries.get(h)
	delete(m.entriesByID, id)
	if e.SourceTransactionID != "" {
		delete(m.entriesBySource, e.SourceTransactionID)
	}
	m.entries.remove(h)
	return true
}

// AddSourceTransaction makes t known to the model. Transaction ids are unique.
func (m *Model) AddSourceTransaction(t *SourceTransaction) error {
	if t.TransactionID == "" {
		return fmt.Errorf("source transaction on %s for %q has no transactionId", t.Date, t.AccountName)
	}
	if _, exists := m.sourcesByTransactionID.lookup(t.TransactionID); exists {
		return fmt.Errorf("source transaction %q is already known", t.TransactionID)
	}
	if t.Currency == "" {
		t.Currency = DefaultCurrency
	}
	m.sourcesByTransactionID[t.TransactionID] = m.sources.add(t)
	return nil
}

// HasSourceTransaction reports whether a source transaction with that id is known.
func (m *Model) HasSourceTransaction(id string) bool {
	_, ok := m.sourcesByTransactionID.lookup(id)
	return ok
}

// SourceTransaction returns the source transaction with that id, or nil.
func (m *Model) SourceTransaction(id string) *SourceTransaction {
	h, ok := m.sourcesByTransactionID.lookup(id)
	if !ok {
		return nil
	}
	return m.sources.get(h)
}

// SourceTransactions returns the known source transactions sorted by date, then id.
func (m *Model) SourceTransactions() []*SourceTransaction {
	list := make([]*SourceTransaction, 0, m.sources.len())
	for _, t := range m.sources.all() {
		list = append(list, t)
	}
	slices.SortStableFunc(list, func(a, b *SourceTransaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		switch {
		case a.TransactionID < b.TransactionID:
			return -1
		case a.TransactionID > b.TransactionID:
			return 1
		}
		return 0
	})
	return list
}

// Unclassified returns the source transactions that no live entry records.
func (m *Model) Unclassified() []*SourceTransaction {
	var list []*SourceTransaction
	for _, t := range m.SourceTransactions() {
		if m.EntryForSource(t.TransactionID) == nil {
			list = append(list, t)
		}
	}
	return list
}

// DefaultCurrency is used wherever a currency is implied.
const DefaultCurrency = "USD"

// now is the clock used to stamp log lines.
var now = time.Now

func createdAt() string { return date.FromTime(now()).String() }
