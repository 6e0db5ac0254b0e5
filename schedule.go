package dough

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/etnz/dough/date"
	"github.com/robfig/cron/v3"
)

// maxOccurrences bounds the expansion of one schedule over one window.
const maxOccurrences = 366

// ScheduledEntry is a recurring journal entry template.
type ScheduledEntry struct {
	ID       string         `mapstructure:"id" json:"id"`
	Schedule string         `mapstructure:"schedule" json:"schedule"`
	Memo     string         `mapstructure:"memo" json:"memo,omitempty"`
	Accounts []ScheduledLeg `mapstructure:"accounts" json:"accounts"`
}

// ScheduledLeg is one leg of a ScheduledEntry. A nil amount receives the
// balancing remainder; a negative amount goes to the opposite side of the
// account's polarity.
type ScheduledLeg struct {
	Account       string `mapstructure:"account" json:"account"`
	AmountInCents *int64 `mapstructure:"amountInCents" json:"amountInCents,omitempty"`
	Currency      string `mapstructure:"currency" json:"currency,omitempty"`
}

// NormalizedEntry is a ScheduledEntry with resolved accounts and explicit,
// balanced legs, ready to be stamped on each occurrence.
type NormalizedEntry struct {
	ID       string
	Memo     string
	Schedule cron.Schedule
	Legs     []EntryLeg
}

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Normalize resolves the template's accounts in chart and balances its legs.
func Normalize(chart *Chart, e ScheduledEntry) (*NormalizedEntry, error) {
	sched, err := scheduleParser.Parse(e.Schedule)
	if err != nil {
		return nil, &InvalidScheduleError{EntryID: e.ID, Schedule: e.Schedule, Err: err}
	}

	var (
		credits, debits int64
		withAmount      int
		omitted         []int
		currencies      = make(map[string]bool)
		legs            = make([]EntryLeg, len(e.Accounts))
	)
	for i, leg := range e.Accounts {
		a, err := chart.Find(leg.Account)
		if err != nil {
			return nil, fmt.Errorf("scheduled entry %q: %w", e.ID, err)
		}
		legs[i].AccountID = a.ID
		if leg.Currency != "" {
			currencies[leg.Currency] = true
		}
		if leg.AmountInCents == nil {
			omitted = append(omitted, i)
			continue
		}
		withAmount++
		side, amount := chart.Polarity(a), *leg.AmountInCents
		if amount < 0 {
			side, amount = side.Opposite(), -amount
		}
		legs[i].CreditOrDebit, legs[i].AmountInCents = side, amount
		if side == Credit {
			credits += amount
		} else {
			debits += amount
		}
	}

	switch {
	case len(omitted) > 1:
		return nil, &ExtraAmountOmissionError{EntryID: e.ID, Count: len(omitted)}
	case withAmount == 0:
		return nil, &MissingAmountLegError{EntryID: e.ID}
	case len(currencies) > 1:
		return nil, &MultiCurrencyEntryError{EntryID: e.ID, Currencies: slices.Sorted(maps.Keys(currencies))}
	}

	currency := DefaultCurrency
	for cur := range currencies {
		currency = cur
	}
	if len(omitted) == 1 {
		i := omitted[0]
		if credits >= debits {
			legs[i].CreditOrDebit, legs[i].AmountInCents = Debit, credits-debits
		} else {
			legs[i].CreditOrDebit, legs[i].AmountInCents = Credit, debits-credits
		}
	} else if credits != debits {
		return nil, &UnbalancedEntryError{EntryID: e.ID, Currency: currency, Credits: credits, Debits: debits}
	}
	for i := range legs {
		legs[i].Currency = currency
	}
	return &NormalizedEntry{ID: e.ID, Memo: e.Memo, Schedule: sched, Legs: legs}, nil
}

// Occurrences returns the days in w on which the schedule fires, at most
// maxOccurrences of them. A day appears once per firing on that day.
func Occurrences(s cron.Schedule, w date.Window) []date.Date {
	var days []date.Date
	end := w.End.Time()
	// Next is strictly after its argument: start just before midnight.
	for t := s.Next(w.Start.Time().Add(-time.Second)); !t.IsZero() && t.Before(end); t = s.Next(t) {
		if len(days) == maxOccurrences {
			break
		}
		days = append(days, date.FromTime(t))
	}
	return days
}

// Entries returns the journal entries of the template over w. Entry ids are
// derived from the template id, the day and the occurrence index within the
// day, so that expanding twice yields the same ids.
func (n *NormalizedEntry) Entries(w date.Window, kind BudgetOrActual) []*JournalEntry {
	var entries []*JournalEntry
	var prev date.Date
	num := 0
	for _, d := range Occurrences(n.Schedule, w) {
		if d == prev {
			num++
		} else {
			prev, num = d, 0
		}
		entries = append(entries, &JournalEntry{
			CreatedAt: d.String(),
			ID:        fmt.Sprintf("scheduled-%s-%s-%d", n.ID, d, num),
			Date:      d,
			Memo:      n.Memo,
			Accounts:  slices.Clone(n.Legs),
			Kind:      kind,
		})
	}
	return entries
}

// ExpandSchedules normalizes every template and adds its occurrences in w to
// the model, tagged with kind. Occurrences whose id is already live are
// skipped as already applied.
func (m *Model) ExpandSchedules(entries []ScheduledEntry, w date.Window, kind BudgetOrActual) error {
	for _, e := range entries {
		n, err := Normalize(m.chart, e)
		if err != nil {
			return err
		}
		added := 0
		for _, je := range n.Entries(w, kind) {
			if m.Entry(je.ID) != nil {
				continue
			}
			if err := m.addEntry(je); err != nil {
				return fmt.Errorf("scheduled entry %q: %w", e.ID, err)
			}
			added++
		}
		m.log.Debug().Str("scheduledEntry", e.ID).Str("kind", string(kind)).Stringer("window", w).Int("added", added).Msg("expanded schedule")
	}
	return nil
}
