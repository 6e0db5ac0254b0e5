package dough

import (
	"fmt"

	"github.com/etnz/dough/date"
)

// ScheduledSourceConfig declares a recurring raw transaction, for accounts
// that no feed covers (a loan paid by automatic transfer, a salary...).
type ScheduledSourceConfig struct {
	ID            string `mapstructure:"id" json:"id"`
	Account       string `mapstructure:"account" json:"account"`
	AmountInCents int64  `mapstructure:"amountInCents" json:"amountInCents"`
	Currency      string `mapstructure:"currency" json:"currency,omitempty"`
	Name          string `mapstructure:"name" json:"name,omitempty"`
	Description   string `mapstructure:"description" json:"description"`
	Schedule      string `mapstructure:"schedule" json:"schedule"`
}

// AddScheduledSources adds to the model a source transaction for every
// occurrence of the schedules in w, up to but excluding today. Transaction
// ids are "scheduled-<id>-<date>"; occurrences already known are skipped.
// It returns the new transactions.
func (m *Model) AddScheduledSources(configs []ScheduledSourceConfig, w date.Window, today date.Date) ([]*SourceTransaction, error) {
	w = w.Clip(today)
	var added []*SourceTransaction
	for _, cfg := range configs {
		sched, err := scheduleParser.Parse(cfg.Schedule)
		if err != nil {
			return nil, &InvalidScheduleError{EntryID: cfg.ID, Schedule: cfg.Schedule, Err: err}
		}
		currency := cfg.Currency
		if currency == "" {
			currency = DefaultCurrency
		}
		for _, d := range Occurrences(sched, w) {
			id := fmt.Sprintf("scheduled-%s-%s", cfg.ID, d)
			if m.HasSourceTransaction(id) {
				continue
			}
			t := &SourceTransaction{
				Type:          ScheduledTransaction,
				TransactionID: id,
				AccountName:   cfg.Account,
				Date:          d,
				AmountInCents: cfg.AmountInCents,
				Currency:      currency,
				Name:          cfg.Name,
				Description:   cfg.Description,
			}
			if err := m.AddSourceTransaction(t); err != nil {
				return nil, err
			}
			added = append(added, t)
		}
	}
	return added, nil
}
