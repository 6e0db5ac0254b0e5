package dough

import (
	"fmt"
	"strings"
)

// AmbiguousAccountError is returned when an account name matches more than one account.
type AmbiguousAccountError struct {
	Name       string
	Candidates []string // ids of the matching accounts
}

func (e *AmbiguousAccountError) Error() string {
	return fmt.Sprintf("account %q is ambiguous, it matches accounts %s; qualify it with an ancestor name (e.g. \"Parent/%s\")",
		e.Name, strings.Join(e.Candidates, ", "), lastPart(e.Name))
}

// UnknownAccountError is returned when an account name or id matches no account.
type UnknownAccountError struct {
	Name    string
	Context string // what was looking for the account, may be empty
}

func (e *UnknownAccountError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("unknown account %q", e.Name)
	}
	return fmt.Sprintf("unknown account %q for %s", e.Name, e.Context)
}

// UnresolvedAccount describes an account whose parent could not be placed in the chart.
type UnresolvedAccount struct {
	ID         string
	Name       string
	ParentName string
	Reason     string
}

// HierarchyError aggregates every account of a chart whose parent could not be resolved.
type HierarchyError struct {
	Unresolved []UnresolvedAccount
}

func (e *HierarchyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "unable to construct the chart of accounts, %d account(s) could not be placed:", len(e.Unresolved))
	for _, u := range e.Unresolved {
		fmt.Fprintf(&b, "\n  account %q (id %q) specifies %s parent %q", u.Name, u.ID, u.Reason, u.ParentName)
	}
	return b.String()
}

// UnbalancedEntryError is returned when the credits and debits of an entry differ for a currency.
type UnbalancedEntryError struct {
	EntryID  string
	Currency string
	Credits  int64
	Debits   int64
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("entry %q is unbalanced in %s: credits %d != debits %d", e.EntryID, e.Currency, e.Credits, e.Debits)
}

// DuplicateEntryError is returned when an entry collides with a live entry.
type DuplicateEntryError struct {
	EntryID string
	Field   string // "id" or "sourceTransactionId"
	Value   string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("entry %q: another entry already has %s %q", e.EntryID, e.Field, e.Value)
}

// InvalidScheduleError is returned when a recurrence expression cannot be parsed.
type InvalidScheduleError struct {
	EntryID  string
	Schedule string
	Err      error
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule for entry %q: %q: %v", e.EntryID, e.Schedule, e.Err)
}

func (e *InvalidScheduleError) Unwrap() error { return e.Err }

// MultiCurrencyEntryError is returned when a scheduled entry mixes explicit currencies.
type MultiCurrencyEntryError struct {
	EntryID    string
	Currencies []string
}

func (e *MultiCurrencyEntryError) Error() string {
	return fmt.Sprintf("scheduled entry %q specifies multiple currencies: %s", e.EntryID, strings.Join(e.Currencies, ", "))
}

// MissingAmountLegError is returned when no leg of a scheduled entry carries an amount.
type MissingAmountLegError struct {
	EntryID string
}

func (e *MissingAmountLegError) Error() string {
	return fmt.Sprintf("scheduled entry %q does not specify any account with an amountInCents", e.EntryID)
}

// ExtraAmountOmissionError is returned when more than one leg of a scheduled entry omits its amount.
type ExtraAmountOmissionError struct {
	EntryID string
	Count   int
}

func (e *ExtraAmountOmissionError) Error() string {
	return fmt.Sprintf("scheduled entry %q may omit amountInCents on at most one account, %d do", e.EntryID, e.Count)
}

// UnparsableClassificationError is returned when a classification text cannot be parsed.
type UnparsableClassificationError struct {
	Text          string
	TransactionID string
	Source        string // file name, may be empty
}

func (e *UnparsableClassificationError) Error() string {
	msg := fmt.Sprintf("unable to parse classification %q for transaction %q", e.Text, e.TransactionID)
	if e.Source != "" {
		msg += " in " + e.Source
	}
	return msg
}

// ReportFormatError is returned when a review report does not have the expected layout.
type ReportFormatError struct {
	Line   int
	Reason string
}

func (e *ReportFormatError) Error() string {
	return fmt.Sprintf("review report line %d: %s", e.Line, e.Reason)
}

// UnknownTransactionError is returned when a classification refers to a source transaction that is not loaded.
type UnknownTransactionError struct {
	TransactionID string
}

func (e *UnknownTransactionError) Error() string {
	return fmt.Sprintf("unknown source transaction %q", e.TransactionID)
}
