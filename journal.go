package dough

import (
	"github.com/etnz/dough/date"
)

// JournalLine is a line of the journal log: either a *JournalEntry or a
// *RevertJournalEntry.
type JournalLine interface {
	journalLine()
}

// RevertJournalEntry removes a previously logged journal entry from the live model.
type RevertJournalEntry struct {
	CreatedAt      string `json:"createdAt"`
	JournalEntryID string `json:"journalEntryId"`
}

func (*JournalEntry) journalLine()       {}
func (*RevertJournalEntry) journalLine() {}

// Apply replays one journal log line into the model.
//
// Reverting an entry that is not live is not an error: the log is replayed
// from scratch on every run and may mention entries that were never loaded.
func (m *Model) Apply(line JournalLine) error {
	switch l := line.(type) {
	case *JournalEntry:
		return m.addEntry(l)
	case *RevertJournalEntry:
		if !m.removeEntry(l.JournalEntryID) {
			m.log.Warn().Str("journalEntryId", l.JournalEntryID).Msg("revert of an unknown journal entry, ignored")
		}
		return nil
	default:
		panic("unreachable: unknown journal line type")
	}
}

// ApplyInWindow is like Apply but ignores journal entries dated outside w.
// Reverts are always applied.
func (m *Model) ApplyInWindow(line JournalLine, w date.Window) error {
	if e, ok := line.(*JournalEntry); ok && !w.Contains(e.Date) {
		return nil
	}
	return m.Apply(line)
}

// ApplyAll replays lines in order, stopping at the first error.
func (m *Model) ApplyAll(lines []JournalLine) error {
	for _, l := range lines {
		if err := m.Apply(l); err != nil {
			return err
		}
	}
	return nil
}

// NewRevert returns the log line reverting the entry with that id.
func NewRevert(journalEntryID string) *RevertJournalEntry {
	return &RevertJournalEntry{CreatedAt: createdAt(), JournalEntryID: journalEntryID}
}
