package dough

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/etnz/dough/date"
	"github.com/rs/zerolog"
)

// File names in a journal directory.
const (
	JournalEntriesFile         = "journalEntries.jsonl"
	ClassifiedTransactionsFile = "classifiedTransactions.jsonl"
	SourceTransactionsFile     = "sourceTransactions.jsonl"
	ReviewFile                 = "forReview.txt"
)

// App runs the ledger operations of one journal.
type App struct {
	Config  *Config
	Journal *JournalConfig
	Feed    Feed
	Log     zerolog.Logger
	Today   func() date.Date
}

// NewApp returns the app of the journal named journalName (the only one if
// empty), fed by the downloaded feed responses of the data directory.
func NewApp(cfg *Config, journalName string, log zerolog.Logger) (*App, error) {
	j, err := cfg.Journal(journalName)
	if err != nil {
		return nil, err
	}
	feed := NewDownloadedFeed(filepath.Join(cfg.DataDirectory, "downloadedTransactions"), cfg.Feed.Items, log)
	return &App{Config: cfg, Journal: j, Feed: feed, Log: log, Today: date.Today}, nil
}

// JournalDir returns the directory of the journal's logs.
func (a *App) JournalDir() string {
	return filepath.Join(a.Config.DataDirectory, "journals", a.Journal.JournalDir)
}

// Path returns the path of a file of the journal directory.
func (a *App) Path(name string) string { return filepath.Join(a.JournalDir(), name) }

// session is the state loaded from the configuration and the logs.
type session struct {
	model      *Model
	rules      []*Rule
	classified []*ClassifiedTransaction
}

// load builds the chart, replays the journal log (restricted to replay if
// not nil), and loads the classification and source logs.
func (a *App) load(replay *date.Window) (*session, error) {
	chart, err := NewChart(a.Journal.ChartOfAccounts)
	if err != nil {
		return nil, err
	}
	if err := chart.CheckFeedAccounts(a.Config.FeedAccountNames()); err != nil {
		return nil, err
	}
	rules, err := CompileRules(a.Journal.ClassificationRules)
	if err != nil {
		return nil, err
	}
	m := NewModel(chart, a.Log)

	filename := a.Path(JournalEntriesFile)
	lines, err := ReadJournalLog(filename)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		if replay != nil {
			err = m.ApplyInWindow(l, *replay)
		} else {
			err = m.Apply(l)
		}
		if err != nil {
			return nil, fmt.Errorf("replaying %q: %w", filename, err)
		}
	}
	a.Log.Info().Int("lines", len(lines)).Int("entries", m.EntryCount()).Str("file", filename).Msg("loaded journal entries")

	filename = a.Path(ClassifiedTransactionsFile)
	clines, err := ReadClassificationLog(filename)
	if err != nil {
		return nil, err
	}
	classified := ActiveClassifications(clines, a.Log)
	a.Log.Info().Int("classified", len(classified)).Str("file", filename).Msg("loaded classified transactions")

	filename = a.Path(SourceTransactionsFile)
	sources, err := ReadSourceLog(filename)
	if err != nil {
		return nil, err
	}
	for _, t := range sources {
		if err := m.AddSourceTransaction(t); err != nil {
			return nil, fmt.Errorf("loading %q: %w", filename, err)
		}
	}
	a.Log.Info().Int("transactions", len(sources)).Str("file", filename).Msg("loaded source transactions")

	return &session{model: m, rules: rules, classified: classified}, nil
}

// RunResult sums up a run.
type RunResult struct {
	NewSources   int // source transactions added to the source log
	Missed       int // journal entries recovered from earlier classifications
	Classified   int // classifications approved in the review report
	Unclassified int // rows of the rewritten review report
	Suggested    int // rows with a suggested classification
	Balances     *Balances
}

// Run ingests new source transactions and approved classifications, appends
// them to the logs, rewrites the review report, and computes balances.
//
// Everything is computed before the first append: an error, or the
// cancellation of ctx, leaves the logs as they were.
func (a *App) Run(ctx context.Context) (*RunResult, error) {
	s, err := a.load(nil)
	if err != nil {
		return nil, err
	}
	m := s.model
	w, err := a.Journal.Window()
	if err != nil {
		return nil, err
	}

	newSources, err := a.Feed.NewTransactions(ctx, w, m.HasSourceTransaction)
	if err != nil {
		return nil, fmt.Errorf("loading new transactions from the feed: %w", err)
	}
	for _, t := range newSources {
		if err := m.AddSourceTransaction(t); err != nil {
			return nil, err
		}
	}
	scheduled, err := m.AddScheduledSources(a.Journal.ScheduledSourceTransactions, w, a.Today())
	if err != nil {
		return nil, err
	}
	newSources = append(newSources, scheduled...)
	a.Log.Info().Int("transactions", len(newSources)).Stringer("window", w).Msg("new source transactions")

	// Classifications whose journal entry never made it to the journal log.
	var newEntries []JournalLine
	missed := 0
	for _, ct := range s.classified {
		e, err := ClassifiedToEntry(m, ct)
		if err != nil {
			return nil, err
		}
		if e == nil {
			continue
		}
		if err := m.addEntry(e); err != nil {
			return nil, err
		}
		newEntries = append(newEntries, e)
		missed++
	}
	if missed > 0 {
		a.Log.Info().Int("entries", missed).Msg("adding missed journal entries of classified transactions")
	}

	reviewFile := a.Path(ReviewFile)
	rows, err := ReadReviewFile(reviewFile)
	if err != nil {
		return nil, err
	}
	approved, err := NewlyClassified(rows, m.Chart(), reviewFile)
	if err != nil {
		return nil, err
	}
	var newClassified []ClassificationLine
	for _, ct := range approved {
		if m.EntryForSource(ct.SourceTransactionID) != nil {
			a.Log.Warn().Str("transactionId", ct.SourceTransactionID).Msg("approved transaction is already classified, ignored")
			continue
		}
		e, err := ClassifiedToEntry(m, ct)
		if err != nil {
			return nil, err
		}
		if err := m.addEntry(e); err != nil {
			return nil, err
		}
		newClassified = append(newClassified, ct)
		newEntries = append(newEntries, e)
	}

	if err := ValidateRules(m.Chart(), s.rules); err != nil {
		return nil, err
	}
	review := ReviewRows(m, s.rules)

	// Scheduled and budget entries are expanded in memory only.
	balances, err := a.balances(m)
	if err != nil {
		return nil, err
	}

	// Commit.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := AppendSourceTransactions(a.Path(SourceTransactionsFile), newSources...); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := AppendClassificationLines(a.Path(ClassifiedTransactionsFile), newClassified...); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := AppendJournalLines(a.Path(JournalEntriesFile), newEntries...); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := WriteReviewFile(reviewFile, review); err != nil {
		return nil, err
	}

	res := &RunResult{
		NewSources:   len(newSources),
		Missed:       missed,
		Classified:   len(newClassified),
		Unclassified: len(review),
		Balances:     balances,
	}
	for _, r := range review {
		if r.SuggestedClassification != "" {
			res.Suggested++
		}
	}
	a.Log.Info().Int("classified", res.Classified).Int("unclassified", res.Unclassified).Int("suggested", res.Suggested).Str("file", reviewFile).Msg("wrote review report")
	return res, nil
}

// Balances replays the logs, restricted to the window replay if not nil,
// expands the scheduled and budget entries, and computes the balances.
// Nothing is written.
func (a *App) Balances(ctx context.Context, replay *date.Window) (*Balances, error) {
	s, err := a.load(replay)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.balances(s.model)
}

func (a *App) balances(m *Model) (*Balances, error) {
	w, err := a.Journal.Window()
	if err != nil {
		return nil, err
	}
	if err := m.ExpandSchedules(a.Journal.ScheduledEntries, w, Actual); err != nil {
		return nil, err
	}
	bw, err := a.Journal.BudgetWindow()
	if err != nil {
		return nil, err
	}
	if err := m.ExpandSchedules(a.Journal.BudgetEntries(), bw, Budget); err != nil {
		return nil, err
	}
	assertions, err := a.Journal.Assertions()
	if err != nil {
		return nil, err
	}
	return m.ComputeBalances(assertions)
}

// Unclassify reverts the classification of a source transaction and its
// journal entry. A missing classification or entry is only reported.
func (a *App) Unclassify(ctx context.Context, sourceTransactionID string) error {
	s, err := a.load(nil)
	if err != nil {
		return err
	}
	classified := false
	for _, ct := range s.classified {
		if ct.SourceTransactionID == sourceTransactionID {
			classified = true
			break
		}
	}
	entry := s.model.EntryForSource(sourceTransactionID)

	if err := ctx.Err(); err != nil {
		return err
	}
	filename := a.Path(ClassifiedTransactionsFile)
	if !classified {
		a.Log.Warn().Str("transactionId", sourceTransactionID).Str("file", filename).Msg("no classified transaction found")
	} else {
		revert := &RevertClassifiedTransaction{CreatedAt: createdAt(), SourceTransactionID: sourceTransactionID}
		if err := AppendClassificationLines(filename, revert); err != nil {
			return err
		}
		a.Log.Info().Str("transactionId", sourceTransactionID).Str("file", filename).Msg("wrote RevertClassifiedTransaction")
	}

	filename = a.Path(JournalEntriesFile)
	if entry == nil {
		a.Log.Warn().Str("transactionId", sourceTransactionID).Str("file", filename).Msg("no journal entry found")
		return nil
	}
	if err := AppendJournalLines(filename, NewRevert(entry.ID)); err != nil {
		return err
	}
	a.Log.Info().Str("journalEntryId", entry.ID).Str("file", filename).Msg("wrote RevertJournalEntry")
	return nil
}

// Check loads the journal and validates the whole configuration without
// writing anything: rules, scheduled entries and balance assertions.
func (a *App) Check(ctx context.Context) error {
	s, err := a.load(nil)
	if err != nil {
		return err
	}
	chart := s.model.Chart()
	if err := ValidateRules(chart, s.rules); err != nil {
		return err
	}
	for _, e := range slices.Concat(a.Journal.ScheduledEntries, a.Journal.BudgetEntries()) {
		if _, err := Normalize(chart, e); err != nil {
			return err
		}
	}
	for _, cfg := range a.Journal.ScheduledSourceTransactions {
		if _, err := scheduleParser.Parse(cfg.Schedule); err != nil {
			return &InvalidScheduleError{EntryID: cfg.ID, Schedule: cfg.Schedule, Err: err}
		}
		if _, err := chart.Find(cfg.Account); err != nil {
			return fmt.Errorf("scheduled source transaction %q: %w", cfg.ID, err)
		}
	}
	assertions, err := a.Journal.Assertions()
	if err != nil {
		return err
	}
	for _, as := range assertions {
		if _, err := chart.Find(as.Account); err != nil {
			return fmt.Errorf("balance as of %s: %w", as.Date, err)
		}
	}
	return ctx.Err()
}
