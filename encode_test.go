package dough

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/dough/date"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestEncodeJournalLine(t *testing.T) {
	testCases := []struct {
		name string
		line JournalLine
		want string
	}{
		{
			name: "entry",
			line: &JournalEntry{
				CreatedAt: "2024-01-06",
				ID:        "e1",
				Date:      date.New(2024, 1, 5),
				Accounts: []EntryLeg{
					{AccountID: "checking", CreditOrDebit: Credit, Currency: "USD", AmountInCents: 1000},
					{AccountID: "groceries", CreditOrDebit: Debit, Currency: "USD", AmountInCents: 1000},
				},
			},
			want: `{"accounts":[{"accountId":"checking","amountInCents":1000,"creditOrDebit":"credit","currency":"USD"},{"accountId":"groceries","amountInCents":1000,"creditOrDebit":"debit","currency":"USD"}],"createdAt":"2024-01-06","date":"2024-01-05","id":"e1","type":"JournalEntry"}`,
		},
		{
			name: "revert",
			line: &RevertJournalEntry{CreatedAt: "2024-01-07", JournalEntryID: "e1"},
			want: `{"createdAt":"2024-01-07","journalEntryId":"e1","type":"RevertJournalEntry"}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EncodeJournalLine(tc.line)
			if err != nil {
				t.Fatalf("EncodeJournalLine() error = %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("EncodeJournalLine() =\n%s\nwant\n%s", got, tc.want)
			}
		})
	}
}

func TestEncodeClassificationLine(t *testing.T) {
	ct := &ClassifiedTransaction{
		CreatedAt:           "2024-01-06",
		SourceTransactionID: "feed-1",
		Classification:      &AccountClassification{Account: "Bank/Fees", Memo: "<monthly> & co"},
	}
	got, err := EncodeClassificationLine(ct)
	if err != nil {
		t.Fatalf("EncodeClassificationLine() error = %v", err)
	}
	want := `{"classification":{"account":"Bank/Fees","memo":"<monthly> & co","type":"Account"},"createdAt":"2024-01-06","sourceTransactionId":"feed-1","type":"ClassifiedTransaction"}`
	if string(got) != want {
		t.Errorf("EncodeClassificationLine() =\n%s\nwant\n%s", got, want)
	}
}

func TestLogs_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	journal := []JournalLine{
		entry("e1", "2024-01-05", "checking", "groceries", 1000),
		&RevertJournalEntry{CreatedAt: "2024-01-06", JournalEntryID: "e1"},
	}
	journalFile := filepath.Join(dir, "sub", JournalEntriesFile)
	// two appends accumulate
	if err := AppendJournalLines(journalFile, journal[0]); err != nil {
		t.Fatalf("AppendJournalLines() error = %v", err)
	}
	if err := AppendJournalLines(journalFile, journal[1]); err != nil {
		t.Fatalf("AppendJournalLines() error = %v", err)
	}
	gotJournal, err := ReadJournalLog(journalFile)
	if err != nil {
		t.Fatalf("ReadJournalLog() error = %v", err)
	}
	if diff := cmp.Diff(journal, gotJournal, cmpopts.IgnoreUnexported(JournalEntry{})); diff != "" {
		t.Errorf("journal log mismatch (-want +got):\n%s", diff)
	}

	classifications := []ClassificationLine{
		&ClassifiedTransaction{CreatedAt: "2024-01-06", SourceTransactionID: "feed-1", Classification: &AccountClassification{Account: "Groceries"}},
		&RevertClassifiedTransaction{CreatedAt: "2024-01-07", SourceTransactionID: "feed-1"},
	}
	classFile := filepath.Join(dir, ClassifiedTransactionsFile)
	if err := AppendClassificationLines(classFile, classifications...); err != nil {
		t.Fatalf("AppendClassificationLines() error = %v", err)
	}
	gotClass, err := ReadClassificationLog(classFile)
	if err != nil {
		t.Fatalf("ReadClassificationLog() error = %v", err)
	}
	if diff := cmp.Diff(classifications, gotClass); diff != "" {
		t.Errorf("classification log mismatch (-want +got):\n%s", diff)
	}

	sources := []*SourceTransaction{
		{Type: FeedTransaction, TransactionID: "feed-1", AccountName: "Checking", Date: date.New(2024, 1, 5), AmountInCents: -1234, Currency: "USD", Description: "CORNER SHOP"},
		{Type: ScheduledTransaction, TransactionID: "scheduled-cash-2024-01-01", AccountName: "Checking", Date: date.New(2024, 1, 1), AmountInCents: 5000, Currency: "EUR", Description: "cash"},
	}
	sourceFile := filepath.Join(dir, SourceTransactionsFile)
	if err := AppendSourceTransactions(sourceFile, sources...); err != nil {
		t.Fatalf("AppendSourceTransactions() error = %v", err)
	}
	gotSources, err := ReadSourceLog(sourceFile)
	if err != nil {
		t.Fatalf("ReadSourceLog() error = %v", err)
	}
	if diff := cmp.Diff(sources, gotSources); diff != "" {
		t.Errorf("source log mismatch (-want +got):\n%s", diff)
	}
}

func TestReadLog_Missing(t *testing.T) {
	lines, err := ReadJournalLog(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err != nil || len(lines) != 0 {
		t.Errorf("ReadJournalLog(missing) = %v, %v, want an empty log", lines, err)
	}
}

func TestAppend_NothingToWrite(t *testing.T) {
	filename := filepath.Join(t.TempDir(), JournalEntriesFile)
	if err := AppendJournalLines(filename); err != nil {
		t.Fatalf("AppendJournalLines() error = %v", err)
	}
	if _, err := os.Stat(filename); !os.IsNotExist(err) {
		t.Errorf("AppendJournalLines() with no line created %q", filename)
	}
}

func TestReadJournalLog_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string // substring, empty for success
		want    int
	}{
		{
			name:    "comments and blank lines",
			content: "# a comment\n\n" + `{"type":"RevertJournalEntry","journalEntryId":"e1"}` + "\n   \n",
			want:    1,
		},
		{
			name:    "unknown type",
			content: `{"type":"Nope"}`,
			wantErr: `:1: unknown journal line type "Nope"`,
		},
		{
			name:    "not json",
			content: "# header\n{not json",
			wantErr: ":2: not a correct json",
		},
		{
			name:    "bad leg polarity",
			content: `{"type":"JournalEntry","id":"e","date":"2024-01-01","accounts":[{"accountId":"a","creditOrDebit":"both"}]}`,
			wantErr: "invalid creditOrDebit",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			filename := filepath.Join(t.TempDir(), JournalEntriesFile)
			if err := os.WriteFile(filename, []byte(tc.content), 0o644); err != nil {
				t.Fatal(err)
			}
			lines, err := ReadJournalLog(filename)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("ReadJournalLog() error = %v, want it to contain %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadJournalLog() error = %v", err)
			}
			if len(lines) != tc.want {
				t.Errorf("ReadJournalLog() read %d lines, want %d", len(lines), tc.want)
			}
		})
	}
}
