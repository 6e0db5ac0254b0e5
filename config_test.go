package dough

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/dough/date"
	"github.com/google/go-cmp/cmp"
)

const testConfig = `
dataDirectory: ./data
feed:
  items:
    - name: mybank
      accounts:
        - name: Checking
          feedAccountId: acc-1
journals:
  - startDate: "2024-01-01"
    endDate: "2025-01-01"
    chartOfAccounts:
      - {id: assets, name: Assets, creditOrDebit: debit}
      - {id: checking, name: Checking, parent: Assets}
      - {id: expenses, name: Expenses, creditOrDebit: debit}
      - {id: groceries, name: Groceries, parent: Expenses}
    classificationRules:
      - type: Account
        account: Groceries
        match:
          name: {starts: CORNER}
          amountInCents: {lt: 0}
    scheduledEntries:
      - id: food
        schedule: "@monthly"
        accounts:
          - {account: Groceries, amountInCents: 100}
          - {account: Checking}
    balancesAsOf:
      - {account: Checking, date: "2024-01-01", actualBalanceInCents: 2500}
    budget:
      entries:
        - id: food
          schedule: "@monthly"
          accounts:
            - {account: Groceries, amountInCents: 40000}
            - {account: Checking}
  - name: next
    startDate: "2025-01-01"
    endDate: "2026-01-01"
    journalDir: y2025
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "dough.yaml")
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DataDirectory != "./data" {
		t.Errorf("DataDirectory = %q, want ./data", cfg.DataDirectory)
	}
	if diff := cmp.Diff([]string{"Checking"}, cfg.FeedAccountNames()); diff != "" {
		t.Errorf("FeedAccountNames() mismatch (-want +got):\n%s", diff)
	}

	if _, err := cfg.Journal(""); err == nil {
		t.Error("Journal(\"\") succeeded with two journals, want an error")
	}
	j, err := cfg.Journal("2024")
	if err != nil {
		t.Fatalf("Journal(2024) error = %v", err)
	}
	if j.JournalDir != "2024" {
		t.Errorf("JournalDir = %q, want the default 2024", j.JournalDir)
	}
	next, err := cfg.Journal("next")
	if err != nil {
		t.Fatalf("Journal(next) error = %v", err)
	}
	if next.JournalDir != "y2025" {
		t.Errorf("JournalDir = %q, want y2025", next.JournalDir)
	}

	w, err := j.Window()
	if err != nil || w != date.Year(2024) {
		t.Errorf("Window() = %v, %v, want %v", w, err, date.Year(2024))
	}
	bw, err := j.BudgetWindow()
	if err != nil || bw != w {
		t.Errorf("BudgetWindow() = %v, %v, want the journal window", bw, err)
	}

	chart, err := NewChart(j.ChartOfAccounts)
	if err != nil {
		t.Fatalf("NewChart() error = %v", err)
	}
	rules, err := CompileRules(j.ClassificationRules)
	if err != nil {
		t.Fatalf("CompileRules() error = %v", err)
	}
	tx := &SourceTransaction{Name: "CORNER SHOP", AmountInCents: -5}
	if c := ApplyRules(rules, tx); c == nil || c.String() != `Account: "Groceries"` {
		t.Errorf("ApplyRules() = %v, want Groceries", c)
	}
	for _, e := range append(j.ScheduledEntries, j.BudgetEntries()...) {
		if _, err := Normalize(chart, e); err != nil {
			t.Errorf("Normalize(%s) error = %v", e.ID, err)
		}
	}

	assertions, err := j.Assertions()
	if err != nil {
		t.Fatalf("Assertions() error = %v", err)
	}
	want := []BalanceAssertion{{Account: "Checking", Date: date.New(2024, 1, 1), Actual: cents(2500)}}
	if diff := cmp.Diff(want, assertions); diff != "" {
		t.Errorf("Assertions() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	filename := writeConfig(t, testConfig)
	t.Setenv(ConfigFileEnv, filename)
	t.Setenv("DOUGH_DATADIRECTORY", "/elsewhere")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DataDirectory != "/elsewhere" {
		t.Errorf("DataDirectory = %q, want the environment override", cfg.DataDirectory)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no data directory",
			content: "journals: []\n",
			wantErr: "dataDirectory is required",
		},
		{
			name:    "bad date",
			content: "dataDirectory: d\njournals:\n  - {startDate: \"2024-13-01\", endDate: \"2025-01-01\"}\n",
			wantErr: "journal #1",
		},
		{
			name:    "duplicate journal",
			content: "dataDirectory: d\njournals:\n  - {startDate: \"2024-01-01\", endDate: \"2025-01-01\"}\n  - {name: \"2024\", startDate: \"2024-01-01\", endDate: \"2025-01-01\"}\n",
			wantErr: "declared twice",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("LoadConfig() error = %v, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfig() succeeded on a missing file, want an error")
	}
}
