package dough

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/etnz/dough/date"
	"github.com/spf13/viper"
)

// ConfigFileEnv names the environment variable holding the configuration file path.
const ConfigFileEnv = "DOUGH_CONFIG_FILE"

// Config is the configuration of the ledger.
type Config struct {
	DataDirectory string          `mapstructure:"dataDirectory"`
	Feed          FeedConfig      `mapstructure:"feed"`
	Journals      []JournalConfig `mapstructure:"journals"`
}

// FeedConfig lists the feed items (one per bank login) and their accounts.
type FeedConfig struct {
	Items []FeedItemConfig `mapstructure:"items"`
}

type FeedItemConfig struct {
	Name        string              `mapstructure:"name"`
	DisplayName string              `mapstructure:"displayName"`
	Accounts    []FeedAccountConfig `mapstructure:"accounts"`
}

// FeedAccountConfig maps a bank account of the feed to a chart account, by bare name.
type FeedAccountConfig struct {
	Name          string `mapstructure:"name"`
	DisplayName   string `mapstructure:"displayName"`
	FeedAccountID string `mapstructure:"feedAccountId"`
}

// JournalConfig declares one journal: usually a year of bookkeeping.
type JournalConfig struct {
	Name                        string                  `mapstructure:"name"`
	StartDate                   string                  `mapstructure:"startDate"`
	EndDate                     string                  `mapstructure:"endDate"`
	JournalDir                  string                  `mapstructure:"journalDir"`
	ChartOfAccounts             []AccountConfig         `mapstructure:"chartOfAccounts"`
	ClassificationRules         []RuleConfig            `mapstructure:"classificationRules"`
	ScheduledEntries            []ScheduledEntry        `mapstructure:"scheduledEntries"`
	ScheduledSourceTransactions []ScheduledSourceConfig `mapstructure:"scheduledSourceTransactions"`
	BalancesAsOf                []BalanceAsOfConfig     `mapstructure:"balancesAsOf"`
	Budget                      *BudgetConfig           `mapstructure:"budget"`
}

// BudgetConfig declares the budget entries of a journal.
type BudgetConfig struct {
	StartDate string           `mapstructure:"startDate"`
	EndDate   string           `mapstructure:"endDate"`
	Entries   []ScheduledEntry `mapstructure:"entries"`
}

// BalanceAsOfConfig declares the known balances of an account as of a date.
type BalanceAsOfConfig struct {
	Account              string `mapstructure:"account"`
	Date                 string `mapstructure:"date"`
	Currency             string `mapstructure:"currency"`
	ActualBalanceInCents *int64 `mapstructure:"actualBalanceInCents"`
	BudgetBalanceInCents *int64 `mapstructure:"budgetBalanceInCents"`
}

// LoadConfig reads the configuration file at path. If path is empty, it
// uses $DOUGH_CONFIG_FILE, then dough.yaml in the working directory.
// Environment variables prefixed with DOUGH_ override top level keys.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	if path == "" {
		v.SetConfigName("dough")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix("DOUGH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config %q: %w", v.ConfigFileUsed(), err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", v.ConfigFileUsed(), err)
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.DataDirectory == "" {
		return errors.New("dataDirectory is required")
	}
	names := make(map[string]bool)
	for i := range c.Journals {
		j := &c.Journals[i]
		w, err := j.Window()
		if err != nil {
			return fmt.Errorf("journal #%d: %w", i+1, err)
		}
		if j.Name == "" {
			j.Name = strconv.Itoa(w.Start.Year())
		}
		if j.JournalDir == "" {
			j.JournalDir = j.Name
		}
		if names[j.Name] {
			return fmt.Errorf("journal %q is declared twice", j.Name)
		}
		names[j.Name] = true
	}
	return nil
}

// Journal returns the journal named name, or the only one if name is empty.
func (c *Config) Journal(name string) (*JournalConfig, error) {
	if name == "" {
		if len(c.Journals) == 1 {
			return &c.Journals[0], nil
		}
		return nil, fmt.Errorf("%d journals are configured, pick one", len(c.Journals))
	}
	for i := range c.Journals {
		if c.Journals[i].Name == name {
			return &c.Journals[i], nil
		}
	}
	return nil, fmt.Errorf("unknown journal %q", name)
}

// FeedAccountNames returns the chart account names of every feed account.
func (c *Config) FeedAccountNames() []string {
	var names []string
	for _, item := range c.Feed.Items {
		for _, a := range item.Accounts {
			names = append(names, a.Name)
		}
	}
	return names
}

// Window returns the journal's [startDate, endDate).
func (j *JournalConfig) Window() (date.Window, error) {
	return date.ParseWindow(j.StartDate, j.EndDate)
}

// BudgetWindow returns the budget's [startDate, endDate), the journal's by default.
func (j *JournalConfig) BudgetWindow() (date.Window, error) {
	if j.Budget == nil || (j.Budget.StartDate == "" && j.Budget.EndDate == "") {
		return j.Window()
	}
	return date.ParseWindow(j.Budget.StartDate, j.Budget.EndDate)
}

// Assertions returns the declared balances as of dates.
func (j *JournalConfig) Assertions() ([]BalanceAssertion, error) {
	list := make([]BalanceAssertion, 0, len(j.BalancesAsOf))
	for i, b := range j.BalancesAsOf {
		d, err := date.Parse(b.Date)
		if err != nil {
			return nil, fmt.Errorf("balancesAsOf #%d for %q: %w", i+1, b.Account, err)
		}
		if b.Account == "" {
			return nil, fmt.Errorf("balancesAsOf #%d has no account", i+1)
		}
		list = append(list, BalanceAssertion{
			Account:  b.Account,
			Date:     d,
			Currency: b.Currency,
			Actual:   b.ActualBalanceInCents,
			Budget:   b.BudgetBalanceInCents,
		})
	}
	return list, nil
}

// BudgetEntries returns the budget's scheduled entries, if any.
func (j *JournalConfig) BudgetEntries() []ScheduledEntry {
	if j.Budget == nil {
		return nil
	}
	return j.Budget.Entries
}
