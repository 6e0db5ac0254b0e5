package dough

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/dough/date"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Feed is the bank transaction feed.
type Feed interface {
	// NewTransactions lists the raw transactions dated in w whose id is not known.
	NewTransactions(ctx context.Context, w date.Window, known func(transactionID string) bool) ([]*SourceTransaction, error)
	// AccountName resolves a feed account identifier to a chart account name.
	AccountName(ctx context.Context, feedAccountID string) (string, error)
}

// DownloadedFeed reads the feed responses previously downloaded under
// <dir>/feedItems/<item>/byEndingYear/<year>/*.json.
type DownloadedFeed struct {
	dir      string
	items    []FeedItemConfig
	accounts map[string]string // feed account id -> account name
	log      zerolog.Logger
}

// NewDownloadedFeed returns the feed of the configured items, downloaded in dir.
func NewDownloadedFeed(dir string, items []FeedItemConfig, log zerolog.Logger) *DownloadedFeed {
	accounts := make(map[string]string)
	for _, item := range items {
		for _, a := range item.Accounts {
			accounts[a.FeedAccountID] = a.Name
		}
	}
	return &DownloadedFeed{dir: dir, items: items, accounts: accounts, log: log}
}

// AccountName implements Feed.
func (f *DownloadedFeed) AccountName(ctx context.Context, feedAccountID string) (string, error) {
	name, ok := f.accounts[feedAccountID]
	if !ok {
		return "", fmt.Errorf("feed account %q is not configured", feedAccountID)
	}
	return name, nil
}

// NewTransactions implements Feed.
//
// Year directories one year around w are scanned, transactions downloaded
// late or early land there; each transaction is then kept only if its own
// date is in w. Pending transactions are skipped.
func (f *DownloadedFeed) NewTransactions(ctx context.Context, w date.Window, known func(string) bool) ([]*SourceTransaction, error) {
	startYear, endYear := w.Start.Year()-1, w.End.Year()+1
	seen := make(map[string]bool)
	var list []*SourceTransaction
	for _, item := range f.items {
		dir := filepath.Join(f.dir, "feedItems", item.Name, "byEndingYear")
		years, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			f.log.Debug().Str("item", item.Name).Str("dir", dir).Msg("no downloaded transactions")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("could not list downloaded transactions of %q: %w", item.Name, err)
		}
		for _, y := range years {
			year, err := strconv.Atoi(y.Name())
			if err != nil || !y.IsDir() || year < startYear || year > endYear {
				continue
			}
			files, err := os.ReadDir(filepath.Join(dir, y.Name()))
			if err != nil {
				return nil, fmt.Errorf("could not list downloaded transactions of %q: %w", item.Name, err)
			}
			for _, file := range files {
				if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
					continue
				}
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				filename := filepath.Join(dir, y.Name(), file.Name())
				txs, err := f.readFile(ctx, filename)
				if err != nil {
					return nil, err
				}
				for _, t := range txs {
					if !w.Contains(t.Date) || seen[t.TransactionID] || known(t.TransactionID) {
						continue
					}
					seen[t.TransactionID] = true
					list = append(list, t)
				}
			}
		}
	}
	return list, nil
}

// readFile decodes one downloaded response, skipping pending transactions.
func (f *DownloadedFeed) readFile(ctx context.Context, filename string) ([]*SourceTransaction, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read downloaded transactions %q: %w", filename, err)
	}
	var jobj any
	if err := json.Unmarshal(data, &jobj); err != nil {
		return nil, fmt.Errorf("parse error in %q: %w", filename, err)
	}
	jval, err := jsonpath.Get("$.transactions[*]", jobj)
	if err != nil {
		return nil, fmt.Errorf("parse error in %q: no transactions: %w", filename, err)
	}
	jlist, _ := jval.([]any)

	var list []*SourceTransaction
	for i, jtx := range jlist {
		t, err := f.decodeTransaction(ctx, jtx)
		if err != nil {
			return nil, fmt.Errorf("parse error in %q, transaction #%d: %w", filename, i, err)
		}
		if t != nil {
			list = append(list, t)
		}
	}
	return list, nil
}

func (f *DownloadedFeed) decodeTransaction(ctx context.Context, jtx any) (*SourceTransaction, error) {
	if pending, _ := jget(jtx, "$.pending").(bool); pending {
		return nil, nil
	}
	id := jstring(jtx, "$.transaction_id")
	if id == "" {
		return nil, errors.New("missing transaction_id")
	}
	d, err := date.Parse(jstring(jtx, "$.date"))
	if err != nil {
		return nil, fmt.Errorf("transaction %q: %w", id, err)
	}
	amount, ok := jget(jtx, "$.amount").(float64)
	if !ok {
		return nil, fmt.Errorf("transaction %q: amount is not a number", id)
	}
	feedAccountID := jstring(jtx, "$.account_id")
	accountName, err := f.AccountName(ctx, feedAccountID)
	if err != nil {
		return nil, fmt.Errorf("transaction %q: %w", id, err)
	}

	currency := jstring(jtx, "$.iso_currency_code")
	if currency == "" {
		currency = jstring(jtx, "$.unofficial_currency_code")
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	name := jstring(jtx, "$.name")
	description := jstring(jtx, "$.original_description")
	if description == "" {
		description = name
	}
	var categories []string
	if jcats, ok := jget(jtx, "$.category").([]any); ok {
		for _, c := range jcats {
			if s, ok := c.(string); ok {
				categories = append(categories, s)
			}
		}
	}

	return &SourceTransaction{
		Type:              FeedTransaction,
		TransactionID:     "feed-" + id,
		AccountName:       accountName,
		Date:              d,
		AmountInCents:     toCents(amount),
		Currency:          currency,
		Name:              name,
		Description:       description,
		SuggestedCategory: strings.Join(categories, "/"),
		CheckNumber:       jstring(jtx, "$.check_number"),
		FeedAccountID:     feedAccountID,
	}, nil
}

// toCents rounds an amount in currency units to the nearest cent, halves up.
func toCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Add(decimal.New(5, -1)).Floor().IntPart()
}

// jget evaluates path on v, and returns nil if it cannot.
func jget(v any, path string) any {
	jval, err := jsonpath.Get(path, v)
	if err != nil {
		return nil
	}
	return jval
}

func jstring(v any, path string) string {
	s, _ := jget(v, path).(string)
	return s
}
