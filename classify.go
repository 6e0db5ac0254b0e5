package dough

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Classification is the decision of where a source transaction goes.
// The only variant is *AccountClassification.
type Classification interface {
	String() string
	classification()
}

// AccountClassification books a source transaction against a destination account.
//
// The resulting entry credits the source transaction's own account (debits
// it for a negative amount) and does the opposite on Account.
type AccountClassification struct {
	Account string `json:"account"`
	Memo    string `json:"memo,omitempty"`
}

func (*AccountClassification) classification() {}

// String returns the text form used in the review report: Account: "<name>" (<memo>).
func (c *AccountClassification) String() string {
	if c.Memo == "" {
		return fmt.Sprintf("Account: %q", c.Account)
	}
	return fmt.Sprintf("Account: %q (%s)", c.Account, c.Memo)
}

func (c *AccountClassification) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", "Account").Append("account", c.Account).Optional("memo", c.Memo)
	return w.MarshalJSON()
}

var accountClassificationRE = regexp.MustCompile(`^Account:\s*"([^"]+)"\s*(\(([^)]*)\))?\s*$`)

// ParseClassification parses the text form of a classification.
func ParseClassification(text string) (Classification, error) {
	if m := accountClassificationRE.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		return &AccountClassification{
			Account: strings.TrimSpace(m[1]),
			Memo:    strings.TrimSpace(m[3]),
		}, nil
	}
	return nil, &UnparsableClassificationError{Text: text}
}

// decodeClassification decodes the JSON form {"type":"Account",...}.
func decodeClassification(raw json.RawMessage) (Classification, error) {
	var identifier struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &identifier); err != nil {
		return nil, fmt.Errorf("could not identify classification %s: %w", raw, err)
	}
	switch identifier.Type {
	case "Account":
		var c AccountClassification
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		if c.Account == "" {
			return nil, fmt.Errorf("account classification %s has no account", raw)
		}
		return &c, nil
	default:
		return nil, fmt.Errorf("unknown classification type %q", identifier.Type)
	}
}

// ValidateClassification checks that the classification's accounts resolve in the chart.
func ValidateClassification(chart *Chart, c Classification) error {
	switch c := c.(type) {
	case *AccountClassification:
		if _, err := chart.Find(c.Account); err != nil {
			return fmt.Errorf("classification specifies an invalid account: %w", err)
		}
		return nil
	default:
		panic("unreachable: unknown classification type")
	}
}

// ClassificationLine is a line of the classification log: either a
// *ClassifiedTransaction or a *RevertClassifiedTransaction.
type ClassificationLine interface {
	classificationLine()
}

// ClassifiedTransaction records the classification of one source transaction.
type ClassifiedTransaction struct {
	CreatedAt           string         `json:"createdAt"`
	SourceTransactionID string         `json:"sourceTransactionId"`
	Classification      Classification `json:"classification"`
}

// RevertClassifiedTransaction cancels the classification of a source transaction.
type RevertClassifiedTransaction struct {
	CreatedAt           string `json:"createdAt"`
	SourceTransactionID string `json:"sourceTransactionId"`
}

func (*ClassifiedTransaction) classificationLine()       {}
func (*RevertClassifiedTransaction) classificationLine() {}

func (t *ClassifiedTransaction) UnmarshalJSON(b []byte) error {
	var temp struct {
		CreatedAt           string          `json:"createdAt"`
		SourceTransactionID string          `json:"sourceTransactionId"`
		Classification      json.RawMessage `json:"classification"`
	}
	if err := json.Unmarshal(b, &temp); err != nil {
		return err
	}
	if len(temp.Classification) == 0 {
		return fmt.Errorf("classified transaction %q has no classification", temp.SourceTransactionID)
	}
	c, err := decodeClassification(temp.Classification)
	if err != nil {
		return fmt.Errorf("classified transaction %q: %w", temp.SourceTransactionID, err)
	}
	*t = ClassifiedTransaction{
		CreatedAt:           temp.CreatedAt,
		SourceTransactionID: temp.SourceTransactionID,
		Classification:      c,
	}
	return nil
}

// NewClassifiedTransaction returns the log line classifying the source transaction.
func NewClassifiedTransaction(sourceTransactionID string, c Classification) *ClassifiedTransaction {
	return &ClassifiedTransaction{CreatedAt: createdAt(), SourceTransactionID: sourceTransactionID, Classification: c}
}

// ActiveClassifications folds the classification log: a revert drops every
// earlier classification of the same source transaction. Reverting a source
// transaction that has no classification only logs a warning.
func ActiveClassifications(lines []ClassificationLine, log zerolog.Logger) []*ClassifiedTransaction {
	var active []*ClassifiedTransaction
	for _, line := range lines {
		switch l := line.(type) {
		case *ClassifiedTransaction:
			active = append(active, l)
		case *RevertClassifiedTransaction:
			kept := active[:0]
			for _, ct := range active {
				if ct.SourceTransactionID != l.SourceTransactionID {
					kept = append(kept, ct)
				}
			}
			if len(kept) == len(active) {
				log.Warn().Str("sourceTransactionId", l.SourceTransactionID).Msg("revert of an unclassified transaction, ignored")
			}
			active = kept
		default:
			panic("unreachable: unknown classification line type")
		}
	}
	return active
}

// newEntryID generates the id of journal entries created from classifications.
var newEntryID = uuid.NewString

// ClassifiedToEntry converts a classification into a balanced two leg journal
// entry. It returns nil if a live entry already records the source transaction.
func ClassifiedToEntry(m *Model, ct *ClassifiedTransaction) (*JournalEntry, error) {
	if m.EntryForSource(ct.SourceTransactionID) != nil {
		return nil, nil
	}
	src := m.SourceTransaction(ct.SourceTransactionID)
	if src == nil {
		return nil, &UnknownTransactionError{TransactionID: ct.SourceTransactionID}
	}
	switch c := ct.Classification.(type) {
	case *AccountClassification:
		source, err := m.chart.Find(src.AccountName)
		if err != nil {
			return nil, fmt.Errorf("classification source account for transaction %q: %w", src.TransactionID, err)
		}
		dest, err := m.chart.Find(c.Account)
		if err != nil {
			return nil, fmt.Errorf("classification destination account for transaction %q: %w", src.TransactionID, err)
		}
		sourceSide := Credit
		if src.AmountInCents < 0 {
			sourceSide = Debit
		}
		amount := src.AmountInCents
		if amount < 0 {
			amount = -amount
		}
		return &JournalEntry{
			CreatedAt:           createdAt(),
			ID:                  newEntryID(),
			Date:                src.Date,
			Memo:                c.Memo,
			SourceTransactionID: src.TransactionID,
			Accounts: []EntryLeg{
				{AccountID: source.ID, CreditOrDebit: sourceSide, Currency: src.Currency, AmountInCents: amount},
				{AccountID: dest.ID, CreditOrDebit: sourceSide.Opposite(), Currency: src.Currency, AmountInCents: amount},
			},
		}, nil
	default:
		panic("unreachable: unknown classification type")
	}
}
