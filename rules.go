package dough

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RuleConfig declares a classification rule.
//
// Match is either a predicate object or a list of predicate objects (any
// of them). A predicate object maps transaction field names to expected
// values and matches when every field does. An expected value is a string
// or a number (equality), a list (any of them), or a directive object with
// any of starts, ends, includes, matches, lt, le, gt, ge (any of them).
type RuleConfig struct {
	Type    string `mapstructure:"type" json:"type"`
	Match   any    `mapstructure:"match" json:"match"`
	Account string `mapstructure:"account" json:"account"`
	Memo    string `mapstructure:"memo" json:"memo,omitempty"`
}

// Rule is a compiled classification rule.
type Rule struct {
	Account string
	Memo    string
	match   predicate
}

// Classification returns what the rule proposes.
func (r *Rule) Classification() Classification {
	return &AccountClassification{Account: r.Account, Memo: r.Memo}
}

// Matches reports whether t satisfies the rule's predicate.
func (r *Rule) Matches(t *SourceTransaction) bool { return r.match(t) }

// CompileRules compiles rule declarations, keeping their order.
func CompileRules(configs []RuleConfig) ([]*Rule, error) {
	rules := make([]*Rule, 0, len(configs))
	for i, cfg := range configs {
		r, err := CompileRule(cfg)
		if err != nil {
			return nil, fmt.Errorf("classification rule #%d: %w", i+1, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// CompileRule compiles one rule declaration.
func CompileRule(cfg RuleConfig) (*Rule, error) {
	if cfg.Type != "" && cfg.Type != "Account" {
		return nil, fmt.Errorf("unknown rule type %q", cfg.Type)
	}
	if cfg.Account == "" {
		return nil, errors.New("rule has no account")
	}
	p, err := compileMatch(cfg.Match)
	if err != nil {
		return nil, err
	}
	return &Rule{Account: cfg.Account, Memo: cfg.Memo, match: p}, nil
}

// ApplyRules returns the classification of the first rule matching t, or nil.
func ApplyRules(rules []*Rule, t *SourceTransaction) Classification {
	for _, r := range rules {
		if r.Matches(t) {
			return r.Classification()
		}
	}
	return nil
}

// ValidateRules checks that every rule's account resolves in the chart.
func ValidateRules(chart *Chart, rules []*Rule) error {
	for i, r := range rules {
		if _, err := chart.Find(r.Account); err != nil {
			return fmt.Errorf("classification rule #%d specifies an invalid account: %w", i+1, err)
		}
	}
	return nil
}

type predicate func(t *SourceTransaction) bool

// valueMatch tests a field value: a string, or an int64 for amounts.
type valueMatch func(v any) bool

func compileMatch(m any) (predicate, error) {
	switch m := m.(type) {
	case []any:
		preds := make([]predicate, 0, len(m))
		for _, elem := range m {
			p, err := compileMatch(elem)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		}
		return func(t *SourceTransaction) bool {
			return slices.ContainsFunc(preds, func(p predicate) bool { return p(t) })
		}, nil
	case map[string]any:
		type fieldMatch struct {
			field string
			match valueMatch
		}
		var fields []fieldMatch
		for key, expected := range m {
			field, ok := ruleFields[strings.ToLower(key)]
			if !ok {
				return nil, fmt.Errorf("unknown transaction field %q in rule match", key)
			}
			vm, err := compileValue(expected)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			fields = append(fields, fieldMatch{field, vm})
		}
		return func(t *SourceTransaction) bool {
			for _, f := range fields {
				if !f.match(fieldValue(t, f.field)) {
					return false
				}
			}
			return true
		}, nil
	case nil:
		return nil, errors.New("rule has no match")
	default:
		return nil, fmt.Errorf("rule match must be an object or a list of objects, got %T", m)
	}
}

func compileValue(expected any) (valueMatch, error) {
	if d, ok := toDecimal(expected); ok {
		return func(v any) bool {
			x, ok := numeric(v)
			return ok && x.Equal(d)
		}, nil
	}
	switch e := expected.(type) {
	case string:
		return func(v any) bool { return stringify(v) == e }, nil
	case bool:
		s := strconv.FormatBool(e)
		return func(v any) bool { return stringify(v) == s }, nil
	case []any:
		return anyOf(e, compileValue)
	case map[string]any:
		return compileDirective(e)
	default:
		return nil, fmt.Errorf("unsupported expected value %v (%T)", expected, expected)
	}
}

// compileDirective compiles a directive object. Any satisfied directive matches.
func compileDirective(d map[string]any) (valueMatch, error) {
	var matches []valueMatch
	for key, operand := range d {
		var (
			vm  valueMatch
			err error
		)
		switch strings.ToLower(key) {
		case "starts":
			vm, err = stringDirective(operand, strings.HasPrefix)
		case "ends":
			vm, err = stringDirective(operand, strings.HasSuffix)
		case "includes":
			vm, err = stringDirective(operand, strings.Contains)
		case "matches":
			vm, err = anyOfOrOne(operand, func(o any) (valueMatch, error) {
				s, ok := o.(string)
				if !ok {
					return nil, fmt.Errorf("matches expects a regular expression, got %T", o)
				}
				re, err := regexp.Compile(s)
				if err != nil {
					return nil, err
				}
				return func(v any) bool { return re.MatchString(stringify(v)) }, nil
			})
		case "lt":
			vm, err = compareDirective(operand, func(c int) bool { return c < 0 })
		case "le":
			vm, err = compareDirective(operand, func(c int) bool { return c <= 0 })
		case "gt":
			vm, err = compareDirective(operand, func(c int) bool { return c > 0 })
		case "ge":
			vm, err = compareDirective(operand, func(c int) bool { return c >= 0 })
		default:
			return nil, fmt.Errorf("unknown directive %q", key)
		}
		if err != nil {
			return nil, fmt.Errorf("directive %q: %w", key, err)
		}
		matches = append(matches, vm)
	}
	return func(v any) bool {
		return slices.ContainsFunc(matches, func(m valueMatch) bool { return m(v) })
	}, nil
}

func stringDirective(operand any, f func(s, x string) bool) (valueMatch, error) {
	return anyOfOrOne(operand, func(o any) (valueMatch, error) {
		x, ok := o.(string)
		if !ok {
			return nil, fmt.Errorf("expects a string, got %T", o)
		}
		return func(v any) bool { return f(stringify(v), x) }, nil
	})
}

// compareDirective compares numerically against a number operand, and as
// strings against a string operand.
func compareDirective(operand any, ok func(cmp int) bool) (valueMatch, error) {
	return anyOfOrOne(operand, func(o any) (valueMatch, error) {
		if d, isNum := toDecimal(o); isNum {
			return func(v any) bool {
				x, valid := numeric(v)
				return valid && ok(x.Cmp(d))
			}, nil
		}
		s, isStr := o.(string)
		if !isStr {
			return nil, fmt.Errorf("expects a string or a number, got %T", o)
		}
		return func(v any) bool { return ok(strings.Compare(stringify(v), s)) }, nil
	})
}

func anyOfOrOne(operand any, compile func(any) (valueMatch, error)) (valueMatch, error) {
	if list, ok := operand.([]any); ok {
		return anyOf(list, compile)
	}
	return compile(operand)
}

func anyOf(list []any, compile func(any) (valueMatch, error)) (valueMatch, error) {
	matches := make([]valueMatch, 0, len(list))
	for _, elem := range list {
		m, err := compile(elem)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return func(v any) bool {
		return slices.ContainsFunc(matches, func(m valueMatch) bool { return m(v) })
	}, nil
}

// toDecimal converts a configuration number into a decimal.
func toDecimal(x any) (decimal.Decimal, bool) {
	switch x := x.(type) {
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case float64:
		return decimal.NewFromFloat(x), true
	case float32:
		return decimal.NewFromFloat32(x), true
	}
	return decimal.Decimal{}, false
}

// numeric coerces a field value into a number, parsing strings.
func numeric(v any) (decimal.Decimal, bool) {
	if n, ok := v.(int64); ok {
		return decimal.NewFromInt(n), true
	}
	d, err := decimal.NewFromString(strings.TrimSpace(stringify(v)))
	return d, err == nil
}

func stringify(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// ruleFields maps lower cased field names to their canonical name.
var ruleFields = map[string]string{
	"type":              "type",
	"transactionid":     "transactionId",
	"accountname":       "accountName",
	"date":              "date",
	"amountincents":     "amountInCents",
	"currency":          "currency",
	"name":              "name",
	"description":       "description",
	"suggestedcategory": "suggestedCategory",
	"checknumber":       "checkNumber",
	"feedaccountid":     "feedAccountId",
}

func fieldValue(t *SourceTransaction, field string) any {
	switch field {
	case "type":
		return string(t.Type)
	case "transactionId":
		return t.TransactionID
	case "accountName":
		return t.AccountName
	case "date":
		return t.Date.String()
	case "amountInCents":
		return t.AmountInCents
	case "currency":
		return t.Currency
	case "name":
		return t.Name
	case "description":
		return t.Description
	case "suggestedCategory":
		return t.SuggestedCategory
	case "checkNumber":
		return t.CheckNumber
	case "feedAccountId":
		return t.FeedAccountID
	default:
		panic("unreachable: unknown rule field " + field)
	}
}
