package dough

import (
	"encoding/json"
	"fmt"
	"iter"
	"slices"
	"strings"
)

// CreditOrDebit is the polarity of an account or of an entry leg.
type CreditOrDebit string

const (
	Credit CreditOrDebit = "credit"
	Debit  CreditOrDebit = "debit"
)

// Opposite returns the other polarity.
func (c CreditOrDebit) Opposite() CreditOrDebit {
	if c == Credit {
		return Debit
	}
	return Credit
}

// ParseCreditOrDebit parses "credit" or "debit".
func ParseCreditOrDebit(s string) (CreditOrDebit, error) {
	switch CreditOrDebit(s) {
	case Credit, Debit:
		return CreditOrDebit(s), nil
	default:
		return "", fmt.Errorf("invalid creditOrDebit %q, want %q or %q", s, Credit, Debit)
	}
}

func (c *CreditOrDebit) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseCreditOrDebit(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// AccountConfig declares one account of the chart of accounts.
type AccountConfig struct {
	ID            string `mapstructure:"id" json:"id"`
	Parent        string `mapstructure:"parent" json:"parent,omitempty"`
	Name          string `mapstructure:"name" json:"name"`
	DisplayName   string `mapstructure:"displayName" json:"displayName,omitempty"`
	CreditOrDebit string `mapstructure:"creditOrDebit" json:"creditOrDebit,omitempty"`
	Description   string `mapstructure:"description" json:"description,omitempty"`
}

// Account is a node of the chart of accounts.
type Account struct {
	ID          string
	Name        string
	DisplayName string
	ParentName  string        // as declared, "" for a root account
	Polarity    CreditOrDebit // as declared, "" to inherit
	Description string
	Order       int // declaration order

	parent   int // index of the parent in the chart, -1 for roots
	resolved bool
}

// Chart is the chart of accounts: a forest of accounts built once from configuration.
type Chart struct {
	accounts []*Account
	byID     map[string]int
	byName   map[string][]int
	children map[int][]int
}

// NewChart builds the chart of accounts from its declarations.
//
// Accounts may refer to parents declared later. Parents are resolved by
// repeated passes: a pass places every account whose parent is already placed
// in the forest. When a pass places nothing, all the remaining accounts are
// reported in a single *HierarchyError.
func NewChart(configs []AccountConfig) (*Chart, error) {
	c := &Chart{
		accounts: make([]*Account, 0, len(configs)),
		byID:     make(map[string]int),
		byName:   make(map[string][]int),
		children: make(map[int][]int),
	}
	for i, cfg := range configs {
		if cfg.ID == "" {
			return nil, fmt.Errorf("account %q at position %d has no id", cfg.Name, i)
		}
		if cfg.Name == "" {
			return nil, fmt.Errorf("account %q has no name", cfg.ID)
		}
		if strings.Contains(cfg.Name, "/") {
			return nil, fmt.Errorf("account %q: name %q must not contain '/'", cfg.ID, cfg.Name)
		}
		if _, exists := c.byID[cfg.ID]; exists {
			return nil, fmt.Errorf("account id %q is declared twice", cfg.ID)
		}
		var polarity CreditOrDebit
		if cfg.CreditOrDebit != "" {
			p, err := ParseCreditOrDebit(cfg.CreditOrDebit)
			if err != nil {
				return nil, fmt.Errorf("account %q: %w", cfg.ID, err)
			}
			polarity = p
		}
		displayName := cfg.DisplayName
		if displayName == "" {
			displayName = cfg.Name
		}
		a := &Account{
			ID:          cfg.ID,
			Name:        cfg.Name,
			DisplayName: displayName,
			ParentName:  cfg.Parent,
			Polarity:    polarity,
			Description: cfg.Description,
			Order:       i,
			parent:      -1,
		}
		c.byID[a.ID] = len(c.accounts)
		c.byName[a.Name] = append(c.byName[a.Name], len(c.accounts))
		c.accounts = append(c.accounts, a)
	}

	unresolved := make([]int, len(c.accounts))
	for i := range unresolved {
		unresolved[i] = i
	}
	for len(unresolved) > 0 {
		remaining := unresolved[:0:0]
		for _, i := range unresolved {
			a := c.accounts[i]
			if a.ParentName == "" {
				a.resolved = true
				continue
			}
			p, ok := c.resolveParent(i, a.ParentName)
			if !ok {
				remaining = append(remaining, i)
				continue
			}
			a.parent = p
			a.resolved = true
			c.children[p] = append(c.children[p], i)
		}
		if len(remaining) == len(unresolved) {
			break
		}
		unresolved = remaining
	}

	if len(unresolved) > 0 {
		herr := &HierarchyError{}
		for _, i := range unresolved {
			a := c.accounts[i]
			candidates := slices.DeleteFunc(slices.Clone(c.byName[lastPart(a.ParentName)]), func(j int) bool { return j == i })
			var reason string
			switch len(candidates) {
			case 0:
				reason = "non-existent"
			case 1:
				reason = "unresolved"
			default:
				reason = "ambiguous"
			}
			herr.Unresolved = append(herr.Unresolved, UnresolvedAccount{
				ID:         a.ID,
				Name:       a.Name,
				ParentName: a.ParentName,
				Reason:     reason,
			})
		}
		return nil, herr
	}
	return c, nil
}

// resolveParent finds the parent named name of account self while the chart
// is being built. It only succeeds once every candidate is placed, so that a
// qualified name is never decided on a partial ancestor chain. Candidates
// that are self, or may end up below self, cannot be its parent and are
// not waited for.
func (c *Chart) resolveParent(self int, name string) (int, bool) {
	parts := strings.Split(name, "/")
	var placed []int
	for _, i := range c.byName[parts[len(parts)-1]] {
		if i == self || c.mayDescend(i, self, make(map[int]bool)) {
			continue
		}
		if !c.accounts[i].resolved {
			return -1, false
		}
		placed = append(placed, i)
	}
	matches := c.match(placed, parts[:len(parts)-1])
	if len(matches) != 1 {
		return -1, false
	}
	return matches[0], true
}

// mayDescend reports whether the unplaced account i could be placed below
// self, following the bare names of the declared parents.
func (c *Chart) mayDescend(i, self int, seen map[int]bool) bool {
	if seen[i] {
		return false
	}
	seen[i] = true
	a := c.accounts[i]
	if a.resolved || a.ParentName == "" {
		return false
	}
	for _, p := range c.byName[lastPart(a.ParentName)] {
		if p == self || c.mayDescend(p, self, seen) {
			return true
		}
	}
	return false
}

// match returns the candidates whose ancestor chain contains the ancestor names, in order.
func (c *Chart) match(candidates []int, ancestors []string) []int {
	var matches []int
	for _, i := range candidates {
		if c.matchesAncestors(i, ancestors) {
			matches = append(matches, i)
		}
	}
	return matches
}

// matchesAncestors reports whether names, read from the last one, can be found
// walking up from the parent of account i. Ancestors need not be contiguous.
func (c *Chart) matchesAncestors(i int, names []string) bool {
	n := len(names)
	steps := 0
	for p := c.accounts[i].parent; p >= 0 && n > 0; p = c.accounts[p].parent {
		if steps++; steps > len(c.accounts) {
			return false // cycle guard
		}
		if c.accounts[p].Name == names[n-1] {
			n--
		}
	}
	return n == 0
}

// Find resolves an account name, optionally qualified with "/"-separated
// ancestor names (e.g. "Bank/Fees"). The ancestors do not have to be direct
// parents, only to appear in order in the account's ancestor chain.
func (c *Chart) Find(name string) (*Account, error) {
	parts := strings.Split(name, "/")
	candidates := c.byName[parts[len(parts)-1]]
	matches := c.match(candidates, parts[:len(parts)-1])
	switch len(matches) {
	case 0:
		return nil, &UnknownAccountError{Name: name}
	case 1:
		return c.accounts[matches[0]], nil
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = c.accounts[m].ID
		}
		return nil, &AmbiguousAccountError{Name: name, Candidates: ids}
	}
}

// Account returns the account with that id, or nil.
func (c *Chart) Account(id string) *Account {
	i, ok := c.byID[id]
	if !ok {
		return nil
	}
	return c.accounts[i]
}

// Accounts returns all accounts in declaration order.
func (c *Chart) Accounts() []*Account { return c.accounts }

// Parent returns the parent of a, or nil for a root account.
func (c *Chart) Parent(a *Account) *Account {
	if a.parent < 0 {
		return nil
	}
	return c.accounts[a.parent]
}

// Ancestors iterates from a (included) up to its root.
func (c *Chart) Ancestors(a *Account) iter.Seq[*Account] {
	return func(yield func(*Account) bool) {
		steps := 0
		for cur := a; cur != nil; cur = c.Parent(cur) {
			if steps++; steps > len(c.accounts) {
				return // cycle guard
			}
			if !yield(cur) {
				return
			}
		}
	}
}

// Polarity returns the effective polarity of a: its own, or the one of its
// nearest ancestor that declares one, or Credit.
func (c *Chart) Polarity(a *Account) CreditOrDebit {
	for cur := range c.Ancestors(a) {
		if cur.Polarity != "" {
			return cur.Polarity
		}
	}
	return Credit
}

// Path returns the "/"-separated names from the root to a.
func (c *Chart) Path(a *Account) string {
	var names []string
	for cur := range c.Ancestors(a) {
		names = append(names, cur.Name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, "/")
}

// Roots returns the top level accounts in declaration order.
func (c *Chart) Roots() []*Account {
	var roots []*Account
	for _, a := range c.accounts {
		if a.parent < 0 {
			roots = append(roots, a)
		}
	}
	return roots
}

// Children returns the direct children of a in declaration order.
func (c *Chart) Children(a *Account) []*Account {
	i := c.byID[a.ID]
	var children []*Account
	for _, ci := range c.children[i] {
		children = append(children, c.accounts[ci])
	}
	// children are appended in resolution order, restore declaration order
	slices.SortFunc(children, func(x, y *Account) int { return x.Order - y.Order })
	return children
}

// Walk visits the chart depth first in declaration order.
func (c *Chart) Walk(visit func(a *Account, depth int)) {
	var walk func(a *Account, depth int)
	walk = func(a *Account, depth int) {
		visit(a, depth)
		for _, child := range c.Children(a) {
			walk(child, depth+1)
		}
	}
	for _, r := range c.Roots() {
		walk(r, 0)
	}
}

// CheckFeedAccounts verifies that every feed account name is the bare name of
// exactly one account.
func (c *Chart) CheckFeedAccounts(names []string) error {
	var missing []string
	for _, name := range names {
		if len(c.byName[name]) != 1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("configured feed account(s) %q do not have an existing, unambiguous account in the chart of accounts", missing)
	}
	return nil
}

func lastPart(name string) string {
	return name[strings.LastIndex(name, "/")+1:]
}
