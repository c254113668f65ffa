package accounts

import (
	"sort"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// Chart is an in-memory chart of accounts indexed by id.
type Chart struct {
	byID map[int64]Account
}

// NewChart indexes the supplied accounts. Duplicate ids or unknown classes are rejected.
func NewChart(accounts []Account) (*Chart, error) {
	c := &Chart{byID: make(map[int64]Account, len(accounts))}
	for _, acc := range accounts {
		if _, err := ParseClass(string(acc.Class)); err != nil {
			return nil, err
		}
		if _, dup := c.byID[acc.ID]; dup {
			return nil, shared.Wrapf(shared.ErrUnknownAccount, "duplicate account id %d", acc.ID)
		}
		c.byID[acc.ID] = acc
	}
	return c, nil
}

// Get returns the account with the given id.
func (c *Chart) Get(id int64) (Account, bool) {
	if c == nil {
		return Account{}, false
	}
	acc, ok := c.byID[id]
	return acc, ok
}

// EnsurePostable fails unless the account exists and accepts postings.
func (c *Chart) EnsurePostable(id int64) error {
	acc, ok := c.Get(id)
	if !ok {
		return shared.Wrapf(shared.ErrUnknownAccount, "account %d", id)
	}
	if !acc.Postable() {
		return shared.Wrapf(shared.ErrAccountNotPostable, "account %s", acc.Code)
	}
	return nil
}

// Accounts returns all accounts sorted by code.
func (c *Chart) Accounts() []Account {
	if c == nil {
		return nil
	}
	out := make([]Account, 0, len(c.byID))
	for _, acc := range c.byID {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Children returns the direct children of parentID sorted by code.
func (c *Chart) Children(parentID int64) []Account {
	var out []Account
	for _, acc := range c.Accounts() {
		if acc.ParentID != nil && *acc.ParentID == parentID {
			out = append(out, acc)
		}
	}
	return out
}
