package ledger

import (
	"strings"

	"github.com/themoritz/turbobean/ast"
	"github.com/shopspring/decimal"
)

// AccountType re-exports ast.AccountType so callers within this package can
// refer to it without qualification.
type AccountType = ast.AccountType

const (
	AccountTypeUnknown     = ast.AccountTypeUnknown
	AccountTypeAssets      = ast.AccountTypeAssets
	AccountTypeLiabilities = ast.AccountTypeLiabilities
	AccountTypeEquity      = ast.AccountTypeEquity
	AccountTypeIncome      = ast.AccountTypeIncome
	AccountTypeExpenses    = ast.AccountTypeExpenses
)

// ParseAccountType derives the account type from the account name's root
// segment. Unlike ast.Account.Type, it never panics: malformed or unknown
// account names return AccountTypeUnknown.
func ParseAccountType(account ast.Account) AccountType {
	name := string(account)
	idx := strings.IndexByte(name, ':')
	if idx < 0 {
		return AccountTypeUnknown
	}
	switch name[:idx] {
	case "Assets":
		return AccountTypeAssets
	case "Liabilities":
		return AccountTypeLiabilities
	case "Equity":
		return AccountTypeEquity
	case "Income":
		return AccountTypeIncome
	case "Expenses":
		return AccountTypeExpenses
	default:
		return AccountTypeUnknown
	}
}

// Account represents an account in the ledger
type Account struct {
	Name                 ast.Account
	Type                 string // configured root name, e.g. "Assets"
	OpenDate             *ast.Date
	CloseDate            *ast.Date
	ConstraintCurrencies []string
	BookingMethod        string
	Metadata             []*ast.Metadata
	Inventory            *Inventory // Inventory with lot tracking
}

// IsOpen returns true if the account is open at the given date
func (a *Account) IsOpen(date *ast.Date) bool {
	if a.OpenDate == nil {
		return false
	}

	// Account must be opened before or on the date
	if a.OpenDate.After(date.Time) {
		return false
	}

	// If there's a close date, check that the date is not after closing
	// Transactions are allowed ON the close date, but not AFTER
	if a.CloseDate != nil && date.After(a.CloseDate.Time) {
		return false
	}

	return true
}

// IsClosed returns true if the account has been closed
func (a *Account) IsClosed() bool {
	return a.CloseDate != nil
}

// HasMetadata returns true if the account has metadata
func (a *Account) HasMetadata() bool {
	return len(a.Metadata) > 0
}

// GetParent returns the parent account path.
// For example, GetParent("Assets:US:Checking") returns "Assets:US".
// Returns empty string if the account has no parent (only one segment).
func (a *Account) GetParent() string {
	parts := strings.Split(string(a.Name), ":")
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[:len(parts)-1], ":")
}

// GetBalance returns the balance for this account (not including children).
// Returns a map of commodity to decimal amount.
func (a *Account) GetBalance() map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal)
	for _, currency := range a.Inventory.Currencies() {
		result[currency] = a.Inventory.Get(currency)
	}
	return result
}

// GetChildren returns direct child accounts, walking the ledger's account
// tree rather than scanning a flat map.
func (a *Account) GetChildren(l *Ledger) []*Account {
	tree := l.BuildAccountTree()
	node := tree.Find(string(a.Name))
	if node == nil {
		return nil
	}
	var children []*Account
	for _, c := range node.Children {
		if c.Account != nil {
			children = append(children, c.Account)
		}
	}
	return children
}

// GetSubtreeBalance returns the aggregated balance for this account and all its descendants.
// Useful for balance sheet reporting where parent balances sum their children.
// Returns a map of commodity to total decimal amount.
func (a *Account) GetSubtreeBalance(l *Ledger) map[string]decimal.Decimal {
	tree := l.BuildAccountTree()
	node := tree.Find(string(a.Name))
	if node == nil {
		return a.GetBalance()
	}
	return node.SubtreeBalance()
}
