package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/themoritz/turbobean/ast"
)

// formatLocation renders a directive's source position if known, falling
// back to its date (synthetic directives, and directives built in tests,
// often have no filename).
func formatLocation(d ast.Directive) string {
	pos := d.Position()
	if pos.Filename != "" {
		return pos.String()
	}
	if date := d.GetDate(); date != nil {
		return date.Format("2006-01-02")
	}
	return pos.String()
}

// AccountNotOpenError reports a reference to an account that isn't open
// (never opened, or already closed) at the directive's date.
type AccountNotOpenError struct {
	directive ast.Directive
	Account   ast.Account
	Payee     string
}

func NewAccountNotOpenError(txn *ast.Transaction, account ast.Account) *AccountNotOpenError {
	return &AccountNotOpenError{directive: txn, Account: account, Payee: string(txn.Payee)}
}

func NewAccountNotOpenErrorFromBalance(balance *ast.Balance) *AccountNotOpenError {
	return &AccountNotOpenError{directive: balance, Account: balance.Account}
}

func NewAccountNotOpenErrorFromPad(pad *ast.Pad, account ast.Account) *AccountNotOpenError {
	return &AccountNotOpenError{directive: pad, Account: account}
}

func NewAccountNotOpenErrorFromNote(note *ast.Note) *AccountNotOpenError {
	return &AccountNotOpenError{directive: note, Account: note.Account}
}

func NewAccountNotOpenErrorFromDocument(doc *ast.Document) *AccountNotOpenError {
	return &AccountNotOpenError{directive: doc, Account: doc.Account}
}

func (e *AccountNotOpenError) Error() string {
	return fmt.Sprintf("%s: account %s is not open", formatLocation(e.directive), e.Account)
}
func (e *AccountNotOpenError) GetDate() *ast.Date          { return e.directive.GetDate() }
func (e *AccountNotOpenError) GetPosition() ast.Position   { return e.directive.Position() }
func (e *AccountNotOpenError) GetDirective() ast.Directive { return e.directive }
func (e *AccountNotOpenError) GetAccount() ast.Account     { return e.Account }

// InvalidAmountError reports a posting or balance amount that failed to parse
// as a decimal number.
type InvalidAmountError struct {
	directive  ast.Directive
	Account    ast.Account
	Payee      string
	Value      string
	Underlying error
}

func NewInvalidAmountError(txn *ast.Transaction, account ast.Account, value string, err error) *InvalidAmountError {
	return &InvalidAmountError{directive: txn, Account: account, Payee: string(txn.Payee), Value: value, Underlying: err}
}

func NewInvalidAmountErrorFromBalance(balance *ast.Balance, err error) *InvalidAmountError {
	return &InvalidAmountError{directive: balance, Account: balance.Account, Value: balance.Amount.Value, Underlying: err}
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("%s: invalid amount %q (%s): %v", formatLocation(e.directive), e.Value, e.Account, e.Underlying)
}
func (e *InvalidAmountError) GetDate() *ast.Date          { return e.directive.GetDate() }
func (e *InvalidAmountError) GetPosition() ast.Position   { return e.directive.Position() }
func (e *InvalidAmountError) GetDirective() ast.Directive { return e.directive }
func (e *InvalidAmountError) GetAccount() ast.Account     { return e.Account }
func (e *InvalidAmountError) Unwrap() error               { return e.Underlying }

// InvalidCostError reports a cost specification ({...}) that failed to parse
// or otherwise violates cost rules.
type InvalidCostError struct {
	directive  ast.Directive
	Account    ast.Account
	Payee      string
	Index      int
	CostSpec   string
	Underlying error
}

func NewInvalidCostError(txn *ast.Transaction, account ast.Account, index int, costSpec string, err error) *InvalidCostError {
	return &InvalidCostError{directive: txn, Account: account, Payee: string(txn.Payee), Index: index, CostSpec: costSpec, Underlying: err}
}

func (e *InvalidCostError) Error() string {
	return fmt.Sprintf("%s: invalid cost specification (posting #%d: %s): %s: %v",
		formatLocation(e.directive), e.Index+1, e.Account, e.CostSpec, e.Underlying)
}
func (e *InvalidCostError) GetDate() *ast.Date          { return e.directive.GetDate() }
func (e *InvalidCostError) GetPosition() ast.Position   { return e.directive.Position() }
func (e *InvalidCostError) GetDirective() ast.Directive { return e.directive }
func (e *InvalidCostError) GetAccount() ast.Account     { return e.Account }
func (e *InvalidCostError) Unwrap() error               { return e.Underlying }

// InvalidPriceError reports a price annotation (@ or @@) that failed to parse.
type InvalidPriceError struct {
	directive  ast.Directive
	Account    ast.Account
	Payee      string
	Index      int
	PriceSpec  string
	Underlying error
}

func NewInvalidPriceError(txn *ast.Transaction, account ast.Account, index int, priceSpec string, err error) *InvalidPriceError {
	return &InvalidPriceError{directive: txn, Account: account, Payee: string(txn.Payee), Index: index, PriceSpec: priceSpec, Underlying: err}
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("%s: invalid price specification (posting #%d: %s): %s: %v",
		formatLocation(e.directive), e.Index+1, e.Account, e.PriceSpec, e.Underlying)
}
func (e *InvalidPriceError) GetDate() *ast.Date          { return e.directive.GetDate() }
func (e *InvalidPriceError) GetPosition() ast.Position   { return e.directive.Position() }
func (e *InvalidPriceError) GetDirective() ast.Directive { return e.directive }
func (e *InvalidPriceError) GetAccount() ast.Account     { return e.Account }
func (e *InvalidPriceError) Unwrap() error               { return e.Underlying }

// InvalidMetadataError reports a duplicate or malformed metadata entry,
// attached either to a directive (Account == "") or to one of its postings.
type InvalidMetadataError struct {
	directive ast.Directive
	Account   ast.Account
	Key       string
	Value     *ast.MetadataValue
	Reason    string
}

func NewInvalidMetadataError(directive ast.Directive, account ast.Account, key string, value *ast.MetadataValue, reason string) *InvalidMetadataError {
	return &InvalidMetadataError{directive: directive, Account: account, Key: key, Value: value, Reason: reason}
}

func (e *InvalidMetadataError) Error() string {
	if e.Account != "" {
		return fmt.Sprintf("%s: invalid metadata (account %s): key=%q: %s", formatLocation(e.directive), e.Account, e.Key, e.Reason)
	}
	return fmt.Sprintf("%s: invalid metadata: key=%q: %s", formatLocation(e.directive), e.Key, e.Reason)
}
func (e *InvalidMetadataError) GetDate() *ast.Date          { return e.directive.GetDate() }
func (e *InvalidMetadataError) GetPosition() ast.Position   { return e.directive.Position() }
func (e *InvalidMetadataError) GetDirective() ast.Directive { return e.directive }
func (e *InvalidMetadataError) GetAccount() ast.Account     { return e.Account }

// AccountAlreadyOpenError reports a duplicate open directive for an account
// that was opened previously (reopening a closed account is never allowed).
type AccountAlreadyOpenError struct {
	directive  ast.Directive
	Account    ast.Account
	OpenedDate *ast.Date
}

func NewAccountAlreadyOpenError(open *ast.Open, openedDate *ast.Date) *AccountAlreadyOpenError {
	return &AccountAlreadyOpenError{directive: open, Account: open.Account, OpenedDate: openedDate}
}

func (e *AccountAlreadyOpenError) Error() string {
	return fmt.Sprintf("%s: account %s already opened on %s", formatLocation(e.directive), e.Account, e.OpenedDate.Format("2006-01-02"))
}
func (e *AccountAlreadyOpenError) GetDate() *ast.Date          { return e.directive.GetDate() }
func (e *AccountAlreadyOpenError) GetPosition() ast.Position   { return e.directive.Position() }
func (e *AccountAlreadyOpenError) GetDirective() ast.Directive { return e.directive }
func (e *AccountAlreadyOpenError) GetAccount() ast.Account     { return e.Account }

// AccountNotClosedError reports a close directive for an account that was
// never opened.
type AccountNotClosedError struct {
	directive ast.Directive
	Account   ast.Account
}

func NewAccountNotClosedError(close *ast.Close) *AccountNotClosedError {
	return &AccountNotClosedError{directive: close, Account: close.Account}
}

func (e *AccountNotClosedError) Error() string {
	return fmt.Sprintf("%s: cannot close account %s: it was never opened", formatLocation(e.directive), e.Account)
}
func (e *AccountNotClosedError) GetDate() *ast.Date          { return e.directive.GetDate() }
func (e *AccountNotClosedError) GetPosition() ast.Position   { return e.directive.Position() }
func (e *AccountNotClosedError) GetDirective() ast.Directive { return e.directive }
func (e *AccountNotClosedError) GetAccount() ast.Account     { return e.Account }

// AccountAlreadyClosedError reports a duplicate close directive.
type AccountAlreadyClosedError struct {
	directive  ast.Directive
	Account    ast.Account
	ClosedDate *ast.Date
}

func NewAccountAlreadyClosedError(close *ast.Close, closedDate *ast.Date) *AccountAlreadyClosedError {
	return &AccountAlreadyClosedError{directive: close, Account: close.Account, ClosedDate: closedDate}
}

func (e *AccountAlreadyClosedError) Error() string {
	return fmt.Sprintf("%s: account %s already closed on %s", formatLocation(e.directive), e.Account, e.ClosedDate.Format("2006-01-02"))
}
func (e *AccountAlreadyClosedError) GetDate() *ast.Date          { return e.directive.GetDate() }
func (e *AccountAlreadyClosedError) GetPosition() ast.Position   { return e.directive.Position() }
func (e *AccountAlreadyClosedError) GetDirective() ast.Directive { return e.directive }
func (e *AccountAlreadyClosedError) GetAccount() ast.Account     { return e.Account }

// TransactionNotBalancedError reports a transaction whose postings don't sum
// to zero, within tolerance, in one or more currencies.
type TransactionNotBalancedError struct {
	directive ast.Directive
	Payee     string
	Narration string
	Residuals map[string]string
}

func NewTransactionNotBalancedError(txn *ast.Transaction, residuals map[string]string) *TransactionNotBalancedError {
	return &TransactionNotBalancedError{
		directive: txn,
		Payee:     string(txn.Payee),
		Narration: string(txn.Narration),
		Residuals: residuals,
	}
}

func (e *TransactionNotBalancedError) formatResiduals() string {
	if len(e.Residuals) == 0 {
		return ""
	}
	currencies := make([]string, 0, len(e.Residuals))
	for currency := range e.Residuals {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	var sb strings.Builder
	sb.WriteString("(")
	for i, currency := range currencies {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.Residuals[currency])
		sb.WriteString(" ")
		sb.WriteString(currency)
	}
	sb.WriteString(")")
	return sb.String()
}

func (e *TransactionNotBalancedError) Error() string {
	return fmt.Sprintf("%s: transaction %q does not balance: %s", formatLocation(e.directive), e.Narration, e.formatResiduals())
}
func (e *TransactionNotBalancedError) GetDate() *ast.Date          { return e.directive.GetDate() }
func (e *TransactionNotBalancedError) GetPosition() ast.Position   { return e.directive.Position() }
func (e *TransactionNotBalancedError) GetDirective() ast.Directive { return e.directive }

// BalanceMismatchError reports a balance assertion whose expected amount
// doesn't match the account's actual inventory (after any padding).
type BalanceMismatchError struct {
	directive ast.Directive
	Account   ast.Account
	Expected  string
	Actual    string
	Currency  string
}

func NewBalanceMismatchError(balance *ast.Balance, expected, actual, currency string) *BalanceMismatchError {
	return &BalanceMismatchError{directive: balance, Account: balance.Account, Expected: expected, Actual: actual, Currency: currency}
}

func (e *BalanceMismatchError) Error() string {
	return fmt.Sprintf("%s: balance assertion failed for %s: expected %s %s but got %s %s",
		formatLocation(e.directive), e.Account, e.Expected, e.Currency, e.Actual, e.Currency)
}
func (e *BalanceMismatchError) GetDate() *ast.Date          { return e.directive.GetDate() }
func (e *BalanceMismatchError) GetPosition() ast.Position   { return e.directive.Position() }
func (e *BalanceMismatchError) GetDirective() ast.Directive { return e.directive }
func (e *BalanceMismatchError) GetAccount() ast.Account     { return e.Account }

// InsufficientInventoryError reports a lot reduction that can't be satisfied
// by the account's current inventory under its booking method.
type InsufficientInventoryError struct {
	directive ast.Directive
	Account   ast.Account
	Payee     string
	Details   error
}

func NewInsufficientInventoryError(txn *ast.Transaction, account ast.Account, details error) *InsufficientInventoryError {
	return &InsufficientInventoryError{directive: txn, Account: account, Payee: string(txn.Payee), Details: details}
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("%s: Insufficient inventory for %s: %v", formatLocation(e.directive), e.Account, e.Details)
}
func (e *InsufficientInventoryError) GetDate() *ast.Date          { return e.directive.GetDate() }
func (e *InsufficientInventoryError) GetPosition() ast.Position   { return e.directive.Position() }
func (e *InsufficientInventoryError) GetDirective() ast.Directive { return e.directive }
func (e *InsufficientInventoryError) GetAccount() ast.Account     { return e.Account }
func (e *InsufficientInventoryError) Unwrap() error               { return e.Details }

// CurrencyConstraintError reports a posting using a currency not in its
// account's constraint currency list.
type CurrencyConstraintError struct {
	directive         ast.Directive
	Account           ast.Account
	Payee             string
	Currency          string
	AllowedCurrencies []string
}

func NewCurrencyConstraintError(txn *ast.Transaction, account ast.Account, currency string, allowed []string) *CurrencyConstraintError {
	return &CurrencyConstraintError{directive: txn, Account: account, Payee: string(txn.Payee), Currency: currency, AllowedCurrencies: allowed}
}

func (e *CurrencyConstraintError) Error() string {
	return fmt.Sprintf("%s: Currency %s not allowed for %s (allowed: %v)",
		formatLocation(e.directive), e.Currency, e.Account, e.AllowedCurrencies)
}
func (e *CurrencyConstraintError) GetDate() *ast.Date          { return e.directive.GetDate() }
func (e *CurrencyConstraintError) GetPosition() ast.Position   { return e.directive.Position() }
func (e *CurrencyConstraintError) GetDirective() ast.Directive { return e.directive }
func (e *CurrencyConstraintError) GetAccount() ast.Account     { return e.Account }

// UnusedPadWarning reports a pad directive that no subsequent balance
// assertion ever consumed.
type UnusedPadWarning struct {
	directive ast.Directive
	Account   ast.Account
}

func NewUnusedPadWarning(pad *ast.Pad) *UnusedPadWarning {
	return &UnusedPadWarning{directive: pad, Account: pad.Account}
}

func (e *UnusedPadWarning) Error() string {
	return fmt.Sprintf("%s: pad directive for %s was never used by a balance assertion", formatLocation(e.directive), e.Account)
}
func (e *UnusedPadWarning) GetDate() *ast.Date          { return e.directive.GetDate() }
func (e *UnusedPadWarning) GetPosition() ast.Position   { return e.directive.Position() }
func (e *UnusedPadWarning) GetDirective() ast.Directive { return e.directive }
func (e *UnusedPadWarning) GetAccount() ast.Account     { return e.Account }
