package ast

import "strings"

// Positioned is implemented by any AST node that tracks its source position.
type Positioned interface {
	Position() Position
}

// Stateful is implemented by directives that affect the set of currencies or
// accounts known to the ledger, used by Enrich to build the account/currency
// indexes without a type switch over every directive kind.
type Stateful interface {
	AffectedNodes() []string
}

// DirectiveKind identifies the concrete type of a Directive without a type
// switch, used to dispatch to the right handler during ledger construction.
type DirectiveKind int

const (
	KindOpen DirectiveKind = iota
	KindClose
	KindTransaction
	KindBalance
	KindPad
	KindNote
	KindDocument
	KindPrice
	KindCommodity
	KindEvent
	KindCustom
)

func (c *Commodity) Kind() DirectiveKind   { return KindCommodity }
func (o *Open) Kind() DirectiveKind        { return KindOpen }
func (c *Close) Kind() DirectiveKind       { return KindClose }
func (b *Balance) Kind() DirectiveKind     { return KindBalance }
func (p *Pad) Kind() DirectiveKind         { return KindPad }
func (n *Note) Kind() DirectiveKind        { return KindNote }
func (d *Document) Kind() DirectiveKind    { return KindDocument }
func (p *Price) Kind() DirectiveKind       { return KindPrice }
func (e *Event) Kind() DirectiveKind       { return KindEvent }
func (c *Custom) Kind() DirectiveKind      { return KindCustom }
func (t *Transaction) Kind() DirectiveKind { return KindTransaction }

func (c *Commodity) GetDate() *Date   { return c.Date }
func (o *Open) GetDate() *Date        { return o.Date }
func (c *Close) GetDate() *Date       { return c.Date }
func (b *Balance) GetDate() *Date     { return b.Date }
func (p *Pad) GetDate() *Date         { return p.Date }
func (n *Note) GetDate() *Date        { return n.Date }
func (d *Document) GetDate() *Date    { return d.Date }
func (p *Price) GetDate() *Date       { return p.Date }
func (e *Event) GetDate() *Date       { return e.Date }
func (c *Custom) GetDate() *Date      { return c.Date }
func (t *Transaction) GetDate() *Date { return t.Date }

func (c *Commodity) SetDate(d *Date)   { c.Date = d }
func (o *Open) SetDate(d *Date)        { o.Date = d }
func (c *Close) SetDate(d *Date)       { c.Date = d }
func (b *Balance) SetDate(d *Date)     { b.Date = d }
func (p *Pad) SetDate(d *Date)         { p.Date = d }
func (n *Note) SetDate(d *Date)        { n.Date = d }
func (d *Document) SetDate(dt *Date)   { d.Date = dt }
func (p *Price) SetDate(d *Date)       { p.Date = d }
func (e *Event) SetDate(d *Date)       { e.Date = d }
func (c *Custom) SetDate(d *Date)      { c.Date = d }
func (t *Transaction) SetDate(d *Date) { t.Date = d }

func (c *Commodity) SetPosition(p Position) { c.Pos = p }
func (o *Open) SetPosition(p Position)      { o.Pos = p }
func (c *Close) SetPosition(p Position)     { c.Pos = p }
func (b *Balance) SetPosition(p Position)   { b.Pos = p }
func (p *Pad) SetPosition(pos Position)     { p.Pos = pos }
func (n *Note) SetPosition(p Position)      { n.Pos = p }
func (d *Document) SetPosition(p Position)  { d.Pos = p }
func (p *Price) SetPosition(pos Position)   { p.Pos = pos }
func (e *Event) SetPosition(p Position)     { e.Pos = p }
func (c *Custom) SetPosition(p Position)    { c.Pos = p }
func (t *Transaction) SetPosition(p Position) { t.Pos = p }
func (t *Transaction) Position() Position     { return t.Pos }

// AffectedNodes reports the currency/account identifiers a directive
// introduces to the ledger's known-node index.

func (c *Commodity) AffectedNodes() []string { return []string{c.Currency} }
func (o *Open) AffectedNodes() []string      { return []string{string(o.Account)} }
func (c *Close) AffectedNodes() []string     { return []string{string(c.Account)} }
func (p *Price) AffectedNodes() []string     { return []string{p.Commodity} }

var (
	_ Stateful = &Commodity{}
	_ Stateful = &Open{}
	_ Stateful = &Close{}
	_ Stateful = &Price{}
)

// AccountType identifies the top-level category of an account, derived from
// the first colon-separated component of its name.
type AccountType int

const (
	AccountTypeUnknown AccountType = iota
	AccountTypeAssets
	AccountTypeLiabilities
	AccountTypeEquity
	AccountTypeIncome
	AccountTypeExpenses
)

// String returns the capitalized name of the account type as it appears in
// account names. It panics for AccountTypeUnknown, which has no textual form.
func (t AccountType) String() string {
	switch t {
	case AccountTypeAssets:
		return "Assets"
	case AccountTypeLiabilities:
		return "Liabilities"
	case AccountTypeEquity:
		return "Equity"
	case AccountTypeIncome:
		return "Income"
	case AccountTypeExpenses:
		return "Expenses"
	default:
		panic("ast: AccountType has no string representation")
	}
}

// Type returns the top-level account type for this account name. It panics
// if the account name has no colon-separated root, or if the root does not
// match one of the five known account type prefixes.
func (a Account) Type() AccountType {
	name := string(a)
	idx := strings.IndexByte(name, ':')
	if idx < 0 {
		panic("ast: account name has no root component: " + name)
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
		panic("ast: unknown account type prefix: " + name[:idx])
	}
}
