package ledger

import (
	"context"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/themoritz/turbobean/ast"
	"github.com/shopspring/decimal"
)

// openAccountForTest mutates l directly via applyOpen, bypassing the handler
// registry, so tests can set up ledger state without going through Process.
func openAccountForTest(l *Ledger, account ast.Account, date *ast.Date) {
	v := newValidator(l.Accounts(), NewToleranceConfig())
	_, delta := v.validateOpen(context.Background(), ast.NewOpen(date, account, nil, ""))
	l.applyOpen(ast.NewOpen(date, account, nil, ""), delta, NewConfig())
}

// TestDelta_PureValidation verifies that validators don't mutate state
func TestDelta_PureValidation(t *testing.T) {
	ctx := context.Background()

	// Setup
	date, _ := ast.NewDate("2024-01-15")
	checking, _ := ast.NewAccount("Assets:Checking")
	expenses, _ := ast.NewAccount("Expenses:Groceries")

	l := New()
	openAccountForTest(l, checking, date)
	openAccountForTest(l, expenses, date)

	// Get initial inventory state
	initialBalance := l.Accounts()["Assets:Checking"].Inventory.Get("USD")

	// Create transaction
	txn := ast.NewTransaction(date, "Test transaction",
		ast.WithPostings(
			ast.NewPosting(checking, ast.WithAmount("-100", "USD")),
			ast.NewPosting(expenses, ast.WithAmount("100", "USD")),
		),
	)

	// Validate but don't apply
	v := newValidator(l.Accounts(), NewToleranceConfig())
	errs, delta := v.validateTransaction(ctx, txn)

	// Validation should succeed
	assert.Zero(t, len(errs), "validation should succeed")
	assert.NotZero(t, delta, "delta should be returned")

	// CRITICAL: State should NOT have changed after validation
	afterValidationBalance := l.Accounts()["Assets:Checking"].Inventory.Get("USD")
	assert.Equal(t, initialBalance, afterValidationBalance, "validation should not mutate state")

	// Now apply the delta
	l.applyTransaction(txn, delta)

	// NOW state should have changed
	afterApplicationBalance := l.Accounts()["Assets:Checking"].Inventory.Get("USD")
	assert.Equal(t, decimal.NewFromInt(-100), afterApplicationBalance, "state should change after apply")
}

// TestTransactionDelta_Creation tests that transaction deltas are created correctly
func TestTransactionDelta_Creation(t *testing.T) {
	ctx := context.Background()
	date, _ := ast.NewDate("2024-01-15")
	checking, _ := ast.NewAccount("Assets:Checking")
	expenses, _ := ast.NewAccount("Expenses:Groceries")

	accounts := map[string]*Account{
		"Assets:Checking": {
			Name:      checking,
			OpenDate:  date,
			Inventory: NewInventory(),
		},
		"Expenses:Groceries": {
			Name:      expenses,
			OpenDate:  date,
			Inventory: NewInventory(),
		},
	}

	txn := ast.NewTransaction(date, "Groceries",
		ast.WithPostings(
			ast.NewPosting(checking, ast.WithAmount("-50.25", "USD")),
			ast.NewPosting(expenses, ast.WithAmount("50.25", "USD")),
		),
	)

	v := newValidator(accounts, NewToleranceConfig())
	errs, delta := v.validateTransaction(ctx, txn)

	assert.Zero(t, len(errs))
	assert.NotZero(t, delta)
	assert.Equal(t, txn, delta.Transaction)
	assert.Equal(t, 2, len(delta.InventoryChanges), "should have 2 inventory changes")

	// Check first change (checking account reduction)
	change1 := delta.InventoryChanges[0]
	assert.Equal(t, "Assets:Checking", change1.Account)
	assert.Equal(t, "USD", change1.Currency)
	assert.True(t, change1.Amount.Equal(decimal.NewFromFloat(50.25)), "amount should be 50.25 (positive, operation indicates direction)")
	assert.Equal(t, OpReduce, change1.Operation, "negative posting amount becomes OpReduce")

	// Check second change (expenses addition)
	change2 := delta.InventoryChanges[1]
	assert.Equal(t, "Expenses:Groceries", change2.Account)
	assert.Equal(t, "USD", change2.Currency)
	assert.True(t, change2.Amount.Equal(decimal.NewFromFloat(50.25)))
	assert.Equal(t, OpAdd, change2.Operation)
}

// TestTransactionDelta_WithInferredAmount tests delta with inferred amounts
func TestTransactionDelta_WithInferredAmount(t *testing.T) {
	ctx := context.Background()
	date, _ := ast.NewDate("2024-01-15")
	checking, _ := ast.NewAccount("Assets:Checking")
	expenses, _ := ast.NewAccount("Expenses:Groceries")

	accounts := map[string]*Account{
		"Assets:Checking": {
			Name:      checking,
			OpenDate:  date,
			Inventory: NewInventory(),
		},
		"Expenses:Groceries": {
			Name:      expenses,
			OpenDate:  date,
			Inventory: NewInventory(),
		},
	}

	// Transaction with one missing amount (will be inferred)
	txn := ast.NewTransaction(date, "Groceries",
		ast.WithPostings(
			ast.NewPosting(checking, ast.WithAmount("-100", "USD")),
			ast.NewPosting(expenses), // Amount will be inferred
		),
	)

	v := newValidator(accounts, NewToleranceConfig())
	errs, delta := v.validateTransaction(ctx, txn)

	assert.Zero(t, len(errs))
	assert.NotZero(t, delta)

	// Check that amount was inferred
	assert.Equal(t, 1, len(delta.InferredAmounts), "should have 1 inferred amount")
	inferredAmount := delta.InferredAmounts[txn.Postings[1]]
	assert.NotZero(t, inferredAmount)
	assert.Equal(t, "100", inferredAmount.Value)
	assert.Equal(t, "USD", inferredAmount.Currency)
}

// TestTransactionDelta_WithLots tests delta with lot-based inventory
func TestTransactionDelta_WithLots(t *testing.T) {
	ctx := context.Background()
	date, _ := ast.NewDate("2024-01-15")
	stock, _ := ast.NewAccount("Assets:Stock")
	checking, _ := ast.NewAccount("Assets:Checking")

	accounts := map[string]*Account{
		"Assets:Stock": {
			Name:      stock,
			OpenDate:  date,
			Inventory: NewInventory(),
		},
		"Assets:Checking": {
			Name:      checking,
			OpenDate:  date,
			Inventory: NewInventory(),
		},
	}

	// Buy stock with explicit cost
	cost := ast.NewCost(ast.NewAmount("500", "USD"))
	txn := ast.NewTransaction(date, "Buy stock",
		ast.WithPostings(
			ast.NewPosting(stock, ast.WithAmount("10", "HOOL"), ast.WithCost(cost)),
			ast.NewPosting(checking, ast.WithAmount("-5000", "USD")),
		),
	)

	v := newValidator(accounts, NewToleranceConfig())
	errs, delta := v.validateTransaction(ctx, txn)

	assert.Zero(t, len(errs))
	assert.NotZero(t, delta)
	assert.Equal(t, 2, len(delta.InventoryChanges))

	// Check stock addition with lot
	stockChange := delta.InventoryChanges[0]
	assert.Equal(t, "Assets:Stock", stockChange.Account)
	assert.Equal(t, "HOOL", stockChange.Currency)
	assert.Equal(t, OpAdd, stockChange.Operation)
	assert.NotZero(t, stockChange.LotSpec, "should have lot spec")
	assert.True(t, stockChange.LotSpec.Cost.Equal(decimal.NewFromInt(500)))
}

// TestBalanceDelta_WithPadding tests balance delta with padding
func TestBalanceDelta_WithPadding(t *testing.T) {
	ctx := context.Background()
	date1, _ := ast.NewDate("2024-01-01")
	date2, _ := ast.NewDate("2024-01-15")
	checking, _ := ast.NewAccount("Assets:Checking")
	equity, _ := ast.NewAccount("Equity:Opening-Balances")

	l := New()
	openAccountForTest(l, checking, date1)
	openAccountForTest(l, equity, date1)

	// Add pad directive
	pad := &ast.Pad{
		Date:       date1,
		Account:    checking,
		AccountPad: equity,
	}
	l.padEntries[string(checking)] = pad

	// Create balance assertion
	balance := &ast.Balance{
		Date:    date2,
		Account: checking,
		Amount:  ast.NewAmount("1000", "USD"),
	}

	v := newValidator(l.Accounts(), NewToleranceConfig())
	errs := v.validateBalance(ctx, balance)
	assert.Zero(t, len(errs))

	delta, err := v.calculateBalanceDelta(ctx, balance, pad)
	assert.NoError(t, err)
	assert.NotZero(t, delta)
	assert.NotZero(t, len(delta.PaddingAdjustments), "padding should be required")
	assert.Equal(t, "USD", delta.Currency)
	assert.True(t, delta.ExpectedAmount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "Equity:Opening-Balances", delta.PadAccountName)
}

// TestOpenDelta_Creation tests open delta creation
func TestOpenDelta_Creation(t *testing.T) {
	ctx := context.Background()
	date, _ := ast.NewDate("2024-01-15")
	checking, _ := ast.NewAccount("Assets:Checking")

	open := ast.NewOpen(date, checking, nil, "")
	v := newValidator(make(map[string]*Account), NewToleranceConfig())
	errs, delta := v.validateOpen(ctx, open)

	assert.Zero(t, len(errs))
	assert.NotZero(t, delta)
	assert.Equal(t, "Assets:Checking", delta.AccountName)
	assert.Equal(t, date, delta.OpenDate)
}

// TestCloseDelta_Creation tests close delta creation
func TestCloseDelta_Creation(t *testing.T) {
	ctx := context.Background()
	date1, _ := ast.NewDate("2024-01-01")
	date2, _ := ast.NewDate("2024-12-31")
	checking, _ := ast.NewAccount("Assets:Checking")

	accounts := map[string]*Account{
		"Assets:Checking": {
			Name:      checking,
			OpenDate:  date1,
			Inventory: NewInventory(),
		},
	}

	close := &ast.Close{
		Date:    date2,
		Account: checking,
	}

	v := newValidator(accounts, NewToleranceConfig())
	errs, delta := v.validateClose(ctx, close)

	assert.Zero(t, len(errs))
	assert.NotZero(t, delta)
	assert.Equal(t, "Assets:Checking", delta.AccountName)
}

// TestPadDelta_Creation tests that a pad directive validates against open accounts
func TestPadDelta_Creation(t *testing.T) {
	ctx := context.Background()
	date, _ := ast.NewDate("2024-01-01")
	checking, _ := ast.NewAccount("Assets:Checking")
	equity, _ := ast.NewAccount("Equity:Opening-Balances")

	accounts := map[string]*Account{
		"Assets:Checking": {
			Name:      checking,
			OpenDate:  date,
			Inventory: NewInventory(),
		},
		"Equity:Opening-Balances": {
			Name:      equity,
			OpenDate:  date,
			Inventory: NewInventory(),
		},
	}

	pad := &ast.Pad{
		Date:       date,
		Account:    checking,
		AccountPad: equity,
	}

	v := newValidator(accounts, NewToleranceConfig())
	errs := v.validatePad(ctx, pad)

	assert.Zero(t, len(errs))
}

// TestPadDelta_SecondPadNotRejected checks that a second pad for an account
// that already has a recorded pad is not rejected: neither validatePad nor
// calculateBalanceDelta looks for an earlier pending pad.
func TestPadDelta_SecondPadNotRejected(t *testing.T) {
	ctx := context.Background()
	date1, _ := ast.NewDate("2024-01-01")
	date2, _ := ast.NewDate("2024-01-15")
	date3, _ := ast.NewDate("2024-01-20")
	checking, _ := ast.NewAccount("Assets:Checking")
	equity, _ := ast.NewAccount("Equity:Opening-Balances")

	l := New()
	openAccountForTest(l, checking, date1)
	openAccountForTest(l, equity, date1)

	// First pad directive, already recorded
	firstPad := &ast.Pad{
		Date:       date1,
		Account:    checking,
		AccountPad: equity,
	}
	l.padEntries[string(checking)] = firstPad

	// A second pad for the same account before any balance assertion consumes
	// the first is a duplicate.
	secondPad := &ast.Pad{
		Date:       date2,
		Account:    checking,
		AccountPad: equity,
	}

	v := newValidator(l.Accounts(), NewToleranceConfig())
	errs := v.validatePad(ctx, secondPad)
	assert.Zero(t, len(errs), "validatePad alone doesn't check for duplicates")

	// The balance assertion applies the recorded pad without reporting the second one.
	balance := &ast.Balance{
		Date:    date3,
		Account: checking,
		Amount:  ast.NewAmount("1000", "USD"),
	}
	_, err := v.calculateBalanceDelta(ctx, balance, firstPad)
	assert.NoError(t, err)
}

// TestDelta_String tests String() methods for logging/debugging
func TestDelta_String(t *testing.T) {
	ctx := context.Background()
	date, _ := ast.NewDate("2024-01-15")
	checking, _ := ast.NewAccount("Assets:Checking")
	expenses, _ := ast.NewAccount("Expenses:Groceries")

	accounts := map[string]*Account{
		"Assets:Checking": {
			Name:      checking,
			OpenDate:  date,
			Inventory: NewInventory(),
		},
		"Expenses:Groceries": {
			Name:      expenses,
			OpenDate:  date,
			Inventory: NewInventory(),
		},
	}

	txn := ast.NewTransaction(date, "Groceries",
		ast.WithPostings(
			ast.NewPosting(checking, ast.WithAmount("-50", "USD")),
			ast.NewPosting(expenses, ast.WithAmount("50", "USD")),
		),
	)

	v := newValidator(accounts, NewToleranceConfig())
	_, delta := v.validateTransaction(ctx, txn)

	// Test that String() produces useful output
	str := delta.String()
	assert.True(t, strings.Contains(str, "Transaction on 2024-01-15"))
	assert.True(t, strings.Contains(str, "Inventory changes"))
	assert.True(t, strings.Contains(str, "Assets:Checking"))
	assert.True(t, strings.Contains(str, "Expenses:Groceries"))
}

// TestDelta_InspectionBeforeApply tests that deltas can be inspected before applying
func TestDelta_InspectionBeforeApply(t *testing.T) {
	ctx := context.Background()
	date, _ := ast.NewDate("2024-01-15")
	checking, _ := ast.NewAccount("Assets:Checking")
	expenses, _ := ast.NewAccount("Expenses:Groceries")

	l := New()
	openAccountForTest(l, checking, date)
	openAccountForTest(l, expenses, date)

	txn := ast.NewTransaction(date, "Groceries",
		ast.WithPostings(
			ast.NewPosting(checking, ast.WithAmount("-100", "USD")),
			ast.NewPosting(expenses, ast.WithAmount("100", "USD")),
		),
	)

	v := newValidator(l.Accounts(), NewToleranceConfig())
	errs, delta := v.validateTransaction(ctx, txn)

	assert.Zero(t, len(errs))

	// Inspect delta BEFORE applying
	assert.Equal(t, 2, len(delta.InventoryChanges))
	assert.Equal(t, "Assets:Checking", delta.InventoryChanges[0].Account)
	assert.Equal(t, "Expenses:Groceries", delta.InventoryChanges[1].Account)

	// Can log/debug without applying
	_ = delta.String()

	// Decision: apply only if we want to
	l.applyTransaction(txn, delta)

	// Now state has changed
	balance := l.Accounts()["Assets:Checking"].Inventory.Get("USD")
	assert.True(t, balance.Equal(decimal.NewFromInt(-100)))
}

// TestDelta_Application tests that apply methods correctly mutate state
func TestDelta_Application(t *testing.T) {
	ctx := context.Background()
	date, _ := ast.NewDate("2024-01-15")
	checking, _ := ast.NewAccount("Assets:Checking")

	l := New()

	// Test OpenDelta application
	open := ast.NewOpen(date, checking, nil, "")
	v := newValidator(l.Accounts(), NewToleranceConfig())
	_, openDelta := v.validateOpen(ctx, open)
	l.applyOpen(open, openDelta, NewConfig())

	account, exists := l.Accounts()["Assets:Checking"]
	assert.True(t, exists, "account should exist after applying OpenDelta")
	assert.Equal(t, checking, account.Name)

	// Test CloseDelta application
	closeDate, _ := ast.NewDate("2024-12-31")
	closeDirective := &ast.Close{Date: closeDate, Account: checking}
	v2 := newValidator(l.Accounts(), NewToleranceConfig())
	_, closeDelta := v2.validateClose(ctx, closeDirective)
	l.applyClose(closeDelta)

	assert.True(t, account.IsClosed(), "account should be closed after applying CloseDelta")
	assert.Equal(t, closeDate, account.CloseDate)
}

// TestInventoryChange_String tests InventoryChange String() method
func TestInventoryChange_String(t *testing.T) {
	// Simple add
	change1 := InventoryChange{
		Account:   "Assets:Checking",
		Currency:  "USD",
		Amount:    decimal.NewFromInt(100),
		Operation: OpAdd,
	}
	str1 := change1.String()
	assert.True(t, strings.Contains(str1, "Add"))
	assert.True(t, strings.Contains(str1, "100"))
	assert.True(t, strings.Contains(str1, "USD"))
	assert.True(t, strings.Contains(str1, "to"))
	assert.True(t, strings.Contains(str1, "Assets:Checking"))

	// Reduce with lot
	cost := decimal.NewFromInt(500)
	lotSpec := &lotSpec{
		Cost:         &cost,
		CostCurrency: "USD",
	}
	change2 := InventoryChange{
		Account:   "Assets:Stock",
		Currency:  "HOOL",
		Amount:    decimal.NewFromInt(10),
		LotSpec:   lotSpec,
		Operation: OpReduce,
	}
	str2 := change2.String()
	assert.True(t, strings.Contains(str2, "Reduce"))
	assert.True(t, strings.Contains(str2, "HOOL"))
	assert.True(t, strings.Contains(str2, "from"))
	assert.True(t, strings.Contains(str2, "{500 USD}"))
}
