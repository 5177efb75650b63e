package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/themoritz/turbobean/ast"
)

// Bounds on the bounded enumerative search below. A transaction exceeding
// any of these is rejected outright rather than truncated.
const (
	maxSolverCurrencies   = 8
	maxSolverNumberVars   = 8
	maxSolverCurrencyVars = 8
)

// SolverError reports a failure to balance a transaction, tagged with the
// diagnostic code identifying which stage of the enumerative search failed.
type SolverError struct {
	directive ast.Directive
	Code      string
	Detail    string
}

func newSolverError(txn *ast.Transaction, code, detail string) *SolverError {
	return &SolverError{directive: txn, Code: code, Detail: detail}
}

func (e *SolverError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", formatLocation(e.directive), e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", formatLocation(e.directive), e.Code, e.Detail)
}
func (e *SolverError) GetDate() *ast.Date          { return e.directive.GetDate() }
func (e *SolverError) GetPosition() ast.Position   { return e.directive.Position() }
func (e *SolverError) GetDirective() ast.Directive { return e.directive }

// solverResult holds the resolved amount for every posting that had none.
type solverResult struct {
	amounts map[*ast.Posting]*ast.Amount
}

// currencyGroup accumulates the literal contributions to one currency
// during one candidate assignment of the enumerative search, plus at most
// one unresolved posting assigned to that currency.
type currencyGroup struct {
	sum        decimal.Decimal
	hasUnknown bool
	unknownIdx int
}

// solveTransactionBalance resolves the postings in unknowns (those missing
// an explicit amount) so that every currency's postings sum to zero within
// tolerance, per the bounded enumerative search: every currency-variable
// posting is assigned, in turn, to each currency that appears literally
// elsewhere in the transaction, and an assignment is kept only if it
// resolves every currency group to either a balanced literal sum or a
// single solvable unknown.
//
// A posting carrying a price but no amount can't be resolved this way —
// the price tells us nothing about which currency the missing amount
// itself should be in — so it is rejected before the search even starts.
func (v *validator) solveTransactionBalance(txn *ast.Transaction, knownWeights []WeightSet, unknowns []*ast.Posting) (*solverResult, *SolverError) {
	for _, p := range unknowns {
		if p.Price != nil {
			return nil, newSolverError(txn, "cannot_infer_amount_currency_when_price_set", string(p.Account))
		}
	}

	if len(unknowns) > maxSolverNumberVars {
		return nil, newSolverError(txn, "tx_too_many_variables",
			fmt.Sprintf("%d postings with no amount exceeds cap of %d", len(unknowns), maxSolverNumberVars))
	}
	if len(unknowns) > maxSolverCurrencyVars {
		return nil, newSolverError(txn, "tx_too_many_variables",
			fmt.Sprintf("%d currency variables exceeds cap of %d", len(unknowns), maxSolverCurrencyVars))
	}

	literalCurrencySet := make(map[string]bool)
	for _, ws := range knownWeights {
		for _, w := range ws {
			literalCurrencySet[w.Currency] = true
		}
	}
	var literalCurrencies []string
	for c := range literalCurrencySet {
		literalCurrencies = append(literalCurrencies, c)
	}
	sort.Strings(literalCurrencies)

	if len(literalCurrencies) > maxSolverCurrencies {
		return nil, newSolverError(txn, "tx_too_many_variables",
			fmt.Sprintf("%d currencies exceeds cap of %d", len(literalCurrencies), maxSolverCurrencies))
	}
	if len(literalCurrencies) == 0 {
		return nil, newSolverError(txn, "tx_balance_no_currency", "")
	}

	base := len(literalCurrencies)
	totalAssignments := 1
	for range unknowns {
		totalAssignments *= base
	}

	digits := make([]int, len(unknowns))
	var solutions []*solverResult

	for a := 0; a < totalAssignments; a++ {
		rem := a
		for i := range digits {
			digits[i] = rem % base
			rem /= base
		}

		groups := make(map[string]*currencyGroup)
		group := func(currency string) *currencyGroup {
			g, ok := groups[currency]
			if !ok {
				g = &currencyGroup{unknownIdx: -1}
				groups[currency] = g
			}
			return g
		}

		for _, ws := range knownWeights {
			for _, w := range ws {
				g := group(w.Currency)
				g.sum = g.sum.Add(w.Amount)
			}
		}

		conflict := false
		for i := range unknowns {
			currency := literalCurrencies[digits[i]]
			g := group(currency)
			if g.hasUnknown {
				conflict = true
				break
			}
			g.hasUnknown = true
			g.unknownIdx = i
		}
		if conflict {
			continue
		}

		resolved := make(map[*ast.Posting]*ast.Amount)
		ok := true
		for currency, g := range groups {
			if !g.hasUnknown {
				tolerance := v.toleranceConfig.GetDefaultTolerance(currency)
				if g.sum.Abs().GreaterThan(tolerance) {
					ok = false
					break
				}
				continue
			}

			// Every posting contributes with coefficient 1: there is no
			// literal multiplier separate from the number itself in this
			// AST's posting model, so this division can never fail.
			coefficient := decimal.NewFromInt(1)
			if coefficient.IsZero() {
				return nil, newSolverError(txn, "tx_division_by_zero", currency)
			}
			number := g.sum.Neg().Div(coefficient)
			resolved[unknowns[g.unknownIdx]] = &ast.Amount{Value: number.String(), Currency: currency}
		}
		if !ok {
			continue
		}

		solutions = append(solutions, &solverResult{amounts: resolved})
	}

	switch len(solutions) {
	case 0:
		return nil, newSolverError(txn, "tx_no_solution", "")
	case 1:
		return solutions[0], nil
	default:
		return nil, newSolverError(txn, "tx_multiple_solutions", fmt.Sprintf("%d candidate assignments balance", len(solutions)))
	}
}
