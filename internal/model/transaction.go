package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one dated, signed cash movement.
type Transaction struct {
	Date        time.Time
	Description string          // merchant or free-text description
	Amount      decimal.Decimal // positive = income, negative = expense
	Category    string          // optional
	Reference   string          // source-specific identifier, used for de-duplication
}

// Direction classifies a cash movement.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// Direction reports whether the transaction is income or expense.
// Zero-amount transactions report income; callers that care check IsZero first.
func (t Transaction) Direction() Direction {
	if t.Amount.IsNegative() {
		return DirectionExpense
	}
	return DirectionIncome
}

// SignConvention describes how a source encodes the sign of an amount.
type SignConvention string

const (
	// SignIncomePositive is the internal convention: deposits positive, spending negative.
	SignIncomePositive SignConvention = "income_positive"
	// SignExpensePositive is the aggregator convention (Plaid and friends): spending positive.
	SignExpensePositive SignConvention = "expense_positive"
)

// ParseSignConvention validates a configured convention name. Empty means income_positive.
func ParseSignConvention(s string) (SignConvention, error) {
	switch SignConvention(strings.ToLower(strings.TrimSpace(s))) {
	case "", SignIncomePositive:
		return SignIncomePositive, nil
	case SignExpensePositive:
		return SignExpensePositive, nil
	default:
		return "", fmt.Errorf("unknown sign convention %q", s)
	}
}

// Normalize converts an amount from this convention into the internal one.
func (c SignConvention) Normalize(amount decimal.Decimal) decimal.Decimal {
	if c == SignExpensePositive {
		return amount.Neg()
	}
	return amount
}

// NormalizeAll returns copies of txns with amounts converted into the internal convention.
func (c SignConvention) NormalizeAll(txns []Transaction) []Transaction {
	out := make([]Transaction, len(txns))
	for i, t := range txns {
		t.Amount = c.Normalize(t.Amount)
		out[i] = t
	}
	return out
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
