package models

import "github.com/shopspring/decimal"

// Balance is the derived income/outcome/total view over the ledger. It is
// never stored.
type Balance struct {
	Income  decimal.Decimal `json:"income"`
	Outcome decimal.Decimal `json:"outcome"`
	Total   decimal.Decimal `json:"total"`
}

// ZeroBalance returns the balance of an empty ledger.
func ZeroBalance() Balance {
	return Balance{Income: decimal.Zero, Outcome: decimal.Zero, Total: decimal.Zero}
}

// Apply returns the balance after t is added to the ledger.
func (b Balance) Apply(t Transaction) Balance {
	switch t.Type {
	case TypeIncome:
		b.Income = b.Income.Add(t.Value)
	case TypeOutcome:
		b.Outcome = b.Outcome.Add(t.Value)
	}
	b.Total = b.Income.Sub(b.Outcome)
	return b
}

// Covers reports whether an outcome of the given value can be withdrawn
// without making the total negative.
func (b Balance) Covers(value decimal.Decimal) bool {
	return !value.GreaterThan(b.Total)
}

// Equal compares balances by value, ignoring decimal exponent differences.
func (b Balance) Equal(other Balance) bool {
	return b.Income.Equal(other.Income) &&
		b.Outcome.Equal(other.Outcome) &&
		b.Total.Equal(other.Total)
}

// Report is the full transaction list together with its balance.
type Report struct {
	Transactions []Transaction `json:"transactions"`
	Balance      Balance       `json:"balance"`
}
