package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is either income or outcome.
type TransactionType string

var (
	ErrEmptyTitle      = errors.New("empty title")
	ErrNegativeValue   = errors.New("negative value")
	ErrInvalidValue    = errors.New("invalid value")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrMissingCategory = errors.New("missing category")
)

// Transaction is a single ledger entry. It references its category by id
// and is never updated in place once persisted.
type Transaction struct {
	ID         string          `json:"id" yaml:"id"`
	Title      string          `json:"title" yaml:"title"`
	Value      decimal.Decimal `json:"value" yaml:"value"`
	Type       TransactionType `json:"type" yaml:"type"`
	CategoryID string          `json:"category_id" yaml:"category_id"`
	Category   *Category       `json:"category,omitempty" yaml:"-"`
	CreatedAt  time.Time       `json:"created_at" yaml:"created_at"`
}

// ParseTransactionType accepts exactly "income" or "outcome".
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TypeIncome, TypeOutcome:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeOutcome
}

func (t TransactionType) String() string {
	return string(t)
}

// ParseValue parses a non-negative monetary value. Both "12.34" and "12,34"
// are accepted; thousands separators and signs are not.
func ParseValue(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidValue
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	if v.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNegativeValue, s)
	}
	return v, nil
}

// Validate checks the data model requirements of a transaction that is
// about to be persisted. It does not look at the category reference, which
// is resolved by the ledger.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if t.Value.IsNegative() {
		return ErrNegativeValue
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, string(t.Type))
	}
	return nil
}

// IsIncome returns true for income transactions
func (t Transaction) IsIncome() bool {
	return t.Type == TypeIncome
}

// IsOutcome returns true for outcome transactions
func (t Transaction) IsOutcome() bool {
	return t.Type == TypeOutcome
}

// CategoryTitle returns the title of the attached category, if any.
func (t Transaction) CategoryTitle() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.Title
}
