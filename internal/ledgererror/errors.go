// Package ledgererror defines the typed failures surfaced by the ledger
// engine. Every struct error matches its sentinel through errors.Is and
// keeps the underlying cause reachable through Unwrap.
package ledgererror

import (
	"errors"
	"fmt"
	"strings"

	"fjacquet/finances/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotFound            = errors.New("not found")
	ErrSourceUnreadable    = errors.New("source unreadable")
	ErrInvalidRow          = errors.New("invalid import row")
	ErrValidation          = errors.New("validation failed")
	ErrPartialWrite        = errors.New("partial write")
)

// InsufficientBalanceError is returned when an outcome exceeds the total
// balance computed before the insert.
type InsufficientBalanceError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: outcome of %s exceeds available total %s",
		e.Requested.String(), e.Available.String())
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// NotFoundError represents a lookup of an entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// SourceUnreadableError is returned when an import source cannot be opened
// or streamed.
type SourceUnreadableError struct {
	Path string
	Err  error
}

func (e *SourceUnreadableError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("import source unreadable: %v", e.Err)
	}
	return fmt.Sprintf("import source '%s' unreadable: %v", e.Path, e.Err)
}

func (e *SourceUnreadableError) Unwrap() error {
	return e.Err
}

func (e *SourceUnreadableError) Is(target error) bool {
	return target == ErrSourceUnreadable
}

// RowError represents a data row of an import source that cannot become a
// transaction. Line is 1-based and counts the header.
type RowError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: failed to parse %s='%s': %v",
		e.Line, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func (e *RowError) Is(target error) bool {
	return target == ErrInvalidRow
}

// ValidationError represents a transaction violating the data model.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PartialWriteError reports categories that were committed by a create or
// an import whose transaction save then failed. Only stores without
// transactions can produce it.
type PartialWriteError struct {
	Categories []models.Category
	Err        error
}

func (e *PartialWriteError) Error() string {
	titles := models.CategoryTitles(e.Categories)
	return fmt.Sprintf("write failed after creating %d categories [%s]: %v",
		len(e.Categories), strings.Join(titles, ", "), e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

func (e *PartialWriteError) Is(target error) bool {
	return target == ErrPartialWrite
}
