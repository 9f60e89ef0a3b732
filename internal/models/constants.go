package models

// Transaction types
const (
	TypeIncome  TransactionType = "income"
	TypeOutcome TransactionType = "outcome"
)

// Import source column order. The first row of a source is always a header.
const (
	ColumnTitle = iota
	ColumnType
	ColumnValue
	ColumnCategory
)

// ImportHeader is the header written by exports and expected (but not
// checked) by imports.
var ImportHeader = []string{"title", "type", "value", "category"}

// File permissions
const (
	PermissionDataFile  = 0600
	PermissionDirectory = 0750
)
