package logging

// Standardized field names for structured logging.
const (
	FieldComponent     = "component"
	FieldOperation     = "operation"
	FieldFile          = "file_path"
	FieldTransactionID = "transaction_id"
	FieldCategory      = "category"
	FieldCategoryID    = "category_id"
	FieldTitle         = "title"
	FieldType          = "type"
	FieldValue         = "value"
	FieldTotal         = "total"
	FieldCount         = "count"
	FieldSkipped       = "skipped"
	FieldCreated       = "created"
	FieldLine          = "line"
	FieldDriver        = "driver"
	FieldDatabase      = "database"
	FieldEvent         = "event"
	FieldReason        = "reason"
	FieldError         = "error"
	FieldDuration      = "duration_ms"
)

// Component names
const (
	ComponentLedger   = "ledger"
	ComponentImporter = "importer"
	ComponentStore    = "store"
	ComponentEvents   = "events"
	ComponentCLI      = "cli"
)
