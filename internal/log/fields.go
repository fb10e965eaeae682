package log

// Common field names for structured logging.
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldUserID      = "user_id"
	FieldUsername    = "username"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldYearMonth   = "year_month"
	FieldSheetRef    = "sheet_ref"
	FieldDuration    = "duration_ms"
)

// Components defines standard component names.
const (
	ComponentApp     = "app"
	ComponentAuth    = "auth"
	ComponentLedger  = "ledger"
	ComponentBudget  = "budget"
	ComponentReport  = "report"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
	ComponentCache   = "cache"
)
