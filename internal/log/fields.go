package log

// Common field names for structured logging.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldHouseholdID = "household_id"
	FieldAccountID   = "account_id"
	FieldTemplateID  = "template_id"
	FieldEntryID     = "entry_id"
	FieldPeriod      = "period"
	FieldCurrency    = "currency"
	FieldAmount      = "amount"
	FieldDate        = "date"
	FieldAsOf        = "as_of"
)

// Components defines standard component names.
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentStorage    = "storage"
	ComponentRates      = "rates"
	ComponentProjection = "projection"
	ComponentBalance    = "balance"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentSheets     = "sheets"
)
