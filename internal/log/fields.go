package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldCommand     = "command"
	FieldEventID     = "event_id"
	FieldUserID      = "user_id"
	FieldMonth       = "month"
	FieldCategory    = "category"
	FieldPlace       = "place"
	FieldAmountCents = "amount_cents"
	FieldTxType      = "tx_type"
	FieldSheetsRef   = "sheets_ref"
	FieldRowCount    = "row_count"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentBot       = "bot"
	ComponentLedger    = "ledger"
	ComponentSheets    = "sheets"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
)
