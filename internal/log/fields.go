package log

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldOwner     = "owner_id"
	FieldTxID      = "transaction_id"
	FieldCategory  = "category"
	FieldCurrency  = "currency"
	FieldAmount    = "amount"
	FieldBudgetID  = "budget_id"
)

// Components defines standard component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentFallback = "fallback"
	ComponentLedger   = "ledger"
	ComponentBudget   = "budget"
	ComponentNotify   = "notify"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentCache    = "cache"
)
