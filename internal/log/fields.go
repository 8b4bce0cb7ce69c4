package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldSuccess     = "success"
	FieldDuration    = "duration_ms"
	FieldMonthKey    = "month_key"
	FieldMonths      = "months"
	FieldCurrency    = "currency"
	FieldEntryType   = "entry_type"
	FieldEntryDesc   = "entry_description"
	FieldCategory    = "category"
	FieldAmount      = "amount"
	FieldBalance     = "balance"
	FieldBackend     = "backend"
	FieldPath        = "path"
	FieldSink        = "sink"
	FieldExportRef   = "export_ref"
	FieldMessageID   = "message_id"
	FieldDeliveryTag = "delivery_tag"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentCLI     = "cli"
	ComponentState   = "state"
	ComponentStorage = "storage"
	ComponentBackend = "backend"
	ComponentAMQP    = "amqp"
	ComponentExport  = "export"
	ComponentWorker  = "worker"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpSave     = "save"
	OpAdd      = "add"
	OpUpdate   = "update"
	OpRemove   = "remove"
	OpForecast = "forecast"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpExport   = "export"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeStorage       = "storage_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEntry adds entry-related fields. amount is the decimal string.
func (f LogFields) WithEntry(entryType, desc, category, amount string) LogFields {
	f[FieldEntryType] = entryType
	f[FieldEntryDesc] = desc
	f[FieldCategory] = category
	f[FieldAmount] = amount
	return f
}

// WithForecast adds the month key, currency and balance of a forecast.
func (f LogFields) WithForecast(monthKey, currency, balance string) LogFields {
	f[FieldMonthKey] = monthKey
	f[FieldCurrency] = currency
	f[FieldBalance] = balance
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
