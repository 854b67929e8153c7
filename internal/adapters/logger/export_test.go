package logger

// Exported for white-box testing of the error formatting.
var (
	CollectErrorEntries = collectErrorEntries
	FormatErrorEntries  = formatErrorEntries
)

// Message returns the message of e.
func (e errorEntry) Message() string { return e.message }

// Metadata returns the metadata of e.
func (e errorEntry) Metadata() map[string]any { return e.metadata }
