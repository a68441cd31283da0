package logger

// Fields is a set of structured log fields.
type Fields map[string]interface{}

// Tracing fields. These ride on the context logger for the whole run or
// request, see SetRunID and SetStrategy.
const (
	FieldRequestID   = "request_id"
	FieldRunID       = "run_id"
	FieldStrategy    = "strategy"
	FieldComponent   = "component"
	FieldSource      = "source"
	FieldCandidateID = "candidate_id"
)

// Metric fields, set per line through Entry.
const (
	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldStatus     = "status"
	// FieldScore is a match score in [0,1].
	FieldScore = "score"
	// FieldCostUSD is an estimated vision spend.
	FieldCostUSD = "cost_usd"
)
