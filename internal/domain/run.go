package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// RunReason records how a matching run ended.
// Values include RunReasonAccepted, RunReasonRandomFallback, and RunReasonNoCandidates.
type RunReason string

const (
	RunReasonAccepted       RunReason = "accepted"
	RunReasonRandomFallback RunReason = "random_fallback"
	RunReasonNoCandidates   RunReason = "no_candidates"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the slice.
//   - error: non-nil if marshaling fails.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// MatchRun is one invocation of the fallback orchestrator.
type MatchRun struct {
	ID         string        `gorm:"type:text;primaryKey" json:"id"`
	PoemTitle  string        `gorm:"type:text" json:"poem_title,omitempty"`
	Poet       string        `gorm:"type:text" json:"poet,omitempty"`
	Themes     StringArray   `gorm:"type:text" json:"themes"`
	Emotions   StringArray   `gorm:"type:text" json:"emotions"`
	Strategy   string        `gorm:"type:text;index:idx_match_runs_strategy" json:"strategy"`
	Reason     RunReason     `gorm:"type:text;index:idx_match_runs_reason" json:"reason"`
	Attempts   int           `gorm:"default:0" json:"attempts"`
	MatchCount int           `gorm:"default:0" json:"match_count"`
	ReportKey  string        `gorm:"type:text" json:"report_key,omitempty"`
	DurationMs int64         `json:"duration_ms"`
	Records    []MatchRecord `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"records,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// TableName returns the database table name for MatchRun.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (MatchRun) TableName() string {
	return "match_runs"
}

// MatchRecord is a single accepted artwork within a run.
type MatchRecord struct {
	ID           uint        `gorm:"primaryKey" json:"-"`
	RunID        string      `gorm:"type:text;not null;index:idx_match_records_run" json:"run_id"`
	Rank         int         `json:"rank"`
	CandidateID  string      `gorm:"type:text;not null;index:idx_match_records_candidate" json:"candidate_id"`
	Title        string      `gorm:"type:text" json:"title,omitempty"`
	Artist       string      `gorm:"type:text" json:"artist,omitempty"`
	ImageURL     string      `gorm:"type:text" json:"image_url,omitempty"`
	Score        float64     `json:"score"`
	Enriched     bool        `json:"enriched"`
	SubjectCodes StringArray `gorm:"type:text" json:"subject_codes"`
	Assessment   string      `gorm:"type:text" json:"assessment,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// TableName returns the database table name for MatchRecord.
func (MatchRecord) TableName() string {
	return "match_records"
}

// DailySpend is the accumulated vision spend for one UTC day.
type DailySpend struct {
	Day       string    `gorm:"type:text;primaryKey" json:"day"`
	CostUSD   float64   `gorm:"default:0" json:"cost_usd"`
	Calls     int       `gorm:"default:0" json:"calls"`
	Tokens    int       `gorm:"default:0" json:"tokens"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for DailySpend.
func (DailySpend) TableName() string {
	return "daily_spend"
}
