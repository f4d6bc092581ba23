package domain

import "time"

// Row status constants
const (
	RowStatusPending    = "PENDING"
	RowStatusProcessing = "PROCESSING"
	RowStatusCompleted  = "COMPLETED"
	RowStatusSkipped    = "SKIPPED"
	RowStatusFailed     = "FAILED"
)

// StagedPair is the operator-supplied input for one row: which employee to
// touch and what value to write.
type StagedPair struct {
	BusinessID string `json:"business_id"`
	RawValue   string `json:"raw_value"`
}

// UpdateRow is one unit of work in the uploader table. Rows are addressed by
// RowIndex and carry their full outcome so an operator can inspect exactly
// what the HR platform returned.
type UpdateRow struct {
	RowIndex         int       `db:"row_index"`
	BusinessID       string    `db:"business_id"`
	RawValue         string    `db:"raw_value"`
	ResolvedRecordID string    `db:"resolved_record_id"`
	Status           string    `db:"status"`
	HTTPCode         int       `db:"http_code"`
	ErrorMessage     string    `db:"error_message"`
	VerifiedValue    string    `db:"verified_value"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Fail marks the row FAILED with the raw code and message preserved verbatim.
func (r *UpdateRow) Fail(httpCode int, message string) {
	r.Status = RowStatusFailed
	r.HTTPCode = httpCode
	r.ErrorMessage = message
	r.VerifiedValue = ""
}

// IsTerminal reports whether the row has reached a final status.
func (r *UpdateRow) IsTerminal() bool {
	switch r.Status {
	case RowStatusCompleted, RowStatusSkipped, RowStatusFailed:
		return true
	}
	return false
}

// FieldTarget identifies the single employee field a batch job writes to.
// It is fixed for the lifetime of a job.
type FieldTarget struct {
	FieldPath    string `json:"field_path"`
	FieldType    string `json:"field_type"`
	EnumListName string `json:"enum_list_name,omitempty"`
}
