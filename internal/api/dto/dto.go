package dto

// StageRowsRequest replaces the uploader table with a new set of rows.
type StageRowsRequest struct {
	Rows []StagedRow `json:"rows" binding:"required,min=1,dive"`
}

// StagedRow is one operator-supplied (identifier, value) pair.
type StagedRow struct {
	BusinessID string `json:"business_id" binding:"required"`
	RawValue   string `json:"raw_value" binding:"required"`
}

// StartJobRequest selects the field target for a new batch job.
type StartJobRequest struct {
	FieldPath    string `json:"field_path" binding:"required"`
	FieldType    string `json:"field_type"`
	EnumListName string `json:"enum_list_name"`
}

// RetryFailedRequest carries the field target for a retry-failed pass. The
// job's checkpoint is gone by the time failed rows are retried, so the
// target has to come from the operator again.
type RetryFailedRequest struct {
	FieldPath    string `json:"field_path" binding:"required"`
	FieldType    string `json:"field_type"`
	EnumListName string `json:"enum_list_name"`
}

// RowDTO is one uploader row with its outcome.
type RowDTO struct {
	RowIndex         int    `json:"row_index"`
	BusinessID       string `json:"business_id"`
	RawValue         string `json:"raw_value"`
	ResolvedRecordID string `json:"resolved_record_id,omitempty"`
	Status           string `json:"status"`
	HTTPCode         int    `json:"http_code,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
	VerifiedValue    string `json:"verified_value,omitempty"`
}

// ListRowsResponse returns the full uploader table.
type ListRowsResponse struct {
	Rows  []RowDTO `json:"rows"`
	Total int      `json:"total"`
}

// StartJobResponse acknowledges an accepted job-start request.
type StartJobResponse struct {
	JobID     string `json:"job_id"`
	FieldPath string `json:"field_path"`
	TotalRows int    `json:"total_rows"`
}
