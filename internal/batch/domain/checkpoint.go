package domain

import "time"

// JobCheckpoint is the durable resumption record for the single in-flight
// batch job. NextRowIndex is the first unprocessed row and only ever moves
// forward; the checkpoint row is created when a job starts, rewritten once
// per tick, and deleted on completion or cancel.
type JobCheckpoint struct {
	JobID          string    `db:"job_id"`
	FieldPath      string    `db:"field_path"`
	FieldType      string    `db:"field_type"`
	EnumListName   string    `db:"enum_list_name"`
	NextRowIndex   int       `db:"next_row_index"`
	Completed      int       `db:"completed"`
	Skipped        int       `db:"skipped"`
	Failed         int       `db:"failed"`
	StartedAt      time.Time `db:"started_at"`
	LastProgressAt time.Time `db:"last_progress_at"`
}

// Target returns the field the job is writing to.
func (c *JobCheckpoint) Target() FieldTarget {
	return FieldTarget{
		FieldPath:    c.FieldPath,
		FieldType:    c.FieldType,
		EnumListName: c.EnumListName,
	}
}

// Record tallies one processed row into the job counters.
func (c *JobCheckpoint) Record(status string) {
	switch status {
	case RowStatusCompleted:
		c.Completed++
	case RowStatusSkipped:
		c.Skipped++
	case RowStatusFailed:
		c.Failed++
	}
}
