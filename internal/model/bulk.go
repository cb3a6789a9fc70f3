package model

// StudentRow is one parsed data row of a bulk student import. Optional
// fields are nil when the source cell was blank, never the empty string.
type StudentRow struct {
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Email         *string `json:"email,omitempty"`
	ExternalID    *string `json:"external_id,omitempty"`
	Descriptor    *string `json:"descriptor,omitempty"`
	AssignToClass *string `json:"assign_to_class,omitempty"`
}

type RowStatus string

const (
	RowCreated            RowStatus = "CREATED"
	RowCreatedWithWarning RowStatus = "CREATED_WITH_WARNING"
	RowFailed             RowStatus = "FAILED"
	RowSkipped            RowStatus = "SKIPPED"
)

// RowOutcome is the server's verdict on one submitted row. Outcomes are
// never mutated after assignment.
type RowOutcome struct {
	RowNumber          int       `json:"row_number"`
	StudentName        string    `json:"student_name"`
	Status             RowStatus `json:"status"`
	ClassNameProcessed *string   `json:"class_name_processed,omitempty"`
	Message            string    `json:"message,omitempty"`
}

// BatchSummary is derived by the server; the engine stores it verbatim and
// never recomputes the counts locally, so the displayed summary always
// matches what the server persisted.
type BatchSummary struct {
	TotalProcessed int `json:"total_processed"`
	TotalSucceeded int `json:"total_succeeded"`
	TotalFailed    int `json:"total_failed"`
}

// ImportReport is the aggregate outcome of one bulk import, identified by
// a client-generated id so successive imports can be told apart.
type ImportReport struct {
	ID       string       `json:"id"`
	Results  []RowOutcome `json:"results"`
	Summary  BatchSummary `json:"summary"`
	Skipped  []int        `json:"skipped_lines,omitempty"`
	RowCount int          `json:"row_count"`
}
