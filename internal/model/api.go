package model

type AuthTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// AssessResponse is the immediate reply to an assess command. A score may
// already be present when the pipeline completed synchronously; it is a
// hint only, the result detail endpoint remains authoritative.
type AssessResponse struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Score  *float64 `json:"score,omitempty"`
}

type ResultDetail struct {
	Status           DocumentStatus    `json:"status"`
	Score            *float64          `json:"score,omitempty"`
	ParagraphResults []ParagraphResult `json:"paragraph_results,omitempty"`
}

type ParagraphResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
	Label string  `json:"label,omitempty"`
}

type BatchUploadResponse struct {
	BatchID     string   `json:"batch_id"`
	TotalFiles  int      `json:"total_files"`
	Status      string   `json:"status"`
	DocumentIDs []string `json:"document_ids"`
}

type BulkUploadRequest struct {
	Students []StudentRow `json:"students"`
}

type BulkUploadResponse struct {
	Results []RowOutcome `json:"results"`
	Summary BatchSummary `json:"summary"`
}

type AssignStudentRequest struct {
	StudentID string `json:"student_id"`
}
