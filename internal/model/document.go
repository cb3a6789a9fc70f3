package model

import "time"

type DocumentStatus string

const (
	StatusUploaded      DocumentStatus = "UPLOADED"
	StatusQueued        DocumentStatus = "QUEUED"
	StatusProcessing    DocumentStatus = "PROCESSING"
	StatusCompleted     DocumentStatus = "COMPLETED"
	StatusError         DocumentStatus = "ERROR"
	StatusLimitExceeded DocumentStatus = "LIMIT_EXCEEDED"
)

// Active reports whether the upstream pipeline is still working on a
// document in this status.
func (s DocumentStatus) Active() bool {
	return s == StatusQueued || s == StatusProcessing
}

// Retryable reports whether a document in this status may be re-submitted
// for assessment.
func (s DocumentStatus) Retryable() bool {
	return s == StatusUploaded || s == StatusError || s == StatusLimitExceeded
}

// Document is one uploaded artifact tracked through the detection
// pipeline. Score is held as a 0-1 fraction and must be nil unless the
// status is COMPLETED.
type Document struct {
	ID               string          `json:"id"`
	OriginalFilename string          `json:"original_filename"`
	FileType         string          `json:"file_type"`
	Status           DocumentStatus  `json:"status"`
	UploadTimestamp  time.Time       `json:"upload_timestamp"`
	UpdatedAt        time.Time       `json:"updated_at"`
	WordCount        int             `json:"word_count"`
	CharacterCount   int             `json:"character_count"`
	Score            *float64        `json:"score,omitempty"`
	StudentID        *string         `json:"student_id,omitempty"`
	StudentDetails   *StudentDetails `json:"student_details,omitempty"`
}

// StudentDetails is a denormalized snapshot attached for display; the
// Student record remains the source of truth.
type StudentDetails struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
}

type Student struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	Descriptor string `json:"descriptor,omitempty"`
}

func (s Student) Details() *StudentDetails {
	return &StudentDetails{
		ID:         s.ID,
		FirstName:  s.FirstName,
		LastName:   s.LastName,
		Email:      s.Email,
		ExternalID: s.ExternalID,
	}
}
