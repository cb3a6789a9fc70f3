package model

type OperationKind string

const (
	OpAssess    OperationKind = "assess"
	OpCancel    OperationKind = "cancel"
	OpReprocess OperationKind = "reprocess"
)

type OperationState string

const (
	OpIdle    OperationState = "idle"
	OpLoading OperationState = "loading"
	OpSuccess OperationState = "success"
	OpError   OperationState = "error"
)

// Operation tracks one in-flight lifecycle command against a document.
// It is ephemeral: owned by the assessment controller, never persisted,
// and replaced outright when a fresh attempt starts on the same document.
type Operation struct {
	DocumentID string         `json:"document_id"`
	Kind       OperationKind  `json:"kind"`
	State      OperationState `json:"state"`
	Message    string         `json:"message,omitempty"`
}
