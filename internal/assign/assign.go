package assign

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Sendient/ai-detector-sub000/internal/logger"
	"github.com/Sendient/ai-detector-sub000/internal/model"
	"github.com/Sendient/ai-detector-sub000/internal/registry"
	"github.com/Sendient/ai-detector-sub000/pkg/errors"
)

// AssignClient is the slice of the backend client the resolver needs.
type AssignClient interface {
	AssignStudent(ctx context.Context, id, studentID string) (*model.Document, error)
	ListStudents(ctx context.Context) ([]model.Student, error)
}

// BackgroundRefresher reconciles server-side side effects of an
// assignment without blocking the caller on errors.
type BackgroundRefresher interface {
	Refresh(ctx context.Context, background bool) error
}

// Resolver links documents to students, a many-to-one relation maintained
// independently of processing status. It keeps the last fetched student
// list so a successful assignment can denormalize details without an
// extra round trip.
type Resolver struct {
	client   AssignClient
	registry *registry.Registry
	poller   BackgroundRefresher

	mu       sync.RWMutex
	students []model.Student

	log zerolog.Logger
}

func NewResolver(client AssignClient, reg *registry.Registry, poller BackgroundRefresher) *Resolver {
	return &Resolver{
		client:   client,
		registry: reg,
		poller:   poller,
		log:      logger.Component("assign"),
	}
}

// AssignStudent links a document to a student. On success the registry is
// patched from the cached student list and a background refresh picks up
// any server-side side effects. On failure the registry is untouched.
func (r *Resolver) AssignStudent(ctx context.Context, documentID, studentID string) (*model.Document, error) {
	if _, err := r.client.AssignStudent(ctx, documentID, studentID); err != nil {
		r.log.Error().Err(err).
			Str("document_id", documentID).
			Str("student_id", studentID).
			Msg("Assignment failed")
		return nil, err
	}

	patch := registry.Patch{StudentID: &studentID}
	if student := r.cachedStudent(studentID); student != nil {
		patch.StudentDetails = student.Details()
	}

	doc, err := r.registry.Patch(ctx, documentID, patch)
	if err != nil {
		return nil, err
	}

	r.log.Info().
		Str("document_id", documentID).
		Str("student_id", studentID).
		Msg("Student assigned")

	if err := r.poller.Refresh(ctx, true); err != nil {
		r.log.Warn().Err(err).Msg("Post-assignment refresh failed")
	}
	return doc, nil
}

// ListCandidates returns every student of the current user except the one
// already assigned to the document; any other student may be reassigned.
func (r *Resolver) ListCandidates(ctx context.Context, documentID string) ([]model.Student, error) {
	doc, err := r.registry.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.ErrDocumentNotFound
	}

	students, err := r.client.ListStudents(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.students = students
	r.mu.Unlock()

	candidates := make([]model.Student, 0, len(students))
	for _, s := range students {
		if doc.StudentID != nil && s.ID == *doc.StudentID {
			continue
		}
		candidates = append(candidates, s)
	}
	return candidates, nil
}

func (r *Resolver) cachedStudent(id string) *model.Student {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.students {
		if r.students[i].ID == id {
			return &r.students[i]
		}
	}
	return nil
}
