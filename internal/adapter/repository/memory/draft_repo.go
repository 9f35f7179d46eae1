package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
)

// DraftRepository keeps drafts in process memory. Drafts are lost on restart.
type DraftRepository struct {
	mu     sync.RWMutex
	drafts map[string]*domain.ListingDraft
}

// NewDraftRepository creates an empty in-memory draft repository.
func NewDraftRepository() *DraftRepository {
	return &DraftRepository{drafts: make(map[string]*domain.ListingDraft)}
}

// Load implements domain.ProgressPersistence.
func (r *DraftRepository) Load(_ context.Context, key string) (*domain.ListingDraft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drafts[key]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	return d.Clone(), nil
}

// Save implements domain.ProgressPersistence.
func (r *DraftRepository) Save(_ context.Context, key string, draft *domain.ListingDraft, expectedRevision int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.drafts[key]
	switch {
	case !ok && expectedRevision != 0:
		return domain.ErrRevisionConflict
	case ok && (cur.ID != draft.ID || cur.Revision != expectedRevision):
		return domain.ErrRevisionConflict
	}
	draft.Revision = expectedRevision + 1
	draft.UpdatedAt = time.Now().UTC()
	r.drafts[key] = draft.Clone()
	return nil
}

// Delete implements domain.ProgressPersistence.
func (r *DraftRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, key)
	return nil
}
