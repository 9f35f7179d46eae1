package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"go.uber.org/zap"
)

// ProgressStore reads and writes the draft of a wizard session. Every
// mutation is persisted immediately so a reload resumes the same step.
type ProgressStore struct {
	persistence domain.ProgressPersistence
	metrics     *metrics.MetricsManager
	logger      *logger.Logger
}

// NewProgressStore creates a ProgressStore over the given backend.
func NewProgressStore(persistence domain.ProgressPersistence, m *metrics.MetricsManager, log *logger.Logger) *ProgressStore {
	return &ProgressStore{
		persistence: persistence,
		metrics:     m,
		logger:      log.Named("ProgressStore"),
	}
}

// DraftVersion identifies one saved state of a draft.
type DraftVersion struct {
	DraftID  string
	Revision int64
}

// VersionOf returns the version of d.
func VersionOf(d *domain.ListingDraft) DraftVersion {
	return DraftVersion{DraftID: d.ID, Revision: d.Revision}
}

type expectedVersionKey struct{}

type expectedVersion struct {
	mu sync.Mutex
	v  DraftVersion
}

// WithExpectedVersion makes the store refuse to act under ctx unless the
// stored draft is still at v, the version the client last saw. Every save
// made under ctx moves the expectation to the version it produced, so an
// operation that saves more than once stays consistent with itself.
func WithExpectedVersion(ctx context.Context, v DraftVersion) context.Context {
	return context.WithValue(ctx, expectedVersionKey{}, &expectedVersion{v: v})
}

func expectationOf(ctx context.Context) (*expectedVersion, bool) {
	ev, ok := ctx.Value(expectedVersionKey{}).(*expectedVersion)
	return ev, ok
}

// ExpectedVersion returns the version writes under ctx are bound to.
func ExpectedVersion(ctx context.Context) (DraftVersion, bool) {
	ev, ok := expectationOf(ctx)
	if !ok {
		return DraftVersion{}, false
	}
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.v, true
}

func (s *ProgressStore) checkVersion(ctx context.Context, key string, d *domain.ListingDraft) error {
	want, ok := ExpectedVersion(ctx)
	if !ok {
		return nil
	}

	// An unsaved draft gets a new id on every load.
	if want.Revision == 0 && d.Revision == 0 {
		return nil
	}
	if want == VersionOf(d) {
		return nil
	}
	s.metrics.DraftConflictsTotal.Inc()
	s.logger.Info("Client acted on an outdated draft",
		zap.String("session", key),
		zap.String("seen_draft", want.DraftID), zap.Int64("seen_revision", want.Revision),
		zap.String("stored_draft", d.ID), zap.Int64("stored_revision", d.Revision))
	return domain.ErrRevisionConflict
}

func advanceVersion(ctx context.Context, v DraftVersion) {
	if ev, ok := expectationOf(ctx); ok {
		ev.mu.Lock()
		ev.v = v
		ev.mu.Unlock()
	}
}

// Load returns the stored draft, or a fresh one when nothing is stored yet.
// Under WithExpectedVersion a draft that moved on yields
// domain.ErrRevisionConflict.
func (s *ProgressStore) Load(ctx context.Context, key string) (*domain.ListingDraft, error) {
	d, err := s.persistence.Load(ctx, key)
	switch {
	case errors.Is(err, domain.ErrDraftNotFound):
		d = domain.NewDraft()
	case err != nil:
		s.logger.Error("Failed to load draft", zap.String("session", key), zap.Error(err))
		return nil, fmt.Errorf("load draft: %w", err)
	default:
		d.Normalize()
	}
	if err := s.checkVersion(ctx, key, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Update loads the draft, applies fn to a copy and saves it against the
// version that was read. A concurrent writer in between, or a client acting
// on an outdated version, yields domain.ErrRevisionConflict and nothing is
// written.
func (s *ProgressStore) Update(ctx context.Context, key string, fn func(d *domain.ListingDraft) error) (*domain.ListingDraft, error) {
	current, err := s.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := s.persistence.Save(ctx, key, next, current.Revision); err != nil {
		if errors.Is(err, domain.ErrRevisionConflict) {
			s.metrics.DraftConflictsTotal.Inc()
			s.logger.Warn("Draft changed by another writer", zap.String("session", key), zap.Int64("read_revision", current.Revision))
			return nil, err
		}
		s.logger.Error("Failed to save draft", zap.String("session", key), zap.Error(err))
		return nil, fmt.Errorf("save draft: %w", err)
	}
	advanceVersion(ctx, VersionOf(next))
	return next, nil
}

// Patch shallow-merges patch into the stored draft. Keeping the dependency
// chain consistent is the caller's job.
func (s *ProgressStore) Patch(ctx context.Context, key string, patch domain.DraftPatch) (*domain.ListingDraft, error) {
	return s.Update(ctx, key, func(d *domain.ListingDraft) error {
		patch.Apply(d)
		return nil
	})
}

// ClearStep resets the draft to the state before step n was entered.
func (s *ProgressStore) ClearStep(ctx context.Context, key string, n int, specs []domain.Specification) (*domain.ListingDraft, error) {
	return s.Update(ctx, key, func(d *domain.ListingDraft) error {
		domain.RewindTo(d, n, specs)
		return nil
	})
}

// Reset discards the draft.
func (s *ProgressStore) Reset(ctx context.Context, key string) error {
	if _, ok := expectationOf(ctx); ok {
		if _, err := s.Load(ctx, key); err != nil {
			return err
		}
	}
	if err := s.persistence.Delete(ctx, key); err != nil {
		s.logger.Error("Failed to delete draft", zap.String("session", key), zap.Error(err))
		return fmt.Errorf("delete draft: %w", err)
	}
	advanceVersion(ctx, DraftVersion{})
	return nil
}
