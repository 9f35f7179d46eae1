package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Submission outcomes as counted in metrics.
const (
	outcomeCreated         = "created"
	outcomeUnauthenticated = "unauthenticated"
	outcomeInvalid         = "invalid"
	outcomeFailed          = "failed"
)

// Submit validates the draft and posts it as a listing on behalf of
// principal, the authenticated user of the calling request. A missing or
// rejected login leaves the draft untouched and flags the session so the
// review step can prompt for it. On success the draft is discarded.
func (w *Wizard) Submit(ctx context.Context, sess *Session, principal *domain.Principal) (*domain.CreatedListing, error) {
	ctx, span := tracer.Start(ctx, "Wizard.Submit")
	defer span.End()

	if principal == nil || principal.UserID == "" {
		sess.requireAuth()
		w.metrics.SubmissionsTotal.WithLabelValues(outcomeUnauthenticated).Inc()
		return nil, domain.ErrUnauthenticated
	}
	sess.Authenticate(principal)
	span.SetAttributes(attribute.String("user.id", principal.UserID))

	d, err := w.store.Load(ctx, sess.Key)
	if err != nil {
		return nil, err
	}
	specs, err := w.specifications(ctx, sess, d)
	if err != nil {
		return nil, err
	}
	if missing := domain.ValidateDraft(d, specs); len(missing) > 0 {
		w.metrics.SubmissionsTotal.WithLabelValues(outcomeInvalid).Inc()
		return nil, &domain.ValidationError{Missing: missing}
	}

	payload := domain.BuildPayload(d, specs)
	w.logger.Info("Submitting listing",
		zap.String("session", sess.Key),
		zap.String("draft_id", d.ID),
		zap.String("user_id", principal.UserID),
		zap.String("item_id", payload.ItemID))

	created, err := w.submitter.CreateListing(ctx, payload, principal)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrUnauthenticated) {
			sess.requireAuth()
			w.metrics.SubmissionsTotal.WithLabelValues(outcomeUnauthenticated).Inc()
			w.logger.Info("Listing endpoint rejected the login, draft kept", zap.String("draft_id", d.ID))
			return nil, domain.ErrUnauthenticated
		}
		w.metrics.SubmissionsTotal.WithLabelValues(outcomeFailed).Inc()
		w.logger.Error("Listing submission failed", zap.String("draft_id", d.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrSubmissionFailed, err)
	}
	if created == nil {
		created = &domain.CreatedListing{Title: payload.Title}
	}
	w.metrics.SubmissionsTotal.WithLabelValues(outcomeCreated).Inc()

	if err := w.store.Reset(ctx, sess.Key); err != nil {
		w.logger.Error("Listing created but draft could not be discarded",
			zap.String("draft_id", d.ID), zap.String("listing_id", created.ID), zap.Error(err))
	}
	sess.Catalog.Invalidate(ListBrands, ListItems, ListSpecifications)

	w.afterSubmit(ctx, d, created, principal)
	w.logger.Info("Listing created", zap.String("draft_id", d.ID), zap.String("listing_id", created.ID))
	return created, nil
}

// afterSubmit runs the side effects of a created listing. Their failures are
// logged only; the listing exists either way.
func (w *Wizard) afterSubmit(ctx context.Context, d *domain.ListingDraft, created *domain.CreatedListing, principal *domain.Principal) {
	if w.events != nil {
		event := domain.ListingCreatedEvent{
			DraftID:    d.ID,
			ListingID:  created.ID,
			UserID:     principal.UserID,
			ItemID:     d.ItemID,
			CompanyID:  d.BrandID,
			Title:      d.Title(),
			ImageCount: len(d.Images),
			CreatedAt:  time.Now().UTC(),
		}
		if err := w.events.Publish(ctx, domain.SubjectListingCreated, event); err != nil {
			w.logger.Warn("Failed to publish listing.created event", zap.String("listing_id", created.ID), zap.Error(err))
		}
	}

	if w.photos != nil && created.ID != "" {
		for i, uri := range d.Images {
			img, err := domain.ParseDataURI(fmt.Sprintf("photo-%d", i+1), uri)
			if err != nil {
				w.logger.Warn("Skipping unreadable photo", zap.Int("index", i), zap.Error(err))
				continue
			}
			if _, err := w.photos.Upload(ctx, created.ID, i, img); err != nil {
				w.logger.Warn("Failed to archive photo", zap.String("listing_id", created.ID), zap.Int("index", i), zap.Error(err))
			}
		}
	}

	if w.notifier != nil && principal.Email != "" {
		title := created.Title
		if title == "" {
			title = d.Title()
		}
		if err := w.notifier.SendListingCreated(ctx, principal.Email, title); err != nil {
			w.logger.Warn("Failed to send listing confirmation", zap.String("listing_id", created.ID), zap.Error(err))
		}
	}
}
