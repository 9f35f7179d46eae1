package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("listing-wizard/usecase")

// State is the draft together with the steps resolved for it and the view of
// the active step.
type State struct {
	Draft *domain.ListingDraft `json:"draft"`
	Steps []domain.Step        `json:"steps"`
	View  StepView             `json:"view"`
}

// Wizard drives one listing draft from category selection to submission.
// The storage backend and the collaborator transport are injected, so the
// full-page flow and the embedded widget share this implementation.
type Wizard struct {
	store     *ProgressStore
	fetcher   *CatalogFetcher
	renderer  *Renderer
	locator   *Locator
	submitter domain.ListingSubmitter

	events   domain.EventPublisher
	photos   domain.PhotoArchive
	notifier domain.ListingNotifier

	metrics *metrics.MetricsManager
	logger  *logger.Logger
}

// Option configures optional Wizard collaborators.
type Option func(*Wizard)

// WithEventPublisher publishes listing.created after each submission.
func WithEventPublisher(p domain.EventPublisher) Option {
	return func(w *Wizard) { w.events = p }
}

// WithPhotoArchive copies submitted photos to object storage.
func WithPhotoArchive(a domain.PhotoArchive) Option {
	return func(w *Wizard) { w.photos = a }
}

// WithListingNotifier e-mails the seller after each submission.
func WithListingNotifier(n domain.ListingNotifier) Option {
	return func(w *Wizard) { w.notifier = n }
}

// NewWizard creates a Wizard.
func NewWizard(
	store *ProgressStore,
	fetcher *CatalogFetcher,
	renderer *Renderer,
	locator *Locator,
	submitter domain.ListingSubmitter,
	m *metrics.MetricsManager,
	log *logger.Logger,
	opts ...Option,
) *Wizard {
	w := &Wizard{
		store:     store,
		fetcher:   fetcher,
		renderer:  renderer,
		locator:   locator,
		submitter: submitter,
		metrics:   m,
		logger:    log.Named("Wizard"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ignoreCatalogError drops failures that are already recorded on the
// session's catalog state and shown in the view.
func ignoreCatalogError(err error) error {
	if errors.Is(err, domain.ErrCatalogUnavailable) || errors.Is(err, ErrStaleResponse) {
		return nil
	}
	return err
}

// Open prepares sess for use. The first call per session rehydrates it: the
// stored draft is loaded and every catalog list it depends on is fetched in
// parallel, so specification steps can render right away. The cursor is
// never moved.
func (w *Wizard) Open(ctx context.Context, sess *Session) error {
	if sess.isHydrated() {
		return nil
	}
	ctx, span := tracer.Start(ctx, "Wizard.Open")
	defer span.End()

	d, err := w.store.Load(ctx, sess.Key)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCatalogError(w.fetcher.FetchCategories(gctx, sess.Catalog))
	})
	if d.CategoryName != "" {
		g.Go(func() error {
			return ignoreCatalogError(w.fetcher.FetchBrands(gctx, sess.Catalog, d.CategoryName))
		})
	}
	if d.BrandID != "" {
		g.Go(func() error {
			return ignoreCatalogError(w.fetcher.FetchItems(gctx, sess.Catalog, d.BrandID, d.CategoryName))
		})
	}
	if d.ItemID != "" {
		g.Go(func() error {
			_, err := w.fetcher.FetchSpecifications(gctx, sess.Catalog, d.ItemID)
			return ignoreCatalogError(err)
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return err
	}

	if specs, ok := sess.Catalog.SpecificationsFor(d.ItemID); ok {
		if pruned := domain.PruneAnswers(d.Specs, specs); len(pruned) != len(d.Specs) {
			w.logger.Info("Dropping answers for specifications the item no longer has",
				zap.String("session", sess.Key), zap.Int("dropped", len(d.Specs)-len(pruned)))
			if _, err := w.store.Patch(ctx, sess.Key, domain.DraftPatch{Specs: pruned}); err != nil {
				return err
			}
		}
	}

	sess.setHydrated()
	span.SetAttributes(attribute.String("draft.id", d.ID), attribute.Int("draft.step", d.CurrentStep))
	w.logger.Debug("Session rehydrated", zap.String("session", sess.Key), zap.String("draft_id", d.ID), zap.Int("step", d.CurrentStep))
	return nil
}

// specifications returns the specifications of the draft's item, fetching
// them when the session does not hold them.
func (w *Wizard) specifications(ctx context.Context, sess *Session, d *domain.ListingDraft) ([]domain.Specification, error) {
	if d.ItemID == "" {
		return nil, nil
	}
	if specs, ok := sess.Catalog.SpecificationsFor(d.ItemID); ok {
		return specs, nil
	}
	return w.fetcher.FetchSpecifications(ctx, sess.Catalog, d.ItemID)
}

func (w *Wizard) stateOf(ctx context.Context, sess *Session, d *domain.ListingDraft, query string) *State {
	snap := sess.Catalog.Snapshot()
	return &State{
		Draft: d,
		Steps: domain.ResolveSteps(specificationsOf(d, snap)),
		View:  w.renderer.Render(ctx, d, snap, query, sess.AuthRequired()),
	}
}

// State returns the current draft with its steps and the active step's view.
func (w *Wizard) State(ctx context.Context, sess *Session, query string) (*State, error) {
	d, err := w.store.Load(ctx, sess.Key)
	if err != nil {
		return nil, err
	}
	if _, err := w.specifications(ctx, sess, d); ignoreCatalogError(err) != nil {
		return nil, err
	}
	return w.stateOf(ctx, sess, d, query), nil
}

// SelectCategory stores the category, clears everything downstream and loads
// its brands. A failed brand fetch is reported through the view.
func (w *Wizard) SelectCategory(ctx context.Context, sess *Session, id, name string) (*State, error) {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if id == "" || name == "" {
		return nil, fmt.Errorf("%w: category id and name are required", domain.ErrInvalidInput)
	}
	d, err := w.store.Update(ctx, sess.Key, func(d *domain.ListingDraft) error {
		d.ClearFromCategory()
		d.CategoryID, d.CategoryName = id, name
		d.CurrentStep = domain.BrandStep
		return nil
	})
	if err != nil {
		return nil, err
	}
	sess.Catalog.Invalidate(ListBrands, ListItems, ListSpecifications)
	w.logger.Info("Category selected", zap.String("session", sess.Key), zap.String("category_id", id))

	if err := w.fetcher.FetchBrands(ctx, sess.Catalog, name); ignoreCatalogError(err) != nil {
		return nil, err
	}
	return w.stateOf(ctx, sess, d, ""), nil
}

// SelectBrand stores the brand, clears the item and everything after it and
// loads the brand's devices.
func (w *Wizard) SelectBrand(ctx context.Context, sess *Session, id, name string) (*State, error) {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if id == "" || name == "" {
		return nil, fmt.Errorf("%w: brand id and name are required", domain.ErrInvalidInput)
	}
	var categoryName string
	d, err := w.store.Update(ctx, sess.Key, func(d *domain.ListingDraft) error {
		if d.CategoryID == "" {
			return fmt.Errorf("%w: select a category first", domain.ErrStepUnavailable)
		}
		d.ClearFromBrand()
		d.BrandID, d.BrandName = id, name
		d.CurrentStep = domain.DeviceStep
		categoryName = d.CategoryName
		return nil
	})
	if err != nil {
		return nil, err
	}
	sess.Catalog.Invalidate(ListItems, ListSpecifications)
	w.logger.Info("Brand selected", zap.String("session", sess.Key), zap.String("brand_id", id))

	if err := w.fetcher.FetchItems(ctx, sess.Catalog, id, categoryName); ignoreCatalogError(err) != nil {
		return nil, err
	}
	return w.stateOf(ctx, sess, d, ""), nil
}

// SelectItem stores the device, clears previous answers, photos and location,
// loads the device's specifications and then advances past the device step.
func (w *Wizard) SelectItem(ctx context.Context, sess *Session, id, name string) (*State, error) {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if id == "" || name == "" {
		return nil, fmt.Errorf("%w: item id and name are required", domain.ErrInvalidInput)
	}
	d, err := w.store.Update(ctx, sess.Key, func(d *domain.ListingDraft) error {
		if d.BrandID == "" {
			return fmt.Errorf("%w: select a brand first", domain.ErrStepUnavailable)
		}
		d.ClearFromItem()
		d.ItemID, d.ItemName = id, name
		d.CurrentStep = domain.DeviceStep
		return nil
	})
	if err != nil {
		return nil, err
	}
	sess.Catalog.Invalidate(ListSpecifications)
	w.logger.Info("Item selected", zap.String("session", sess.Key), zap.String("item_id", id))

	if _, err := w.fetcher.FetchSpecifications(ctx, sess.Catalog, id); err != nil {
		if ignoreCatalogError(err) != nil {
			return nil, err
		}
		return w.stateOf(ctx, sess, d, ""), nil
	}
	return w.AdvanceAfterSpecifications(ctx, sess)
}

// AdvanceAfterSpecifications moves the cursor to where the wizard goes once
// the selected item's specifications are loaded: the first specification
// step, or photos/location for an item without specifications.
func (w *Wizard) AdvanceAfterSpecifications(ctx context.Context, sess *Session) (*State, error) {
	d, err := w.store.Update(ctx, sess.Key, func(d *domain.ListingDraft) error {
		specs, ok := sess.Catalog.SpecificationsFor(d.ItemID)
		if !ok {
			return fmt.Errorf("%w: specifications are not loaded", domain.ErrStepUnavailable)
		}
		d.CurrentStep = domain.StepAfterSpecificationsLoaded(len(specs))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w.stateOf(ctx, sess, d, ""), nil
}

// AnswerSpecification records the answer to one specification and advances:
// to photos/location once every required specification is answered,
// otherwise to the next specification step. Later answers are kept.
func (w *Wizard) AnswerSpecification(ctx context.Context, sess *Session, specID, value string) (*State, error) {
	current, err := w.store.Load(ctx, sess.Key)
	if err != nil {
		return nil, err
	}
	if current.ItemID == "" {
		return nil, fmt.Errorf("%w: select a device first", domain.ErrStepUnavailable)
	}
	specs, err := w.specifications(ctx, sess, current)
	if err != nil {
		return nil, err
	}
	spec, position, ok := domain.FindSpecification(specs, specID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSpecification, specID)
	}
	normalized, err := domain.NormalizeAnswer(spec, value)
	if err != nil {
		return nil, err
	}

	itemID := current.ItemID
	d, err := w.store.Update(ctx, sess.Key, func(d *domain.ListingDraft) error {
		if d.ItemID != itemID {
			return fmt.Errorf("%w: the device changed", domain.ErrRevisionConflict)
		}
		if normalized == "" {
			delete(d.Specs, spec.ID)
		} else {
			d.Specs[spec.ID] = normalized
		}
		d.CurrentStep = domain.StepAfterAnswer(specs, d.Specs, domain.FirstSpecificationStep+position)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w.stateOf(ctx, sess, d, ""), nil
}

// GoToStep moves the cursor to n. Steps past the furthest one the draft's
// data supports are refused.
func (w *Wizard) GoToStep(ctx context.Context, sess *Session, n int) (*State, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: step %d", domain.ErrInvalidInput, n)
	}
	current, err := w.store.Load(ctx, sess.Key)
	if err != nil {
		return nil, err
	}
	specs, err := w.specifications(ctx, sess, current)
	if err != nil {
		return nil, err
	}
	if n > domain.MaxReachableStep(current, specs) {
		return nil, fmt.Errorf("%w: step %d", domain.ErrStepUnavailable, n)
	}
	step := n
	d, err := w.store.Patch(ctx, sess.Key, domain.DraftPatch{CurrentStep: &step})
	if err != nil {
		return nil, err
	}
	return w.stateOf(ctx, sess, d, ""), nil
}

// ClearStep resets the draft to how it was before step n was entered and
// drops the catalog lists that depended on what was cleared.
func (w *Wizard) ClearStep(ctx context.Context, sess *Session, n int) (*State, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: step %d", domain.ErrInvalidInput, n)
	}
	current, err := w.store.Load(ctx, sess.Key)
	if err != nil {
		return nil, err
	}
	specs, err := w.specifications(ctx, sess, current)
	if err != nil {
		return nil, err
	}
	d, err := w.store.ClearStep(ctx, sess.Key, n, specs)
	if err != nil {
		return nil, err
	}
	switch n {
	case domain.CategoryStep:
		sess.Catalog.Invalidate(ListBrands, ListItems, ListSpecifications)
	case domain.BrandStep:
		sess.Catalog.Invalidate(ListItems, ListSpecifications)
	case domain.DeviceStep:
		sess.Catalog.Invalidate(ListSpecifications)
	}
	return w.stateOf(ctx, sess, d, ""), nil
}

// Reset discards the draft and every list that depended on it.
func (w *Wizard) Reset(ctx context.Context, sess *Session) error {
	if err := w.store.Reset(ctx, sess.Key); err != nil {
		return err
	}
	sess.Catalog.Invalidate(ListBrands, ListItems, ListSpecifications)
	w.logger.Info("Draft discarded", zap.String("session", sess.Key))
	return nil
}

// AddImages appends the valid files to the draft in upload order. When the
// batch would push the draft past MaxImages nothing is added. Files that are
// too large or not images are skipped and named in the returned
// *domain.ImageError, which accompanies an otherwise successful state.
func (w *Wizard) AddImages(ctx context.Context, sess *Session, files []domain.ImageFile) (*State, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files", domain.ErrInvalidInput)
	}
	var rejected []domain.RejectedImage
	d, err := w.store.Update(ctx, sess.Key, func(d *domain.ListingDraft) error {
		if d.ItemID == "" {
			return fmt.Errorf("%w: select a device first", domain.ErrStepUnavailable)
		}
		if len(d.Images)+len(files) > domain.MaxImages {
			return &domain.ImageError{CapacityExceeded: true, Limit: domain.MaxImages}
		}
		rejected = rejected[:0]
		for _, f := range files {
			if r := domain.CheckImage(f); r != nil {
				rejected = append(rejected, *r)
				continue
			}
			d.Images = append(d.Images, f.DataURI())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	state := w.stateOf(ctx, sess, d, "")
	if len(rejected) > 0 {
		w.logger.Info("Some images were rejected", zap.String("session", sess.Key), zap.Int("rejected", len(rejected)))
		return state, &domain.ImageError{Rejected: rejected, Limit: domain.MaxImages}
	}
	return state, nil
}

// RemoveImage deletes the image at index.
func (w *Wizard) RemoveImage(ctx context.Context, sess *Session, index int) (*State, error) {
	d, err := w.store.Update(ctx, sess.Key, func(d *domain.ListingDraft) error {
		if index < 0 || index >= len(d.Images) {
			return fmt.Errorf("%w: no image at index %d", domain.ErrInvalidInput, index)
		}
		d.Images = append(d.Images[:index], d.Images[index+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w.stateOf(ctx, sess, d, ""), nil
}

// SetLocation stores a typed address. Coordinates are replaced as given;
// leaving them nil clears previously detected ones.
func (w *Wizard) SetLocation(ctx context.Context, sess *Session, location string, coords domain.Coordinates) (*State, error) {
	if (coords.Latitude == nil) != (coords.Longitude == nil) {
		return nil, fmt.Errorf("%w: latitude and longitude go together", domain.ErrInvalidInput)
	}
	location = strings.TrimSpace(location)
	d, err := w.store.Update(ctx, sess.Key, func(d *domain.ListingDraft) error {
		if d.ItemID == "" {
			return fmt.Errorf("%w: select a device first", domain.ErrStepUnavailable)
		}
		domain.DraftPatch{Location: &location, Coordinates: &coords}.Apply(d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w.stateOf(ctx, sess, d, ""), nil
}

// DetectLocation locates the device through provider, resolves the address
// and stores both. Failures come back as *domain.LocationError.
func (w *Wizard) DetectLocation(ctx context.Context, sess *Session, provider domain.PositionProvider) (*State, error) {
	ctx, span := tracer.Start(ctx, "Wizard.DetectLocation")
	defer span.End()

	current, err := w.store.Load(ctx, sess.Key)
	if err != nil {
		return nil, err
	}
	if current.ItemID == "" {
		return nil, fmt.Errorf("%w: select a device first", domain.ErrStepUnavailable)
	}

	pos, address, err := w.locator.Detect(ctx, provider)
	if err != nil {
		span.RecordError(err)
		w.logger.Warn("Location detection failed", zap.String("session", sess.Key), zap.Error(err))
		return nil, err
	}
	lat, lng := pos.Latitude, pos.Longitude
	d, err := w.store.Patch(ctx, sess.Key, domain.DraftPatch{
		Location:    &address,
		Coordinates: &domain.Coordinates{Latitude: &lat, Longitude: &lng},
	})
	if err != nil {
		return nil, err
	}
	return w.stateOf(ctx, sess, d, ""), nil
}
