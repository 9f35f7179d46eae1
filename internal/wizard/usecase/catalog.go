package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ListKind identifies one of the four catalog lists a session holds.
type ListKind string

const (
	ListCategories     ListKind = "categories"
	ListBrands         ListKind = "brands"
	ListItems          ListKind = "items"
	ListSpecifications ListKind = "specifications"
)

// ErrStaleResponse is returned by a fetch whose response was discarded
// because a newer request of the same kind was issued meanwhile.
var ErrStaleResponse = errors.New("response superseded by a newer request")

const genericCatalogError = "Could not load the catalog. Please try again."

type listStatus struct {
	seq     uint64
	loading bool
	err     string
}

// CatalogState is the in-memory catalog of one wizard session. Each list has
// its own loading flag, error message and request sequence.
type CatalogState struct {
	mu             sync.Mutex
	categories     []domain.Category
	brands         []domain.Brand
	items          []domain.Item
	specifications []domain.Specification
	specsItemID    string
	status         map[ListKind]*listStatus
}

// NewCatalogState returns an empty catalog.
func NewCatalogState() *CatalogState {
	return &CatalogState{
		status: map[ListKind]*listStatus{
			ListCategories:     {},
			ListBrands:         {},
			ListItems:          {},
			ListSpecifications: {},
		},
	}
}

// CatalogSnapshot is an immutable copy of a CatalogState.
type CatalogSnapshot struct {
	Categories     []domain.Category      `json:"categories"`
	Brands         []domain.Brand         `json:"brands"`
	Items          []domain.Item          `json:"items"`
	Specifications []domain.Specification `json:"specifications"`

	// SpecificationsItemID is the item the specifications were loaded for.
	SpecificationsItemID string              `json:"specificationsItemId,omitempty"`
	Loading              map[ListKind]bool   `json:"loading"`
	Errors               map[ListKind]string `json:"errors"`
}

// Snapshot copies the current lists.
func (c *CatalogState) Snapshot() CatalogSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := CatalogSnapshot{
		Categories:           append([]domain.Category{}, c.categories...),
		Brands:               append([]domain.Brand{}, c.brands...),
		Items:                append([]domain.Item{}, c.items...),
		Specifications:       append([]domain.Specification{}, c.specifications...),
		SpecificationsItemID: c.specsItemID,
		Loading:              map[ListKind]bool{},
		Errors:               map[ListKind]string{},
	}
	for kind, st := range c.status {
		snap.Loading[kind] = st.loading
		if st.err != "" {
			snap.Errors[kind] = st.err
		}
	}
	return snap
}

// SpecificationsFor returns the loaded specifications if they belong to itemID.
func (c *CatalogState) SpecificationsFor(itemID string) ([]domain.Specification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if itemID == "" || c.specsItemID != itemID {
		return nil, false
	}
	return append([]domain.Specification{}, c.specifications...), true
}

// Invalidate empties the given lists and their errors. The sequence is bumped
// so responses still in flight for them are discarded.
func (c *CatalogState) Invalidate(kinds ...ListKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range kinds {
		st := c.status[k]
		st.seq++
		st.loading = false
		st.err = ""
		c.clearLocked(k)
	}
}

func (c *CatalogState) clearLocked(k ListKind) {
	switch k {
	case ListCategories:
		c.categories = nil
	case ListBrands:
		c.brands = nil
	case ListItems:
		c.items = nil
	case ListSpecifications:
		c.specifications = nil
		c.specsItemID = ""
	}
}

func (c *CatalogState) begin(k ListKind) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.status[k]
	st.seq++
	st.loading = true
	return st.seq
}

// commit applies fn under the lock only if seq is still the latest request
// of kind k.
func (c *CatalogState) commit(k ListKind, seq uint64, fetchErr error, apply func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.status[k]
	if st.seq != seq {
		return false
	}
	st.loading = false
	if fetchErr != nil {
		st.err = catalogErrorMessage(fetchErr)
		c.clearLocked(k)
		return true
	}
	st.err = ""
	apply()
	return true
}

func catalogErrorMessage(err error) string {
	var ce *domain.CollaboratorError
	if errors.As(err, &ce) && ce.Status != 0 && ce.Message != "" {
		return ce.Message
	}
	return genericCatalogError
}

// CatalogFetcher runs the one-shot catalog requests and commits their results
// into a CatalogState. There are no retries and no caching.
type CatalogFetcher struct {
	client  domain.CatalogClient
	metrics *metrics.MetricsManager
	logger  *logger.Logger
}

// NewCatalogFetcher creates a CatalogFetcher.
func NewCatalogFetcher(client domain.CatalogClient, m *metrics.MetricsManager, log *logger.Logger) *CatalogFetcher {
	return &CatalogFetcher{client: client, metrics: m, logger: log.Named("CatalogFetcher")}
}

func fetch[T any](ctx context.Context, f *CatalogFetcher, st *CatalogState, kind ListKind, call func(context.Context) (T, error), apply func(T)) error {
	ctx, span := tracer.Start(ctx, "CatalogFetcher."+string(kind))
	defer span.End()

	seq := st.begin(kind)
	result, err := call(ctx)
	if err != nil {
		span.RecordError(err)
	}
	if !st.commit(kind, seq, err, func() { apply(result) }) {
		f.metrics.StaleResponsesDropped.WithLabelValues(string(kind)).Inc()
		f.logger.Debug("Discarded stale catalog response", zap.String("list", string(kind)), zap.Uint64("seq", seq))
		span.SetAttributes(attribute.Bool("stale", true))
		return ErrStaleResponse
	}
	if err != nil {
		f.metrics.CatalogFetchErrors.WithLabelValues(string(kind)).Inc()
		f.logger.Warn("Catalog fetch failed", zap.String("list", string(kind)), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", domain.ErrCatalogUnavailable, kind, err)
	}
	return nil
}

// FetchCategories replaces the category list.
func (f *CatalogFetcher) FetchCategories(ctx context.Context, st *CatalogState) error {
	return fetch(ctx, f, st, ListCategories, f.client.Categories, func(v []domain.Category) {
		st.categories = v
	})
}

// FetchBrands replaces the brand list with the brands of categoryName.
func (f *CatalogFetcher) FetchBrands(ctx context.Context, st *CatalogState, categoryName string) error {
	return fetch(ctx, f, st, ListBrands, func(ctx context.Context) ([]domain.Brand, error) {
		return f.client.Brands(ctx, categoryName)
	}, func(v []domain.Brand) {
		st.brands = v
	})
}

// FetchItems replaces the item list with the items of brandID.
func (f *CatalogFetcher) FetchItems(ctx context.Context, st *CatalogState, brandID, categoryName string) error {
	return fetch(ctx, f, st, ListItems, func(ctx context.Context) ([]domain.Item, error) {
		return f.client.Items(ctx, brandID, categoryName)
	}, func(v []domain.Item) {
		st.items = v
	})
}

// FetchSpecifications replaces the specification list with those of itemID,
// sorted by display order. It only loads data; moving the cursor is the
// caller's decision.
func (f *CatalogFetcher) FetchSpecifications(ctx context.Context, st *CatalogState, itemID string) ([]domain.Specification, error) {
	var loaded []domain.Specification
	err := fetch(ctx, f, st, ListSpecifications, func(ctx context.Context) (*domain.Item, error) {
		return f.client.Item(ctx, itemID)
	}, func(item *domain.Item) {
		var specs []domain.Specification
		if item != nil {
			specs = domain.SortSpecifications(item.Specifications)
		}
		st.specifications = specs
		st.specsItemID = itemID
		loaded = append([]domain.Specification{}, specs...)
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}
