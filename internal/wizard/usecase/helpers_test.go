package usecase

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/adapter/repository/memory"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// A small phone catalog: an iPhone with a required Storage select and an
// optional Color, and an iPhone SE without specifications.
var (
	phones   = domain.Category{ID: "c1", Name: "Phones"}
	laptops  = domain.Category{ID: "c2", Name: "Laptops"}
	apple    = domain.Brand{ID: "b1", Name: "Apple"}
	samsung  = domain.Brand{ID: "b2", Name: "Samsung"}
	iphone   = domain.Item{ID: "i1", Name: "iPhone 13"}
	iphoneSE = domain.Item{ID: "i2", Name: "iPhone SE"}
	galaxy   = domain.Item{ID: "i3", Name: "Galaxy S22"}

	storageSpec = domain.Specification{ID: "s-storage", Name: "Storage", ValueType: domain.ValueTypeSelect, Options: []string{"128GB", "256GB"}, IsRequired: true, Order: 1}
	colorSpec   = domain.Specification{ID: "s-color", Name: "Color", ValueType: domain.ValueTypeText, Order: 2}
	ramSpec     = domain.Specification{ID: "s-ram", Name: "RAM", ValueType: domain.ValueTypeNumber, IsRequired: true, Order: 1}
)

type fakeCatalog struct {
	mu         sync.Mutex
	categories []domain.Category
	brands     map[string][]domain.Brand
	items      map[string][]domain.Item
	specs      map[string][]domain.Specification
	err        error
	calls      map[string]int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		categories: []domain.Category{phones, laptops},
		brands: map[string][]domain.Brand{
			"Phones": {apple, samsung},
		},
		items: map[string][]domain.Item{
			"b1": {iphone, iphoneSE},
			"b2": {galaxy},
		},
		specs: map[string][]domain.Specification{
			// Out of display order on purpose.
			"i1": {colorSpec, storageSpec},
			"i2": {},
			"i3": {ramSpec},
		},
		calls: map[string]int{},
	}
}

func (c *fakeCatalog) record(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[op]++
	return c.err
}

func (c *fakeCatalog) failWith(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func (c *fakeCatalog) callCount(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

func (c *fakeCatalog) Categories(context.Context) ([]domain.Category, error) {
	if err := c.record("categories"); err != nil {
		return nil, err
	}
	return append([]domain.Category{}, c.categories...), nil
}

func (c *fakeCatalog) Brands(_ context.Context, categoryName string) ([]domain.Brand, error) {
	if err := c.record("brands"); err != nil {
		return nil, err
	}
	return append([]domain.Brand{}, c.brands[categoryName]...), nil
}

func (c *fakeCatalog) Items(_ context.Context, brandID, _ string) ([]domain.Item, error) {
	if err := c.record("items"); err != nil {
		return nil, err
	}
	return append([]domain.Item{}, c.items[brandID]...), nil
}

func (c *fakeCatalog) Item(_ context.Context, itemID string) (*domain.Item, error) {
	if err := c.record("item"); err != nil {
		return nil, err
	}
	specs, ok := c.specs[itemID]
	if !ok {
		return nil, &domain.CollaboratorError{Status: http.StatusNotFound, Message: "item not found"}
	}
	return &domain.Item{ID: itemID, Specifications: append([]domain.Specification{}, specs...)}, nil
}

type MockSubmitter struct{ mock.Mock }

func (m *MockSubmitter) CreateListing(ctx context.Context, payload domain.ListingPayload, principal *domain.Principal) (*domain.CreatedListing, error) {
	args := m.Called(ctx, payload, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreatedListing), args.Error(1)
}

type fakeGeocoder struct {
	address string
	err     error
	block   bool
}

func (g *fakeGeocoder) ReverseGeocode(ctx context.Context, _, _ float64) (string, error) {
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return g.address, g.err
}

func testLocatorConfig() LocatorConfig {
	return LocatorConfig{
		LowAccuracyTimeout:          20 * time.Millisecond,
		LowAccuracyProviderTimeout:  time.Second,
		HighAccuracyTimeout:         20 * time.Millisecond,
		HighAccuracyProviderTimeout: time.Second,
		GeocodeTimeout:              20 * time.Millisecond,
		RetryBackoff:                time.Millisecond,
	}
}

type testEnv struct {
	wizard    *Wizard
	catalog   *fakeCatalog
	submitter *MockSubmitter
	geocoder  *fakeGeocoder
	repo      *memory.DraftRepository
	metrics   *metrics.MetricsManager
	registry  *SessionRegistry
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	log := logger.NewNop()
	m := metrics.NewMetricsManager("wizard_test")
	env := &testEnv{
		catalog:   newFakeCatalog(),
		submitter: &MockSubmitter{},
		geocoder:  &fakeGeocoder{address: "1 Infinite Loop, Cupertino"},
		repo:      memory.NewDraftRepository(),
		metrics:   m,
	}
	env.registry = NewSessionRegistry(time.Hour, nil, m, log)
	env.wizard = NewWizard(
		NewProgressStore(env.repo, m, log),
		NewCatalogFetcher(env.catalog, m, log),
		NewRenderer(nil),
		NewLocator(env.geocoder, testLocatorConfig(), m, log),
		env.submitter,
		m,
		log,
		opts...,
	)
	return env
}

// open returns the opened session for key, the way the session middleware
// would on each request.
func (e *testEnv) open(t *testing.T, key string) *Session {
	t.Helper()
	sess := e.registry.Get(key)
	require.NoError(t, e.wizard.Open(context.Background(), sess))
	return sess
}

// fillIPhone walks a session to the photos step of the iPhone with Storage answered.
func (e *testEnv) fillIPhone(t *testing.T, sess *Session) *State {
	t.Helper()
	ctx := context.Background()
	_, err := e.wizard.SelectCategory(ctx, sess, phones.ID, phones.Name)
	require.NoError(t, err)
	_, err = e.wizard.SelectBrand(ctx, sess, apple.ID, apple.Name)
	require.NoError(t, err)
	_, err = e.wizard.SelectItem(ctx, sess, iphone.ID, iphone.Name)
	require.NoError(t, err)
	st, err := e.wizard.AnswerSpecification(ctx, sess, storageSpec.ID, "256GB")
	require.NoError(t, err)
	return st
}

func pngFile(name string, size int) domain.ImageFile {
	data := make([]byte, size)
	copy(data, []byte("\x89PNG\r\n\x1a\n"))
	return domain.ImageFile{Name: name, ContentType: "image/png", Data: data}
}
