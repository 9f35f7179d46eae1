package usecase

import (
	"context"
	"testing"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedCatalog blocks Brands for one category until released.
type gatedCatalog struct {
	*fakeCatalog
	category string
	started  chan struct{}
	release  chan struct{}
}

func (c *gatedCatalog) Brands(ctx context.Context, categoryName string) ([]domain.Brand, error) {
	if categoryName == c.category {
		close(c.started)
		<-c.release
	}
	return c.fakeCatalog.Brands(ctx, categoryName)
}

func TestCatalogFetcher_DiscardsStaleResponse(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.brands["Laptops"] = []domain.Brand{{ID: "b9", Name: "Lenovo"}}
	gated := &gatedCatalog{fakeCatalog: catalog, category: "Phones", started: make(chan struct{}), release: make(chan struct{})}
	m := metrics.NewMetricsManager("catalog_test")
	fetcher := NewCatalogFetcher(gated, m, logger.NewNop())
	st := NewCatalogState()

	slow := make(chan error, 1)
	go func() { slow <- fetcher.FetchBrands(ctx, st, "Phones") }()
	<-gated.started

	require.NoError(t, fetcher.FetchBrands(ctx, st, "Laptops"))
	close(gated.release)

	assert.ErrorIs(t, <-slow, ErrStaleResponse)
	snap := st.Snapshot()
	require.Len(t, snap.Brands, 1)
	assert.Equal(t, "Lenovo", snap.Brands[0].Name, "the older response does not overwrite the newer one")
	assert.False(t, snap.Loading[ListBrands])
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StaleResponsesDropped.WithLabelValues(string(ListBrands))))
}

func TestCatalogState_InvalidateDropsInFlight(t *testing.T) {
	st := NewCatalogState()
	seq := st.begin(ListItems)
	assert.True(t, st.Snapshot().Loading[ListItems])

	st.Invalidate(ListItems)
	applied := st.commit(ListItems, seq, nil, func() { st.items = []domain.Item{iphone} })
	assert.False(t, applied)
	snap := st.Snapshot()
	assert.Empty(t, snap.Items)
	assert.False(t, snap.Loading[ListItems])
}

func TestCatalogFetcher_SpecificationsSorted(t *testing.T) {
	fetcher := NewCatalogFetcher(newFakeCatalog(), metrics.NewMetricsManager("catalog_test"), logger.NewNop())
	st := NewCatalogState()

	specs, err := fetcher.FetchSpecifications(context.Background(), st, iphone.ID)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, storageSpec.ID, specs[0].ID)
	assert.Equal(t, colorSpec.ID, specs[1].ID)

	cached, ok := st.SpecificationsFor(iphone.ID)
	assert.True(t, ok)
	assert.Equal(t, specs, cached)
	_, ok = st.SpecificationsFor(galaxy.ID)
	assert.False(t, ok)
}

func TestCatalogFetcher_Error(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.failWith(&domain.CollaboratorError{Status: 500, Message: "database offline"})
	m := metrics.NewMetricsManager("catalog_test")
	fetcher := NewCatalogFetcher(catalog, m, logger.NewNop())
	st := NewCatalogState()

	err := fetcher.FetchCategories(context.Background(), st)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.Equal(t, "database offline", st.Snapshot().Errors[ListCategories])
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CatalogFetchErrors.WithLabelValues(string(ListCategories))))
}
