package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/adapter/repository/memory"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressStore_LoadEmptyReturnsFreshDraft(t *testing.T) {
	store := NewProgressStore(memory.NewDraftRepository(), metrics.NewMetricsManager("store_test"), logger.NewNop())
	d, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, domain.CategoryStep, d.CurrentStep)
	assert.Zero(t, d.Revision)
}

func TestProgressStore_UpdateDetectsConcurrentWriter(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewDraftRepository()
	m := metrics.NewMetricsManager("store_test")
	store := NewProgressStore(repo, m, logger.NewNop())

	_, err := store.Patch(ctx, "s1", domain.DraftPatch{CategoryID: strPtr("c1"), CategoryName: strPtr("Phones")})
	require.NoError(t, err)

	_, err = store.Update(ctx, "s1", func(d *domain.ListingDraft) error {
		// Another tab saves in between our read and our write.
		other, err := repo.Load(ctx, "s1")
		require.NoError(t, err)
		other.CategoryName = "Tablets"
		require.NoError(t, repo.Save(ctx, "s1", other, other.Revision))

		d.CategoryName = "Laptops"
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrRevisionConflict)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DraftConflictsTotal))

	stored, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Tablets", stored.CategoryName, "the losing write is not applied")
}

func TestProgressStore_UpdateAbortsOnCallbackError(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewDraftRepository()
	store := NewProgressStore(repo, metrics.NewMetricsManager("store_test"), logger.NewNop())

	boom := errors.New("boom")
	_, err := store.Update(ctx, "s1", func(d *domain.ListingDraft) error {
		d.CategoryID = "c1"
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, err = repo.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
}

func TestProgressStore_ClearStep(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore(memory.NewDraftRepository(), metrics.NewMetricsManager("store_test"), logger.NewNop())
	specs := domain.SortSpecifications([]domain.Specification{storageSpec, colorSpec})

	_, err := store.Update(ctx, "s1", func(d *domain.ListingDraft) error {
		d.CategoryID, d.BrandID, d.ItemID = "c1", "b1", "i1"
		d.Specs = map[string]string{storageSpec.ID: "128GB", colorSpec.ID: "Red"}
		d.Images = []string{"data:image/png;base64,AA=="}
		d.Location = "Cupertino"
		d.CurrentStep = domain.PhotosStep(2)
		return nil
	})
	require.NoError(t, err)

	d, err := store.ClearStep(ctx, "s1", domain.FirstSpecificationStep+1, specs)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{storageSpec.ID: "128GB"}, d.Specs, "answers before the cleared step are kept")
	assert.Empty(t, d.Images)
	assert.Empty(t, d.Location)
	assert.Equal(t, domain.FirstSpecificationStep+1, d.CurrentStep)
}

func TestProgressStore_OutdatedClientVersionConflicts(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewDraftRepository()
	m := metrics.NewMetricsManager("store_test")
	store := NewProgressStore(repo, m, logger.NewNop())

	seen, err := store.Patch(ctx, "s1", domain.DraftPatch{CategoryID: strPtr("c1"), CategoryName: strPtr("Phones")})
	require.NoError(t, err)
	_, err = store.Patch(ctx, "s1", domain.DraftPatch{BrandID: strPtr("b1"), BrandName: strPtr("Apple")})
	require.NoError(t, err)

	staleCtx := WithExpectedVersion(ctx, VersionOf(seen))
	_, err = store.Patch(staleCtx, "s1", domain.DraftPatch{BrandID: strPtr("b2"), BrandName: strPtr("Samsung")})
	assert.ErrorIs(t, err, domain.ErrRevisionConflict)
	assert.ErrorIs(t, store.Reset(staleCtx, "s1"), domain.ErrRevisionConflict)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.DraftConflictsTotal))

	stored, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "b1", stored.BrandID)
}

func TestProgressStore_ExpectedVersionFollowsOwnWrites(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore(memory.NewDraftRepository(), metrics.NewMetricsManager("store_test"), logger.NewNop())

	first, err := store.Patch(ctx, "s1", domain.DraftPatch{CategoryID: strPtr("c1"), CategoryName: strPtr("Phones")})
	require.NoError(t, err)

	reqCtx := WithExpectedVersion(ctx, VersionOf(first))
	_, err = store.Patch(reqCtx, "s1", domain.DraftPatch{BrandID: strPtr("b1"), BrandName: strPtr("Apple")})
	require.NoError(t, err)
	second, err := store.Patch(reqCtx, "s1", domain.DraftPatch{ItemID: strPtr("i1"), ItemName: strPtr("iPhone 13")})
	require.NoError(t, err)
	assert.Equal(t, first.Revision+2, second.Revision)

	require.NoError(t, store.Reset(reqCtx, "s1"))
}

func TestProgressStore_UnsavedDraftAcceptsFreshView(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore(memory.NewDraftRepository(), metrics.NewMetricsManager("store_test"), logger.NewNop())

	// Nothing is stored yet, so every load mints a new id.
	shown, err := store.Load(ctx, "s1")
	require.NoError(t, err)

	d, err := store.Patch(WithExpectedVersion(ctx, VersionOf(shown)), "s1", domain.DraftPatch{CategoryID: strPtr("c1"), CategoryName: strPtr("Phones")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Revision)

	// A view of a discarded draft does not match its replacement.
	require.NoError(t, store.Reset(ctx, "s1"))
	_, err = store.Patch(ctx, "s1", domain.DraftPatch{CategoryID: strPtr("c2"), CategoryName: strPtr("Laptops")})
	require.NoError(t, err)
	_, err = store.Load(WithExpectedVersion(ctx, VersionOf(d)), "s1")
	assert.ErrorIs(t, err, domain.ErrRevisionConflict)
}

func strPtr(s string) *string { return &s }
