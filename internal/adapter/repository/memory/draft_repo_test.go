package memory

import (
	"context"
	"testing"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftRepository_LoadMissing(t *testing.T) {
	repo := NewDraftRepository()
	_, err := repo.Load(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
}

func TestDraftRepository_SaveBumpsRevision(t *testing.T) {
	ctx := context.Background()
	repo := NewDraftRepository()

	d := domain.NewDraft()
	d.CategoryID = "c1"
	require.NoError(t, repo.Save(ctx, "s1", d, 0))
	assert.Equal(t, int64(1), d.Revision)

	loaded, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "c1", loaded.CategoryID)
	assert.Equal(t, int64(1), loaded.Revision)

	loaded.BrandID = "b1"
	require.NoError(t, repo.Save(ctx, "s1", loaded, 1))
	assert.Equal(t, int64(2), loaded.Revision)
}

func TestDraftRepository_StaleRevisionConflicts(t *testing.T) {
	ctx := context.Background()
	repo := NewDraftRepository()
	require.NoError(t, repo.Save(ctx, "s1", domain.NewDraft(), 0))

	tabA, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	tabB, err := repo.Load(ctx, "s1")
	require.NoError(t, err)

	tabA.CategoryID = "phones"
	require.NoError(t, repo.Save(ctx, "s1", tabA, 1))

	tabB.CategoryID = "laptops"
	assert.ErrorIs(t, repo.Save(ctx, "s1", tabB, 1), domain.ErrRevisionConflict)

	stored, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "phones", stored.CategoryID)
}

func TestDraftRepository_FirstSaveMustExpectZero(t *testing.T) {
	repo := NewDraftRepository()
	assert.ErrorIs(t, repo.Save(context.Background(), "s1", domain.NewDraft(), 3), domain.ErrRevisionConflict)
}

func TestDraftRepository_RecreatedDraftRejectsOldWriter(t *testing.T) {
	ctx := context.Background()
	repo := NewDraftRepository()

	old := domain.NewDraft()
	require.NoError(t, repo.Save(ctx, "s1", old, 0))
	stale := old.Clone()

	require.NoError(t, repo.Delete(ctx, "s1"))
	fresh := domain.NewDraft()
	require.NoError(t, repo.Save(ctx, "s1", fresh, 0))
	require.Equal(t, stale.Revision, fresh.Revision)

	stale.CategoryID = "phones"
	assert.ErrorIs(t, repo.Save(ctx, "s1", stale, stale.Revision), domain.ErrRevisionConflict)

	stored, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, stored.ID)
	assert.Empty(t, stored.CategoryID)
}

func TestDraftRepository_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewDraftRepository()
	d := domain.NewDraft()
	d.Specs["storage"] = "256GB"
	require.NoError(t, repo.Save(ctx, "s1", d, 0))

	loaded, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	loaded.Specs["storage"] = "512GB"

	again, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "256GB", again.Specs["storage"])
}

func TestDraftRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewDraftRepository()
	require.NoError(t, repo.Save(ctx, "s1", domain.NewDraft(), 0))
	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err := repo.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
	require.NoError(t, repo.Delete(ctx, "missing"))
}
