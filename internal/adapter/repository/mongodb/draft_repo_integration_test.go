//go:build integration

package mongodb

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

var testDB *mongo.Database

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err = pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "6.0",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start MongoDB resource: %s", err)
	}
	uri := fmt.Sprintf("mongodb://%s", resource.GetHostPort("27017/tcp"))

	var client *mongo.Client
	if err := pool.Retry(func() error {
		var errRetry error
		client, errRetry = NewClient(context.Background(), uri)
		return errRetry
	}); err != nil {
		log.Fatalf("Could not connect to MongoDB: %s", err)
	}
	testDB = client.Database("listing_wizard_test")

	code := m.Run()

	_ = client.Disconnect(context.Background())
	if err := pool.Purge(resource); err != nil {
		log.Printf("Could not purge MongoDB resource: %s", err)
	}
	os.Exit(code)
}

func newTestRepo(t *testing.T) *DraftRepository {
	t.Helper()
	repo, err := NewDraftRepository(testDB, time.Hour, logger.NewNop())
	require.NoError(t, err)
	return repo
}

func TestDraftRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	key := "roundtrip-" + domain.NewDraft().ID

	lat, lng := 43.238, 76.945
	d := domain.NewDraft()
	d.CategoryID, d.CategoryName = "c1", "Phones"
	d.BrandID, d.BrandName = "b1", "Apple"
	d.ItemID, d.ItemName = "i1", "iPhone 15"
	d.Specs["storage"] = "256GB"
	d.Location = "Almaty"
	d.Latitude, d.Longitude = &lat, &lng
	d.Images = []string{"data:image/png;base64,AAAA"}
	d.CurrentStep = 5

	require.NoError(t, repo.Save(ctx, key, d, 0))
	assert.Equal(t, int64(1), d.Revision)

	loaded, err := repo.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, d.ID, loaded.ID)
	assert.Equal(t, d.Specs, loaded.Specs)
	assert.Equal(t, d.Images, loaded.Images)
	assert.Equal(t, 5, loaded.CurrentStep)
	require.NotNil(t, loaded.Latitude)
	assert.InDelta(t, lat, *loaded.Latitude, 1e-9)
}

func TestDraftRepository_RevisionConflict(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	key := "conflict-" + domain.NewDraft().ID

	require.NoError(t, repo.Save(ctx, key, domain.NewDraft(), 0))
	assert.ErrorIs(t, repo.Save(ctx, key, domain.NewDraft(), 0), domain.ErrRevisionConflict)

	tabA, err := repo.Load(ctx, key)
	require.NoError(t, err)
	tabB, err := repo.Load(ctx, key)
	require.NoError(t, err)

	tabA.CategoryID = "phones"
	require.NoError(t, repo.Save(ctx, key, tabA, tabA.Revision))
	tabB.CategoryID = "laptops"
	assert.ErrorIs(t, repo.Save(ctx, key, tabB, tabB.Revision), domain.ErrRevisionConflict)
}

func TestDraftRepository_RecreatedDraftRejectsOldWriter(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	key := "recreated-" + domain.NewDraft().ID

	old := domain.NewDraft()
	require.NoError(t, repo.Save(ctx, key, old, 0))
	stale := old.Clone()

	require.NoError(t, repo.Delete(ctx, key))
	fresh := domain.NewDraft()
	require.NoError(t, repo.Save(ctx, key, fresh, 0))
	require.Equal(t, stale.Revision, fresh.Revision)

	stale.CategoryID = "phones"
	assert.ErrorIs(t, repo.Save(ctx, key, stale, stale.Revision), domain.ErrRevisionConflict)

	stored, err := repo.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, stored.ID)
}

func TestDraftRepository_DeleteAndMissing(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	key := "delete-" + domain.NewDraft().ID

	_, err := repo.Load(ctx, key)
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)

	require.NoError(t, repo.Save(ctx, key, domain.NewDraft(), 0))
	require.NoError(t, repo.Delete(ctx, key))
	_, err = repo.Load(ctx, key)
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
}
