package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	draftKeyPrefix = "listing-wizard:draft:"
)

// DraftRepository stores drafts as JSON blobs with a TTL. Saves are
// optimistic transactions: the key is WATCHed, its revision compared and the
// new blob written in MULTI/EXEC.
type DraftRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewDraftRepository creates a Redis-backed draft repository.
func NewDraftRepository(client *redis.Client, ttl time.Duration, log *logger.Logger) *DraftRepository {
	return &DraftRepository{
		client: client,
		ttl:    ttl,
		logger: log.Named("RedisDraftRepository"),
	}
}

func (r *DraftRepository) getDraftKey(key string) string {
	return draftKeyPrefix + key
}

func decodeDraft(val string) (*domain.ListingDraft, error) {
	var d domain.ListingDraft
	if err := json.Unmarshal([]byte(val), &d); err != nil {
		return nil, err
	}
	d.Normalize()
	return &d, nil
}

// Load implements domain.ProgressPersistence.
func (r *DraftRepository) Load(ctx context.Context, key string) (*domain.ListingDraft, error) {
	val, err := r.client.Get(ctx, r.getDraftKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to get draft %s from redis: %w", key, err)
	}
	d, err := decodeDraft(val)
	if err != nil {
		// A blob from an incompatible version is treated as no draft at all.
		r.logger.Warn("Discarding unreadable draft", zap.String("session", key), zap.Error(err))
		return nil, domain.ErrDraftNotFound
	}
	return d, nil
}

// Save implements domain.ProgressPersistence.
func (r *DraftRepository) Save(ctx context.Context, key string, draft *domain.ListingDraft, expectedRevision int64) error {
	redisKey := r.getDraftKey(key)

	next := draft.Clone()
	next.Revision = expectedRevision + 1
	next.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal draft %s: %w", key, err)
	}

	txf := func(tx *redis.Tx) error {
		var (
			storedID  string
			storedRev int64
		)
		val, err := tx.Get(ctx, redisKey).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if cur, derr := decodeDraft(val); derr == nil {
				storedID, storedRev = cur.ID, cur.Revision
			}
		}
		// A draft recreated after a reset restarts its revisions, so the id
		// has to match as well.
		if storedRev != expectedRevision || (storedRev != 0 && storedID != draft.ID) {
			return domain.ErrRevisionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisKey, data, r.ttl)
			return nil
		})
		return err
	}

	err = r.client.Watch(ctx, txf, redisKey)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrRevisionConflict), errors.Is(err, redis.TxFailedErr):
		return domain.ErrRevisionConflict
	default:
		return fmt.Errorf("failed to save draft %s to redis: %w", key, err)
	}

	draft.Revision = next.Revision
	draft.UpdatedAt = next.UpdatedAt
	return nil
}

// Delete implements domain.ProgressPersistence.
func (r *DraftRepository) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, r.getDraftKey(key)).Err()
	if err != nil {
		return fmt.Errorf("failed to delete draft %s from redis: %w", key, err)
	}
	return nil
}
