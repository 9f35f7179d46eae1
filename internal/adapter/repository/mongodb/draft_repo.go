package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const draftCollectionName = "listing_drafts"

// draftDocument is the stored form of a draft, keyed by wizard session.
type draftDocument struct {
	SessionKey   string            `bson:"_id"`
	DraftID      string            `bson:"draft_id"`
	CategoryID   string            `bson:"category_id,omitempty"`
	CategoryName string            `bson:"category_name,omitempty"`
	BrandID      string            `bson:"brand_id,omitempty"`
	BrandName    string            `bson:"brand_name,omitempty"`
	ItemID       string            `bson:"item_id,omitempty"`
	ItemName     string            `bson:"item_name,omitempty"`
	Specs        map[string]string `bson:"specs"`
	Location     string            `bson:"location,omitempty"`
	Latitude     *float64          `bson:"latitude,omitempty"`
	Longitude    *float64          `bson:"longitude,omitempty"`
	Images       []string          `bson:"images"`
	CurrentStep  int               `bson:"current_step"`
	Revision     int64             `bson:"revision"`
	UpdatedAt    time.Time         `bson:"updated_at"`
	ExpiresAt    time.Time         `bson:"expires_at"`
}

func fromDomainDraft(key string, d *domain.ListingDraft, ttl time.Duration) *draftDocument {
	return &draftDocument{
		SessionKey:   key,
		DraftID:      d.ID,
		CategoryID:   d.CategoryID,
		CategoryName: d.CategoryName,
		BrandID:      d.BrandID,
		BrandName:    d.BrandName,
		ItemID:       d.ItemID,
		ItemName:     d.ItemName,
		Specs:        d.Specs,
		Location:     d.Location,
		Latitude:     d.Latitude,
		Longitude:    d.Longitude,
		Images:       d.Images,
		CurrentStep:  d.CurrentStep,
		Revision:     d.Revision,
		UpdatedAt:    d.UpdatedAt,
		ExpiresAt:    d.UpdatedAt.Add(ttl),
	}
}

func (doc *draftDocument) toDomainDraft() *domain.ListingDraft {
	d := &domain.ListingDraft{
		ID:           doc.DraftID,
		CategoryID:   doc.CategoryID,
		CategoryName: doc.CategoryName,
		BrandID:      doc.BrandID,
		BrandName:    doc.BrandName,
		ItemID:       doc.ItemID,
		ItemName:     doc.ItemName,
		Specs:        doc.Specs,
		Location:     doc.Location,
		Latitude:     doc.Latitude,
		Longitude:    doc.Longitude,
		Images:       doc.Images,
		CurrentStep:  doc.CurrentStep,
		Revision:     doc.Revision,
		UpdatedAt:    doc.UpdatedAt,
	}
	d.Normalize()
	return d
}

// DraftRepository implements domain.ProgressPersistence on MongoDB. Saves
// replace the document only while its draft id and revision still match.
type DraftRepository struct {
	collection *mongo.Collection
	ttl        time.Duration
	logger     *logger.Logger
}

// NewDraftRepository creates the repository and ensures the TTL index.
func NewDraftRepository(db *mongo.Database, ttl time.Duration, log *logger.Logger) (*DraftRepository, error) {
	collection := db.Collection(draftCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		{Keys: bson.D{{Key: "draft_id", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Error("Failed to create indexes for drafts collection", zap.Error(err))
	} else {
		log.Info("Successfully ensured indexes for drafts collection")
	}

	return &DraftRepository{
		collection: collection,
		ttl:        ttl,
		logger:     log.Named("MongoDraftRepository"),
	}, nil
}

// Load implements domain.ProgressPersistence.
func (r *DraftRepository) Load(ctx context.Context, key string) (*domain.ListingDraft, error) {
	var doc draftDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDraftNotFound
		}
		r.logger.Error("Failed to get draft from DB", zap.Error(err), zap.String("session", key))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomainDraft(), nil
}

// Save implements domain.ProgressPersistence.
func (r *DraftRepository) Save(ctx context.Context, key string, draft *domain.ListingDraft, expectedRevision int64) error {
	next := draft.Clone()
	next.Revision = expectedRevision + 1
	next.UpdatedAt = time.Now().UTC()
	doc := fromDomainDraft(key, next, r.ttl)

	if expectedRevision == 0 {
		_, err := r.collection.InsertOne(ctx, doc)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrRevisionConflict
			}
			r.logger.Error("Failed to insert draft into DB", zap.Error(err), zap.String("session", key))
			return fmt.Errorf("db insert failed: %w", err)
		}
	} else {
		result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": key, "draft_id": draft.ID, "revision": expectedRevision}, doc)
		if err != nil {
			r.logger.Error("Failed to replace draft in DB", zap.Error(err), zap.String("session", key))
			return fmt.Errorf("db replace failed: %w", err)
		}
		if result.MatchedCount == 0 {
			return domain.ErrRevisionConflict
		}
	}

	draft.Revision = next.Revision
	draft.UpdatedAt = next.UpdatedAt
	return nil
}

// Delete implements domain.ProgressPersistence.
func (r *DraftRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		r.logger.Error("Failed to delete draft from DB", zap.Error(err), zap.String("session", key))
		return fmt.Errorf("db delete failed: %w", err)
	}
	return nil
}
