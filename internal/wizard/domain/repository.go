package domain

import (
	"context"
	"time"
)

// ProgressPersistence stores drafts keyed by wizard session. Save is a
// compare-and-swap on the draft ID and Revision: it succeeds only when the
// stored draft is draft.ID at expectedRevision (0 meaning "nothing stored
// yet"), and bumps draft.Revision on success. Load returns ErrDraftNotFound
// when empty.
type ProgressPersistence interface {
	Load(ctx context.Context, key string) (*ListingDraft, error)
	Save(ctx context.Context, key string, draft *ListingDraft, expectedRevision int64) error
	Delete(ctx context.Context, key string) error
}

// CatalogClient reads the reference catalog from the collaborator API.
type CatalogClient interface {
	Categories(ctx context.Context) ([]Category, error)
	Brands(ctx context.Context, categoryName string) ([]Brand, error)
	Items(ctx context.Context, brandID, categoryName string) ([]Item, error)
	Item(ctx context.Context, itemID string) (*Item, error)
}

// ListingSubmitter posts the finished listing. Implementations return
// ErrUnauthenticated for 401 and a *CollaboratorError for other failures.
type ListingSubmitter interface {
	CreateListing(ctx context.Context, payload ListingPayload, principal *Principal) (*CreatedListing, error)
}

// ItemFilter narrows the device grid, e.g. by answers already given.
type ItemFilter interface {
	FilterItems(ctx context.Context, items []Item, answers map[string]string) []Item
}

// PositionProvider locates the device, like navigator.geolocation.getCurrentPosition.
type PositionProvider interface {
	CurrentPosition(ctx context.Context, req PositionRequest) (Position, error)
}

// Geocoder turns coordinates into a human-readable address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// PhotoArchive keeps a copy of submitted photos for the created listing.
type PhotoArchive interface {
	Upload(ctx context.Context, listingID string, index int, img ImageFile) (string, error)
}

// ListingNotifier tells the seller their listing went live.
type ListingNotifier interface {
	SendListingCreated(ctx context.Context, toEmail, listingTitle string) error
}

// ListingCreatedEvent is published on subject "listing.created".
type ListingCreatedEvent struct {
	DraftID    string    `json:"draft_id"`
	ListingID  string    `json:"listing_id"`
	UserID     string    `json:"user_id"`
	ItemID     string    `json:"item_id"`
	CompanyID  string    `json:"company_id"`
	Title      string    `json:"title"`
	ImageCount int       `json:"image_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// SubjectListingCreated is the NATS subject for ListingCreatedEvent.
const SubjectListingCreated = "listing.created"
