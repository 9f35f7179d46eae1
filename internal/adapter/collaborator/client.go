package collaborator

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("listing-wizard/collaborator")

// Client talks to the marketplace REST API for catalog reads and listing
// creation. It implements domain.CatalogClient and domain.ListingSubmitter.
type Client struct {
	http   *resty.Client
	logger *logger.Logger
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "listing-wizard/1.0")
	return &Client{http: rc, logger: log.Named("CollaboratorClient")}
}

type errorBody struct {
	Error string `json:"error"`
}

type categoriesBody struct {
	Categories []domain.Category `json:"categories"`
}

type specificationBody struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	ValueType  string          `json:"valueType"`
	Options    json.RawMessage `json:"options"`
	Order      *int            `json:"order"`
	IsRequired bool            `json:"isRequired"`
}

type itemBody struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Specifications []specificationBody `json:"specifications"`
}

type createListingBody struct {
	Listing *domain.CreatedListing `json:"listing"`
}

// options accepts the JSON-encoded string the API sends as well as a plain array.
func (s specificationBody) options() []string {
	raw := strings.TrimSpace(string(s.Options))
	if raw == "" || raw == "null" {
		return nil
	}
	var encoded string
	if err := json.Unmarshal(s.Options, &encoded); err == nil {
		return domain.ParseOptions(encoded)
	}
	return domain.ParseOptions(raw)
}

func (s specificationBody) toDomain(position int) domain.Specification {
	vt := domain.ValueType(strings.ToLower(strings.TrimSpace(s.ValueType)))
	if !vt.IsValid() {
		vt = domain.ValueTypeText
	}
	order := position
	if s.Order != nil {
		order = *s.Order
	}
	return domain.Specification{
		ID:         s.ID,
		Name:       s.Name,
		ValueType:  vt,
		Options:    s.options(),
		IsRequired: s.IsRequired,
		Order:      order,
	}
}

func (b itemBody) toDomain() *domain.Item {
	item := &domain.Item{ID: b.ID, Name: b.Name}
	for i, s := range b.Specifications {
		item.Specifications = append(item.Specifications, s.toDomain(i))
	}
	return item
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	headers := http.Header{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
	for k := range headers {
		req.SetHeader(k, headers.Get(k))
	}
	return req
}

// check turns a failed exchange into a *domain.CollaboratorError carrying the
// server's error text when it sent one.
func (c *Client) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		c.logger.Warn("Collaborator request failed", zap.String("op", op), zap.Error(err))
		return &domain.CollaboratorError{Status: 0, Message: err.Error()}
	}
	if resp.IsSuccess() {
		return nil
	}
	msg := ""
	var body errorBody
	if jerr := json.Unmarshal(resp.Body(), &body); jerr == nil {
		msg = body.Error
	}
	c.logger.Warn("Collaborator returned an error",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode()),
		zap.String("error", msg))
	return &domain.CollaboratorError{Status: resp.StatusCode(), Message: msg}
}

// Categories implements domain.CatalogClient.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Collaborator.Categories")
	defer span.End()

	var body categoriesBody
	resp, err := c.request(ctx).SetResult(&body).Get("/api/categories")
	if err := c.check(resp, err, "categories"); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return body.Categories, nil
}

// Brands implements domain.CatalogClient.
func (c *Client) Brands(ctx context.Context, categoryName string) ([]domain.Brand, error) {
	ctx, span := tracer.Start(ctx, "Collaborator.Brands")
	defer span.End()
	span.SetAttributes(attribute.String("category", categoryName))

	var brands []domain.Brand
	resp, err := c.request(ctx).
		SetQueryParam("category", categoryName).
		SetResult(&brands).
		Get("/api/companies")
	if err := c.check(resp, err, "companies"); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return brands, nil
}

// Items implements domain.CatalogClient.
func (c *Client) Items(ctx context.Context, brandID, categoryName string) ([]domain.Item, error) {
	ctx, span := tracer.Start(ctx, "Collaborator.Items")
	defer span.End()
	span.SetAttributes(attribute.String("brand.id", brandID))

	var bodies []itemBody
	resp, err := c.request(ctx).
		SetQueryParam("companyId", brandID).
		SetQueryParam("category", categoryName).
		SetResult(&bodies).
		Get("/api/items")
	if err := c.check(resp, err, "items"); err != nil {
		span.RecordError(err)
		return nil, err
	}
	items := make([]domain.Item, 0, len(bodies))
	for _, b := range bodies {
		items = append(items, domain.Item{ID: b.ID, Name: b.Name})
	}
	return items, nil
}

// Item implements domain.CatalogClient. The endpoint answers with the item
// object; a one-element array is accepted too.
func (c *Client) Item(ctx context.Context, itemID string) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "Collaborator.Item")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", itemID))

	resp, err := c.request(ctx).
		SetQueryParam("itemId", itemID).
		Get("/api/items")
	if err := c.check(resp, err, "item"); err != nil {
		span.RecordError(err)
		return nil, err
	}

	raw := resp.Body()
	var body itemBody
	if err := json.Unmarshal(raw, &body); err != nil {
		var list []itemBody
		if lerr := json.Unmarshal(raw, &list); lerr != nil || len(list) == 0 {
			return nil, &domain.CollaboratorError{Status: resp.StatusCode(), Message: "unexpected item response"}
		}
		body = list[0]
	}
	return body.toDomain(), nil
}

// CreateListing implements domain.ListingSubmitter. The draft id travels as
// the Idempotency-Key header so a retried submission creates one listing.
func (c *Client) CreateListing(ctx context.Context, payload domain.ListingPayload, principal *domain.Principal) (*domain.CreatedListing, error) {
	ctx, span := tracer.Start(ctx, "Collaborator.CreateListing")
	defer span.End()

	var body createListingBody
	req := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Idempotency-Key", payload.IdempotencyKey).
		SetBody(payload).
		SetResult(&body)
	if principal != nil && principal.Token != "" {
		req.SetAuthToken(principal.Token)
	}
	resp, err := req.Post("/api/listings/create")
	if err == nil && resp.StatusCode() == http.StatusUnauthorized {
		span.RecordError(domain.ErrUnauthenticated)
		return nil, domain.ErrUnauthenticated
	}
	if err := c.check(resp, err, "create_listing"); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if body.Listing == nil {
		return nil, &domain.CollaboratorError{Status: resp.StatusCode(), Message: "response carried no listing"}
	}
	return body.Listing, nil
}
