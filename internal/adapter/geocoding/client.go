package geocoding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("listing-wizard/geocoding")

const reverseGeocodePath = "/maps/api/geocode/json"

// Client reverse-geocodes coordinates with the Google Geocoding API.
type Client struct {
	http   *resty.Client
	apiKey string
	logger *logger.Logger
}

// NewClient creates a Client. baseURL is normally https://maps.googleapis.com.
func NewClient(baseURL, apiKey string, log *logger.Logger) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: rc, apiKey: apiKey, logger: log.Named("GeocodingClient")}
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

// ReverseGeocode implements domain.Geocoder. Non-OK API statuses come back
// as *domain.GeocodeError.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	ctx, span := tracer.Start(ctx, "Geocoding.ReverseGeocode")
	defer span.End()

	var body geocodeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("latlng", fmt.Sprintf("%f,%f", lat, lng)).
		SetQueryParam("key", c.apiKey).
		SetResult(&body).
		Get(reverseGeocodePath)
	if err != nil {
		span.RecordError(err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("geocoding request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return "", &domain.GeocodeError{Status: fmt.Sprintf("HTTP_%d", resp.StatusCode())}
	}
	if body.Status != domain.GeocodeStatusOK {
		c.logger.Warn("Geocoding returned non-OK status", zap.String("status", body.Status), zap.String("message", body.ErrorMessage))
		return "", &domain.GeocodeError{Status: body.Status, Message: body.ErrorMessage}
	}
	if len(body.Results) == 0 {
		return "", &domain.GeocodeError{Status: domain.GeocodeStatusZeroResults}
	}
	return body.Results[0].FormattedAddress, nil
}
