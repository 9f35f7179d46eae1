package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"go.uber.org/zap"
)

// LocatorConfig holds the timing of the two-phase position lookup.
type LocatorConfig struct {
	// Phase one asks for a coarse fix with a short client-side deadline that
	// races the provider's own timeout.
	LowAccuracyTimeout         time.Duration
	LowAccuracyProviderTimeout time.Duration

	// Phase two asks for a precise fix and waits longer.
	HighAccuracyTimeout         time.Duration
	HighAccuracyProviderTimeout time.Duration

	GeocodeTimeout time.Duration
	RetryBackoff   time.Duration
}

// DefaultLocatorConfig returns the timings used in production.
func DefaultLocatorConfig() LocatorConfig {
	return LocatorConfig{
		LowAccuracyTimeout:          5 * time.Second,
		LowAccuracyProviderTimeout:  10 * time.Second,
		HighAccuracyTimeout:         15 * time.Second,
		HighAccuracyProviderTimeout: 20 * time.Second,
		GeocodeTimeout:              5 * time.Second,
		RetryBackoff:                time.Second,
	}
}

// Locator finds the device position and turns it into an address.
type Locator struct {
	geocoder domain.Geocoder
	cfg      LocatorConfig
	metrics  *metrics.MetricsManager
	logger   *logger.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewLocator creates a Locator.
func NewLocator(geocoder domain.Geocoder, cfg LocatorConfig, m *metrics.MetricsManager, log *logger.Logger) *Locator {
	return &Locator{
		geocoder: geocoder,
		cfg:      cfg,
		metrics:  m,
		logger:   log.Named("Locator"),
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type positionResult struct {
	pos domain.Position
	err error
}

// attempt asks the provider once and gives up after timeout, whichever of
// the provider and the timer finishes first.
func (l *Locator) attempt(ctx context.Context, provider domain.PositionProvider, req domain.PositionRequest, timeout time.Duration) (domain.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan positionResult, 1)
	go func() {
		pos, err := provider.CurrentPosition(ctx, req)
		done <- positionResult{pos: pos, err: err}
	}()

	select {
	case r := <-done:
		return r.pos, r.err
	case <-ctx.Done():
		return domain.Position{}, &domain.PositionError{Code: domain.PositionTimeout, Message: "no position within " + timeout.String()}
	}
}

// Locate tries a low-accuracy fix first and falls back to a high-accuracy
// one. A failed first phase is not reported when the second one succeeds.
func (l *Locator) Locate(ctx context.Context, provider domain.PositionProvider) (domain.Position, error) {
	ctx, span := tracer.Start(ctx, "Locator.Locate")
	defer span.End()

	pos, err := l.attempt(ctx, provider, domain.PositionRequest{
		HighAccuracy: false,
		Timeout:      l.cfg.LowAccuracyProviderTimeout,
		MaximumAge:   5 * time.Minute,
	}, l.cfg.LowAccuracyTimeout)
	if err == nil {
		return pos, nil
	}
	l.logger.Debug("Low-accuracy position failed, retrying with high accuracy", zap.Error(err))

	pos, err = l.attempt(ctx, provider, domain.PositionRequest{
		HighAccuracy: true,
		Timeout:      l.cfg.HighAccuracyProviderTimeout,
	}, l.cfg.HighAccuracyTimeout)
	if err != nil {
		span.RecordError(err)
		return domain.Position{}, domain.ClassifyPositionError(err)
	}
	return pos, nil
}

// ReverseGeocode resolves coordinates with its own timeout.
func (l *Locator) ReverseGeocode(ctx context.Context, pos domain.Position) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.GeocodeTimeout)
	defer cancel()

	address, err := l.geocoder.ReverseGeocode(ctx, pos.Latitude, pos.Longitude)
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &domain.LocationError{Kind: domain.LocationTimeout, Err: err}
		}
		return "", domain.ClassifyGeocodeError(err)
	}
	return address, nil
}

// Detect locates the device and resolves its address. Timeout-class
// failures are retried once after a short backoff; others are returned as is.
func (l *Locator) Detect(ctx context.Context, provider domain.PositionProvider) (domain.Position, string, error) {
	pos, address, err := l.detectOnce(ctx, provider)
	var le *domain.LocationError
	if err != nil && errors.As(err, &le) && le.Timeout() {
		l.logger.Info("Location detection timed out, retrying once", zap.Duration("backoff", l.cfg.RetryBackoff))
		if serr := l.sleep(ctx, l.cfg.RetryBackoff); serr != nil {
			return domain.Position{}, "", err
		}
		pos, address, err = l.detectOnce(ctx, provider)
	}
	if err != nil {
		kind := "unknown"
		if errors.As(err, &le) {
			kind = string(le.Kind)
		}
		l.metrics.GeolocationFailures.WithLabelValues(kind).Inc()
		return domain.Position{}, "", err
	}
	return pos, address, nil
}

func (l *Locator) detectOnce(ctx context.Context, provider domain.PositionProvider) (domain.Position, string, error) {
	pos, err := l.Locate(ctx, provider)
	if err != nil {
		return domain.Position{}, "", err
	}
	address, err := l.ReverseGeocode(ctx, pos)
	if err != nil {
		return domain.Position{}, "", err
	}
	return pos, address, nil
}

// ReportedPosition is a PositionProvider for coordinates the browser already
// obtained and posted to the server.
type ReportedPosition domain.Position

// CurrentPosition implements domain.PositionProvider.
func (p ReportedPosition) CurrentPosition(ctx context.Context, _ domain.PositionRequest) (domain.Position, error) {
	if err := ctx.Err(); err != nil {
		return domain.Position{}, err
	}
	return domain.Position(p), nil
}

// ReportedFailure is a PositionProvider for a browser that could not obtain
// a position and posted the platform error code instead.
type ReportedFailure domain.PositionError

// CurrentPosition implements domain.PositionProvider.
func (f ReportedFailure) CurrentPosition(context.Context, domain.PositionRequest) (domain.Position, error) {
	err := domain.PositionError(f)
	return domain.Position{}, &err
}
