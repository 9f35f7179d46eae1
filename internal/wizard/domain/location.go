package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Position is a device-reported coordinate.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

// PositionRequest mirrors the options of the browser geolocation API.
type PositionRequest struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// PositionErrorCode follows the W3C GeolocationPositionError codes.
type PositionErrorCode int

const (
	PositionPermissionDenied PositionErrorCode = 1
	PositionUnavailable      PositionErrorCode = 2
	PositionTimeout          PositionErrorCode = 3
)

// PositionError is what a PositionProvider returns when it cannot locate the device.
type PositionError struct {
	Code    PositionErrorCode
	Message string
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("position error %d: %s", e.Code, e.Message)
}

// LocationErrorKind classifies a failed location detection for the user.
type LocationErrorKind string

const (
	LocationPermissionDenied LocationErrorKind = "permission_denied"
	LocationUnavailable      LocationErrorKind = "position_unavailable"
	LocationTimeout          LocationErrorKind = "timeout"
	LocationQuotaExceeded    LocationErrorKind = "quota_exceeded"
	LocationZeroResults      LocationErrorKind = "zero_results"
	LocationRequestDenied    LocationErrorKind = "request_denied"
	LocationGeocodingFailed  LocationErrorKind = "geocoding_failed"
)

var locationMessages = map[LocationErrorKind]string{
	LocationPermissionDenied: "Location access was denied. Allow location access or type your address.",
	LocationUnavailable:      "Your location could not be determined. Type your address instead.",
	LocationTimeout:          "Finding your location took too long. Please try again.",
	LocationQuotaExceeded:    "The address lookup service is busy. Please type your address.",
	LocationZeroResults:      "No address was found for your location.",
	LocationRequestDenied:    "The address lookup was refused. Please type your address.",
	LocationGeocodingFailed:  "Your address could not be looked up. Please type it instead.",
}

// LocationError is the user-facing failure of location detection.
type LocationError struct {
	Kind LocationErrorKind
	Err  error
}

func (e *LocationError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

func (e *LocationError) Unwrap() error { return e.Err }

// UserMessage is the text shown to the user for this failure.
func (e *LocationError) UserMessage() string {
	return locationMessages[e.Kind]
}

// Timeout reports whether the failure is worth one automatic retry.
func (e *LocationError) Timeout() bool {
	return e.Kind == LocationTimeout
}

// ClassifyPositionError maps a provider failure to a LocationError. Context
// deadlines count as timeouts.
func ClassifyPositionError(err error) *LocationError {
	var le *LocationError
	if errors.As(err, &le) {
		return le
	}
	var pe *PositionError
	if errors.As(err, &pe) {
		switch pe.Code {
		case PositionPermissionDenied:
			return &LocationError{Kind: LocationPermissionDenied, Err: err}
		case PositionTimeout:
			return &LocationError{Kind: LocationTimeout, Err: err}
		default:
			return &LocationError{Kind: LocationUnavailable, Err: err}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &LocationError{Kind: LocationTimeout, Err: err}
	}
	return &LocationError{Kind: LocationUnavailable, Err: err}
}

// Geocoding API statuses with a dedicated user-facing error.
const (
	GeocodeStatusOK             = "OK"
	GeocodeStatusZeroResults    = "ZERO_RESULTS"
	GeocodeStatusOverQueryLimit = "OVER_QUERY_LIMIT"
	GeocodeStatusRequestDenied  = "REQUEST_DENIED"
)

// GeocodeError is returned by a Geocoder for a non-OK API status.
type GeocodeError struct {
	Status  string
	Message string
}

func (e *GeocodeError) Error() string {
	if e.Message == "" {
		return "geocoding status " + e.Status
	}
	return "geocoding status " + e.Status + ": " + e.Message
}

// ClassifyGeocodeError maps a reverse-geocoding failure to a LocationError.
func ClassifyGeocodeError(err error) *LocationError {
	var ge *GeocodeError
	if errors.As(err, &ge) {
		switch ge.Status {
		case GeocodeStatusOverQueryLimit:
			return &LocationError{Kind: LocationQuotaExceeded, Err: err}
		case GeocodeStatusZeroResults:
			return &LocationError{Kind: LocationZeroResults, Err: err}
		case GeocodeStatusRequestDenied:
			return &LocationError{Kind: LocationRequestDenied, Err: err}
		}
		return &LocationError{Kind: LocationGeocodingFailed, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &LocationError{Kind: LocationTimeout, Err: err}
	}
	return &LocationError{Kind: LocationGeocodingFailed, Err: err}
}
