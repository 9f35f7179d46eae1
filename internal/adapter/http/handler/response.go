package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error            string                 `json:"error"`
	Missing          []string               `json:"missing,omitempty"`
	Rejected         []domain.RejectedImage `json:"rejected,omitempty"`
	CapacityExceeded bool                   `json:"capacityExceeded,omitempty"`
	Kind             string                 `json:"kind,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// errorStatus maps a wizard error to its HTTP status and response body.
func errorStatus(err error) (int, errorResponse) {
	var (
		validation   *domain.ValidationError
		imageErr     *domain.ImageError
		locationErr  *domain.LocationError
		collaborator *domain.CollaboratorError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, errorResponse{Error: validation.Error(), Missing: validation.Missing}
	case errors.As(err, &imageErr):
		return http.StatusBadRequest, errorResponse{Error: imageErr.Error(), Rejected: imageErr.Rejected, CapacityExceeded: imageErr.CapacityExceeded}
	case errors.As(err, &locationErr):
		return http.StatusUnprocessableEntity, errorResponse{Error: locationErr.UserMessage(), Kind: string(locationErr.Kind)}
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse{Error: "Please log in to publish your listing."}
	case errors.Is(err, domain.ErrRevisionConflict):
		return http.StatusConflict, errorResponse{Error: "Your draft was changed in another tab. Reload to continue."}
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnknownSpecification),
		errors.Is(err, domain.ErrStepUnavailable):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrCatalogUnavailable), errors.Is(err, domain.ErrSubmissionFailed):
		msg := "The marketplace is not responding. Please try again."
		if errors.As(err, &collaborator) && collaborator.Status != 0 && collaborator.Message != "" {
			msg = collaborator.Message
		}
		return http.StatusBadGateway, errorResponse{Error: msg}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "Internal error"}
	}
}

func writeError(w http.ResponseWriter, err error, log *logger.Logger) {
	code, body := errorStatus(err)
	if code >= http.StatusInternalServerError {
		log.Error("Wizard request failed", zap.Int("status", code), zap.Error(err))
	} else {
		log.Debug("Wizard request rejected", zap.Int("status", code), zap.Error(err))
	}
	respondWithJSON(w, code, body)
}
