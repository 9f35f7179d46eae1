package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"github.com/stretchr/testify/assert"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", &domain.ValidationError{Missing: []string{"images"}}, http.StatusUnprocessableEntity, "missing required fields: images"},
		{"capacity", &domain.ImageError{CapacityExceeded: true, Limit: 10}, http.StatusBadRequest, "a listing can have at most 10 images"},
		{"location", &domain.LocationError{Kind: domain.LocationQuotaExceeded}, http.StatusUnprocessableEntity, "The address lookup service is busy. Please type your address."},
		{"unauthenticated", domain.ErrUnauthenticated, http.StatusUnauthorized, "Please log in to publish your listing."},
		{"conflict", fmt.Errorf("%w: the device changed", domain.ErrRevisionConflict), http.StatusConflict, ""},
		{"unknown spec", fmt.Errorf("%w: s9", domain.ErrUnknownSpecification), http.StatusBadRequest, "specification does not belong to the selected item: s9"},
		{"unreachable step", domain.ErrStepUnavailable, http.StatusBadRequest, "step is not reachable yet"},
		{"upstream message", fmt.Errorf("%w: %w", domain.ErrSubmissionFailed, &domain.CollaboratorError{Status: 400, Message: "price is required"}), http.StatusBadGateway, "price is required"},
		{"upstream unreachable", fmt.Errorf("%w: %w", domain.ErrSubmissionFailed, &domain.CollaboratorError{Message: "dial tcp: refused"}), http.StatusBadGateway, "The marketplace is not responding. Please try again."},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "Internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := errorStatus(tt.err)
			assert.Equal(t, tt.code, code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, body.Error)
			}
		})
	}
}
