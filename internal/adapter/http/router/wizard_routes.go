package router

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/adapter/http/handler"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/adapter/http/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupWizardRoutes mounts the wizard API under /api/wizard. Every wizard
// route runs behind sessionMW; authentication is optional and only enforced
// by submission. Writes honour If-Match against the draft's ETag.
func SetupWizardRoutes(mux chi.Router, h *handler.WizardHandler, sessionMW func(http.Handler) http.Handler) {
	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Route("/api/wizard", func(r chi.Router) {
		r.Use(sessionMW, middleware.IfMatch)

		r.Get("/draft", h.HandleGetDraft)
		r.Delete("/draft", h.HandleDeleteDraft)

		r.Post("/step", h.HandleGoToStep)
		r.Post("/step/{n}/clear", h.HandleClearStep)

		r.Post("/category", h.HandleSelectCategory)
		r.Post("/brand", h.HandleSelectBrand)
		r.Post("/item", h.HandleSelectItem)
		r.Put("/specs/{specId}", h.HandleAnswerSpecification)

		r.Post("/images", h.HandleAddImages)
		r.Delete("/images/{index}", h.HandleRemoveImage)

		r.Put("/location", h.HandleSetLocation)
		r.Post("/location/detect", h.HandleDetectLocation)

		r.Post("/submit", h.HandleSubmit)
	})
}
