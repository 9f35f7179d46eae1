package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/adapter/http/middleware"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/usecase"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	maxJSONBody   = 64 << 10
	maxUploadBody = domain.MaxImages*(domain.MaxImageBytes*4/3+1024) + (1 << 20)

	maxMultipartMemory = 16 << 20
)

// WizardHandler serves the wizard API.
type WizardHandler struct {
	wizard *usecase.Wizard
	logger *logger.Logger
}

// NewWizardHandler creates a WizardHandler.
func NewWizardHandler(wizard *usecase.Wizard, log *logger.Logger) *WizardHandler {
	return &WizardHandler{wizard: wizard, logger: log.Named("WizardHTTPHandler")}
}

func (h *WizardHandler) session(w http.ResponseWriter, r *http.Request) (*usecase.Session, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		h.logger.Error("Wizard route mounted without session middleware", zap.String("path", r.URL.Path))
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal error"})
		return nil, false
	}
	return sess, true
}

func (h *WizardHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Debug("Failed to decode request", zap.Error(err))
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}

func (h *WizardHandler) reply(w http.ResponseWriter, state *usecase.State, err error) {
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	setETag(w, state)
	respondWithJSON(w, http.StatusOK, state)
}

func setETag(w http.ResponseWriter, state *usecase.State) {
	if state != nil && state.Draft != nil {
		w.Header().Set("ETag", middleware.ETag(usecase.VersionOf(state.Draft)))
	}
}

// HandleGetDraft returns the draft, its steps and the active step's view.
// The q parameter filters the brand and device grids.
func (h *WizardHandler) HandleGetDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	state, err := h.wizard.State(r.Context(), sess, r.URL.Query().Get("q"))
	h.reply(w, state, err)
}

// HandleDeleteDraft cancels the wizard.
func (h *WizardHandler) HandleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.wizard.Reset(r.Context(), sess); err != nil {
		writeError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type stepRequest struct {
	Step *int `json:"step"`
}

// HandleGoToStep moves the cursor.
func (h *WizardHandler) HandleGoToStep(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req stepRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Step == nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "step is required"})
		return
	}
	state, err := h.wizard.GoToStep(r.Context(), sess, *req.Step)
	h.reply(w, state, err)
}

// HandleClearStep rewinds the draft to before step n.
func (h *WizardHandler) HandleClearStep(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "step must be a number"})
		return
	}
	state, err := h.wizard.ClearStep(r.Context(), sess, n)
	h.reply(w, state, err)
}

type selectionRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HandleSelectCategory stores the chosen category.
func (h *WizardHandler) HandleSelectCategory(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req selectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	state, err := h.wizard.SelectCategory(r.Context(), sess, req.ID, req.Name)
	h.reply(w, state, err)
}

// HandleSelectBrand stores the chosen brand.
func (h *WizardHandler) HandleSelectBrand(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req selectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	state, err := h.wizard.SelectBrand(r.Context(), sess, req.ID, req.Name)
	h.reply(w, state, err)
}

// HandleSelectItem stores the chosen device.
func (h *WizardHandler) HandleSelectItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req selectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	state, err := h.wizard.SelectItem(r.Context(), sess, req.ID, req.Name)
	h.reply(w, state, err)
}

type answerRequest struct {
	Value string `json:"value"`
}

// HandleAnswerSpecification records a specification answer.
func (h *WizardHandler) HandleAnswerSpecification(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req answerRequest
	if !h.decode(w, r, &req) {
		return
	}
	state, err := h.wizard.AnswerSpecification(r.Context(), sess, chi.URLParam(r, "specId"), req.Value)
	h.reply(w, state, err)
}

type imagesRequest struct {
	Images []string `json:"images"`
}

type imagesResponse struct {
	*usecase.State
	Rejected []domain.RejectedImage `json:"rejected,omitempty"`
}

// HandleAddImages accepts either a JSON list of data URIs or a multipart form
// with one or more "files" parts.
func (h *WizardHandler) HandleAddImages(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var (
		files []domain.ImageFile
		err   error
	)
	if isMultipart(r) {
		files, err = h.readMultipart(w, r)
	} else {
		files, err = h.readDataURIs(w, r)
	}
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	state, err := h.wizard.AddImages(r.Context(), sess, files)
	if state == nil {
		writeError(w, err, h.logger)
		return
	}
	resp := imagesResponse{State: state}
	var imgErr *domain.ImageError
	if errors.As(err, &imgErr) {
		resp.Rejected = imgErr.Rejected
	}
	setETag(w, state)
	respondWithJSON(w, http.StatusOK, resp)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func (h *WizardHandler) readDataURIs(w http.ResponseWriter, r *http.Request) ([]domain.ImageFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	var req imagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	files := make([]domain.ImageFile, 0, len(req.Images))
	for i, uri := range req.Images {
		f, err := domain.ParseDataURI(fmt.Sprintf("image-%d", i+1), uri)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func (h *WizardHandler) readMultipart(w http.ResponseWriter, r *http.Request) ([]domain.ImageFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, fmt.Errorf("%w: invalid multipart form", domain.ErrInvalidInput)
	}
	defer r.MultipartForm.RemoveAll()
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no files", domain.ErrInvalidInput)
	}
	files := make([]domain.ImageFile, 0, len(headers))
	for _, fh := range headers {
		f, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// readPart reads at most one byte past the size limit, which is enough for
// the size check to reject the file.
func readPart(fh *multipart.FileHeader) (domain.ImageFile, error) {
	src, err := fh.Open()
	if err != nil {
		return domain.ImageFile{}, fmt.Errorf("%w: cannot read %s", domain.ErrInvalidInput, fh.Filename)
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, domain.MaxImageBytes+1))
	if err != nil {
		return domain.ImageFile{}, fmt.Errorf("%w: cannot read %s", domain.ErrInvalidInput, fh.Filename)
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return domain.ImageFile{Name: fh.Filename, ContentType: contentType, Data: data}, nil
}

// HandleRemoveImage deletes one image by index.
func (h *WizardHandler) HandleRemoveImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "index must be a number"})
		return
	}
	state, err := h.wizard.RemoveImage(r.Context(), sess, index)
	h.reply(w, state, err)
}

type locationRequest struct {
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// HandleSetLocation stores a typed address.
func (h *WizardHandler) HandleSetLocation(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req locationRequest
	if !h.decode(w, r, &req) {
		return
	}
	state, err := h.wizard.SetLocation(r.Context(), sess, req.Location, domain.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude})
	h.reply(w, state, err)
}

type detectLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  float64  `json:"accuracy"`
	// ErrorCode is the browser's GeolocationPositionError code when it could not locate the device.
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func (req detectLocationRequest) provider() (domain.PositionProvider, error) {
	if req.ErrorCode != 0 {
		return usecase.ReportedFailure{Code: domain.PositionErrorCode(req.ErrorCode), Message: req.ErrorMessage}, nil
	}
	if req.Latitude == nil || req.Longitude == nil {
		return nil, fmt.Errorf("%w: latitude and longitude are required", domain.ErrInvalidInput)
	}
	return usecase.ReportedPosition{Latitude: *req.Latitude, Longitude: *req.Longitude, Accuracy: req.Accuracy}, nil
}

// HandleDetectLocation resolves browser-reported coordinates into an address.
func (h *WizardHandler) HandleDetectLocation(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req detectLocationRequest
	if !h.decode(w, r, &req) {
		return
	}
	provider, err := req.provider()
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	state, err := h.wizard.DetectLocation(r.Context(), sess, provider)
	h.reply(w, state, err)
}

type submitResponse struct {
	Listing *domain.CreatedListing `json:"listing"`
}

// HandleSubmit publishes the listing for the logged-in user.
func (h *WizardHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	principal, _ := domain.PrincipalFromContext(r.Context())
	listing, err := h.wizard.Submit(r.Context(), sess, principal)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusCreated, submitResponse{Listing: listing})
}
