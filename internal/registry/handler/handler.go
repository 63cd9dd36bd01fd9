package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	auditmodels "shelterhub/internal/audit/models"
	photomodels "shelterhub/internal/photo/models"
	"shelterhub/internal/registry/service"
	"shelterhub/internal/shelter/models"
	shelterservice "shelterhub/internal/shelter/service"
	dErrors "shelterhub/pkg/domain-errors"
	"shelterhub/pkg/platform/httputil"
	authmw "shelterhub/pkg/platform/middleware/auth"
	request "shelterhub/pkg/platform/middleware/request"
)

const (
	defaultMaxRequestBytes = 32 << 20
	multipartMemory        = 8 << 20
)

// Service defines the registry operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, credential string, draft *models.Draft) (*models.View, error)
	Get(ctx context.Context, id int64) (*models.View, error)
	List(ctx context.Context, filter models.Filter) ([]*models.View, error)
	Update(ctx context.Context, credential string, id int64, patch *models.Patch) (*models.View, error)
	Delete(ctx context.Context, credential string, id int64) error
	BulkUpdate(ctx context.Context, credential string, ids []int64, patch models.BulkPatch) ([]*models.View, error)
	BulkDelete(ctx context.Context, credential string, ids []int64) ([]int64, error)
	UploadPhotos(ctx context.Context, credential string, shelterID int64, uploads []shelterservice.Upload) (*service.PhotoResult, error)
	AttachPhotos(ctx context.Context, credential string, shelterID int64, photoIDs []string) (*models.View, error)
	UploadBlob(ctx context.Context, credential string, upload shelterservice.Upload) (*service.PhotoResult, error)
	Photo(ctx context.Context, id string) (*photomodels.Photo, error)
	AuditLog(ctx context.Context, credential string, limit int) ([]*auditmodels.Entry, error)
}

// Handler serves the shelter, photo and audit-log endpoints.
type Handler struct {
	registry        Service
	logger          *slog.Logger
	maxRequestBytes int64
}

type Option func(*Handler)

// WithMaxRequestBytes bounds multipart upload bodies.
func WithMaxRequestBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxRequestBytes = n
		}
	}
}

func New(registry Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{registry: registry, logger: logger, maxRequestBytes: defaultMaxRequestBytes}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/shelters", h.handleList)
	r.Get("/shelters/{id}", h.handleGet)
	r.Get("/photos/{id}", h.handlePhoto)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireBearer(h.logger))
		r.Post("/shelters", h.handleCreate)
		r.Patch("/shelters/bulk-update", h.handleBulkUpdate)
		r.Post("/shelters/bulk-delete", h.handleBulkDelete)
		r.Put("/shelters/{id}", h.handleUpdate)
		r.Delete("/shelters/{id}", h.handleDelete)
		r.Post("/shelters/{id}/photos", h.handleShelterPhotos)
		r.Post("/photos", h.handleUploadBlob)
		r.Get("/audit-log", h.handleAuditLog)
	})
}

type messageResponse struct {
	Message string  `json:"message"`
	ID      *int64  `json:"id,omitempty"`
	IDs     []int64 `json:"ids,omitempty"`
}

type bulkUpdateRequest struct {
	IDs []int64 `json:"ids"`
	models.BulkPatch
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

type attachRequest struct {
	PhotoIDs []string `json:"photo_ids"`
}

type bulkUpdateResponse struct {
	Message  string         `json:"message"`
	Shelters []*models.View `json:"shelters"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	views, err := h.registry.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "failed to list shelters", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := shelterID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.registry.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "failed to get shelter", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var draft models.Draft
	if err := httputil.DecodeJSON(r, &draft); err != nil {
		h.logger.WarnContext(ctx, "invalid create request",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	view, err := h.registry.Create(ctx, authmw.Credential(ctx), &draft)
	if err != nil {
		h.fail(w, r, "failed to create shelter", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, view)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := shelterID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var patch models.Patch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.registry.Update(ctx, authmw.Credential(ctx), id, &patch)
	if err != nil {
		h.fail(w, r, "failed to update shelter", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := shelterID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.registry.Delete(ctx, authmw.Credential(ctx), id); err != nil {
		h.fail(w, r, "failed to delete shelter", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "shelter deleted", ID: &id})
}

func (h *Handler) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req bulkUpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	views, err := h.registry.BulkUpdate(ctx, authmw.Credential(ctx), req.IDs, req.BulkPatch)
	if err != nil {
		h.fail(w, r, "failed to bulk update shelters", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, bulkUpdateResponse{Message: "shelters updated", Shelters: views})
}

func (h *Handler) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req bulkDeleteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	deleted, err := h.registry.BulkDelete(ctx, authmw.Credential(ctx), req.IDs)
	if err != nil {
		h.fail(w, r, "failed to bulk delete shelters", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "shelters deleted", IDs: deleted})
}

// handleShelterPhotos accepts either multipart files or a JSON list of
// previously uploaded photo ids.
func (h *Handler) handleShelterPhotos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := shelterID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req attachRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
		view, err := h.registry.AttachPhotos(ctx, authmw.Credential(ctx), id, req.PhotoIDs)
		if err != nil {
			h.fail(w, r, "failed to attach photos", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, service.PhotoResult{PhotoIDs: view.PhotoIDs, PhotoURLs: view.PhotoURLs})
		return
	}

	uploads, err := h.readFiles(w, r, "files")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.registry.UploadPhotos(ctx, authmw.Credential(ctx), id, uploads)
	if err != nil {
		h.fail(w, r, "failed to upload photos", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleUploadBlob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uploads, err := h.readFiles(w, r, "file")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if len(uploads) != 1 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "exactly one file is required"))
		return
	}
	result, err := h.registry.UploadBlob(ctx, authmw.Credential(ctx), uploads[0])
	if err != nil {
		h.fail(w, r, "failed to store photo", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handlePhoto(w http.ResponseWriter, r *http.Request) {
	photo, err := h.registry.Photo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "failed to load photo", err)
		return
	}
	w.Header().Set("Content-Type", photo.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(photo.Data)))
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(photo.Data)
}

func (h *Handler) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be an integer"))
			return
		}
		limit = n
	}
	entries, err := h.registry.AuditLog(ctx, authmw.Credential(ctx), limit)
	if err != nil {
		h.fail(w, r, "failed to list audit log", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

// readFiles reads every part named field from a multipart body.
func (h *Handler) readFiles(w http.ResponseWriter, r *http.Request, field string) ([]shelterservice.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, dErrors.New(dErrors.CodeValidation, "request body too large")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid multipart body")
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "no files in field "+strconv.Quote(field))
	}
	uploads := make([]shelterservice.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, shelterservice.Upload{Filename: fh.Filename, Data: data})
	}
	return uploads, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "unreadable file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "unreadable file")
	}
	return data, nil
}

// fail writes err, logging it when it is not a client error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		ctx := r.Context()
		h.logger.ErrorContext(ctx, msg,
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func shelterID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "shelter id must be a positive integer")
	}
	return id, nil
}
