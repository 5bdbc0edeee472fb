package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"profiled/internal/audit"
	"profiled/internal/platform/middleware"
	"profiled/internal/profile"
	"profiled/internal/uploads"
	"profiled/pkg/domain"
	dErrors "profiled/pkg/domain-errors"
)

// ProfileService defines the profile operations the transport layer needs.
type ProfileService interface {
	GetProfile(ctx context.Context, userID domain.UserID) (*profile.User, error)
	UpdateProfile(ctx context.Context, userID domain.UserID, req profile.UpdateRequest, pictureRef *string) (*profile.User, error)
	DeleteProfile(ctx context.Context, userID domain.UserID) error
	ListAuditLogs(ctx context.Context, userID domain.UserID, params audit.ListParams) (*audit.Page, error)
}

// ProfileHandler handles the authenticated profile endpoints.
type ProfileHandler struct {
	service ProfileService
	uploads *uploads.Manager
	logger  *slog.Logger
}

func NewProfileHandler(service ProfileService, uploads *uploads.Manager, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		uploads: uploads,
		logger:  logger,
	}
}

// Register registers the profile routes. The caller mounts these behind the
// auth middleware chain.
func (h *ProfileHandler) Register(r chi.Router) {
	r.Get("/profile", h.handleGetProfile)
	r.Put("/profile", h.handleUpdateProfile)
	r.Delete("/profile", h.handleDeleteProfile)
	r.Get("/audit-logs", h.handleListAuditLogs)
}

func (h *ProfileHandler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		h.missingIdentity(ctx, w)
		return
	}

	user, err := h.service.GetProfile(ctx, userID)
	if err != nil {
		h.logFailure(ctx, "failed to fetch profile", err)
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, "", user)
}

func (h *ProfileHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		h.missingIdentity(ctx, w)
		return
	}

	req, staged, err := h.parseUpdateRequest(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid profile update request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		WriteError(w, err)
		return
	}

	var pictureRef *string
	if staged != nil {
		pictureRef = &staged.Ref
	}

	user, err := h.service.UpdateProfile(ctx, userID, req, pictureRef)
	if err != nil {
		// The staged upload is only referenced once the update commits;
		// on any failure it must not leak onto disk.
		h.uploads.Remove(staged)
		h.logFailure(ctx, "profile update rejected", err)
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, "Profile updated successfully", user)
}

func (h *ProfileHandler) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		h.missingIdentity(ctx, w)
		return
	}

	if err := h.service.DeleteProfile(ctx, userID); err != nil {
		h.logFailure(ctx, "profile delete rejected", err)
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, "Profile deleted successfully", nil)
}

// parseUpdateRequest accepts either a JSON body or a multipart form with an
// optional profilePicture file. A multipart file is staged to disk before the
// service call; the caller removes it when the update fails.
func (h *ProfileHandler) parseUpdateRequest(r *http.Request) (profile.UpdateRequest, *uploads.Staged, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req profile.UpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return profile.UpdateRequest{}, nil, dErrors.New(dErrors.CodeInvalidInput, "invalid request body")
		}
		return req, nil, nil
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return profile.UpdateRequest{}, nil, dErrors.New(dErrors.CodeInvalidInput, "invalid multipart form")
	}

	req := profile.UpdateRequest{
		Name:    formValue(r, "name"),
		Email:   formValue(r, "email"),
		Bio:     formValue(r, "bio"),
		Company: formValue(r, "company"),
	}

	file, fh, err := r.FormFile("profilePicture")
	if err == http.ErrMissingFile {
		return req, nil, nil
	}
	if err != nil {
		return profile.UpdateRequest{}, nil, dErrors.New(dErrors.CodeInvalidInput, "invalid profile picture upload")
	}
	file.Close()

	staged, err := h.uploads.Stage(fh)
	if err != nil {
		return profile.UpdateRequest{}, nil, err
	}
	return req, staged, nil
}

// formValue distinguishes an absent field from an empty one: absent fields
// are left untouched by the update, empty ones clear optional columns.
func formValue(r *http.Request, key string) *string {
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	return &vals[0]
}

func (h *ProfileHandler) missingIdentity(ctx context.Context, w http.ResponseWriter) {
	// Should never happen behind RequireAuth.
	h.logger.ErrorContext(ctx, "user ID missing from context despite auth middleware",
		"request_id", middleware.GetRequestID(ctx),
	)
	WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
}

func (h *ProfileHandler) logFailure(ctx context.Context, msg string, err error) {
	attrs := []any{
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	h.logger.WarnContext(ctx, msg, attrs...)
}
