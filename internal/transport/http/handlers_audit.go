package httptransport

import (
	"net/http"

	"profiled/internal/audit"
	"profiled/internal/platform/middleware"
)

func (h *ProfileHandler) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		h.missingIdentity(ctx, w)
		return
	}

	q := r.URL.Query()
	params, err := audit.ParseListParams(q.Get("page"), q.Get("limit"), q.Get("sortBy"), q.Get("sortOrder"))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid audit log query",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		WriteError(w, err)
		return
	}

	page, err := h.service.ListAuditLogs(ctx, userID, params)
	if err != nil {
		h.logFailure(ctx, "failed to fetch audit logs", err)
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, "", page)
}
