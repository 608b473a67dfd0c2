package notification

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/common/logger"
)

// UserHeader carries the authenticated user id set by the gateway in front of the
// manager.
const UserHeader = "X-User-ID"

// InboxHandler serves a user's notifications over HTTP. Every route acts on the
// caller's own inbox only.
type InboxHandler struct {
	inbox  *Inbox
	logger logger.Logger
}

func NewInboxHandler(inbox *Inbox, log logger.Logger) *InboxHandler {
	return &InboxHandler{inbox: inbox, logger: logger.ForComponent(log, "inbox-http")}
}

// Register mounts the inbox routes on mux.
func (h *InboxHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /notifications", h.list)
	mux.HandleFunc("GET /notifications/unread-count", h.unreadCount)
	mux.HandleFunc("POST /notifications/{id}/read", h.markRead)
}

func (h *InboxHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.inbox.List(r.Context(), r.Header.Get(UserHeader), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": records,
		"count":         len(records),
	})
}

func (h *InboxHandler) unreadCount(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(UserHeader)
	if userID == "" {
		h.writeError(w, apperrors.NewInvalidEventPayloadError("unread_count", "userId is required"))
		return
	}
	n, err := h.inbox.UnreadCount(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": n})
}

func (h *InboxHandler) markRead(w http.ResponseWriter, r *http.Request) {
	rec, err := h.inbox.MarkRead(r.Context(), r.Header.Get(UserHeader), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *InboxHandler) writeError(w http.ResponseWriter, err error) {
	stdErr := apperrors.AsStandardError(err)
	status := http.StatusInternalServerError
	switch {
	case stderrors.Is(err, apperrors.ErrInvalidEventPayload):
		status = http.StatusBadRequest
	case stderrors.Is(err, apperrors.ErrNotificationNotFound):
		status = http.StatusNotFound
	case stdErr.Retryable:
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("inbox request failed", map[string]interface{}{
			"code":  string(stdErr.Code),
			"error": err.Error(),
		})
	}
	writeJSON(w, status, map[string]string{
		"code":    string(stdErr.Code),
		"message": stdErr.Message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
