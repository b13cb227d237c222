package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// logInternal records err with a fresh error ID and returns the ID, which is
// the only detail a client gets to see.
func (h *Handler) logInternal(r *http.Request, msg string, err error) string {
	errorID := uuid.NewString()
	h.log.Error(msg,
		zap.Error(err),
		zap.String("error_id", errorID),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
	)
	return errorID
}

func (h *Handler) respondInternal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	errorID := h.logInternal(r, msg, err)
	respondJSON(w, http.StatusInternalServerError, map[string]string{
		"error":    "internal server error",
		"error_id": errorID,
	})
}

func (h *Handler) respondInternalHTML(w http.ResponseWriter, r *http.Request, msg string, err error) {
	errorID := h.logInternal(r, msg, err)
	h.renderHTML(w, http.StatusInternalServerError, errorPage, errorPageData{
		Message: "An error occurred while processing your request.",
		ErrorID: errorID,
	})
}
