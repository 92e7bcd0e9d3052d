package handlers

import (
	"net/http"
)

// State is a liveness probe for monitoring.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	responseJSON(w, &APIStateResponse{
		Status: "ok",
	}, http.StatusOK)
}
