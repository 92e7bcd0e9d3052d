package handlers

import (
	"net/http"
)

type APIInfoResponse struct {
	Status  string   `json:"status"`
	Service string   `json:"service"`
	Routes  []string `json:"routes"`
}

// Info describes the API surface at the root path.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	responseJSON(w, &APIInfoResponse{
		Status:  "ok",
		Service: "goxrpbridge",
		Routes: []string{
			"POST /api/bridge/xrpl-to-evm",
			"POST /api/bridge/evm-to-xrpl",
			"GET /api/bridge/status/{requestId}",
			"GET /balance/xrpl",
			"GET /balance/evm",
			"GET /swap/rewards/{address}",
			"GET /state",
		},
	}, http.StatusOK)
}
