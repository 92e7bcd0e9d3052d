package handlers

import (
	goerrors "errors"
	"net/http"

	"github.com/go-chi/chi"

	"goxrpbridge/bridge"
	"goxrpbridge/types"
)

// Status reports the externally visible state of a bridge request. The
// destination transaction hash is published only once the request has
// completed; hashes of unconfirmed payouts stay internal.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")

	req, err := h.Svc.GetStatus(requestID)
	if goerrors.Is(err, bridge.ErrNotFound) {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Bridge request not found",
		}, http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.WithError(err).Error("error fetching bridge request")
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error fetching bridge request",
		}, http.StatusInternalServerError)
		return
	}

	resp := &APIStatusResponse{
		Status:             "ok",
		RequestID:          req.RequestID,
		Direction:          string(req.Direction),
		BridgeStatus:       string(req.Status),
		Amount:             req.Amount,
		SourceAddress:      req.SourceAddress,
		DestinationAddress: req.DestinationAddress,
		AutoSwap:           req.AutoSwap,
		SourceTxHash:       req.SourceTxHash,
		SwapTxHash:         req.SwapTxHash,
		ErrorMessage:       req.ErrorMessage,
		TsCreated:          req.TsCreated,
		TsCompleted:        req.TsCompleted,
	}
	if req.Status == types.StatusCompleted {
		resp.DestinationTxHash = req.DestinationTxHash
	}

	responseJSON(w, resp, http.StatusOK)
}
