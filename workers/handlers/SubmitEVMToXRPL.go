package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"goxrpbridge/bridge"
	"goxrpbridge/types"
	"goxrpbridge/xrplrpc"
)

type EVMToXRPLRequest struct {
	Amount      string `json:"amount"`
	EVMAddress  string `json:"evmAddress"`
	XRPLAddress string `json:"xrplAddress"`
}

// SubmitEVMToXRPL accepts a sidechain to XRPL bridge request. The
// deposit leg is the caller's own sidechain transfer, so orchestration
// starts at the payout phase.
func (h *Handler) SubmitEVMToXRPL(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.Log.WithError(err).Error("error reading request body")
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error reading request body",
		}, http.StatusBadRequest)
		return
	}

	var req EVMToXRPLRequest
	if err = json.Unmarshal(body, &req); err != nil {
		h.Log.WithError(err).Error("error unmarshalling request body")
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Cannot unmarshal input JSON",
		}, http.StatusBadRequest)
		return
	}

	if err := xrplrpc.ValidateAddress(req.XRPLAddress); err != nil {
		h.Log.WithField("address", req.XRPLAddress).WithError(err).Warn("invalid XRPL address")
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "xrplAddress",
			Message: "No XRPL address or invalid address provided",
		}, http.StatusBadRequest)
		return
	}

	created, err := h.Svc.AcceptRequest(r.Context(), bridge.AcceptParams{
		Direction:          types.DirectionEVMToXRPL,
		Amount:             req.Amount,
		SourceAddress:      req.EVMAddress,
		DestinationAddress: req.XRPLAddress,
	})
	if err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: err.Error(),
		}, http.StatusBadRequest)
		return
	}

	responseJSON(w, &APIAcceptResponse{
		Status:       "ok",
		RequestID:    created.RequestID,
		BridgeStatus: string(created.Status),
	}, http.StatusOK)
}
