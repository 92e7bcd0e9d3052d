package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	ethav "github.com/KOREAN139/ethereum-address-validator"
	"github.com/ethereum/go-ethereum/common"

	"goxrpbridge/bridge"
	"goxrpbridge/types"
	"goxrpbridge/xrplrpc"
)

type XRPLToEVMRequest struct {
	Amount      string `json:"amount"`
	XRPLAddress string `json:"xrplAddress"`
	EVMAddress  string `json:"evmAddress"`
	AutoSwap    bool   `json:"autoSwap"`
	// optional seed for custodial submission, held in memory only
	XRPLSecret string `json:"xrplSecret,omitempty"`
}

// SubmitXRPLToEVM accepts a new XRPL to sidechain bridge request and
// starts its orchestration in the background.
func (h *Handler) SubmitXRPLToEVM(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.Log.WithError(err).Error("error reading request body")
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error reading request body",
		}, http.StatusBadRequest)
		return
	}

	var req XRPLToEVMRequest
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

	if err := ethav.Validate(common.HexToAddress(req.EVMAddress).Hex()); err != nil {
		h.Log.WithField("address", req.EVMAddress).WithError(err).Warn("invalid EVM address")
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "evmAddress",
			Message: "No ethereum address or invalid address provided",
		}, http.StatusBadRequest)
		return
	}

	created, err := h.Svc.AcceptRequest(r.Context(), bridge.AcceptParams{
		Direction:          types.DirectionXRPLToEVM,
		Amount:             req.Amount,
		SourceAddress:      req.XRPLAddress,
		DestinationAddress: req.EVMAddress,
		AutoSwap:           req.AutoSwap,
		SourceSecret:       req.XRPLSecret,
	})
	if err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: err.Error(),
		}, http.StatusBadRequest)
		return
	}

	responseJSON(w, &APIAcceptResponse{
		Status:         "ok",
		RequestID:      created.RequestID,
		BridgeStatus:   string(created.Status),
		CustodyAddress: h.Ledger.CustodyAddress(),
	}, http.StatusOK)
}
