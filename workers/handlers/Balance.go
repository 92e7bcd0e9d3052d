package handlers

import (
	"net/http"

	"goxrpbridge/config"
)

// BalanceXRPL reports the custody account balance on the XRP Ledger.
func (h *Handler) BalanceXRPL(w http.ResponseWriter, r *http.Request) {
	address := h.Ledger.CustodyAddress()

	balance, err := h.Ledger.AccountBalance(r.Context(), address)
	if err != nil {
		h.Log.WithError(err).Error("error fetching XRPL balance")
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error fetching XRPL balance",
		}, http.StatusInternalServerError)
		return
	}

	responseJSON(w, &APIBalanceResponse{
		Status:  "ok",
		Chain:   "xrpl",
		Address: address,
		Balance: balance.String(),
	}, http.StatusOK)
}

// BalanceEVM reports the payout account balance on the sidechain.
func (h *Handler) BalanceEVM(w http.ResponseWriter, r *http.Request) {
	address := config.Config.EVM.PublicAddress

	balance, err := h.Dest.Balance(r.Context(), address)
	if err != nil {
		h.Log.WithError(err).Error("error fetching EVM balance")
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error fetching EVM balance",
		}, http.StatusInternalServerError)
		return
	}

	responseJSON(w, &APIBalanceResponse{
		Status:  "ok",
		Chain:   "evm",
		Address: address,
		Balance: balance.String(),
	}, http.StatusOK)
}
