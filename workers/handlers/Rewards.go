package handlers

import (
	"net/http"

	ethav "github.com/KOREAN139/ethereum-address-validator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi"

	"goxrpbridge/bridge"
)

// Rewards reports the staking yield projection for a sidechain address.
func (h *Handler) Rewards(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	if err := ethav.Validate(common.HexToAddress(address).Hex()); err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "address",
			Message: "No ethereum address or invalid address provided",
		}, http.StatusBadRequest)
		return
	}

	report, err := h.Svc.Rewards(r.Context(), address)
	if err != nil {
		h.Log.WithError(err).Error("error estimating rewards")
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error estimating rewards",
		}, http.StatusInternalServerError)
		return
	}

	responseJSON(w, rewardsResponse(address, report), http.StatusOK)
}

func rewardsResponse(address string, report *bridge.RewardReport) *APIRewardsResponse {
	return &APIRewardsResponse{
		Status:          "ok",
		Address:         address,
		StakedWBTC:      report.StakedWBTC.String(),
		InterestRateBps: report.RateBps,
		HourlyWBTC:      report.HourlyWBTC.String(),
		DailyWBTC:       report.DailyWBTC.String(),
		HourlyXRP:       report.HourlyXRP.String(),
		DailyXRP:        report.DailyXRP.String(),
		AccruedWBTC:     report.AccruedWBTC.String(),
		AccruedXRP:      report.AccruedXRP.String(),
	}
}
