package handlers

type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type APIAcceptResponse struct {
	Status         string `json:"status"`
	RequestID      string `json:"requestId"`
	BridgeStatus   string `json:"bridgeStatus"`
	CustodyAddress string `json:"custodyAddress,omitempty"`
}

type APIStatusResponse struct {
	Status             string `json:"status"`
	RequestID          string `json:"requestId"`
	Direction          string `json:"direction"`
	BridgeStatus       string `json:"bridgeStatus"`
	Amount             string `json:"amount"`
	SourceAddress      string `json:"sourceAddress"`
	DestinationAddress string `json:"destinationAddress"`
	AutoSwap           bool   `json:"autoSwap"`
	SourceTxHash       string `json:"sourceTxHash,omitempty"`
	DestinationTxHash  string `json:"destinationTxHash,omitempty"`
	SwapTxHash         string `json:"swapTxHash,omitempty"`
	ErrorMessage       string `json:"errorMessage,omitempty"`
	TsCreated          int64  `json:"tsCreated"`
	TsCompleted        int64  `json:"tsCompleted,omitempty"`
}

type APIBalanceResponse struct {
	Status  string `json:"status"`
	Chain   string `json:"chain"`
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type APIRewardsResponse struct {
	Status          string `json:"status"`
	Address         string `json:"address"`
	StakedWBTC      string `json:"stakedWbtc"`
	InterestRateBps int64  `json:"interestRateBps"`
	HourlyWBTC      string `json:"hourlyWbtc"`
	DailyWBTC       string `json:"dailyWbtc"`
	HourlyXRP       string `json:"hourlyXrp"`
	DailyXRP        string `json:"dailyXrp"`
	AccruedWBTC     string `json:"accruedWbtc"`
	AccruedXRP      string `json:"accruedXrp"`
}

type APIStateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
