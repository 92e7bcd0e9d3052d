package types

// Lifecycle of a bridge request as visible to API consumers.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	// refunded is only ever set by an operator, out of band
	StatusRefunded Status = "refunded"
)

// Phase tracks orchestration progress inside a pending request. It is
// persisted so a restarted process can resume from the last durable
// milestone, but it is not part of the external status surface.
type Phase string

const (
	PhaseAwaitingDeposit Phase = "awaiting_deposit"
	PhaseTransferring    Phase = "transferring"
	PhaseConfirming      Phase = "confirming"
	PhaseSwapping        Phase = "swapping"
	PhaseCompleted       Phase = "completed"
	PhaseFailed          Phase = "failed"
)

type Direction string

const (
	DirectionXRPLToEVM Direction = "xrpl_to_evm"
	DirectionEVMToXRPL Direction = "evm_to_xrpl"
)

// BridgeRequest is a single transfer between the XRPL and the EVM
// sidechain, optionally chained into a stake-swap on arrival.
type BridgeRequest struct {
	RequestID          string
	Direction          Direction
	SourceAddress      string
	DestinationAddress string
	Amount             string // decimal XRP string, never a float
	Status             Status
	Phase              Phase
	AutoSwap           bool
	SourceTxHash       string // transaction where funds reached the bridge custody
	DestinationTxHash  string // transaction where funds left the bridge custody
	SwapTxHash         string // stake-swap transaction, may legitimately stay empty
	ErrorMessage       string
	TsCreated          int64
	TsCompleted        int64 // set exactly once, at the terminal transition
}

// Terminal reports whether no further mutation of the request may occur.
func (r *BridgeRequest) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed || r.Status == StatusRefunded
}
