package bridge

import (
	"context"

	"github.com/shopspring/decimal"

	"goxrpbridge/types"
)

// LedgerTx is a simplified view of an XRPL transaction as returned by
// recent-history queries. Amount is a decimal XRP string.
type LedgerTx struct {
	Hash        string
	Type        string
	Sender      string
	Destination string
	Amount      string
	LedgerIndex int64
	Validated   bool
}

// LedgerTxResult is the outcome of a point lookup by hash.
type LedgerTxResult struct {
	Hash      string
	Success   bool
	Validated bool
}

// SourceLedger is the XRPL side of the bridge. A secret of "" means the
// bridge custody wallet signs the payment and sender is ignored.
type SourceLedger interface {
	SubmitPayment(ctx context.Context, secret, sender, destination, amount string) (string, error)
	AccountBalance(ctx context.Context, address string) (decimal.Decimal, error)
	// RecentTransactions returns validated transactions touching address
	// with ledger index >= sinceLedger, oldest first.
	RecentTransactions(ctx context.Context, address string, sinceLedger int64) ([]LedgerTx, error)
	TransactionByHash(ctx context.Context, hash string) (*LedgerTxResult, error)
	CurrentLedgerIndex(ctx context.Context) (int64, error)
	CustodyAddress() string
}

// Receipt is a destination-chain inclusion receipt.
type Receipt struct {
	Success bool
}

// DestinationChain is the EVM sidechain side of the bridge. Payments are
// signed by the bridge's destination custody key; implementations must
// serialize nonce assignment internally.
type DestinationChain interface {
	SubmitPayment(ctx context.Context, destination string, amount decimal.Decimal) (string, error)
	// Receipt returns (nil, nil) while the transaction is not yet included.
	Receipt(ctx context.Context, txHash string) (*Receipt, error)
	Balance(ctx context.Context, address string) (decimal.Decimal, error)
}

// RewardAccrual is a point-in-time accrued reward estimate, not a
// ledger-confirmed amount.
type RewardAccrual struct {
	WBTC decimal.Decimal
	XRP  decimal.Decimal
}

// PriceRatio carries the contract's USD quotes for both assets.
type PriceRatio struct {
	XRPUSD decimal.Decimal
	BTCUSD decimal.Decimal
}

// SwapGateway fronts the XRP->WBTC lending/staking contract.
type SwapGateway interface {
	StakeAndSwap(ctx context.Context, amount decimal.Decimal) (string, error)
	WBTCBalance(ctx context.Context, address string) (decimal.Decimal, error)
	StakedBalance(ctx context.Context, address string) (decimal.Decimal, error)
	RewardAccrual(ctx context.Context, address string) (*RewardAccrual, error)
	InterestRateBps(ctx context.Context) (int64, error)
	PriceRatio(ctx context.Context) (*PriceRatio, error)
}

// RequestStore is the durable keyed record store for bridge requests.
// Create is append-only; CompareAndUpdate only applies mutate when the
// stored phase matches expected, otherwise it returns ErrConflict.
type RequestStore interface {
	Create(req *types.BridgeRequest) error
	Get(requestID string) (*types.BridgeRequest, error)
	CompareAndUpdate(requestID string, expected types.Phase, mutate func(*types.BridgeRequest)) error
	FindBySourceTxHash(txHash string) (*types.BridgeRequest, error)
	FindByStatus(status types.Status) ([]*types.BridgeRequest, error)
}
