package bridge_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goxrpbridge/bridge"
	"goxrpbridge/types"
)

func testPolicies() bridge.Policies {
	return bridge.Policies{
		DepositPoll: bridge.Policy{Attempts: 3},
		ReceiptPoll: bridge.Policy{Attempts: 3},
	}
}

func seedRequest(t *testing.T, store *memStore, direction types.Direction, phase types.Phase, autoSwap bool) *types.BridgeRequest {
	t.Helper()
	req := &types.BridgeRequest{
		RequestID:          "req-1",
		Direction:          direction,
		SourceAddress:      "rAlice",
		DestinationAddress: "0xBob",
		Amount:             "25",
		Status:             types.StatusPending,
		Phase:              phase,
		AutoSwap:           autoSwap,
		TsCreated:          1000,
	}
	if direction == types.DirectionEVMToXRPL {
		req.SourceAddress = "0xBob"
		req.DestinationAddress = "rAlice"
	}
	require.NoError(t, store.Create(req))
	return req
}

func TestRunCompletesDepositPayoutAndSwap(t *testing.T) {
	store := newMemStore()
	ledger := newFakeLedger("rCustody")
	ledger.current = 100
	ledger.txs = []bridge.LedgerTx{
		{Hash: "DEP1", Type: "Payment", Sender: "rAlice", Destination: "rCustody", Amount: "25", LedgerIndex: 95, Validated: true},
	}
	dest := &fakeDest{
		submitHash: "0xdst",
		receipts:   []*bridge.Receipt{{Success: true}},
		balance:    decimal.RequireFromString("25"),
	}
	swap := &fakeSwap{swapHash: "0xswap"}

	svc := bridge.New(store, ledger, dest, swap, testPolicies(), 10, testLogger())
	seedRequest(t, store, types.DirectionXRPLToEVM, types.PhaseAwaitingDeposit, true)

	svc.Run(context.Background(), "req-1", "")

	req, err := store.Get("req-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, req.Status)
	assert.Equal(t, types.PhaseCompleted, req.Phase)
	assert.Equal(t, "DEP1", req.SourceTxHash)
	assert.Equal(t, "0xdst", req.DestinationTxHash)
	assert.Equal(t, "0xswap", req.SwapTxHash)
	assert.Empty(t, req.ErrorMessage)
	assert.NotZero(t, req.TsCompleted)
	assert.Equal(t, 1, swap.calls())
}

func TestRunCustodialDepositCarriesBothHashes(t *testing.T) {
	store := newMemStore()
	ledger := newFakeLedger("rCustody")
	ledger.submitHash = "H1"
	ledger.results["H1"] = &bridge.LedgerTxResult{Hash: "H1", Success: true, Validated: true}
	dest := &fakeDest{
		submitHash: "H2",
		receipts:   []*bridge.Receipt{{Success: true}},
	}

	svc := bridge.New(store, ledger, dest, nil, testPolicies(), 10, testLogger())
	seedRequest(t, store, types.DirectionXRPLToEVM, types.PhaseAwaitingDeposit, false)

	svc.Run(context.Background(), "req-1", "sEdUserSecret")

	got, err := store.Get("req-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.Status)
	assert.Equal(t, "H1", got.SourceTxHash)
	assert.Equal(t, "H2", got.DestinationTxHash)
	// the user's deposit is moved with the supplied credential
	require.Len(t, ledger.submits, 1)
	assert.Contains(t, ledger.submits[0], "sEdUserSecret|rAlice|rCustody|")
}

func TestRunCompletesReversePayout(t *testing.T) {
	store := newMemStore()
	ledger := newFakeLedger("rCustody")
	ledger.submitHash = "XRPHASH"
	ledger.results["XRPHASH"] = &bridge.LedgerTxResult{Hash: "XRPHASH", Success: true, Validated: true}
	dest := &fakeDest{}
	swap := &fakeSwap{}

	svc := bridge.New(store, ledger, dest, swap, testPolicies(), 10, testLogger())
	seedRequest(t, store, types.DirectionEVMToXRPL, types.PhaseTransferring, false)

	svc.Run(context.Background(), "req-1", "")

	req, err := store.Get("req-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, req.Status)
	assert.Equal(t, "XRPHASH", req.DestinationTxHash)
	assert.Empty(t, req.SwapTxHash)
	assert.Equal(t, 0, swap.calls())
	// payout must come from the custody wallet, not a user secret
	require.Len(t, ledger.submits, 1)
	assert.Equal(t, "||rAlice|25", ledger.submits[0])
}

func TestRunFailsWhenReceiptReportsFailure(t *testing.T) {
	store := newMemStore()
	ledger := newFakeLedger("rCustody")
	ledger.current = 100
	ledger.txs = []bridge.LedgerTx{
		{Hash: "DEP1", Type: "Payment", Sender: "rAlice", Destination: "rCustody", Amount: "25", LedgerIndex: 95, Validated: true},
	}
	dest := &fakeDest{
		submitHash: "0xdst",
		receipts:   []*bridge.Receipt{{Success: false}},
	}
	swap := &fakeSwap{swapHash: "0xswap"}

	svc := bridge.New(store, ledger, dest, swap, testPolicies(), 10, testLogger())
	seedRequest(t, store, types.DirectionXRPLToEVM, types.PhaseAwaitingDeposit, true)

	svc.Run(context.Background(), "req-1", "")

	req, err := store.Get("req-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, req.Status)
	assert.Equal(t, types.PhaseFailed, req.Phase)
	assert.Empty(t, req.DestinationTxHash, "failed payout must not keep a destination hash")
	assert.Contains(t, req.ErrorMessage, "receipt reports failure")
	assert.NotZero(t, req.TsCompleted)
	assert.Equal(t, 0, swap.calls(), "a failed payout must never swap")
}

func TestRunSwapFailureStillCompletes(t *testing.T) {
	store := newMemStore()
	ledger := newFakeLedger("rCustody")
	ledger.current = 100
	ledger.txs = []bridge.LedgerTx{
		{Hash: "DEP1", Type: "Payment", Sender: "rAlice", Destination: "rCustody", Amount: "25", LedgerIndex: 95, Validated: true},
	}
	dest := &fakeDest{
		submitHash: "0xdst",
		receipts:   []*bridge.Receipt{{Success: true}},
		balance:    decimal.RequireFromString("25"),
	}
	swap := &fakeSwap{swapErr: assert.AnError}

	svc := bridge.New(store, ledger, dest, swap, testPolicies(), 10, testLogger())
	seedRequest(t, store, types.DirectionXRPLToEVM, types.PhaseAwaitingDeposit, true)

	svc.Run(context.Background(), "req-1", "")

	req, err := store.Get("req-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, req.Status)
	assert.Equal(t, "0xdst", req.DestinationTxHash)
	assert.Empty(t, req.SwapTxHash)
	assert.Empty(t, req.ErrorMessage)
	assert.Equal(t, 1, swap.calls())
}

func TestRunFailsWhenDepositNeverArrives(t *testing.T) {
	store := newMemStore()
	ledger := newFakeLedger("rCustody")
	ledger.current = 100
	dest := &fakeDest{}

	svc := bridge.New(store, ledger, dest, nil, testPolicies(), 10, testLogger())
	seedRequest(t, store, types.DirectionXRPLToEVM, types.PhaseAwaitingDeposit, false)

	svc.Run(context.Background(), "req-1", "")

	req, err := store.Get("req-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, req.Status)
	assert.Contains(t, req.ErrorMessage, "deposit not found")
	assert.Empty(t, req.SourceTxHash)
	assert.Equal(t, 0, dest.submits, "no payout without a detected deposit")
}

func TestRunStandsDownOnConcurrentAdvance(t *testing.T) {
	store := newMemStore()
	ledger := newFakeLedger("rCustody")
	dest := &fakeDest{
		receipts: []*bridge.Receipt{{Success: true}},
	}

	// while the receipt is being polled, another task completes the request
	var once sync.Once
	dest.receiptFn = func() {
		once.Do(func() {
			_ = store.CompareAndUpdate("req-1", types.PhaseConfirming, func(r *types.BridgeRequest) {
				r.Phase = types.PhaseCompleted
				r.Status = types.StatusCompleted
				r.ErrorMessage = "interloper"
			})
		})
	}

	svc := bridge.New(store, ledger, dest, nil, testPolicies(), 10, testLogger())
	req := seedRequest(t, store, types.DirectionXRPLToEVM, types.PhaseConfirming, false)
	require.NoError(t, store.CompareAndUpdate(req.RequestID, types.PhaseConfirming, func(r *types.BridgeRequest) {
		r.DestinationTxHash = "0xdst"
	}))

	svc.Run(context.Background(), "req-1", "")

	got, err := store.Get("req-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.Status)
	assert.Equal(t, "interloper", got.ErrorMessage, "losing task must not overwrite the winner's record")
	assert.Zero(t, got.TsCompleted)
}

func TestRunCancellationLeavesRequestForRecovery(t *testing.T) {
	store := newMemStore()
	ledger := newFakeLedger("rCustody")
	ledger.current = 100 // no matching deposit ever appears
	dest := &fakeDest{}

	policies := bridge.Policies{
		DepositPoll: bridge.Policy{Attempts: 100, Delay: 10 * time.Millisecond},
		ReceiptPoll: bridge.Policy{Attempts: 3},
	}
	svc := bridge.New(store, ledger, dest, nil, policies, 10, testLogger())
	seedRequest(t, store, types.DirectionXRPLToEVM, types.PhaseAwaitingDeposit, false)

	// shut down a few polls into a detection window that is nowhere near
	// exhausted
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(35*time.Millisecond, cancel)
	svc.Run(ctx, "req-1", "")

	req, err := store.Get("req-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, req.Status, "shutdown must not fail the request")
	assert.Equal(t, types.PhaseAwaitingDeposit, req.Phase)
	assert.Empty(t, req.ErrorMessage)
	assert.Zero(t, req.TsCompleted)

	// a later run with the deposit present picks up where it left off
	ledger.txs = []bridge.LedgerTx{
		{Hash: "DEP1", Type: "Payment", Sender: "rAlice", Destination: "rCustody", Amount: "25", LedgerIndex: 99, Validated: true},
	}
	dest.mu.Lock()
	dest.submitHash = "0xdst"
	dest.receipts = []*bridge.Receipt{{Success: true}}
	dest.mu.Unlock()

	svc.Run(context.Background(), "req-1", "")

	req, err = store.Get("req-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, req.Status)
	assert.Equal(t, "DEP1", req.SourceTxHash)
}

func TestRunLeavesTerminalRequestAlone(t *testing.T) {
	store := newMemStore()
	ledger := newFakeLedger("rCustody")
	dest := &fakeDest{submitHash: "0xdst"}

	svc := bridge.New(store, ledger, dest, nil, testPolicies(), 10, testLogger())
	req := seedRequest(t, store, types.DirectionXRPLToEVM, types.PhaseCompleted, false)
	require.NoError(t, store.CompareAndUpdate(req.RequestID, types.PhaseCompleted, func(r *types.BridgeRequest) {
		r.Status = types.StatusCompleted
		r.TsCompleted = 2000
	}))

	svc.Run(context.Background(), "req-1", "")

	got, err := store.Get("req-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.Status)
	assert.EqualValues(t, 2000, got.TsCompleted)
	assert.Equal(t, 0, dest.submits)
}
