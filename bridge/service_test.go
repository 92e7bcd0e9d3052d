package bridge_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goxrpbridge/bridge"
	"goxrpbridge/types"
)

func TestAcceptRequestValidation(t *testing.T) {
	svc := bridge.New(newMemStore(), newFakeLedger("rCustody"), &fakeDest{}, nil, testPolicies(), 10, testLogger())

	cases := []struct {
		name   string
		params bridge.AcceptParams
	}{
		{"missing source", bridge.AcceptParams{Direction: types.DirectionXRPLToEVM, Amount: "1", DestinationAddress: "0xBob"}},
		{"missing destination", bridge.AcceptParams{Direction: types.DirectionXRPLToEVM, Amount: "1", SourceAddress: "rAlice"}},
		{"garbage amount", bridge.AcceptParams{Direction: types.DirectionXRPLToEVM, Amount: "abc", SourceAddress: "rAlice", DestinationAddress: "0xBob"}},
		{"zero amount", bridge.AcceptParams{Direction: types.DirectionXRPLToEVM, Amount: "0", SourceAddress: "rAlice", DestinationAddress: "0xBob"}},
		{"negative amount", bridge.AcceptParams{Direction: types.DirectionXRPLToEVM, Amount: "-5", SourceAddress: "rAlice", DestinationAddress: "0xBob"}},
		{"unknown direction", bridge.AcceptParams{Direction: "sideways", Amount: "1", SourceAddress: "rAlice", DestinationAddress: "0xBob"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AcceptRequest(context.Background(), tc.params)
			assert.Error(t, err)
		})
	}
}

func TestAcceptRequestRunsToCompletion(t *testing.T) {
	store := newMemStore()
	ledger := newFakeLedger("rCustody")
	ledger.submitHash = "XRPHASH"
	ledger.results["XRPHASH"] = &bridge.LedgerTxResult{Hash: "XRPHASH", Success: true, Validated: true}

	svc := bridge.New(store, ledger, &fakeDest{}, nil, testPolicies(), 10, testLogger())

	req, err := svc.AcceptRequest(context.Background(), bridge.AcceptParams{
		Direction:          types.DirectionEVMToXRPL,
		Amount:             "12.5",
		SourceAddress:      "0xBob",
		DestinationAddress: "rAlice",
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, req.Status)
	// reverse direction has no deposit leg, orchestration starts at payout
	assert.Equal(t, types.PhaseTransferring, req.Phase)
	assert.NotEmpty(t, req.RequestID)
	assert.NotZero(t, req.TsCreated)

	svc.Shutdown()

	got, err := svc.GetStatus(req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.Status)
	assert.Equal(t, "XRPHASH", got.DestinationTxHash)
}

func TestAcceptRequestStartsAtDepositForForwardDirection(t *testing.T) {
	store := newMemStore()
	ledger := newFakeLedger("rCustody")
	ledger.current = 100
	ledger.txs = []bridge.LedgerTx{
		{Hash: "DEP1", Type: "Payment", Sender: "rAlice", Destination: "rCustody", Amount: "7", LedgerIndex: 99, Validated: true},
	}
	dest := &fakeDest{
		submitHash: "0xdst",
		receipts:   []*bridge.Receipt{{Success: true}},
	}

	svc := bridge.New(store, ledger, dest, nil, testPolicies(), 10, testLogger())

	req, err := svc.AcceptRequest(context.Background(), bridge.AcceptParams{
		Direction:          types.DirectionXRPLToEVM,
		Amount:             "7",
		SourceAddress:      "rAlice",
		DestinationAddress: "0xBob",
	})
	require.NoError(t, err)
	assert.Equal(t, types.PhaseAwaitingDeposit, req.Phase)

	svc.Shutdown()

	got, err := svc.GetStatus(req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.Status)
	assert.Equal(t, "DEP1", got.SourceTxHash)
	assert.Equal(t, "0xdst", got.DestinationTxHash)
	assert.Empty(t, got.SwapTxHash, "no swap without a configured gateway")
}

func TestRewardsRequiresGateway(t *testing.T) {
	svc := bridge.New(newMemStore(), newFakeLedger("rCustody"), &fakeDest{}, nil, testPolicies(), 10, testLogger())

	_, err := svc.Rewards(context.Background(), "0xBob")
	assert.Error(t, err)
}

func TestGetStatusUnknownRequest(t *testing.T) {
	svc := bridge.New(newMemStore(), newFakeLedger("rCustody"), &fakeDest{}, nil, testPolicies(), 10, testLogger())

	_, err := svc.GetStatus("nope")
	assert.ErrorIs(t, err, bridge.ErrNotFound)
}
