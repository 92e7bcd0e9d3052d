package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"goxrpbridge/types"
)

// Service is the externally consumed bridge surface: it accepts requests,
// exposes their status, and owns the orchestration tasks that advance
// them. It is the only component that mutates request status.
type Service struct {
	store    RequestStore
	ledger   SourceLedger
	dest     DestinationChain
	swap     SwapGateway // nil when no swap contract is configured
	detector *DepositDetector
	executor *TransferExecutor
	composer *SwapComposer
	policies Policies
	log      *logrus.Entry

	wg sync.WaitGroup
}

// New wires the orchestration core. swap may be nil; autoSwap requests
// then complete without a swap leg.
func New(store RequestStore, ledger SourceLedger, dest DestinationChain, swap SwapGateway,
	policies Policies, scanDepth int64, logger *logrus.Logger) *Service {
	log := logger.WithField("component", "bridge")

	s := &Service{
		store:    store,
		ledger:   ledger,
		dest:     dest,
		swap:     swap,
		policies: policies,
		log:      log,
	}
	s.detector = NewDepositDetector(ledger, store, policies, scanDepth, log)
	s.executor = NewTransferExecutor(dest, ledger, policies, log)
	if swap != nil {
		s.composer = NewSwapComposer(swap, dest, policies, log)
	}
	return s
}

// AcceptParams carries the caller-supplied fields of a new request. The
// source secret is only ever held in memory for the lifetime of the
// orchestration task; it is never persisted.
type AcceptParams struct {
	Direction          types.Direction
	Amount             string
	SourceAddress      string
	DestinationAddress string
	AutoSwap           bool
	SourceSecret       string
}

// AcceptRequest persists a pending request and schedules its
// orchestration. It returns immediately; the caller polls GetStatus.
func (s *Service) AcceptRequest(ctx context.Context, p AcceptParams) (*types.BridgeRequest, error) {
	if p.SourceAddress == "" || p.DestinationAddress == "" {
		return nil, errors.New("source and destination addresses are required")
	}
	amt, err := decimal.NewFromString(p.Amount)
	if err != nil {
		return nil, errors.Wrapf(err, "bad amount %q", p.Amount)
	}
	if !amt.IsPositive() {
		return nil, errors.Errorf("amount must be positive, got %s", p.Amount)
	}
	if p.Direction != types.DirectionXRPLToEVM && p.Direction != types.DirectionEVMToXRPL {
		return nil, errors.Errorf("unknown direction %q", p.Direction)
	}

	req := &types.BridgeRequest{
		RequestID:          uuid.New().String(),
		Direction:          p.Direction,
		SourceAddress:      p.SourceAddress,
		DestinationAddress: p.DestinationAddress,
		Amount:             p.Amount,
		Status:             types.StatusPending,
		Phase:              types.PhaseAwaitingDeposit,
		AutoSwap:           p.AutoSwap,
		TsCreated:          time.Now().Unix(),
	}
	// the reverse direction has no deposit leg to detect
	if p.Direction == types.DirectionEVMToXRPL {
		req.Phase = types.PhaseTransferring
	}

	if err := s.store.Create(req); err != nil {
		return nil, errors.Wrap(err, "persist bridge request")
	}

	s.log.WithFields(logrus.Fields{
		"requestId": req.RequestID,
		"direction": req.Direction,
		"amount":    req.Amount,
		"autoSwap":  req.AutoSwap,
	}).Info("bridge request accepted")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run(context.Background(), req.RequestID, p.SourceSecret)
	}()

	return req, nil
}

// GetStatus returns the stored snapshot of a request.
func (s *Service) GetStatus(requestID string) (*types.BridgeRequest, error) {
	return s.store.Get(requestID)
}

// Rewards answers the independent reward query surface.
func (s *Service) Rewards(ctx context.Context, address string) (*RewardReport, error) {
	if s.swap == nil {
		return nil, errors.New("swap gateway not configured")
	}
	return EstimateRewards(ctx, s.swap, address)
}

// Shutdown waits for in-flight orchestration tasks to drain.
func (s *Service) Shutdown() {
	s.wg.Wait()
}
