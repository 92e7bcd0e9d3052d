package bridge

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"goxrpbridge/types"
)

// Run advances a request through its pipeline until it reaches a
// terminal state or loses a phase claim to a concurrent task. It is safe
// to invoke repeatedly for the same request: every transition is a
// compare-and-swap against the persisted phase, so at most one invocation
// commits any given step.
//
// sourceSecret is only available on the first run after acceptance; a
// recovery run passes "" and deposit detection falls back to watch mode.
func (s *Service) Run(ctx context.Context, requestID, sourceSecret string) {
	log := s.log.WithField("requestId", requestID)

	for {
		req, err := s.store.Get(requestID)
		if err != nil {
			log.WithError(err).Error("cannot load bridge request")
			return
		}
		if req.Terminal() {
			return
		}

		switch req.Phase {
		case types.PhaseAwaitingDeposit:
			err = s.runDeposit(ctx, req, sourceSecret)
		case types.PhaseTransferring:
			err = s.runTransfer(ctx, req)
		case types.PhaseConfirming:
			err = s.runConfirm(ctx, req)
		case types.PhaseSwapping:
			err = s.runSwap(ctx, req)
		default:
			log.WithField("phase", req.Phase).Error("request in unknown phase")
			return
		}

		if errors.Is(err, ErrConflict) {
			// another task owns this request now
			log.Debug("phase already advanced elsewhere, standing down")
			return
		}
		if canceled(err) {
			// process shutdown, not a request failure: leave the last
			// durable phase for the next recovery pass
			log.Info("run cancelled, leaving request for recovery")
			return
		}
		if err != nil {
			log.WithError(err).Error("orchestration halted")
			return
		}
	}
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (s *Service) runDeposit(ctx context.Context, req *types.BridgeRequest, sourceSecret string) error {
	hash, err := s.detector.Detect(ctx, req, sourceSecret)
	if err != nil {
		if canceled(err) {
			return err
		}
		return s.fail(req, types.PhaseAwaitingDeposit, err, nil)
	}

	s.log.WithFields(logrus.Fields{
		"requestId": req.RequestID,
		"txHash":    hash,
	}).Info("source deposit confirmed")

	return s.store.CompareAndUpdate(req.RequestID, types.PhaseAwaitingDeposit, func(r *types.BridgeRequest) {
		r.Phase = types.PhaseTransferring
		r.SourceTxHash = hash
	})
}

func (s *Service) runTransfer(ctx context.Context, req *types.BridgeRequest) error {
	var (
		hash string
		err  error
	)
	if req.Direction == types.DirectionEVMToXRPL {
		hash, err = s.executor.SubmitToXRPL(ctx, req.DestinationAddress, req.Amount)
	} else {
		hash, err = s.executor.SubmitToEVM(ctx, req.DestinationAddress, req.Amount)
	}
	if err != nil {
		if canceled(err) {
			return err
		}
		return s.fail(req, types.PhaseTransferring, err, nil)
	}

	return s.store.CompareAndUpdate(req.RequestID, types.PhaseTransferring, func(r *types.BridgeRequest) {
		r.Phase = types.PhaseConfirming
		r.DestinationTxHash = hash
	})
}

func (s *Service) runConfirm(ctx context.Context, req *types.BridgeRequest) error {
	var err error
	if req.Direction == types.DirectionEVMToXRPL {
		err = s.executor.ConfirmXRPL(ctx, req.DestinationTxHash)
	} else {
		err = s.executor.ConfirmEVM(ctx, req.DestinationTxHash)
	}
	if err != nil {
		if canceled(err) {
			return err
		}
		// no partial credit: a payout that did not confirm leaves no
		// destination hash on the failed record
		return s.fail(req, types.PhaseConfirming, err, func(r *types.BridgeRequest) {
			r.DestinationTxHash = ""
		})
	}

	next := types.PhaseCompleted
	if req.Direction == types.DirectionXRPLToEVM && req.AutoSwap && s.composer != nil {
		next = types.PhaseSwapping
	}

	return s.store.CompareAndUpdate(req.RequestID, types.PhaseConfirming, func(r *types.BridgeRequest) {
		r.Phase = next
		if next == types.PhaseCompleted {
			r.Status = types.StatusCompleted
			r.TsCompleted = time.Now().Unix()
		}
	})
}

func (s *Service) runSwap(ctx context.Context, req *types.BridgeRequest) error {
	// swap failure degrades to a logged side effect, never a request failure
	swapHash := s.composer.Compose(ctx, req.DestinationAddress, req.Amount)

	// a swap that yielded nothing because the run was cancelled is not a
	// verdict; the recovery pass gets another try
	if swapHash == "" && ctx.Err() != nil {
		return ctx.Err()
	}

	return s.store.CompareAndUpdate(req.RequestID, types.PhaseSwapping, func(r *types.BridgeRequest) {
		r.Phase = types.PhaseCompleted
		r.Status = types.StatusCompleted
		r.SwapTxHash = swapHash
		r.TsCompleted = time.Now().Unix()
	})
}

// fail commits the terminal FAILED transition for the given phase claim.
func (s *Service) fail(req *types.BridgeRequest, expected types.Phase, cause error, extra func(*types.BridgeRequest)) error {
	s.log.WithFields(logrus.Fields{
		"requestId": req.RequestID,
		"phase":     expected,
	}).WithError(cause).Warn("bridge request failed")

	return s.store.CompareAndUpdate(req.RequestID, expected, func(r *types.BridgeRequest) {
		r.Phase = types.PhaseFailed
		r.Status = types.StatusFailed
		r.ErrorMessage = cause.Error()
		r.TsCompleted = time.Now().Unix()
		if extra != nil {
			extra(r)
		}
	})
}
