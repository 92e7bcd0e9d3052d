package bridge

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TransferExecutor performs the destination-side payout of a confirmed
// deposit and verifies its finality. Submission and confirmation are
// separate steps so the orchestrator can persist the payout hash before
// waiting on inclusion.
type TransferExecutor struct {
	dest     DestinationChain
	ledger   SourceLedger
	policies Policies
	log      *logrus.Entry
}

func NewTransferExecutor(dest DestinationChain, ledger SourceLedger, policies Policies, log *logrus.Entry) *TransferExecutor {
	return &TransferExecutor{
		dest:     dest,
		ledger:   ledger,
		policies: policies,
		log:      log,
	}
}

// SubmitToEVM sends amount to destination on the sidechain. The amount
// string is carried through as an exact decimal; unit conversion to wei
// happens inside the chain client with no rounding.
func (e *TransferExecutor) SubmitToEVM(ctx context.Context, destination, amount string) (string, error) {
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return "", errors.Wrapf(ErrPayoutFailed, "bad amount %q: %v", amount, err)
	}

	hash, err := e.dest.SubmitPayment(ctx, destination, amt)
	if err != nil {
		return "", errors.Wrapf(ErrPayoutFailed, "submit to %s: %v", destination, err)
	}

	e.log.WithFields(logrus.Fields{
		"txHash": hash,
		"to":     destination,
		"amount": amount,
	}).Info("destination payout submitted")
	return hash, nil
}

// ConfirmEVM polls for the payout's inclusion receipt. Inclusion with a
// failure status is a payout failure, not a success.
func (e *TransferExecutor) ConfirmEVM(ctx context.Context, txHash string) error {
	err := e.policies.ReceiptPoll.Do(ctx, func(ctx context.Context) error {
		receipt, err := e.dest.Receipt(ctx, txHash)
		if err != nil {
			return retryable(errors.Wrap(ErrLedgerUnreachable, err.Error()))
		}
		if receipt == nil {
			return retryable(errors.Wrapf(ErrPayoutFailed, "tx %s not included yet", txHash))
		}
		if !receipt.Success {
			return errors.Wrapf(ErrPayoutFailed, "tx %s receipt reports failure", txHash)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.log.WithField("txHash", txHash).Info("destination payout confirmed")
	return nil
}

// SubmitToXRPL is the reverse-direction payout, sent from the XRPL
// custody wallet.
func (e *TransferExecutor) SubmitToXRPL(ctx context.Context, destination, amount string) (string, error) {
	hash, err := e.ledger.SubmitPayment(ctx, "", "", destination, amount)
	if err != nil {
		return "", errors.Wrapf(ErrPayoutFailed, "submit to %s: %v", destination, err)
	}

	e.log.WithFields(logrus.Fields{
		"txHash": hash,
		"to":     destination,
		"amount": amount,
	}).Info("XRPL payout submitted")
	return hash, nil
}

// ConfirmXRPL waits for the XRPL payout to validate with a success code.
func (e *TransferExecutor) ConfirmXRPL(ctx context.Context, txHash string) error {
	err := e.policies.ReceiptPoll.Do(ctx, func(ctx context.Context) error {
		res, err := e.ledger.TransactionByHash(ctx, txHash)
		if err != nil {
			return retryable(errors.Wrap(ErrLedgerUnreachable, err.Error()))
		}
		if res == nil || !res.Validated {
			return retryable(errors.Wrapf(ErrPayoutFailed, "tx %s not validated yet", txHash))
		}
		if !res.Success {
			return errors.Wrapf(ErrPayoutFailed, "tx %s validated without success", txHash)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.log.WithField("txHash", txHash).Info("XRPL payout confirmed")
	return nil
}
