package bridge

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"goxrpbridge/types"
)

// DepositDetector decides whether a source-chain deposit satisfying a
// request has occurred. With a source secret it moves the funds itself
// (custodial mode), otherwise it watches the custody account's recent
// history.
type DepositDetector struct {
	ledger    SourceLedger
	store     RequestStore
	policies  Policies
	scanDepth int64
	log       *logrus.Entry
}

func NewDepositDetector(ledger SourceLedger, store RequestStore, policies Policies, scanDepth int64, log *logrus.Entry) *DepositDetector {
	return &DepositDetector{
		ledger:    ledger,
		store:     store,
		policies:  policies,
		scanDepth: scanDepth,
		log:       log,
	}
}

// Detect returns the hash of the confirmed source deposit for req.
// Errors wrap ErrDepositNotFound when the detection window is exhausted
// without a match, and ErrLedgerUnreachable on persistent RPC faults.
func (d *DepositDetector) Detect(ctx context.Context, req *types.BridgeRequest, sourceSecret string) (string, error) {
	if sourceSecret != "" {
		return d.custodial(ctx, req, sourceSecret)
	}
	return d.watch(ctx, req)
}

// custodial mode submits the user's payment to the custody address,
// waits out the settlement grace period and requires the transaction to
// validate with a success result.
func (d *DepositDetector) custodial(ctx context.Context, req *types.BridgeRequest, sourceSecret string) (string, error) {
	hash, err := d.ledger.SubmitPayment(ctx, sourceSecret, req.SourceAddress, d.ledger.CustodyAddress(), req.Amount)
	if err != nil {
		return "", errors.Wrap(err, "custodial deposit submit")
	}

	d.log.WithFields(logrus.Fields{
		"requestId": req.RequestID,
		"txHash":    hash,
	}).Info("custodial deposit submitted, waiting for settlement")

	if err := sleepCtx(ctx, d.policies.SettlementGrace); err != nil {
		return "", err
	}

	err = d.policies.DepositPoll.Do(ctx, func(ctx context.Context) error {
		res, err := d.ledger.TransactionByHash(ctx, hash)
		if err != nil {
			return retryable(errors.Wrap(ErrLedgerUnreachable, err.Error()))
		}
		if res == nil || !res.Validated {
			return retryable(errors.Wrapf(ErrDepositNotFound, "tx %s not validated yet", hash))
		}
		if !res.Success {
			return errors.Wrapf(ErrDepositNotFound, "tx %s validated without success", hash)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return hash, nil
}

// watch mode scans the custody account's recent history for a payment
// from the declared source address with the exact requested amount. Scan
// depth is bounded; the window covers ledger indices
// [current-scanDepth, current] inclusive.
func (d *DepositDetector) watch(ctx context.Context, req *types.BridgeRequest) (string, error) {
	var found string

	err := d.policies.DepositPoll.Do(ctx, func(ctx context.Context) error {
		hash, err := d.scanOnce(ctx, req)
		if err != nil {
			if errors.Is(err, ErrDepositNotFound) || errors.Is(err, ErrLedgerUnreachable) {
				return retryable(err)
			}
			return err
		}
		found = hash
		return nil
	})
	if err != nil {
		return "", err
	}
	return found, nil
}

func (d *DepositDetector) scanOnce(ctx context.Context, req *types.BridgeRequest) (string, error) {
	current, err := d.ledger.CurrentLedgerIndex(ctx)
	if err != nil {
		return "", errors.Wrap(ErrLedgerUnreachable, err.Error())
	}

	since := current - d.scanDepth
	txs, err := d.ledger.RecentTransactions(ctx, d.ledger.CustodyAddress(), since)
	if err != nil {
		return "", errors.Wrap(ErrLedgerUnreachable, err.Error())
	}

	for _, tx := range txs {
		if !d.matches(req, tx, since) {
			continue
		}

		// a hash already bound to some other request cannot satisfy this
		// one, even if sender and amount coincide
		existing, err := d.store.FindBySourceTxHash(tx.Hash)
		if err != nil {
			return "", errors.Wrap(err, "source tx claim lookup")
		}
		if existing != nil && existing.RequestID != req.RequestID {
			d.log.WithFields(logrus.Fields{
				"requestId": req.RequestID,
				"txHash":    tx.Hash,
				"claimedBy": existing.RequestID,
			}).Debug("skipping deposit already claimed by another request")
			continue
		}

		return tx.Hash, nil
	}

	return "", errors.Wrapf(ErrDepositNotFound, "no deposit of %s from %s within %d ledgers",
		req.Amount, req.SourceAddress, d.scanDepth)
}

func (d *DepositDetector) matches(req *types.BridgeRequest, tx LedgerTx, since int64) bool {
	if !tx.Validated || tx.Type != "Payment" {
		return false
	}
	if tx.LedgerIndex < since {
		return false
	}
	if tx.Sender != req.SourceAddress || tx.Destination != d.ledger.CustodyAddress() {
		return false
	}
	return amountsEqual(tx.Amount, req.Amount)
}

// amountsEqual compares two decimal amount strings by value, never by
// float conversion.
func amountsEqual(a, b string) bool {
	da, err := decimal.NewFromString(a)
	if err != nil {
		return false
	}
	db, err := decimal.NewFromString(b)
	if err != nil {
		return false
	}
	return da.Equal(db)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
