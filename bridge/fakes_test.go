package bridge_test

import (
	"context"
	"io"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"goxrpbridge/bridge"
	"goxrpbridge/types"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// memStore is an in-memory RequestStore with the same conditional-update
// semantics as the Redis implementation.
type memStore struct {
	mu       sync.Mutex
	requests map[string]types.BridgeRequest
	sourceTx map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		requests: make(map[string]types.BridgeRequest),
		sourceTx: make(map[string]string),
	}
}

func (s *memStore) Create(req *types.BridgeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[req.RequestID]; ok {
		return bridge.ErrAlreadyExists
	}
	s.requests[req.RequestID] = *req
	return nil
}

func (s *memStore) Get(requestID string) (*types.BridgeRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[requestID]
	if !ok {
		return nil, bridge.ErrNotFound
	}
	return &req, nil
}

func (s *memStore) CompareAndUpdate(requestID string, expected types.Phase, mutate func(*types.BridgeRequest)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[requestID]
	if !ok {
		return bridge.ErrNotFound
	}
	if req.Phase != expected {
		return bridge.ErrConflict
	}

	mutate(&req)
	s.requests[requestID] = req
	if req.SourceTxHash != "" {
		s.sourceTx[req.SourceTxHash] = requestID
	}
	return nil
}

func (s *memStore) FindBySourceTxHash(txHash string) (*types.BridgeRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requestID, ok := s.sourceTx[txHash]
	if !ok {
		return nil, nil
	}
	req := s.requests[requestID]
	return &req, nil
}

func (s *memStore) FindByStatus(status types.Status) ([]*types.BridgeRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*types.BridgeRequest
	for id := range s.requests {
		req := s.requests[id]
		if req.Status == status {
			out = append(out, &req)
		}
	}
	return out, nil
}

// claim binds a source tx hash to a request out of band, as if another
// request had already consumed the deposit.
func (s *memStore) claim(txHash, requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sourceTx[txHash] = requestID
}

type fakeLedger struct {
	mu sync.Mutex

	custody    string
	current    int64
	currentErr error

	txs    []bridge.LedgerTx
	txsErr error

	results map[string]*bridge.LedgerTxResult
	// results applied after the first lookup of a hash, to model a
	// transaction that validates while being polled
	laterResults map[string]*bridge.LedgerTxResult
	seen         map[string]bool

	submitHash string
	submitErr  error
	submits    []string // "secret|sender|destination|amount" per call

	balance decimal.Decimal
}

func newFakeLedger(custody string) *fakeLedger {
	return &fakeLedger{
		custody:      custody,
		results:      make(map[string]*bridge.LedgerTxResult),
		laterResults: make(map[string]*bridge.LedgerTxResult),
		seen:         make(map[string]bool),
	}
}

func (l *fakeLedger) CustodyAddress() string { return l.custody }

func (l *fakeLedger) SubmitPayment(ctx context.Context, secret, sender, destination, amount string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.submits = append(l.submits, secret+"|"+sender+"|"+destination+"|"+amount)
	return l.submitHash, l.submitErr
}

func (l *fakeLedger) AccountBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	return l.balance, nil
}

func (l *fakeLedger) RecentTransactions(ctx context.Context, address string, sinceLedger int64) ([]bridge.LedgerTx, error) {
	if l.txsErr != nil {
		return nil, l.txsErr
	}
	var out []bridge.LedgerTx
	for _, tx := range l.txs {
		if tx.LedgerIndex >= sinceLedger {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (l *fakeLedger) TransactionByHash(ctx context.Context, hash string) (*bridge.LedgerTxResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen[hash] {
		if res, ok := l.laterResults[hash]; ok {
			return res, nil
		}
	}
	l.seen[hash] = true
	return l.results[hash], nil
}

func (l *fakeLedger) CurrentLedgerIndex(ctx context.Context) (int64, error) {
	return l.current, l.currentErr
}

type fakeDest struct {
	mu sync.Mutex

	submitHash string
	submitErr  error
	submits    int

	// receipt sequence, one element consumed per poll; the last element
	// repeats once the sequence is exhausted
	receipts   []*bridge.Receipt
	receiptErr error
	receiptFn  func() // runs on every poll, before the answer

	balance decimal.Decimal
}

func (d *fakeDest) SubmitPayment(ctx context.Context, destination string, amount decimal.Decimal) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.submits++
	return d.submitHash, d.submitErr
}

func (d *fakeDest) Receipt(ctx context.Context, txHash string) (*bridge.Receipt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.receiptFn != nil {
		d.receiptFn()
	}
	if d.receiptErr != nil {
		return nil, d.receiptErr
	}
	if len(d.receipts) == 0 {
		return nil, nil
	}
	r := d.receipts[0]
	if len(d.receipts) > 1 {
		d.receipts = d.receipts[1:]
	}
	return r, nil
}

func (d *fakeDest) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	return d.balance, nil
}

type fakeSwap struct {
	mu sync.Mutex

	swapHash  string
	swapErr   error
	swapCalls int

	wbtc    decimal.Decimal
	staked  decimal.Decimal
	rateBps int64
	accrual bridge.RewardAccrual
	prices  bridge.PriceRatio
}

func (g *fakeSwap) StakeAndSwap(ctx context.Context, amount decimal.Decimal) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.swapCalls++
	return g.swapHash, g.swapErr
}

func (g *fakeSwap) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.swapCalls
}

func (g *fakeSwap) WBTCBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	return g.wbtc, nil
}

func (g *fakeSwap) StakedBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	return g.staked, nil
}

func (g *fakeSwap) RewardAccrual(ctx context.Context, address string) (*bridge.RewardAccrual, error) {
	a := g.accrual
	return &a, nil
}

func (g *fakeSwap) InterestRateBps(ctx context.Context) (int64, error) {
	return g.rateBps, nil
}

func (g *fakeSwap) PriceRatio(ctx context.Context) (*bridge.PriceRatio, error) {
	p := g.prices
	return &p, nil
}
