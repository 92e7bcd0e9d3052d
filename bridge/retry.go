package bridge

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"goxrpbridge/config"
)

// Policy is a named, bounded retry schedule. Attempts counts total tries;
// zero-valued policies run once with no delay so tests stay fast.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

func (p Policy) backoff() retry.Backoff {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay
	if delay <= 0 {
		delay = time.Nanosecond
	}
	return retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(delay))
}

// Do runs fn under the policy. fn signals a retryable outcome by
// returning retryable(err); any other error aborts immediately.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, p.backoff(), fn)
}

func retryable(err error) error {
	return retry.RetryableError(err)
}

// Policies gathers every timing knob of the orchestration pipeline so
// tests can substitute near-zero delays.
type Policies struct {
	// watch-mode rescan schedule for deposit detection
	DepositPoll Policy
	// fixed wait after a custodial submit before checking settlement
	SettlementGrace time.Duration
	// destination receipt polling schedule
	ReceiptPoll Policy
	// wait before the detached post-swap balance sampling
	SwapSampleDelay time.Duration
}

// PoliciesFromConfig translates the configured timing knobs into retry
// policies.
func PoliciesFromConfig() Policies {
	c := config.Config.Bridge
	return Policies{
		DepositPoll: Policy{
			Attempts: c.DepositAttempts,
			Delay:    time.Duration(c.DepositDelaySec) * time.Second,
		},
		SettlementGrace: time.Duration(c.SettlementGraceSec) * time.Second,
		ReceiptPoll: Policy{
			Attempts: c.ReceiptAttempts,
			Delay:    time.Duration(c.ReceiptDelaySec) * time.Second,
		},
		SwapSampleDelay: time.Duration(c.SwapSampleDelaySec) * time.Second,
	}
}
