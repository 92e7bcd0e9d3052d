package bridge

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SwapComposer chains the optional stake-swap after a successful payout.
// Every failure here is absorbed: a completed bridge never turns into a
// failed one because the swap leg misbehaved.
type SwapComposer struct {
	gateway  SwapGateway
	dest     DestinationChain
	policies Policies
	log      *logrus.Entry
}

func NewSwapComposer(gateway SwapGateway, dest DestinationChain, policies Policies, log *logrus.Entry) *SwapComposer {
	return &SwapComposer{
		gateway:  gateway,
		dest:     dest,
		policies: policies,
		log:      log,
	}
}

// Compose swaps amount on behalf of destination and returns the swap
// transaction hash, or "" when the swap could not be performed. The
// post-trade balance sampling runs detached and may outlive the caller.
func (c *SwapComposer) Compose(ctx context.Context, destination, amount string) string {
	log := c.log.WithFields(logrus.Fields{
		"address": destination,
		"amount":  amount,
	})

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		log.WithError(err).Warn("swap skipped: unparseable amount")
		return ""
	}

	balance, err := c.dest.Balance(ctx, destination)
	if err != nil {
		log.WithError(err).Warn("swap skipped: balance check failed")
		return ""
	}
	if amt.GreaterThan(balance) {
		log.WithField("balance", balance.String()).Warn("swap skipped: requested amount exceeds current balance")
		return ""
	}

	hash, err := c.gateway.StakeAndSwap(ctx, amt)
	if err != nil {
		log.WithError(err).Warn("stake-swap call failed")
		return ""
	}

	log.WithField("swapTxHash", hash).Info("stake-swap submitted")

	// observability only, decoupled from the pipeline's completion
	go c.sample(context.Background(), destination)

	return hash
}

// sample logs post-trade balances and reward estimates. Estimates only;
// nothing here is a ledger-confirmed amount and nothing here touches
// request state.
func (c *SwapComposer) sample(ctx context.Context, address string) {
	if err := sleepCtx(ctx, c.policies.SwapSampleDelay); err != nil {
		return
	}

	log := c.log.WithField("address", address)

	wbtc, err := c.gateway.WBTCBalance(ctx, address)
	if err != nil {
		log.WithError(err).Warn("post-swap WBTC balance lookup failed")
		return
	}
	log.WithField("wbtcBalance", wbtc.String()).Info("post-swap WBTC balance")

	accrual, err := c.gateway.RewardAccrual(ctx, address)
	if err != nil {
		log.WithError(err).Warn("reward accrual lookup failed")
		return
	}
	log.WithFields(logrus.Fields{
		"rewardWbtc": accrual.WBTC.String(),
		"rewardXrp":  accrual.XRP.String(),
	}).Info("accrued staking rewards")

	report, err := EstimateRewards(ctx, c.gateway, address)
	if err != nil {
		log.WithError(err).Warn("reward estimate failed")
		return
	}
	log.WithFields(logrus.Fields{
		"hourlyWbtc": report.HourlyWBTC.String(),
		"dailyWbtc":  report.DailyWBTC.String(),
		"hourlyXrp":  report.HourlyXRP.String(),
		"dailyXrp":   report.DailyXRP.String(),
	}).Info("projected staking rewards")
}
