package bridge

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const hoursPerYear = 8760

// HourlyReward projects one hour of staking yield for a balance at an
// annualized rate in basis points: balance * (bps/10000) / 8760.
func HourlyReward(stake decimal.Decimal, rateBps int64) decimal.Decimal {
	return stake.Mul(decimal.NewFromInt(rateBps)).Div(decimal.NewFromInt(10000 * hoursPerYear))
}

// DailyReward is simply the hourly projection times 24.
func DailyReward(stake decimal.Decimal, rateBps int64) decimal.Decimal {
	return HourlyReward(stake, rateBps).Mul(decimal.NewFromInt(24))
}

// ConvertByPrice re-denominates a reward amount using a USD price pair:
// amount quoted in the "from" asset times fromUSD/toUSD.
func ConvertByPrice(amount, fromUSD, toUSD decimal.Decimal) decimal.Decimal {
	return amount.Mul(fromUSD).Div(toUSD)
}

// RewardReport is a point-in-time projection, clearly separated from the
// ledger-confirmed accrual figures the gateway reports.
type RewardReport struct {
	StakedWBTC  decimal.Decimal
	RateBps     int64
	AccruedWBTC decimal.Decimal
	AccruedXRP  decimal.Decimal
	HourlyWBTC  decimal.Decimal
	DailyWBTC   decimal.Decimal
	HourlyXRP   decimal.Decimal
	DailyXRP    decimal.Decimal
}

// EstimateRewards assembles the reward query surface for one address.
func EstimateRewards(ctx context.Context, gateway SwapGateway, address string) (*RewardReport, error) {
	stake, err := gateway.StakedBalance(ctx, address)
	if err != nil {
		return nil, errors.Wrap(err, "staked balance")
	}

	rateBps, err := gateway.InterestRateBps(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "interest rate")
	}

	prices, err := gateway.PriceRatio(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "price ratio")
	}

	accrual, err := gateway.RewardAccrual(ctx, address)
	if err != nil {
		return nil, errors.Wrap(err, "reward accrual")
	}

	hourly := HourlyReward(stake, rateBps)
	daily := DailyReward(stake, rateBps)

	return &RewardReport{
		StakedWBTC:  stake,
		RateBps:     rateBps,
		AccruedWBTC: accrual.WBTC,
		AccruedXRP:  accrual.XRP,
		HourlyWBTC:  hourly,
		DailyWBTC:   daily,
		HourlyXRP:   ConvertByPrice(hourly, prices.BTCUSD, prices.XRPUSD),
		DailyXRP:    ConvertByPrice(daily, prices.BTCUSD, prices.XRPUSD),
	}, nil
}
