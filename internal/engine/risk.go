package engine

import (
	"math"

	"stock_trader/internal/models"
)

// riskState tracks one user's account-level risk through the session.
// netValue changes only on realized exit fills; stoploss only ever ratchets
// upward. Mutations happen under the owning account's mutex.
type riskState struct {
	initialValue        float64
	netValue            float64
	targetValue         float64
	stoploss            float64
	targetStoplossFloor float64
	amountAtRisk        float64
	fundsAvailable      float64
	commissionPaid      float64
}

func newRiskState(funds float64, ctl models.Controls) riskState {
	return riskState{
		initialValue:        funds,
		netValue:            funds,
		targetValue:         funds * (100.0 + ctl.UserTargetPercent) / 100.0,
		stoploss:            funds * (100.0 - ctl.UserStoplossPercent) / 100.0,
		targetStoplossFloor: funds * ctl.UserTargetStoploss / 100.0,
		fundsAvailable:      funds,
	}
}

// positionSize computes how many shares a candidate trade may carry.
// The riskable amount is capped both per trade and by the remaining distance
// to the account stoploss; it then back-solves the investment that puts
// exactly that much at risk at the position stoploss distance.
func (r *riskState) positionSize(price, margin float64, ctl models.Controls) int {
	riskable := math.Min(
		ctl.MaxRiskPercentPerTrade*r.netValue/100.0,
		r.netValue-r.amountAtRisk-r.stoploss,
	)
	if riskable <= 0 {
		return 0
	}
	investmentCeiling := riskable * 100.0 / ctl.PositionStoplossPercent
	amountToInvest := math.Min(investmentCeiling,
		math.Min(r.fundsAvailable*margin, ctl.MaxInvestmentPerPosition))

	// +1 absorbs the anticipated price drift between signal and fill
	quantity := math.Floor(amountToInvest / (price + 1))
	if quantity*price < ctl.MinInvestmentPerPosition {
		return 0
	}
	return int(quantity)
}

// applyEntryFill books the risk and margin consumed by an entry fill.
func (r *riskState) applyEntryFill(price float64, quantity int, margin float64, ctl models.Controls) {
	value := price * float64(quantity)
	r.amountAtRisk += value * ctl.PositionStoplossPercent / 100.0
	r.fundsAvailable -= value / margin
}

// applyExitFill realizes a closed position: releases the amount at risk,
// books profit net of commission and ratchets the account stoploss.
func (r *riskState) applyExitFill(entry, exit float64, quantity int, margin, direction float64, ctl models.Controls) (profit, commission float64) {
	entryValue := entry * float64(quantity)
	exitValue := exit * float64(quantity)

	r.amountAtRisk -= entryValue * ctl.PositionStoplossPercent / 100.0

	profit = (exit - entry) * float64(quantity) * direction
	buyValue, sellValue := entryValue, exitValue
	if direction < 0 {
		buyValue, sellValue = exitValue, entryValue
	}
	commission = commissionRoundTrip(buyValue, sellValue)

	r.netValue += profit - commission
	r.commissionPaid += commission
	r.fundsAvailable += entryValue/margin + profit
	r.ratchetStoploss(ctl)
	return profit, commission
}

// ratchetStoploss tightens the account stoploss as the account approaches
// its profit target. It never loosens. A non-positive stoploss/target ratio
// disables the adjustment entirely.
func (r *riskState) ratchetStoploss(ctl models.Controls) {
	ratio := ctl.StoplossTargetRatio()
	if ratio <= 0 {
		return
	}
	candidate := r.netValue - math.Max((r.targetValue-r.netValue)/ratio, r.targetStoplossFloor)
	r.stoploss = math.Max(r.stoploss, candidate)
}

// Commission rates per round trip: brokerage capped at a flat 20 per leg,
// exchange transaction charge, 18% tax on both, sell-side securities
// transaction tax, the regulator fee and stamp duty.
const (
	brokeragePercent         = 0.03
	brokerageCap             = 20.0
	transactionChargePercent = 0.00325
	taxPercent               = 18.0
	sttSellPercent           = 0.025
	sebiPercent              = 0.0001
	stampDutyPercent         = 0.006
)

func commissionRoundTrip(buyValue, sellValue float64) float64 {
	tradeValue := buyValue + sellValue
	brokerageBuy := math.Min(brokerageCap, buyValue*brokeragePercent/100.0)
	brokerageSell := math.Min(brokerageCap, sellValue*brokeragePercent/100.0)
	transactionCharge := tradeValue * transactionChargePercent / 100.0
	tax := (brokerageBuy + brokerageSell + transactionCharge) * taxPercent / 100.0
	sttSell := sellValue * sttSellPercent / 100.0
	sebiFee := tradeValue * sebiPercent / 100.0
	stampDuty := tradeValue * stampDutyPercent / 100.0
	return brokerageBuy + brokerageSell + transactionCharge + tax + sttSell + sebiFee + stampDuty
}
