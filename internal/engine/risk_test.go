package engine

import (
	"testing"

	"stock_trader/internal/models"

	"github.com/stretchr/testify/assert"
)

func testControls() models.Controls {
	return models.Controls{
		EntryTriggerPercent:      0.5,
		MaxRiskPercentPerTrade:   0.5,
		MaxInvestmentPerPosition: 300000,
		MinInvestmentPerPosition: 1000,
		PositionStoplossPercent:  0.5,
		PositionTargetStoploss:   0.1,
		PositionTargetPercent:    1.0,
		UserStoplossPercent:      5.0,
		UserTargetStoploss:       1.0,
		UserTargetPercent:        10.0,
		EntryTimeStart:           "09:15:04",
		EntryTimeEnd:             "15:18:00",
		ExitTime:                 "15:19:00",
		OrderVariety:             models.VarietyRegular,
		ScalpHoldMinutes:         5,
	}
}

func TestNewRiskState(t *testing.T) {
	r := newRiskState(100000, testControls())

	assert.InDelta(t, 100000, r.netValue, 1e-9)
	assert.InDelta(t, 110000, r.targetValue, 1e-9)
	assert.InDelta(t, 95000, r.stoploss, 1e-9)
	assert.InDelta(t, 1000, r.targetStoplossFloor, 1e-9)
	assert.InDelta(t, 100000, r.fundsAvailable, 1e-9)
	assert.Zero(t, r.amountAtRisk)
}

func TestPositionSize(t *testing.T) {
	ctl := testControls()
	r := newRiskState(10000, ctl)

	// riskable 50 is the per-trade cap; ceiling 10000; margin x4 allows
	// 40000 but the ceiling binds, so floor(10000/201) = 49
	assert.Equal(t, 49, r.positionSize(200, 4.0, ctl))
}

func TestPositionSizeCeilingFromAccountStop(t *testing.T) {
	ctl := testControls()
	ctl.MaxRiskPercentPerTrade = 100 // per-trade cap out of the way
	r := newRiskState(100000, ctl)

	// headroom to the account stop is 5000, ceiling 1000000, margin x0.4
	// binds at 40000: floor(40000/201) = 199
	assert.Equal(t, 199, r.positionSize(200, 0.4, ctl))
}

func TestPositionSizeBelowMinInvestment(t *testing.T) {
	ctl := testControls()
	ctl.MinInvestmentPerPosition = 50000
	r := newRiskState(10000, ctl)

	assert.Zero(t, r.positionSize(200, 4.0, ctl))
}

func TestPositionSizeNoHeadroom(t *testing.T) {
	ctl := testControls()
	r := newRiskState(100000, ctl)
	r.netValue = r.stoploss // account stop hit

	assert.Zero(t, r.positionSize(200, 4.0, ctl))
}

func TestCommissionRoundTrip(t *testing.T) {
	// buy 40000, sell 39800: brokerage 12 + 11.94, txn charge 2.5935,
	// 18% tax on those, STT 9.95 on the sell, SEBI 0.0798, stamp 4.788
	assert.InDelta(t, 46.1273, commissionRoundTrip(40000, 39800), 1e-3)

	// brokerage leg cap: 0.03% of 100000 would be 30, capped at 20
	c := commissionRoundTrip(100000, 0)
	brokerage := 20.0
	txn := 100000 * 0.00325 / 100
	expected := brokerage + txn + (brokerage+txn)*0.18 + 100000*0.0001/100 + 100000*0.006/100
	assert.InDelta(t, expected, c, 1e-9)
}

func TestEntryExitFillReleasesRisk(t *testing.T) {
	ctl := testControls()
	r := newRiskState(100000, ctl)

	r.applyEntryFill(200, 199, 0.4, ctl)
	assert.InDelta(t, 199.0, r.amountAtRisk, 1e-9)          // 0.5% of 39800
	assert.InDelta(t, 100000-99500, r.fundsAvailable, 1e-9) // 39800/0.4 consumed

	// short exit at a profit
	profit, commission := r.applyExitFill(200, 199, 199, 0.4, -1, ctl)
	assert.InDelta(t, 199.0, profit, 1e-9)
	assert.Greater(t, commission, 0.0)
	assert.InDelta(t, 0, r.amountAtRisk, 1e-9)
	assert.InDelta(t, 100000+profit-commission, r.netValue, 1e-9)
	assert.InDelta(t, 500+99500+profit, r.fundsAvailable, 1e-9)
	assert.InDelta(t, commission, r.commissionPaid, 1e-9)
}

func TestRatchetStoplossNeverLoosens(t *testing.T) {
	ctl := testControls()
	r := newRiskState(100000, ctl)
	before := r.stoploss

	// a losing exit pushes the candidate below the current stop
	r.netValue = 96000
	r.ratchetStoploss(ctl)
	assert.InDelta(t, before, r.stoploss, 1e-9)
}

func TestRatchetStoplossTightensTowardTarget(t *testing.T) {
	ctl := testControls()
	r := newRiskState(100000, ctl)

	// halfway to target: candidate = 105000 - (110000-105000)/2 = 102500
	r.netValue = 105000
	r.ratchetStoploss(ctl)
	assert.InDelta(t, 102500, r.stoploss, 1e-9)

	// at the target the floor takes over: 110000 - 1000
	r.netValue = 110000
	r.ratchetStoploss(ctl)
	assert.InDelta(t, 109000, r.stoploss, 1e-9)
}

func TestRatchetStoplossDisabled(t *testing.T) {
	ctl := testControls()
	ctl.UserStoplossPercent = 0
	r := newRiskState(100000, ctl)
	before := r.stoploss

	r.netValue = 150000
	r.ratchetStoploss(ctl)
	assert.InDelta(t, before, r.stoploss, 1e-9)
}
