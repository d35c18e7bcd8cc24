package models

import "time"

// UserAccount is one broker account enabled for the session.
type UserAccount struct {
	UserID          string
	UserName        string
	APIKey          string
	APISecret       string
	AccessToken     string
	AccessTokenTime time.Time
	FundsAvailable  float64
	Active          bool
}

// Controls are the tunable trading parameters. They are read from the
// controls file at session start and may be re-applied live.
type Controls struct {
	EntryTriggerPercent float64 `mapstructure:"entry_trigger_percent"`

	MaxRiskPercentPerTrade   float64 `mapstructure:"max_risk_percent_per_trade"`
	MaxInvestmentPerPosition float64 `mapstructure:"max_investment_per_position"`
	MinInvestmentPerPosition float64 `mapstructure:"min_investment_per_position"`

	PositionStoplossPercent float64 `mapstructure:"position_stoploss_percent"`
	PositionTargetStoploss  float64 `mapstructure:"position_target_stoploss"`
	PositionTargetPercent   float64 `mapstructure:"position_target_percent"`

	UserStoplossPercent float64 `mapstructure:"user_stoploss_percent"`
	UserTargetStoploss  float64 `mapstructure:"user_target_stoploss"`
	UserTargetPercent   float64 `mapstructure:"user_target_percent"`

	EntryTimeStart string `mapstructure:"entry_time_start"` // "09:15:04"
	EntryTimeEnd   string `mapstructure:"entry_time_end"`   // "15:18:00"
	ExitTime       string `mapstructure:"exit_time"`        // "15:19:00"

	OrderVariety     OrderVariety `mapstructure:"order_variety"`
	ScalpHoldMinutes int          `mapstructure:"scalp_hold_minutes"`
}

// PositionStoplossRange is the distance the per-position stop tightens over,
// from the initial stop to the post-target stop.
func (c Controls) PositionStoplossRange() float64 {
	return c.PositionStoplossPercent - c.PositionTargetStoploss
}

// StoplossTargetRatio drives the account-stoploss ratchet. Zero or negative
// means the ratchet adjustment is disabled.
func (c Controls) StoplossTargetRatio() float64 {
	if c.UserStoplossPercent <= 0 {
		return 0
	}
	return c.UserTargetPercent / c.UserStoplossPercent
}
