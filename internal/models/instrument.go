package models

// Instrument is one tradable stock, loaded once per session from the store.
type Instrument struct {
	Token          int64
	Symbol         string
	Name           string
	MISMargin      float64 // margin multiplier for plain intraday orders
	COMargin       float64 // margin multiplier for bracket (cover) orders
	COTriggerLower float64
	COTriggerUpper float64
	Active         bool
}

type Tick struct {
	Token     int64
	LastPrice float64
}
