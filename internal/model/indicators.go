package model

// Indicators holds the technical indicators computed from the rolling series.
// MA20 is nil until twenty observations are available.
type Indicators struct {
	MA5       *float64 `json:"ma5,omitempty"`
	MA20      *float64 `json:"ma20,omitempty"`
	RSI       float64  `json:"rsi"`
	UpperBand float64  `json:"upper_band"`
	LowerBand float64  `json:"lower_band"`
}
