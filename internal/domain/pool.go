package domain

// Pool is one DeFi yield-farming pool from the yields endpoint. The numeric
// fields stay float64: they only feed filtering and sorting, never money math.
type Pool struct {
	Chain      string  `json:"chain"`
	Project    string  `json:"project"`
	Symbol     string  `json:"symbol"`
	TvlUsd     float64 `json:"tvlUsd"`
	Apy        float64 `json:"apy"`
	ApyMean30d float64 `json:"apyMean30d"`
}
