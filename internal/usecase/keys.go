package usecase

// Logical store keys. Timestamps are stored as unix-millisecond strings so a
// store dump stays human-readable.
const (
	keyAllTokens        = "allCoinGeckoTokens"
	keyAllTokensFetched = "allTokensLastFetched"

	keyRankedAssets  = "availableAssets"
	keyRankedFetched = "assetsLastFetched"

	keyHoldings = "holdings"

	keyCacheLimit        = "cacheLimit"
	keyPreferredCurrency = "preferredCurrency"
	keySortBy            = "sortBy"
	keySortOrder         = "sortOrder"

	keyCurrencyRates  = "currencyRates"
	keyRatesFetched   = "lastFetchTimestamp"
	keyCurrencyAPIKey = "currencyApiKey"
)
