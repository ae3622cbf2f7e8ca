package providers

// Test-only exports for internal helpers.
var (
	ParseNumberedList = parseNumberedList
	StripListMarker   = stripListMarker
	CostUSD           = costUSD
	PriceFor          = priceFor
)
