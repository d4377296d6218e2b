package dexscreener

import (
	"math"

	"dexscreener_stream/models"
)

// Time window keys used by the feed.
const (
	windowHour = "h1"
	windowDay  = "h24"
)

// toRecord maps one pair onto the canonical record. Absent values become
// zero; nothing optional survives past this function.
func toRecord(p Pair) models.Record {
	rec := models.Record{
		PriceNative:     p.PriceNative.Float(),
		MarketCapNative: p.MarketCap.Float(),
		Volume24h:       p.Volume[windowDay].Float(),
		TxCount:         txCount(p.Txns),
		PriceChange1h:   p.PriceChange[windowHour].Float(),
		PriceChange24h:  p.PriceChange[windowDay].Float(),
		Venue:           p.DexID,
	}
	if p.BaseToken != nil {
		rec.Address = p.BaseToken.Address
		rec.Name = p.BaseToken.Name
		rec.Ticker = p.BaseToken.Symbol
	}
	if p.Liquidity != nil {
		rec.LiquidityBase = p.Liquidity.Base.Float()
	}
	return rec
}

// txCount sums buys and sells over every window in the breakdown.
func txCount(txns map[string]*TxnCounts) int64 {
	var total int64
	for _, t := range txns {
		if t == nil {
			continue
		}
		total = addSaturating(total, count(t.Buys))
		total = addSaturating(total, count(t.Sells))
	}
	return total
}

func addSaturating(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func count(n Number) int64 {
	f := math.Trunc(n.Float())
	if f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}
