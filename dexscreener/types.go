package dexscreener

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Response is the envelope returned by both the token and the search endpoints.
type Response struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []Pair `json:"pairs"`
}

// Pair mirrors the feed's pair object. Every field is optional upstream;
// nested objects are pointers or maps and numbers use Number so that a
// missing or null value decodes to zero instead of failing.
type Pair struct {
	ChainID     string                `json:"chainId"`
	DexID       string                `json:"dexId"`
	PairAddress string                `json:"pairAddress"`
	BaseToken   *Token                `json:"baseToken"`
	QuoteToken  *Token                `json:"quoteToken"`
	PriceNative Number                `json:"priceNative"`
	PriceUSD    Number                `json:"priceUsd"`
	Txns        map[string]*TxnCounts `json:"txns"`
	Volume      map[string]Number     `json:"volume"`
	PriceChange map[string]Number     `json:"priceChange"`
	Liquidity   *Liquidity            `json:"liquidity"`
	FDV         Number                `json:"fdv"`
	MarketCap   Number                `json:"marketCap"`
}

type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type TxnCounts struct {
	Buys  Number `json:"buys"`
	Sells Number `json:"sells"`
}

type Liquidity struct {
	USD   Number `json:"usd"`
	Base  Number `json:"base"`
	Quote Number `json:"quote"`
}

// Number accepts a JSON number, a numeric string or null. Strings that do
// not parse, NaN and infinities decode to zero. Any other JSON type is an
// error.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			*n = 0
			return nil
		}
		*n = Number(f)
		return nil
	}

	// Out-of-range literals such as 1e400 become 0 like bad numeric strings.
	if len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')) {
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				*n = 0
				return nil
			}
			return err
		}
		*n = Number(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

func (n Number) Float() float64 { return float64(n) }
