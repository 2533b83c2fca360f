package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// PairInfo describes one tradable coin from the markets listing
type PairInfo struct {
	CoinID        string  `json:"coin_id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	MarketCapRank int     `json:"market_cap_rank"`
	CurrentPrice  float64 `json:"current_price"`
	MarketCap     float64 `json:"market_cap"`
}

// FetchMarkets lists the top coins by market cap
func (c *Client) FetchMarkets(ctx context.Context, limit int) ([]PairInfo, error) {
	if limit <= 0 || limit > 250 {
		limit = 50
	}
	if c.mockMode {
		return StaticPairs(), nil
	}

	endpoint := fmt.Sprintf(
		"%s/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=%d&page=1",
		c.baseURL, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching markets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("upstream returned %d: %s", resp.StatusCode, body)
	}

	var raw []struct {
		ID            string  `json:"id"`
		Symbol        string  `json:"symbol"`
		Name          string  `json:"name"`
		MarketCapRank int     `json:"market_cap_rank"`
		CurrentPrice  float64 `json:"current_price"`
		MarketCap     float64 `json:"market_cap"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding markets response: %w", err)
	}

	pairs := make([]PairInfo, 0, len(raw))
	for _, m := range raw {
		if m.ID == "" {
			continue
		}
		pairs = append(pairs, PairInfo{
			CoinID:        m.ID,
			Symbol:        m.Symbol,
			Name:          m.Name,
			MarketCapRank: m.MarketCapRank,
			CurrentPrice:  m.CurrentPrice,
			MarketCap:     m.MarketCap,
		})
	}
	return pairs, nil
}

// StaticPairs is the last-resort listing when neither the database nor the
// upstream API can serve one
func StaticPairs() []PairInfo {
	return []PairInfo{
		{CoinID: "bitcoin", Symbol: "btc", Name: "Bitcoin", MarketCapRank: 1},
		{CoinID: "ethereum", Symbol: "eth", Name: "Ethereum", MarketCapRank: 2},
		{CoinID: "tether", Symbol: "usdt", Name: "Tether", MarketCapRank: 3},
		{CoinID: "binancecoin", Symbol: "bnb", Name: "BNB", MarketCapRank: 4},
		{CoinID: "solana", Symbol: "sol", Name: "Solana", MarketCapRank: 5},
		{CoinID: "ripple", Symbol: "xrp", Name: "XRP", MarketCapRank: 6},
		{CoinID: "cardano", Symbol: "ada", Name: "Cardano", MarketCapRank: 7},
		{CoinID: "dogecoin", Symbol: "doge", Name: "Dogecoin", MarketCapRank: 8},
		{CoinID: "avalanche-2", Symbol: "avax", Name: "Avalanche", MarketCapRank: 9},
		{CoinID: "polkadot", Symbol: "dot", Name: "Polkadot", MarketCapRank: 10},
	}
}
