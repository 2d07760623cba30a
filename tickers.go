package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// TickerEntry is one row of SEC company_tickers.json
type TickerEntry struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// TickerIndex resolves ticker symbols to zero-padded CIKs.
// The full SEC list is fetched on first use and kept in memory.
type TickerIndex struct {
	client *Client

	mu    sync.Mutex
	byTic map[string]string
}

// NewTickerIndex creates an index backed by the client
func NewTickerIndex(client *Client) *TickerIndex {
	return &TickerIndex{client: client}
}

// LookupCIK resolves a ticker symbol to a 10-digit CIK
func (t *TickerIndex) LookupCIK(ctx context.Context, ticker string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ticker))
	if normalized == "" {
		return "", fmt.Errorf("ticker is required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.byTic == nil {
		if err := t.load(ctx); err != nil {
			return "", err
		}
	}

	if cik, ok := t.byTic[normalized]; ok {
		return cik, nil
	}
	return "", fmt.Errorf("ticker %s not found in SEC database", normalized)
}

// Len returns the number of cached tickers
func (t *TickerIndex) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byTic)
}

// load fetches company_tickers.json.
// Format: {"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."}, ...}
func (t *TickerIndex) load(ctx context.Context) error {
	body, err := t.client.Get(ctx, t.client.filesBaseURL+"/company_tickers.json")
	if err != nil {
		return fmt.Errorf("failed to fetch company tickers: %w", err)
	}

	entries, err := ParseTickers(body)
	if err != nil {
		return err
	}

	byTic := make(map[string]string, len(entries))
	for _, entry := range entries {
		byTic[strings.ToUpper(entry.Ticker)] = fmt.Sprintf("%010d", entry.CIK)
	}
	t.byTic = byTic
	return nil
}

// ParseTickers decodes the company_tickers.json payload
func ParseTickers(data []byte) ([]TickerEntry, error) {
	var resp map[string]TickerEntry
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse ticker JSON: %w", err)
	}

	entries := make([]TickerEntry, 0, len(resp))
	for _, entry := range resp {
		entries = append(entries, entry)
	}
	return entries, nil
}
