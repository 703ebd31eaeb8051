package ai

import (
	"strings"
	"sync"

	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

// PriceTable maps model names to USD prices per 1K tokens.
type PriceTable map[string]config.ModelPrice

// Lookup returns the price for model. Dated variants such as
// "gpt-4o-mini-2024-07-18" match the longest known prefix.
func (p PriceTable) Lookup(model string) (config.ModelPrice, bool) {
	if price, ok := p[model]; ok {
		return price, true
	}
	best, bestLen := config.ModelPrice{}, 0
	for name, price := range p {
		if strings.HasPrefix(model, name) && len(name) > bestLen {
			best, bestLen = price, len(name)
		}
	}
	return best, bestLen > 0
}

// Cost estimates the USD cost of u. Unknown models cost nothing.
func (p PriceTable) Cost(u types.TokenUsage) float64 {
	price, ok := p.Lookup(u.Model)
	if !ok {
		return 0
	}
	return float64(u.PromptTokens)/1000*price.Prompt +
		float64(u.CompletionTokens)/1000*price.Completion
}

// UsageMeter accumulates token usage across concurrent calls.
type UsageMeter struct {
	prices PriceTable
	model  string

	mu    sync.Mutex
	usage types.TokenUsage
	calls int
}

// NewUsageMeter creates a meter that prices calls with prices.
func NewUsageMeter(prices PriceTable, model string) *UsageMeter {
	return &UsageMeter{prices: prices, model: model}
}

// Record adds the usage of one call.
func (m *UsageMeter) Record(u types.TokenUsage) {
	if u.Model == "" {
		u.Model = m.model
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	u.EstimatedCost = m.prices.Cost(u)

	m.mu.Lock()
	m.usage.Add(u)
	m.calls++
	m.mu.Unlock()
}

// Usage returns the accumulated usage.
func (m *UsageMeter) Usage() types.TokenUsage {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.usage
	if u.Model == "" {
		u.Model = m.model
	}
	return u
}

// Calls returns the number of recorded calls.
func (m *UsageMeter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
