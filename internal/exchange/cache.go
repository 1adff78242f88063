package exchange

import (
	"fmt"
	"sync"
	"time"
)

// CandleCache 按 交易对+周期 缓存K线序列，避免短时间内重复请求交易所。
// 时钟通过 now 注入，测试可以控制时间流逝。
type CandleCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]candleEntry
}

type candleEntry struct {
	candles   []Candle
	expiresAt time.Time
}

// NewCandleCache 创建指定TTL的缓存，now 为空时使用系统时钟。
func NewCandleCache(ttl time.Duration, now func() time.Time) *CandleCache {
	if now == nil {
		now = time.Now
	}
	return &CandleCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]candleEntry),
	}
}

// Get 返回未过期的缓存序列，未命中时返回 false。
func (c *CandleCache) Get(symbol, timeframe string) ([]Candle, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	key := cacheKey(symbol, timeframe)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	candles := make([]Candle, len(entry.candles))
	copy(candles, entry.candles)
	return candles, true
}

// Put 写入序列并按TTL设定过期时间。
func (c *CandleCache) Put(symbol, timeframe string, candles []Candle) {
	if c.ttl <= 0 || len(candles) == 0 {
		return
	}

	stored := make([]Candle, len(candles))
	copy(stored, candles)

	key := cacheKey(symbol, timeframe)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = candleEntry{
		candles:   stored,
		expiresAt: c.now().Add(c.ttl),
	}
}

func cacheKey(symbol, timeframe string) string {
	return fmt.Sprintf("%s|%s", symbol, timeframe)
}
