package exchange

import (
	"context"

	"go.uber.org/zap"
)

// MarketDataService 在交易所客户端之上叠加TTL缓存，作为分析引擎的K线来源。
type MarketDataService struct {
	client *Client
	cache  *CandleCache
	logger *zap.Logger
}

// NewMarketDataService 创建市场数据服务。cache 可为空，此时每次都访问交易所。
func NewMarketDataService(client *Client, cache *CandleCache, logger *zap.Logger) *MarketDataService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarketDataService{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// Symbol 返回服务绑定的交易对。
func (s *MarketDataService) Symbol() string {
	return s.client.Symbol()
}

// GetCandles 优先读取缓存，未命中时从交易所拉取并回填。
func (s *MarketDataService) GetCandles(ctx context.Context, timeframe string, limit int64) ([]Candle, error) {
	if timeframe == "" {
		timeframe = DefaultTimeframe
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	if s.cache != nil {
		if candles, ok := s.cache.Get(s.client.Symbol(), timeframe); ok && int64(len(candles)) >= limit {
			s.logger.Debug("K线缓存命中",
				zap.String("symbol", s.client.Symbol()),
				zap.String("timeframe", timeframe),
				zap.Int("count", len(candles)),
			)
			return candles, nil
		}
	}

	candles, err := s.client.FetchCandles(ctx, timeframe, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Put(s.client.Symbol(), timeframe, candles)
	}

	s.logger.Debug("K线拉取完成",
		zap.String("symbol", s.client.Symbol()),
		zap.String("timeframe", timeframe),
		zap.Int("count", len(candles)),
	)

	return candles, nil
}
