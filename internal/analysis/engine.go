package analysis

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"coinsight/internal/exchange"
	"coinsight/internal/indicator"
	"coinsight/internal/plan"
	"coinsight/internal/signal"
	"coinsight/internal/structure"
)

// ErrInsufficientData 表示K线数量不足以完成核心指标计算。
var ErrInsufficientData = errors.New("insufficient candle data")

// MinCandles 为核心指标所需的最小K线数量。
const MinCandles = 60

// Settings 控制分析引擎的可调参数。
type Settings struct {
	MinCandles int
	Lookback   int
	Swing      structure.Options
}

// DefaultSettings 返回默认引擎参数。
func DefaultSettings() Settings {
	return Settings{
		MinCandles: MinCandles,
		Lookback:   exchange.DefaultLimit,
		Swing:      structure.DefaultOptions(),
	}
}

// Engine 将K线序列转化为结构化交易建议。
// 除结果中的时间戳外，相同输入总是产生相同输出；每次调用独立分配临时状态。
type Engine struct {
	settings Settings
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine 创建分析引擎。now 为空时使用系统时钟。
func NewEngine(settings Settings, logger *zap.Logger, now func() time.Time) *Engine {
	if settings.MinCandles <= 0 {
		settings.MinCandles = MinCandles
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{
		settings: settings,
		logger:   logger,
		now:      now,
	}
}

// Analyze 对给定交易对的K线序列执行完整分析流水线：
// 指标 → 结构 → 评分 → 结论与交易计划 → 结果组装。
func (e *Engine) Analyze(pair string, candles []exchange.Candle) (Result, error) {
	if len(candles) < e.settings.MinCandles {
		return Result{}, fmt.Errorf("%w: 需要至少 %d 根K线，当前 %d", ErrInsufficientData, e.settings.MinCandles, len(candles))
	}

	if e.settings.Lookback > 0 && len(candles) > e.settings.Lookback {
		candles = candles[len(candles)-e.settings.Lookback:]
	}

	series := indicator.NewSeries(candles)
	lastPrice := series.LastClose()

	ind := indicator.Compute(series)
	st := structure.Detect(series, e.settings.Swing)
	score := signal.Compute(ind, st, lastPrice)
	trendLabel := signal.TrendLabel(score.Trend)

	tradePlan := plan.Build(plan.Input{
		Price:       lastPrice,
		CandleCount: len(candles),
		Ind:         ind,
		Structure:   st,
		Score:       score,
		TrendLabel:  trendLabel,
	})

	quote := QuoteFromPair(pair)

	result := Result{
		Pair:    pair,
		Verdict: tradePlan.Verdict,
		TradePlan: TradePlan{
			EntryZone: FormatPrice(quote, tradePlan.Levels.EntryLow) + " - " + FormatPrice(quote, tradePlan.Levels.EntryHigh),
			StopLoss:  FormatPrice(quote, tradePlan.Levels.Stop),
			Target1:   FormatPrice(quote, tradePlan.Levels.T1),
			Target2:   FormatPrice(quote, tradePlan.Levels.T2),
			Target3:   FormatPrice(quote, tradePlan.Levels.T3),
		},
		RiskSummary: RiskSummary{
			RiskLevel:  tradePlan.RiskLevel,
			Confidence: tradePlan.Confidence,
			Reasons:    tradePlan.Reasons,
		},
		Levels: tradePlan.Levels,
		Meta: Meta{
			Trend:       trendLabel,
			ADX:         ind.ADX,
			Indicators:  ind,
			Scores:      score,
			Support:     st.Support,
			Resistance:  st.Resistance,
			FibLevels:   st.Fib,
			SwingHigh:   st.SwingHigh,
			SwingLow:    st.SwingLow,
			LastPrice:   lastPrice,
			Quote:       quote,
			GeneratedAt: e.now().UTC(),
		},
	}

	e.logger.Debug("分析完成",
		zap.String("pair", pair),
		zap.String("verdict", result.Verdict),
		zap.Float64("composite", score.Composite),
		zap.String("trend", trendLabel),
	)

	return result, nil
}
