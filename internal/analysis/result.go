package analysis

import (
	"time"

	"coinsight/internal/indicator"
	"coinsight/internal/plan"
	"coinsight/internal/signal"
)

// TradePlan 为面向用户的格式化交易计划。
type TradePlan struct {
	EntryZone string `json:"entry_zone"`
	StopLoss  string `json:"stop_loss"`
	Target1   string `json:"target1"`
	Target2   string `json:"target2"`
	Target3   string `json:"target3"`
}

// RiskSummary 汇总风险等级、信心与解读语句。
type RiskSummary struct {
	RiskLevel  string   `json:"risk_level"`
	Confidence string   `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// Meta 为分析快照的附加信息。
type Meta struct {
	Trend       string             `json:"trend"`
	ADX         float64            `json:"adx"`
	Indicators  indicator.Set      `json:"indicators"`
	Scores      signal.Score       `json:"scores"`
	Support     float64            `json:"support"`
	Resistance  float64            `json:"resistance"`
	FibLevels   map[string]float64 `json:"fib_levels"`
	SwingHigh   float64            `json:"swing_high"`
	SwingLow    float64            `json:"swing_low"`
	LastPrice   float64            `json:"last_price"`
	Quote       string             `json:"quote"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Result 为一次分析的最终产物，返回后不再修改。
type Result struct {
	Pair        string      `json:"pair"`
	Verdict     string      `json:"verdict"`
	TradePlan   TradePlan   `json:"trade_plan"`
	RiskSummary RiskSummary `json:"risk_summary"`
	Levels      plan.Levels `json:"levels"`
	Meta        Meta        `json:"meta"`
}
