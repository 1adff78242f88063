package plan

import (
	"fmt"
	"math"

	"coinsight/internal/indicator"
	"coinsight/internal/signal"
	"coinsight/internal/structure"
)

// 结论标签。系统只做多头建议，永不输出卖出结论。
const (
	VerdictStrongBuy = "Strong Buy"
	VerdictBuy       = "Buy"
	VerdictWait      = "Wait"
)

// 风险与信心等级。
const (
	RiskLow      = "Low"
	RiskMedium   = "Medium"
	RiskHigh     = "High"
	RiskVeryHigh = "Very High"

	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// Input 为计划构建所需的全部上游产物。
type Input struct {
	Price       float64
	CandleCount int
	Ind         indicator.Set
	Structure   structure.Info
	Score       signal.Score
	TrendLabel  string
}

// Levels 保存入场区间、止损与三个目标价。
// 构建过程保证 Stop < EntryMid < T1 < T2 < T3。
type Levels struct {
	EntryLow  float64 `json:"entry_low"`
	EntryHigh float64 `json:"entry_high"`
	EntryMid  float64 `json:"entry_mid"`
	Stop      float64 `json:"stop"`
	T1        float64 `json:"t1"`
	T2        float64 `json:"t2"`
	T3        float64 `json:"t3"`
}

// Plan 为结论与交易计划的汇总。
type Plan struct {
	Verdict    string
	Breakout   bool
	Levels     Levels
	RiskLevel  string
	Confidence string
	Reasons    []string
}

// Build 由评分与结构信息推导结论、入场区间、止损与目标价。
// 分支优先级（突破 > 支撑 > 黄金口袋 > ATR回调带）是既定契约，不可调整顺序。
func Build(in Input) Plan {
	breakout := in.Score.Trend > 60 && in.Ind.HasADX && in.Ind.ADX > 25 && in.Ind.PlusDI > in.Ind.MinusDI

	levels := buildLevels(in, breakout)

	p := Plan{
		Verdict:    verdict(in),
		Breakout:   breakout,
		Levels:     levels,
		RiskLevel:  riskLevel(in.Ind.ATRPercent, in.Score.Composite),
		Confidence: confidence(in.Score),
	}
	p.Reasons = reasons(in, p)

	return p
}

func verdict(in Input) string {
	tier := 0
	switch {
	case in.Score.Composite >= 50:
		tier = 2
	case in.Score.Composite >= 20:
		tier = 1
	}

	bearTrend := in.TrendLabel == signal.TrendBear || in.TrendLabel == signal.TrendStrongBear
	bullTrend := in.TrendLabel == signal.TrendBull || in.TrendLabel == signal.TrendStrongBull

	// 超卖升级：极端超卖且动量转正时上调一档。
	if in.Ind.RSI14 < 25 && in.Score.Momentum > 0 && !bearTrend && in.Score.Trend > -30 && tier < 2 {
		tier++
	}

	// 超买降级：极端超买且动量转负时下调一档。
	if in.Ind.RSI14 > 80 && in.Score.Momentum < 0 && !bullTrend && in.Score.Trend < 30 && tier > 0 {
		tier--
	}

	// 空头保护：明确的下行趋势下强制观望。
	if bearTrend && (in.Score.Volume < -20 || in.Score.Trend < -50) {
		tier = 0
	}

	switch tier {
	case 2:
		return VerdictStrongBuy
	case 1:
		return VerdictBuy
	default:
		return VerdictWait
	}
}

func buildLevels(in Input, breakout bool) Levels {
	price := in.Price
	atr := in.Ind.ATR
	st := in.Structure

	var entryLow, entryHigh float64

	switch {
	case breakout:
		// 突破入场：围绕现价的ATR区间。
		entryLow = price - 0.5*atr
		entryHigh = price + 0.5*atr

	case st.HasSupport && st.Support < price && (price-st.Support)/price <= 0.10:
		// 回踩支撑入场。
		entryLow = st.Support * 0.995
		entryHigh = math.Min(st.Support*1.02, price*0.995)

	case insideGoldenPocket(st.Fib, price):
		// 0.618–0.786 黄金口袋。
		entryLow = st.Fib["0.786"]
		entryHigh = math.Min(st.Fib["0.618"], price*0.995)

	default:
		// 默认ATR回调带。
		entryLow = price - 1.2*atr
		entryHigh = price - 0.4*atr
	}

	if !breakout {
		entryHigh = math.Min(entryHigh, price*0.995)
	}
	if entryHigh <= 0 {
		entryHigh = price * 0.995
	}
	if entryLow <= 0 || entryLow >= entryHigh {
		entryLow = entryHigh * 0.99
	}

	entryMid := (entryLow + entryHigh) / 2

	var stop float64
	switch {
	case breakout:
		stop = entryMid - 1.5*atr
	case st.HasSupport && st.Support < entryMid:
		stop = st.Support * 0.99
	default:
		stop = entryMid - 2*atr
	}

	// 最小止损距离为入场中值的1.5%。
	if entryMid-stop < entryMid*0.015 {
		stop = entryMid * 0.985
	}
	if entryMid-stop <= 0 {
		stop = entryMid * 0.985
	}

	risk := entryMid - stop

	t1 := entryMid + 1.5*risk
	if st.HasResistance && st.Resistance > entryMid && st.Resistance < t1 {
		t1 = st.Resistance * 0.997
	}
	if t1 <= entryMid {
		t1 = entryMid + 0.5*risk
	}

	t2 := math.Max(st.Fib["1.272"], entryMid+2.5*risk)
	if st.HasResistance && st.Resistance > t1 && st.Resistance < t2 {
		t2 = st.Resistance * 1.003
	}

	t3 := math.Max(st.Fib["1.618"], entryMid+4*risk)

	// 最小间距，保持严格递增。
	if t2 < t1+0.5*risk {
		t2 = t1 + 0.5*risk
	}
	if t3 < t2+0.5*risk {
		t3 = t2 + 0.5*risk
	}

	// 按ATR%推导的最大涨幅封顶，避免不现实的外推。
	maxMovePct := math.Min(in.Ind.ATRPercent*8, 60)
	capT2 := entryMid * (1 + maxMovePct/100)
	capT3 := entryMid * (1 + maxMovePct*1.15/100)
	if t2 > capT2 {
		t2 = capT2
	}
	if t3 > capT3 {
		t3 = capT3
	}

	// 封顶后的二次排序：递增性优先于封顶。
	if t1 >= t2 {
		t2 = t1 + 0.25*risk
	}
	if t2 >= t3 {
		t3 = t2 + 0.25*risk
	}

	return Levels{
		EntryLow:  entryLow,
		EntryHigh: entryHigh,
		EntryMid:  entryMid,
		Stop:      stop,
		T1:        t1,
		T2:        t2,
		T3:        t3,
	}
}

func insideGoldenPocket(fib map[string]float64, price float64) bool {
	low, okLow := fib["0.786"]
	high, okHigh := fib["0.618"]
	if !okLow || !okHigh {
		return false
	}
	return price >= low && price <= high
}

func riskLevel(atrPercent, composite float64) string {
	switch {
	case atrPercent < 2 && math.Abs(composite) > 30:
		return RiskLow
	case atrPercent < 4:
		return RiskMedium
	case atrPercent < 6:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

func confidence(score signal.Score) string {
	aligned := 0
	if score.Trend > 15 {
		aligned++
	}
	if score.Momentum > 15 {
		aligned++
	}
	if score.Structure > 15 {
		aligned++
	}
	if score.Volume > 8 {
		aligned++
	}

	switch {
	case aligned >= 4 || (aligned >= 3 && score.Composite >= 40):
		return ConfidenceHigh
	case aligned >= 3 || (aligned >= 2 && score.Composite >= 25):
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// reasons 输出有序的解读语句，逐条对应一个显著因素。
func reasons(in Input, p Plan) []string {
	out := make([]string, 0, 10)

	if !in.Ind.HasEMA200 {
		out = append(out, fmt.Sprintf("Only %d candles available; EMA200 could not be computed, so long-term trend reliability is reduced.", in.CandleCount))
	}

	if p.Breakout {
		out = append(out, fmt.Sprintf("Breakout conditions detected: trend score %.0f with ADX %.1f and bullish directional bias.", in.Score.Trend, in.Ind.ADX))
	}

	out = append(out, fmt.Sprintf("Trend reads %s (ADX %.1f, +DI %.1f / -DI %.1f).", in.TrendLabel, in.Ind.ADX, in.Ind.PlusDI, in.Ind.MinusDI))

	switch {
	case in.Ind.RSI14 <= 30:
		out = append(out, fmt.Sprintf("RSI14 at %.1f is in the oversold zone.", in.Ind.RSI14))
	case in.Ind.RSI14 >= 70:
		out = append(out, fmt.Sprintf("RSI14 at %.1f is in the overbought zone.", in.Ind.RSI14))
	default:
		out = append(out, fmt.Sprintf("RSI14 at %.1f is neutral.", in.Ind.RSI14))
	}

	if in.Ind.HasMACD {
		state := "flat"
		if in.Ind.MACDLine > in.Ind.MACDSignal {
			state = "bullish"
		} else if in.Ind.MACDLine < in.Ind.MACDSignal {
			state = "bearish"
		}
		out = append(out, fmt.Sprintf("MACD is %s (histogram %.4f).", state, in.Ind.MACDHist))
	}

	if in.Structure.HasSupport && in.Price > 0 {
		distPct := (in.Price - in.Structure.Support) / in.Price * 100
		out = append(out, fmt.Sprintf("Nearest support sits %.1f%% below price.", distPct))
	}

	out = append(out, fmt.Sprintf("Volatility (ATR) is %.2f%% of price; risk graded %s.", in.Ind.ATRPercent, p.RiskLevel))

	risk := p.Levels.EntryMid - p.Levels.Stop
	if risk > 0 {
		out = append(out, fmt.Sprintf("Targets imply reward-to-risk of %.1f / %.1f / %.1f.",
			(p.Levels.T1-p.Levels.EntryMid)/risk,
			(p.Levels.T2-p.Levels.EntryMid)/risk,
			(p.Levels.T3-p.Levels.EntryMid)/risk,
		))
	}

	out = append(out, fmt.Sprintf("Composite signal score %.1f with %s confidence.", in.Score.Composite, p.Confidence))

	if p.Verdict == VerdictWait {
		out = append(out, "Conditions do not favor a long entry right now; wait for better confluence before committing capital.")
	}

	return out
}
