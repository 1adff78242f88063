package signal

import (
	"math"

	"coinsight/internal/indicator"
	"coinsight/internal/structure"
)

// 趋势标签。
const (
	TrendStrongBull = "Strong Bull"
	TrendBull       = "Bull"
	TrendNeutral    = "Neutral"
	TrendBear       = "Bear"
	TrendStrongBear = "Strong Bear"
)

// Score 保存五个子分与加权合成分，均位于[-100,100]。
type Score struct {
	Trend      float64 `json:"trend"`
	Momentum   float64 `json:"momentum"`
	Volatility float64 `json:"volatility"`
	Structure  float64 `json:"structure"`
	Volume     float64 `json:"volume"`
	Composite  float64 `json:"composite"`
}

// 合成分权重。
const (
	weightTrend      = 0.30
	weightMomentum   = 0.25
	weightStructure  = 0.20
	weightVolume     = 0.15
	weightVolatility = 0.10
)

// Compute 将指标快照与结构信息转化为信号评分。纯函数，不修改输入。
func Compute(ind indicator.Set, st structure.Info, lastPrice float64) Score {
	score := Score{
		Trend:      trendScore(ind, st, lastPrice),
		Momentum:   momentumScore(ind, lastPrice),
		Volatility: volatilityScore(ind),
		Structure:  structureScore(st, lastPrice),
		Volume:     volumeScore(ind.OBVTrend),
	}

	score.Composite = clamp(weightTrend*score.Trend +
		weightMomentum*score.Momentum +
		weightStructure*score.Structure +
		weightVolume*score.Volume +
		weightVolatility*score.Volatility)

	return score
}

// TrendLabel 将趋势子分映射为人类可读标签。
func TrendLabel(trendScore float64) string {
	switch {
	case trendScore >= 60:
		return TrendStrongBull
	case trendScore >= 25:
		return TrendBull
	case trendScore <= -60:
		return TrendStrongBear
	case trendScore <= -25:
		return TrendBear
	default:
		return TrendNeutral
	}
}

// trendScore 综合EMA排列、ADX方向推动与市场结构强度。ADX<15 时整体减半。
func trendScore(ind indicator.Set, st structure.Info, price float64) float64 {
	var align float64
	if ind.HasEMA200 {
		switch {
		case price > ind.EMA20 && ind.EMA20 > ind.EMA50 && ind.EMA50 > ind.EMA200:
			align = 80
		case price < ind.EMA20 && ind.EMA20 < ind.EMA50 && ind.EMA50 < ind.EMA200:
			align = -80
		case price > ind.EMA20 && ind.EMA20 > ind.EMA50:
			align = 45
		case price < ind.EMA20 && ind.EMA20 < ind.EMA50:
			align = -45
		case price > ind.EMA20:
			align = 20
		case price < ind.EMA20:
			align = -20
		}
	} else {
		switch {
		case price > ind.EMA20 && ind.EMA20 > ind.EMA50:
			align = 60
		case price < ind.EMA20 && ind.EMA20 < ind.EMA50:
			align = -60
		case price > ind.EMA20:
			align = 25
		case price < ind.EMA20:
			align = -25
		}
	}

	var push float64
	if ind.HasADX {
		dir := 0.0
		if ind.PlusDI > ind.MinusDI {
			dir = 1
		} else if ind.MinusDI > ind.PlusDI {
			dir = -1
		}
		push = dir * math.Min(ind.ADX, 50) / 50 * 30
	}

	var strength float64
	switch st.MarketTrend {
	case structure.TrendBullish:
		strength = 15
	case structure.TrendBearish:
		strength = -15
	}

	total := align + push + strength
	if ind.ADX < 15 {
		total *= 0.5
	}

	return clamp(total)
}

// momentumScore 综合RSI、MACD与随机指标的动量线索。
func momentumScore(ind indicator.Set, price float64) float64 {
	// RSI偏离中性50，超买超卖区间额外加权。
	m := (ind.RSI14 - 50) * 0.8
	if ind.RSI14 < 30 {
		m += (30 - ind.RSI14) * 2.0
	}
	if ind.RSI14 > 70 {
		m -= (ind.RSI14 - 70) * 2.0
	}

	// 快慢RSI背离。
	m += clampRange((ind.RSI7-ind.RSI14)*0.6, -12, 12)

	if ind.HasMACD {
		normHist := indicator.SafeDivide(ind.MACDHist, price) * 10000
		m += clampRange(normHist*2, -20, 20)
		if ind.MACDLine > ind.MACDSignal {
			m += 10
		} else if ind.MACDLine < ind.MACDSignal {
			m -= 10
		}
	}

	if ind.StochK < 20 {
		m += 10
	} else if ind.StochK > 80 {
		m -= 10
	}
	if ind.StochK > ind.StochD {
		m += 5
	} else if ind.StochK < ind.StochD {
		m -= 5
	}

	return clamp(m)
}

// volatilityScore 与ATR%反相关：波动越低越安全，分值越高。
func volatilityScore(ind indicator.Set) float64 {
	v := 40 - ind.ATRPercent*12

	// 布林位置越偏离中轨越不平静；贴近下轨保留部分反弹潜力。
	v -= math.Abs(ind.BollPercentB-0.5) * 40
	if ind.BollPercentB < 0.1 {
		v += 15
	}

	if ind.BollWidth > 0 && ind.BollWidth < 4 {
		v += 10
	}

	return clamp(v)
}

// structureScore 衡量价格相对支撑/阻力与斐波那契关键位的位置。
func structureScore(st structure.Info, price float64) float64 {
	if price <= 0 {
		return 0
	}

	var s float64

	if st.HasSupport && st.Support < price {
		distPct := (price - st.Support) / price * 100
		s += clampRange(25-distPct*2.5, 0, 25)
	} else {
		// 下方已无有效支撑。
		s -= 15
	}

	if st.HasResistance {
		distPct := (st.Resistance - price) / price * 100
		s -= clampRange(25-distPct*2.5, 0, 25)
	} else {
		// 上方无阻力，价格处于结构上沿之上。
		s += 15
	}

	if f618, ok := st.Fib["0.618"]; ok {
		if price >= f618*0.97 && price <= f618*1.005 {
			s += 10
		}
	}

	return clamp(s)
}

// volumeScore 由OBV趋势给出固定分值。
func volumeScore(obvTrend string) float64 {
	switch obvTrend {
	case indicator.OBVRising:
		return 40
	case indicator.OBVFalling:
		return -40
	default:
		return 0
	}
}

func clamp(v float64) float64 {
	return clampRange(v, -100, 100)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
