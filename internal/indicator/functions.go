package indicator

import "math"

// 本包的指标均为纯函数：历史长度不足时返回 ok=false，绝不panic。
// 退化场景（零波动、零平均亏损、带宽塌缩）返回约定的安全哨兵值而非NaN。

// SMA 计算末尾 period 个值的算术平均。
func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	return mean(values[len(values)-period:]), true
}

// EMA 计算指数移动平均：以前 period 个值的简单平均为种子，
// 随后按平滑系数 2/(period+1) 递推。
func EMA(values []float64, period int) (float64, bool) {
	series, ok := emaSeries(values, period)
	if !ok {
		return 0, false
	}
	return series[len(series)-1], true
}

// emaSeries 返回与 values[period-1:] 对齐的EMA序列。
func emaSeries(values []float64, period int) ([]float64, bool) {
	if period <= 0 || len(values) < period {
		return nil, false
	}

	k := 2.0 / (float64(period) + 1)
	out := make([]float64, 0, len(values)-period+1)

	ema := mean(values[:period])
	out = append(out, ema)

	for _, v := range values[period:] {
		ema = v*k + ema*(1-k)
		out = append(out, ema)
	}

	return out, true
}

// RSI 按 Wilder 平滑计算相对强弱指数。平均亏损恰好为零时返回100。
func RSI(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period+1 {
		return 0, false
	}

	gains := make([]float64, 0, len(values)-1)
	losses := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		diff := values[i] - values[i-1]
		if diff > 0 {
			gains = append(gains, diff)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -diff)
		}
	}

	avgGain := mean(gains[:period])
	avgLoss := mean(losses[:period])
	p := float64(period)
	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*(p-1) + gains[i]) / p
		avgLoss = (avgLoss*(p-1) + losses[i]) / p
	}

	if avgLoss == 0 {
		return 100, true
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// ATR 按 Wilder 平滑计算平均真实波幅。
func ATR(high, low, close []float64, period int) (float64, bool) {
	n := len(close)
	if period <= 0 || n < period+1 || len(high) != n || len(low) != n {
		return 0, false
	}

	trs := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		trs = append(trs, trueRange(high[i], low[i], close[i-1]))
	}

	atr := mean(trs[:period])
	p := float64(period)
	for i := period; i < len(trs); i++ {
		atr = (atr*(p-1) + trs[i]) / p
	}

	return atr, true
}

func trueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if v := math.Abs(high - prevClose); v > tr {
		tr = v
	}
	if v := math.Abs(low - prevClose); v > tr {
		tr = v
	}
	return tr
}

// MACDValues 保存 MACD 关键值。
type MACDValues struct {
	Line      float64
	Signal    float64
	Histogram float64
}

// MACD 计算快慢EMA差值线及其信号线。历史不足以完成慢线加信号窗口时返回 ok=false。
func MACD(values []float64, fast, slow, signal int) (MACDValues, bool) {
	if fast <= 0 || slow <= fast || signal <= 0 || len(values) < slow+signal-1 {
		return MACDValues{}, false
	}

	fastSeries, _ := emaSeries(values, fast)
	slowSeries, _ := emaSeries(values, slow)

	// 两个序列尾部对齐，MACD线从慢线可用处开始。
	offset := slow - fast
	line := make([]float64, len(slowSeries))
	for i := range slowSeries {
		line[i] = fastSeries[i+offset] - slowSeries[i]
	}

	signalSeries, ok := emaSeries(line, signal)
	if !ok {
		return MACDValues{}, false
	}

	lineLast := line[len(line)-1]
	signalLast := signalSeries[len(signalSeries)-1]

	return MACDValues{
		Line:      lineLast,
		Signal:    signalLast,
		Histogram: lineLast - signalLast,
	}, true
}

// Stochastic 计算随机指标。区间塌缩时 %K 取50。
func Stochastic(high, low, close []float64, kPeriod, dPeriod int) (k, d float64, ok bool) {
	n := len(close)
	if kPeriod <= 0 || dPeriod <= 0 || n < kPeriod+dPeriod-1 || len(high) != n || len(low) != n {
		return 0, 0, false
	}

	kValues := make([]float64, 0, dPeriod)
	for end := n - dPeriod; end < n; end++ {
		start := end - kPeriod + 1
		highest := high[start]
		lowest := low[start]
		for i := start + 1; i <= end; i++ {
			if high[i] > highest {
				highest = high[i]
			}
			if low[i] < lowest {
				lowest = low[i]
			}
		}

		rangeSize := highest - lowest
		if rangeSize == 0 {
			kValues = append(kValues, 50)
			continue
		}
		kValues = append(kValues, (close[end]-lowest)/rangeSize*100)
	}

	return kValues[len(kValues)-1], mean(kValues), true
}

// BollingerBands 保存布林带数据。Width 为带宽百分比，PercentB 为收盘价在带内的相对位置。
type BollingerBands struct {
	Upper    float64
	Middle   float64
	Lower    float64
	Width    float64
	PercentB float64
}

// Bollinger 计算布林带：SMA ± mult·总体标准差。带宽塌缩时 %B 取0.5。
func Bollinger(values []float64, period int, mult float64) (BollingerBands, bool) {
	if period <= 0 || len(values) < period {
		return BollingerBands{}, false
	}

	window := values[len(values)-period:]
	middle := mean(window)

	variance := 0.0
	for _, v := range window {
		diff := v - middle
		variance += diff * diff
	}
	sd := math.Sqrt(variance / float64(period))

	upper := middle + mult*sd
	lower := middle - mult*sd

	width := 0.0
	if middle != 0 {
		width = (upper - lower) / middle * 100
	}

	percentB := 0.5
	if upper != lower {
		percentB = (values[len(values)-1] - lower) / (upper - lower)
	}

	return BollingerBands{
		Upper:    upper,
		Middle:   middle,
		Lower:    lower,
		Width:    width,
		PercentB: percentB,
	}, true
}

// ADX 按 Wilder 平滑计算平均趋向指数及 +DI/−DI。
func ADX(high, low, close []float64, period int) (adx, plusDI, minusDI float64, ok bool) {
	n := len(close)
	if period <= 0 || n < 2*period+1 || len(high) != n || len(low) != n {
		return 0, 0, 0, false
	}

	plusDM := make([]float64, 0, n-1)
	minusDM := make([]float64, 0, n-1)
	trs := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]

		p, m := 0.0, 0.0
		if up > down && up > 0 {
			p = up
		}
		if down > up && down > 0 {
			m = down
		}
		plusDM = append(plusDM, p)
		minusDM = append(minusDM, m)
		trs = append(trs, trueRange(high[i], low[i], close[i-1]))
	}

	smPlus := mean(plusDM[:period])
	smMinus := mean(minusDM[:period])
	smTR := mean(trs[:period])
	p := float64(period)

	computeDX := func() float64 {
		pdi := 100 * SafeDivide(smPlus, smTR)
		mdi := 100 * SafeDivide(smMinus, smTR)
		return 100 * SafeDivide(math.Abs(pdi-mdi), pdi+mdi)
	}

	dx := make([]float64, 0, len(trs)-period+1)
	dx = append(dx, computeDX())
	for i := period; i < len(trs); i++ {
		smPlus = (smPlus*(p-1) + plusDM[i]) / p
		smMinus = (smMinus*(p-1) + minusDM[i]) / p
		smTR = (smTR*(p-1) + trs[i]) / p
		dx = append(dx, computeDX())
	}

	if len(dx) < period {
		return 0, 0, 0, false
	}

	adxVal := mean(dx[:period])
	for i := period; i < len(dx); i++ {
		adxVal = (adxVal*(p-1) + dx[i]) / p
	}

	return adxVal, 100 * SafeDivide(smPlus, smTR), 100 * SafeDivide(smMinus, smTR), true
}

// OBV 趋势标签。
const (
	OBVRising  = "Rising"
	OBVFalling = "Falling"
	OBVFlat    = "Flat"
)

// OBVTrend 比较能量潮最近 lookback 个值与其前一窗口的均值，
// 相对变化超过±10%时判定为 Rising/Falling，否则 Flat。
func OBVTrend(close, volume []float64, lookback int) string {
	n := len(close)
	if lookback <= 0 || n < 2*lookback+1 || len(volume) != n {
		return OBVFlat
	}

	obv := make([]float64, n)
	for i := 1; i < n; i++ {
		switch {
		case close[i] > close[i-1]:
			obv[i] = obv[i-1] + volume[i]
		case close[i] < close[i-1]:
			obv[i] = obv[i-1] - volume[i]
		default:
			obv[i] = obv[i-1]
		}
	}

	recent := mean(obv[n-lookback:])
	prior := mean(obv[n-2*lookback : n-lookback])

	denom := math.Abs(prior)
	if denom == 0 {
		denom = math.Abs(recent)
	}
	if denom == 0 {
		return OBVFlat
	}

	change := (recent - prior) / denom
	switch {
	case change > 0.10:
		return OBVRising
	case change < -0.10:
		return OBVFalling
	default:
		return OBVFlat
	}
}
