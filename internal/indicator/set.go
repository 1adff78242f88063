package indicator

const (
	periodRSIFast  = 7
	periodRSI      = 14
	periodEMAFast  = 20
	periodEMAMid   = 50
	periodEMASlow  = 200
	periodATR      = 14
	periodStochK   = 14
	periodStochD   = 3
	periodBoll     = 20
	bollMultiplier = 2.0
	periodADX      = 14
	lookbackOBV    = 20
	macdFast       = 12
	macdSlow       = 26
	macdSignal     = 9
)

// Set 为一次分析的指标快照，计算完成后不再修改。
// 个别指标因历史长度不足而退化时，取中性值并记入 Degraded。
type Set struct {
	RSI7  float64 `json:"rsi7"`
	RSI14 float64 `json:"rsi14"`

	EMA20     float64 `json:"ema20"`
	EMA50     float64 `json:"ema50"`
	EMA200    float64 `json:"ema200"`
	HasEMA200 bool    `json:"has_ema200"`

	MACDLine   float64 `json:"macd_line"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_histogram"`
	HasMACD    bool    `json:"has_macd"`

	ATR        float64 `json:"atr"`
	ATRPercent float64 `json:"atr_percent"`

	StochK float64 `json:"stoch_k"`
	StochD float64 `json:"stoch_d"`

	BollUpper    float64 `json:"boll_upper"`
	BollMiddle   float64 `json:"boll_middle"`
	BollLower    float64 `json:"boll_lower"`
	BollWidth    float64 `json:"boll_width"`
	BollPercentB float64 `json:"boll_percent_b"`

	OBVTrend string `json:"obv_trend"`

	ADX     float64 `json:"adx"`
	PlusDI  float64 `json:"plus_di"`
	MinusDI float64 `json:"minus_di"`
	HasADX  bool    `json:"has_adx"`

	Degraded []string `json:"degraded,omitempty"`
}

// Compute 依据K线序列计算完整指标快照。
func Compute(series Series) Set {
	closes := series.Close
	highs := series.High
	lows := series.Low
	lastClose := series.LastClose()

	set := Set{OBVTrend: OBVTrend(closes, series.Volume, lookbackOBV)}

	degrade := func(name string) {
		set.Degraded = append(set.Degraded, name)
	}

	if v, ok := RSI(closes, periodRSIFast); ok {
		set.RSI7 = v
	} else {
		set.RSI7 = 50
		degrade("rsi7")
	}
	if v, ok := RSI(closes, periodRSI); ok {
		set.RSI14 = v
	} else {
		set.RSI14 = 50
		degrade("rsi14")
	}

	if v, ok := EMA(closes, periodEMAFast); ok {
		set.EMA20 = v
	} else {
		set.EMA20 = lastClose
		degrade("ema20")
	}
	if v, ok := EMA(closes, periodEMAMid); ok {
		set.EMA50 = v
	} else {
		set.EMA50 = lastClose
		degrade("ema50")
	}
	if v, ok := EMA(closes, periodEMASlow); ok {
		set.EMA200 = v
		set.HasEMA200 = true
	} else {
		degrade("ema200")
	}

	if macd, ok := MACD(closes, macdFast, macdSlow, macdSignal); ok {
		set.MACDLine = macd.Line
		set.MACDSignal = macd.Signal
		set.MACDHist = macd.Histogram
		set.HasMACD = true
	} else {
		degrade("macd")
	}

	if v, ok := ATR(highs, lows, closes, periodATR); ok {
		set.ATR = v
		set.ATRPercent = SafeDivide(v, lastClose) * 100
	} else {
		degrade("atr")
	}

	if k, d, ok := Stochastic(highs, lows, closes, periodStochK, periodStochD); ok {
		set.StochK = k
		set.StochD = d
	} else {
		set.StochK = 50
		set.StochD = 50
		degrade("stochastic")
	}

	if bands, ok := Bollinger(closes, periodBoll, bollMultiplier); ok {
		set.BollUpper = bands.Upper
		set.BollMiddle = bands.Middle
		set.BollLower = bands.Lower
		set.BollWidth = bands.Width
		set.BollPercentB = bands.PercentB
	} else {
		set.BollPercentB = 0.5
		degrade("bollinger")
	}

	if adx, plus, minus, ok := ADX(highs, lows, closes, periodADX); ok {
		set.ADX = adx
		set.PlusDI = plus
		set.MinusDI = minus
		set.HasADX = true
	} else {
		degrade("adx")
	}

	return set
}
