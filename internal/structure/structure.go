package structure

import (
	"math"
	"sort"

	"coinsight/internal/indicator"
)

// 市场结构标签。
const (
	TrendBullish = "Bullish"
	TrendBearish = "Bearish"
	TrendMixed   = "Mixed"
)

// SwingPoint 表示一个局部极值点。
type SwingPoint struct {
	Index int     `json:"index"`
	Price float64 `json:"price"`
}

// Level 为聚类后的支撑/阻力位。
type Level struct {
	Price   float64 `json:"price"`
	Touches int     `json:"touches"`
	Recency float64 `json:"recency"`
	Rank    float64 `json:"rank"`
}

// Info 汇总一次结构检测的结果。
type Info struct {
	SwingHighs []SwingPoint `json:"swing_highs"`
	SwingLows  []SwingPoint `json:"swing_lows"`

	Support       float64 `json:"support"`
	HasSupport    bool    `json:"has_support"`
	Resistance    float64 `json:"resistance"`
	HasResistance bool    `json:"has_resistance"`

	SwingHigh float64            `json:"swing_high"`
	SwingLow  float64            `json:"swing_low"`
	Fib       map[string]float64 `json:"fib_levels"`

	MarketTrend string `json:"market_trend"`
}

// Options 控制结构检测参数。
type Options struct {
	LeftBars  int
	RightBars int
	BucketPct float64
}

// DefaultOptions 返回默认检测参数。
func DefaultOptions() Options {
	return Options{
		LeftBars:  3,
		RightBars: 3,
		BucketPct: 0.005,
	}
}

// Detect 在K线序列上完成摆动点识别、支撑阻力聚类、斐波那契水平与市场结构分类。
func Detect(series indicator.Series, opts Options) Info {
	if opts.LeftBars <= 0 {
		opts.LeftBars = 3
	}
	if opts.RightBars <= 0 {
		opts.RightBars = 3
	}
	if opts.BucketPct <= 0 {
		opts.BucketPct = 0.005
	}

	highs, lows := findSwingPoints(series, opts.LeftBars, opts.RightBars)
	lastPrice := series.LastClose()

	info := Info{
		SwingHighs:  highs,
		SwingLows:   lows,
		MarketTrend: classifyMarketTrend(highs, lows),
	}

	support, resistance := clusterLevels(highs, lows, series.Len(), lastPrice, opts.BucketPct)
	if support != nil {
		info.Support = support.Price
		info.HasSupport = true
	}
	if resistance != nil {
		info.Resistance = resistance.Price
		info.HasResistance = true
	}

	info.SwingHigh, info.SwingLow = dominantSwingRange(series, highs, lows)
	info.Fib = fibonacciLevels(info.SwingHigh, info.SwingLow)

	return info
}

// findSwingPoints 以对称窗口做严格局部极值判定。
func findSwingPoints(series indicator.Series, leftBars, rightBars int) (highs, lows []SwingPoint) {
	n := series.Len()
	for i := leftBars; i < n-rightBars; i++ {
		isHigh := true
		isLow := true
		for j := i - leftBars; j <= i+rightBars; j++ {
			if j == i {
				continue
			}
			if series.High[j] >= series.High[i] {
				isHigh = false
			}
			if series.Low[j] <= series.Low[i] {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}

		if isHigh {
			highs = append(highs, SwingPoint{Index: i, Price: series.High[i]})
		}
		if isLow {
			lows = append(lows, SwingPoint{Index: i, Price: series.Low[i]})
		}
	}
	return highs, lows
}

type bucket struct {
	centroid  float64
	touches   int
	lastIndex int
}

// clusterLevels 将摆动点按价格装入宽度为 lastPrice×bucketPct 的桶，
// 桶的代表价位为成员的滚动质心，按 触及次数×(0.5+新近度) 排序。
func clusterLevels(highs, lows []SwingPoint, length int, lastPrice, bucketPct float64) (support, resistance *Level) {
	if lastPrice <= 0 || length < 2 {
		return nil, nil
	}

	bucketWidth := lastPrice * bucketPct
	if bucketWidth <= 0 {
		return nil, nil
	}

	buckets := make(map[int]*bucket)
	add := func(p SwingPoint) {
		key := int(math.Floor(p.Price / bucketWidth))
		b, ok := buckets[key]
		if !ok {
			buckets[key] = &bucket{centroid: p.Price, touches: 1, lastIndex: p.Index}
			return
		}
		b.centroid += (p.Price - b.centroid) / float64(b.touches+1)
		b.touches++
		if p.Index > b.lastIndex {
			b.lastIndex = p.Index
		}
	}

	for _, p := range highs {
		add(p)
	}
	for _, p := range lows {
		add(p)
	}

	levels := make([]Level, 0, len(buckets))
	for _, b := range buckets {
		recency := float64(b.lastIndex) / float64(length-1)
		levels = append(levels, Level{
			Price:   b.centroid,
			Touches: b.touches,
			Recency: recency,
			Rank:    float64(b.touches) * (0.5 + recency),
		})
	}

	sort.Slice(levels, func(i, j int) bool { return levels[i].Rank > levels[j].Rank })

	for i := range levels {
		lvl := levels[i]
		if lvl.Price < lastPrice && support == nil {
			support = &levels[i]
		}
		if lvl.Price > lastPrice && resistance == nil {
			resistance = &levels[i]
		}
		if support != nil && resistance != nil {
			break
		}
	}

	return support, resistance
}

// dominantSwingRange 取最近的主导摆动高/低点，无摆动点时回退到窗口极值。
func dominantSwingRange(series indicator.Series, highs, lows []SwingPoint) (high, low float64) {
	if len(highs) > 0 {
		high = highs[len(highs)-1].Price
	}
	if len(lows) > 0 {
		low = lows[len(lows)-1].Price
	}

	if high == 0 || low == 0 || high <= low {
		high = series.High[0]
		low = series.Low[0]
		for i := 1; i < series.Len(); i++ {
			if series.High[i] > high {
				high = series.High[i]
			}
			if series.Low[i] < low {
				low = series.Low[i]
			}
		}
	}

	return high, low
}

// fibonacciLevels 基于摆动区间计算回撤与扩展水平。
func fibonacciLevels(high, low float64) map[string]float64 {
	span := high - low
	if span <= 0 {
		return map[string]float64{}
	}

	return map[string]float64{
		"0.236": high - 0.236*span,
		"0.382": high - 0.382*span,
		"0.5":   high - 0.5*span,
		"0.618": high - 0.618*span,
		"0.786": high - 0.786*span,
		"1.272": low + 1.272*span,
		"1.618": low + 1.618*span,
		"2.0":   low + 2.0*span,
	}
}

// classifyMarketTrend 依据最近4个摆动高点与4个摆动低点的走向分类市场结构。
// 仅当一侧计数达到另一侧的1.5倍及以上时判定方向，否则为 Mixed。
func classifyMarketTrend(highs, lows []SwingPoint) string {
	lastHighs := tailPoints(highs, 4)
	lastLows := tailPoints(lows, 4)

	var bullish, bearish float64
	for i := 1; i < len(lastHighs); i++ {
		if lastHighs[i].Price > lastHighs[i-1].Price {
			bullish++
		} else if lastHighs[i].Price < lastHighs[i-1].Price {
			bearish++
		}
	}
	for i := 1; i < len(lastLows); i++ {
		if lastLows[i].Price > lastLows[i-1].Price {
			bullish++
		} else if lastLows[i].Price < lastLows[i-1].Price {
			bearish++
		}
	}

	switch {
	case bullish > 0 && bullish >= bearish*1.5:
		return TrendBullish
	case bearish > 0 && bearish >= bullish*1.5:
		return TrendBearish
	default:
		return TrendMixed
	}
}

func tailPoints(points []SwingPoint, n int) []SwingPoint {
	if len(points) <= n {
		return points
	}
	return points[len(points)-n:]
}
