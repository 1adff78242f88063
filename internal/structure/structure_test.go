package structure

import (
	"math"
	"testing"

	"coinsight/internal/indicator"
)

// zigzagSeries 生成三角波加漂移的序列：波峰在 6,18,30...，波谷在 0,12,24...。
// drift>0 时高点与低点同步抬升。
func zigzagSeries(n int, base, drift float64) indicator.Series {
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		phase := i % 12
		tri := float64(phase) * 2
		if phase > 6 {
			tri = float64(12-phase) * 2
		}
		closes[i] = base + tri + drift*float64(i)
	}
	return seriesFromCloses(closes, 0.5)
}

func seriesFromCloses(closes []float64, spread float64) indicator.Series {
	s := indicator.Series{
		Close:  closes,
		High:   make([]float64, len(closes)),
		Low:    make([]float64, len(closes)),
		Volume: make([]float64, len(closes)),
	}
	for i, c := range closes {
		s.High[i] = c + spread
		s.Low[i] = c - spread
		s.Volume[i] = 1000
	}
	return s
}

func TestDetect_SwingPointsOnZigzag(t *testing.T) {
	series := zigzagSeries(58, 1000, 0.1)
	info := Detect(series, DefaultOptions())

	if len(info.SwingHighs) < 3 {
		t.Fatalf("expected at least 3 swing highs, got %d", len(info.SwingHighs))
	}
	if len(info.SwingLows) < 2 {
		t.Fatalf("expected at least 2 swing lows, got %d", len(info.SwingLows))
	}

	for i := 1; i < len(info.SwingHighs); i++ {
		if info.SwingHighs[i].Price <= info.SwingHighs[i-1].Price {
			t.Errorf("swing highs should rise with the drift: %f then %f",
				info.SwingHighs[i-1].Price, info.SwingHighs[i].Price)
		}
		if info.SwingHighs[i].Index <= info.SwingHighs[i-1].Index {
			t.Errorf("swing points must be ordered by index")
		}
	}

	if info.MarketTrend != TrendBullish {
		t.Errorf("expected Bullish classification on rising highs and lows, got %s", info.MarketTrend)
	}
}

func TestDetect_BearishClassification(t *testing.T) {
	series := zigzagSeries(58, 1000, -0.1)
	info := Detect(series, DefaultOptions())
	if info.MarketTrend != TrendBearish {
		t.Errorf("expected Bearish classification on falling highs and lows, got %s", info.MarketTrend)
	}
}

func TestDetect_SupportAndResistance(t *testing.T) {
	series := zigzagSeries(58, 1000, 0.1)
	info := Detect(series, DefaultOptions())
	lastPrice := series.LastClose()

	if !info.HasSupport {
		t.Fatalf("expected a support level below price")
	}
	if !info.HasResistance {
		t.Fatalf("expected a resistance level above price")
	}
	if info.Support >= lastPrice {
		t.Errorf("support %f must sit below last price %f", info.Support, lastPrice)
	}
	if info.Resistance <= lastPrice {
		t.Errorf("resistance %f must sit above last price %f", info.Resistance, lastPrice)
	}
}

func TestDetect_FibLevels(t *testing.T) {
	series := zigzagSeries(58, 1000, 0.1)
	info := Detect(series, DefaultOptions())

	if info.SwingHigh <= info.SwingLow {
		t.Fatalf("expected a positive swing range, got high=%f low=%f", info.SwingHigh, info.SwingLow)
	}

	for _, key := range []string{"0.236", "0.382", "0.5", "0.618", "0.786", "1.272", "1.618", "2.0"} {
		if _, ok := info.Fib[key]; !ok {
			t.Fatalf("missing fib level %s", key)
		}
	}

	// 回撤比率越深价位越低。
	if !(info.Fib["0.236"] > info.Fib["0.382"] && info.Fib["0.382"] > info.Fib["0.5"] &&
		info.Fib["0.5"] > info.Fib["0.618"] && info.Fib["0.618"] > info.Fib["0.786"]) {
		t.Errorf("retracement levels out of order: %v", info.Fib)
	}

	// 0.5 回撤位于区间中点。
	mid := (info.SwingHigh + info.SwingLow) / 2
	if math.Abs(info.Fib["0.5"]-mid) > 1e-9 {
		t.Errorf("expected 0.5 retracement at range midpoint, got %f want %f", info.Fib["0.5"], mid)
	}

	// 扩展位高于摆动高点且递增。
	if info.Fib["1.272"] <= info.SwingHigh {
		t.Errorf("extension 1.272 must sit above the swing high")
	}
	if !(info.Fib["1.272"] < info.Fib["1.618"] && info.Fib["1.618"] < info.Fib["2.0"]) {
		t.Errorf("extension levels out of order: %v", info.Fib)
	}
}

func TestDetect_FlatSeries(t *testing.T) {
	series := seriesFromCloses(make([]float64, 80), 0)
	for i := range series.Close {
		series.Close[i] = 100
		series.High[i] = 100
		series.Low[i] = 100
	}

	info := Detect(series, DefaultOptions())
	if len(info.SwingHighs) != 0 || len(info.SwingLows) != 0 {
		t.Errorf("strict extrema must not fire on a flat series")
	}
	if info.HasSupport || info.HasResistance {
		t.Errorf("no support or resistance expected on a flat series")
	}
	if len(info.Fib) != 0 {
		t.Errorf("expected empty fib map on a zero span, got %v", info.Fib)
	}
	if info.MarketTrend != TrendMixed {
		t.Errorf("expected Mixed classification without swing points, got %s", info.MarketTrend)
	}
}

func TestDetect_RepeatedTouchesFormOneLevel(t *testing.T) {
	// 价格三次回踩同一区域：三个波谷落在同一价格桶内。
	closes := make([]float64, 0, 72)
	for cycle := 0; cycle < 3; cycle++ {
		for i := 0; i < 24; i++ {
			tri := float64(i%12) * 2
			if i%12 > 6 {
				tri = float64(12-i%12) * 2
			}
			closes = append(closes, 1000+tri)
		}
	}
	series := seriesFromCloses(closes, 0.5)
	info := Detect(series, DefaultOptions())

	if !info.HasSupport {
		t.Fatalf("expected a support from the repeated trough zone")
	}
	// 波谷都在 1000 附近（low = close-0.5）。
	if math.Abs(info.Support-999.5) > series.LastClose()*0.01 {
		t.Errorf("support should cluster near the repeated trough, got %f", info.Support)
	}
}
