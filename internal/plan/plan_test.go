package plan

import (
	"math"
	"testing"

	"coinsight/internal/indicator"
	"coinsight/internal/signal"
	"coinsight/internal/structure"
)

func makeInput(price, atrPct float64) Input {
	atr := price * atrPct / 100
	return Input{
		Price:       price,
		CandleCount: 300,
		Ind: indicator.Set{
			RSI7:  50,
			RSI14: 50,

			EMA20:     price,
			EMA50:     price,
			EMA200:    price,
			HasEMA200: true,

			HasMACD: true,

			ATR:        atr,
			ATRPercent: atrPct,

			StochK: 50,
			StochD: 50,

			BollPercentB: 0.5,

			OBVTrend: indicator.OBVFlat,

			HasADX: true,
			ADX:    20,
		},
		Structure:  structure.Info{MarketTrend: structure.TrendMixed},
		TrendLabel: signal.TrendNeutral,
	}
}

func fibFor(high, low float64) map[string]float64 {
	span := high - low
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

func assertOrdering(t *testing.T, p Plan) {
	t.Helper()
	l := p.Levels
	if !(l.EntryLow < l.EntryHigh) {
		t.Fatalf("entry band inverted: low=%f high=%f", l.EntryLow, l.EntryHigh)
	}
	if !(l.EntryLow <= l.EntryMid && l.EntryMid <= l.EntryHigh) {
		t.Fatalf("entry mid outside band: low=%f mid=%f high=%f", l.EntryLow, l.EntryMid, l.EntryHigh)
	}
	if !(l.Stop < l.EntryMid) {
		t.Fatalf("stop must sit below entry mid: stop=%f mid=%f", l.Stop, l.EntryMid)
	}
	if !(l.EntryMid < l.T1 && l.T1 < l.T2 && l.T2 < l.T3) {
		t.Fatalf("targets not strictly increasing: mid=%f t1=%f t2=%f t3=%f", l.EntryMid, l.T1, l.T2, l.T3)
	}
}

func TestBuild_OrderingInvariantAcrossInputs(t *testing.T) {
	prices := []float64{0.0042, 0.87, 95, 27350}
	atrPcts := []float64{0.5, 2, 5, 12}
	trends := []float64{-70, 0, 70}

	for _, price := range prices {
		for _, atrPct := range atrPcts {
			for _, trend := range trends {
				for _, withLevels := range []bool{false, true} {
					in := makeInput(price, atrPct)
					in.Score.Trend = trend
					in.Score.Composite = trend / 2
					if trend > 60 {
						in.Ind.ADX = 30
						in.Ind.PlusDI = 30
						in.Ind.MinusDI = 10
					}
					if withLevels {
						in.Structure.Support = price * 0.97
						in.Structure.HasSupport = true
						in.Structure.Resistance = price * 1.04
						in.Structure.HasResistance = true
						in.Structure.SwingHigh = price * 1.1
						in.Structure.SwingLow = price * 0.85
						in.Structure.Fib = fibFor(in.Structure.SwingHigh, in.Structure.SwingLow)
					}

					p := Build(in)
					assertOrdering(t, p)

					if p.Verdict != VerdictStrongBuy && p.Verdict != VerdictBuy && p.Verdict != VerdictWait {
						t.Fatalf("long-only contract violated: verdict %q", p.Verdict)
					}
					if len(p.Reasons) == 0 {
						t.Fatalf("expected at least one reason sentence")
					}
				}
			}
		}
	}
}

func TestBuild_BreakoutBranch(t *testing.T) {
	in := makeInput(100, 2)
	in.Score.Trend = 70
	in.Ind.ADX = 30
	in.Ind.PlusDI = 30
	in.Ind.MinusDI = 10

	p := Build(in)
	if !p.Breakout {
		t.Fatalf("expected breakout conditions to trigger")
	}
	if math.Abs(p.Levels.EntryLow-99) > 1e-9 || math.Abs(p.Levels.EntryHigh-101) > 1e-9 {
		t.Errorf("expected entry band price±0.5*ATR, got [%f, %f]", p.Levels.EntryLow, p.Levels.EntryHigh)
	}
	// 突破入场不受 0.995*price 上限约束。
	if p.Levels.EntryHigh <= in.Price {
		t.Errorf("breakout entry high should extend above price")
	}
	assertOrdering(t, p)
}

func TestBuild_SupportPullbackBranch(t *testing.T) {
	in := makeInput(100, 2)
	in.Structure.Support = 97
	in.Structure.HasSupport = true

	p := Build(in)
	if p.Breakout {
		t.Fatalf("breakout must not trigger on a neutral trend")
	}
	if math.Abs(p.Levels.EntryLow-97*0.995) > 1e-9 {
		t.Errorf("expected entry low at support*0.995, got %f", p.Levels.EntryLow)
	}
	if math.Abs(p.Levels.EntryHigh-97*1.02) > 1e-9 {
		t.Errorf("expected entry high at support*1.02, got %f", p.Levels.EntryHigh)
	}
	if math.Abs(p.Levels.Stop-97*0.99) > 1e-9 {
		t.Errorf("expected stop just under support, got %f", p.Levels.Stop)
	}
	assertOrdering(t, p)
}

func TestBuild_GoldenPocketBranch(t *testing.T) {
	in := makeInput(93, 2)
	in.Structure.SwingHigh = 110
	in.Structure.SwingLow = 85
	in.Structure.Fib = fibFor(110, 85)

	f618 := in.Structure.Fib["0.618"]
	f786 := in.Structure.Fib["0.786"]
	if !(in.Price >= f786 && in.Price <= f618) {
		t.Fatalf("test setup broken: price %f outside pocket [%f, %f]", in.Price, f786, f618)
	}

	p := Build(in)
	if math.Abs(p.Levels.EntryLow-f786) > 1e-9 {
		t.Errorf("expected entry low at 0.786 retracement, got %f", p.Levels.EntryLow)
	}
	want := math.Min(f618, in.Price*0.995)
	if math.Abs(p.Levels.EntryHigh-want) > 1e-9 {
		t.Errorf("expected entry high at min(0.618, 0.995*price), got %f", p.Levels.EntryHigh)
	}
	assertOrdering(t, p)
}

func TestBuild_SupportBeatsGoldenPocket(t *testing.T) {
	in := makeInput(93, 2)
	in.Structure.SwingHigh = 110
	in.Structure.SwingLow = 85
	in.Structure.Fib = fibFor(110, 85)
	in.Structure.Support = 91
	in.Structure.HasSupport = true

	p := Build(in)
	if math.Abs(p.Levels.EntryLow-91*0.995) > 1e-9 {
		t.Errorf("support branch must take priority over the golden pocket, got entry low %f", p.Levels.EntryLow)
	}
}

func TestBuild_DefaultATRBand(t *testing.T) {
	in := makeInput(100, 2)

	p := Build(in)
	if math.Abs(p.Levels.EntryLow-(100-1.2*2)) > 1e-9 {
		t.Errorf("expected entry low at price-1.2*ATR, got %f", p.Levels.EntryLow)
	}
	if math.Abs(p.Levels.EntryHigh-(100-0.4*2)) > 1e-9 {
		t.Errorf("expected entry high at price-0.4*ATR, got %f", p.Levels.EntryHigh)
	}
	assertOrdering(t, p)
}

func TestBuild_MinimumStopDistance(t *testing.T) {
	in := makeInput(100, 0.1)

	p := Build(in)
	if math.Abs(p.Levels.Stop-p.Levels.EntryMid*0.985) > 1e-9 {
		t.Errorf("expected 1.5%% fallback stop, got %f (mid %f)", p.Levels.Stop, p.Levels.EntryMid)
	}
	assertOrdering(t, p)
}

func TestBuild_ResistancePullsTargetOne(t *testing.T) {
	in := makeInput(100, 2)
	in.Structure.Resistance = 102
	in.Structure.HasResistance = true

	p := Build(in)
	if math.Abs(p.Levels.T1-102*0.997) > 1e-9 {
		t.Errorf("expected T1 pulled to resistance*0.997, got %f", p.Levels.T1)
	}
	assertOrdering(t, p)
}

func TestBuild_TargetCapsPreserveOrdering(t *testing.T) {
	in := makeInput(100, 1)
	// 不切实际的远端扩展位应被ATR封顶截断。
	in.Structure.Fib = map[string]float64{"1.272": 130, "1.618": 140}

	p := Build(in)
	mid := p.Levels.EntryMid
	if math.Abs(p.Levels.T2-mid*1.08) > 1e-9 {
		t.Errorf("expected T2 capped at mid*(1+8%%), got %f", p.Levels.T2)
	}
	if math.Abs(p.Levels.T3-mid*1.092) > 1e-9 {
		t.Errorf("expected T3 capped at mid*(1+9.2%%), got %f", p.Levels.T3)
	}
	assertOrdering(t, p)
}

func TestVerdict_CompositeTiers(t *testing.T) {
	cases := []struct {
		composite float64
		want      string
	}{
		{55, VerdictStrongBuy},
		{50, VerdictStrongBuy},
		{35, VerdictBuy},
		{20, VerdictBuy},
		{19.9, VerdictWait},
		{-40, VerdictWait},
	}
	for _, tc := range cases {
		in := makeInput(100, 2)
		in.Score.Composite = tc.composite
		if got := Build(in).Verdict; got != tc.want {
			t.Errorf("composite %f: expected %s, got %s", tc.composite, tc.want, got)
		}
	}
}

func TestVerdict_OversoldUpgrade(t *testing.T) {
	in := makeInput(100, 2)
	in.Ind.RSI14 = 20
	in.Score.Momentum = 5
	in.Score.Composite = 10

	if got := Build(in).Verdict; got != VerdictBuy {
		t.Errorf("expected oversold upgrade to Buy, got %s", got)
	}

	// 明确空头趋势下不升级。
	in.TrendLabel = signal.TrendStrongBear
	if got := Build(in).Verdict; got != VerdictWait {
		t.Errorf("upgrade must be blocked in a bear trend, got %s", got)
	}
}

func TestVerdict_OverboughtDowngrade(t *testing.T) {
	in := makeInput(100, 2)
	in.Ind.RSI14 = 85
	in.Score.Momentum = -5
	in.Score.Trend = 10
	in.Score.Composite = 30

	if got := Build(in).Verdict; got != VerdictWait {
		t.Errorf("expected overbought downgrade to Wait, got %s", got)
	}

	// 多头趋势标签下不降级。
	in.TrendLabel = signal.TrendBull
	if got := Build(in).Verdict; got != VerdictBuy {
		t.Errorf("downgrade must be blocked in a bull trend, got %s", got)
	}
}

func TestVerdict_BearSafetyOverride(t *testing.T) {
	in := makeInput(100, 2)
	in.TrendLabel = signal.TrendStrongBear
	in.Score.Trend = -80
	in.Score.Composite = 55

	if got := Build(in).Verdict; got != VerdictWait {
		t.Errorf("bear trend with deep trend score must force Wait, got %s", got)
	}

	// 趋势分未深跌但量能流出同样触发保护。
	in.Score.Trend = -40
	in.Score.Volume = -30
	if got := Build(in).Verdict; got != VerdictWait {
		t.Errorf("bear trend with volume outflow must force Wait, got %s", got)
	}
}

func TestRiskLevel_Grades(t *testing.T) {
	cases := []struct {
		atrPct    float64
		composite float64
		want      string
	}{
		{1, 40, RiskLow},
		{1, 10, RiskMedium},
		{3, 60, RiskMedium},
		{5, 0, RiskHigh},
		{8, 0, RiskVeryHigh},
	}
	for _, tc := range cases {
		in := makeInput(100, tc.atrPct)
		in.Score.Composite = tc.composite
		if got := Build(in).RiskLevel; got != tc.want {
			t.Errorf("atr%%=%f composite=%f: expected %s, got %s", tc.atrPct, tc.composite, tc.want, got)
		}
	}
}

func TestConfidence_AlignmentCounts(t *testing.T) {
	in := makeInput(100, 2)
	in.Score = signal.Score{Trend: 20, Momentum: 20, Structure: 20, Volume: 10, Composite: 45}
	if got := Build(in).Confidence; got != ConfidenceHigh {
		t.Errorf("four aligned factors should read High, got %s", got)
	}

	in.Score = signal.Score{Trend: 20, Momentum: 20, Composite: 30}
	if got := Build(in).Confidence; got != ConfidenceMedium {
		t.Errorf("two aligned factors with solid composite should read Medium, got %s", got)
	}

	in.Score = signal.Score{Trend: 20, Composite: 10}
	if got := Build(in).Confidence; got != ConfidenceLow {
		t.Errorf("a single aligned factor should read Low, got %s", got)
	}
}

func TestBuild_WaitVerdictKeepsDisclaimer(t *testing.T) {
	in := makeInput(100, 2)
	p := Build(in)
	if p.Verdict != VerdictWait {
		t.Fatalf("neutral input should produce Wait, got %s", p.Verdict)
	}
	last := p.Reasons[len(p.Reasons)-1]
	if last == "" || len(last) < 20 {
		t.Errorf("expected a closing disclaimer sentence, got %q", last)
	}
}
