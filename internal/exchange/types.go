package exchange

import (
	"fmt"
	"math"
	"time"
)

const (
	// DefaultTimeframe 为默认分析周期。
	DefaultTimeframe = "1h"
	// DefaultLimit 为默认K线拉取数量，覆盖EMA200与摆动点检测所需的回看窗口。
	DefaultLimit = 300
)

// Candle 代表单根K线。
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	VWAP      float64   `json:"vwap"`
	Volume    float64   `json:"volume"`
	Count     int64     `json:"count"`
}

// closeEpsilon 容忍交易所收盘价相对高低点的舍入误差。
const closeEpsilon = 1e-9

// Valid 校验单根K线的基本不变量。
func (c Candle) Valid() bool {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	eps := closeEpsilon + math.Abs(c.High)*1e-9
	if c.High < c.Low {
		return false
	}
	if c.Close < c.Low-eps || c.Close > c.High+eps {
		return false
	}
	return true
}

// ValidateCandles 确认序列按时间升序且每根K线有效。
func ValidateCandles(candles []Candle) error {
	for i, c := range candles {
		if !c.Valid() {
			return fmt.Errorf("第 %d 根K线数据非法: high=%f low=%f close=%f", i, c.High, c.Low, c.Close)
		}
		if i > 0 && c.Timestamp.Before(candles[i-1].Timestamp) {
			return fmt.Errorf("K线时间未按升序排列: index=%d", i)
		}
	}
	return nil
}
