package analysis

import (
	"math"
	"strconv"
	"strings"
)

// QuoteFromPair 从 "BTC/USD" 或 "eth-usdt" 形式的交易对标签提取计价币种。
// 仅用于价格字符串格式化，不参与数值计算。
func QuoteFromPair(pair string) string {
	trimmed := strings.TrimSpace(pair)
	if idx := strings.Index(trimmed, ":"); idx >= 0 {
		trimmed = trimmed[:idx]
	}

	parts := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == '/' || r == '-'
	})
	if len(parts) < 2 {
		return "USD"
	}
	return strings.ToUpper(parts[len(parts)-1])
}

// FormatPrice 按价格量级选择小数位数，整数部分千位分组，并以计价币种为前缀。
func FormatPrice(quote string, value float64) string {
	s := strconv.FormatFloat(value, 'f', decimalsFor(value), 64)

	intPart := s
	fracPart := ""
	if idx := strings.Index(s, "."); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx:]
	}

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	grouped := groupThousands(intPart)
	if neg {
		grouped = "-" + grouped
	}

	return quote + " " + grouped + fracPart
}

func decimalsFor(value float64) int {
	v := math.Abs(value)
	switch {
	case v >= 10000:
		return 2
	case v >= 1:
		return 2
	case v >= 0.1:
		return 4
	case v >= 0.01:
		return 6
	default:
		return 8
	}
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}

	var b strings.Builder
	rem := n % 3
	if rem > 0 {
		b.WriteString(digits[:rem])
	}
	for i := rem; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
