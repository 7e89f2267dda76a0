// Package numfmt 提供仪表盘统计数字的展示格式
package numfmt

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// 紧凑单位，humanize 的 SI 前缀映射为业务习惯的 K/M/B/T
var compactUnits = []string{"", "K", "M", "B", "T"}

var siToCompact = map[string]int{
	"":  0,
	"k": 1,
	"M": 2,
	"G": 3,
	"T": 4,
}

// Abbreviate 将计数缩写为紧凑形式，例如 1500 -> "1.5K"、12345 -> "12K"、999950 -> "1M"
func Abbreviate(n int64) string {
	sign := ""
	// 取绝对值使用 uint64，避免 math.MinInt64 取反溢出
	abs := uint64(n)
	if n < 0 {
		sign = "-"
		abs = -abs
	}
	if abs < 1000 {
		return sign + strconv.FormatUint(abs, 10)
	}

	f := float64(abs)
	value, prefix := humanize.ComputeSI(f)
	unit, ok := siToCompact[prefix]
	if !ok {
		// 超出 T 的量级直接按 T 展示
		unit = len(compactUnits) - 1
		value = f / math.Pow(1000, float64(unit))
	}

	value = roundCompact(value)
	if value >= 1000 && unit < len(compactUnits)-1 {
		unit++
		value = roundCompact(value / 1000)
	}
	if value >= 1000 {
		return sign + humanize.Comma(int64(value)) + compactUnits[unit]
	}

	return sign + strconv.FormatFloat(value, 'f', -1, 64) + compactUnits[unit]
}

// roundCompact 小于 10 时保留一位小数，否则取整
func roundCompact(v float64) float64 {
	if v < 10 {
		r := math.Round(v*10) / 10
		if r < 10 {
			return r
		}
	}
	return math.Round(v)
}

// Exact 返回千分位分隔的精确值，用于卡片的悬浮提示
func Exact(n int64) string {
	return humanize.Comma(n)
}
