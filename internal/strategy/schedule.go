package strategy

import (
	"math"
	"time"
)

// 本文件内的函数均为纯计算：无 I/O、无随机性、无时钟依赖，
// 相同输入必然得到逐位一致的输出。调用方负责保证 n >= 2 且价格区间合法。

// GridPrices 计算网格的 n 个价位，首尾分别落在 lower 与 upper。
// 等差模式步长恒定；等比模式相邻价位比值恒定。
func GridPrices(lower, upper float64, n int, spacing Spacing) []float64 {
	prices := make([]float64, n)

	switch spacing {
	case SpacingGeometric:
		ratio := math.Pow(upper/lower, 1/float64(n-1))
		for i := range prices {
			prices[i] = lower * math.Pow(ratio, float64(i))
		}
	default:
		step := (upper - lower) / float64(n-1)
		for i := range prices {
			prices[i] = lower + float64(i)*step
		}
	}

	return prices
}

// EvenQuantities 将总量均分到 n 腿。
func EvenQuantities(total float64, n int) []float64 {
	per := total / float64(n)
	quantities := make([]float64, n)
	for i := range quantities {
		quantities[i] = per
	}
	return quantities
}

// MartingaleQuantities 生成等比数量序列：第 i 腿为 base × multiplier^i。
func MartingaleQuantities(base, multiplier float64, n int) []float64 {
	quantities := make([]float64, n)
	current := base
	for i := range quantities {
		quantities[i] = current
		current *= multiplier
	}
	return quantities
}

// DCAQuantities 将计价货币预算均分到每腿，再按该腿价格折算成基础资产数量，
// 因此腿数量与价位成反比。
func DCAQuantities(quoteBudget float64, prices []float64) []float64 {
	perLeg := quoteBudget / float64(len(prices))
	quantities := make([]float64, len(prices))
	for i, price := range prices {
		quantities[i] = perLeg / price
	}
	return quantities
}

// ProfileQuantities 按量能分布计算各切片数量。权重统一归一化，
// 无论分布形态如何，数量之和都精确保持为 total。
func ProfileQuantities(total float64, n int, profile Profile) []float64 {
	if profile == ProfileUniform {
		return EvenQuantities(total, n)
	}

	weights := make([]float64, n)
	switch profile {
	case ProfileFrontLoaded:
		for i := range weights {
			weights[i] = 1.5 - 0.5*float64(i)/float64(n-1)
		}
	case ProfileBackLoaded:
		for i := range weights {
			weights[i] = 0.5 + 0.5*float64(i)/float64(n-1)
		}
	case ProfileMiddleLoaded:
		mid := float64(n-1) / 2
		for i := range weights {
			weights[i] = math.Max(0.5, 1.5-math.Abs(float64(i)-mid)/mid)
		}
	default:
		return EvenQuantities(total, n)
	}

	var sum float64
	for _, w := range weights {
		sum += w
	}

	quantities := make([]float64, n)
	for i, w := range weights {
		quantities[i] = total * w / sum
	}
	return quantities
}

// SliceInterval 计算切片之间的等待时长：总时长均摊到 n-1 个间隔。
func SliceInterval(durationMinutes, n int) time.Duration {
	seconds := float64(durationMinutes*60) / float64(n-1)
	return time.Duration(seconds * float64(time.Second))
}

// GridSides 展开每腿方向。中性网格从索引 0 的 BUY 开始交替，
// 偶数腿 BUY、奇数腿 SELL，这是固定策略，无配置开关。
func GridSides(side Side, n int) []Side {
	sides := make([]Side, n)
	for i := range sides {
		if side == SideBoth {
			if i%2 == 0 {
				sides[i] = SideBuy
			} else {
				sides[i] = SideSell
			}
		} else {
			sides[i] = side
		}
	}
	return sides
}

// BuildLegs 将价位、数量与方向合成有序排程。三个切片长度必须一致。
func BuildLegs(prices, quantities []float64, sides []Side) []ScheduleLeg {
	legs := make([]ScheduleLeg, len(quantities))
	for i := range legs {
		var price float64
		if len(prices) > 0 {
			price = prices[i]
		}
		legs[i] = ScheduleLeg{
			Index:    i + 1,
			Price:    price,
			Quantity: quantities[i],
			Side:     sides[i],
		}
	}
	return legs
}
