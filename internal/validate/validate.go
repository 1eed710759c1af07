package validate

import (
	"fmt"
	"strings"
)

// 交易参数的通用边界，对应交易所公共过滤器的保守子集。
const (
	MinQuantity = 0.001
	MaxQuantity = 1_000_000.0
	MinPrice    = 0.0001
	MaxPrice    = 1_000_000.0

	MinDurationMinutes = 1
	MaxDurationMinutes = 1440
)

// Error 表示策略参数校验失败，携带可读原因。
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func newError(format string, args ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// Symbol 规范化并校验交易对符号。
func Symbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", newError("交易对不能为空")
	}
	return s, nil
}

// Side 规范化并校验委托方向。allowBoth 为真时接受中性网格的 BOTH。
func Side(side string, allowBoth bool) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(side))
	switch s {
	case "BUY", "SELL":
		return s, nil
	case "BOTH":
		if allowBoth {
			return s, nil
		}
		return "", newError("该策略不支持 BOTH 方向")
	case "":
		return "", newError("委托方向不能为空")
	default:
		return "", newError("不支持的委托方向 %q，仅支持 BUY/SELL", side)
	}
}

// Quantity 校验下单数量落在允许区间。
func Quantity(quantity float64) error {
	if quantity <= 0 {
		return newError("数量必须为正数")
	}
	if quantity < MinQuantity {
		return newError("数量不能小于 %v", MinQuantity)
	}
	if quantity > MaxQuantity {
		return newError("数量不能超过 %v", MaxQuantity)
	}
	return nil
}

// Price 校验价格落在允许区间。
func Price(price float64) error {
	if price <= 0 {
		return newError("价格必须为正数")
	}
	if price < MinPrice {
		return newError("价格不能小于 %v", MinPrice)
	}
	if price > MaxPrice {
		return newError("价格不能超过 %v", MaxPrice)
	}
	return nil
}

// Bounds 校验价格区间：上界必须严格大于下界，且两端均为合法价格。
func Bounds(upper, lower float64) error {
	if err := Price(upper); err != nil {
		return err
	}
	if err := Price(lower); err != nil {
		return err
	}
	if upper <= lower {
		return newError("上界价格 %v 必须大于下界价格 %v", upper, lower)
	}
	return nil
}

// LegCount 校验腿数落在 [min, max]。
func LegCount(n, min, max int) error {
	if n < min {
		return newError("腿数不能少于 %d", min)
	}
	if n > max {
		return newError("腿数不能超过 %d", max)
	}
	return nil
}

// Multiplier 校验马丁格尔倍数必须大于 1。
func Multiplier(m float64) error {
	if m <= 1.0 {
		return newError("倍数必须大于 1.0")
	}
	return nil
}

// Duration 校验时间切片的总时长（分钟）。
func Duration(minutes int) error {
	if minutes < MinDurationMinutes || minutes > MaxDurationMinutes {
		return newError("时长必须位于 [%d, %d] 分钟", MinDurationMinutes, MaxDurationMinutes)
	}
	return nil
}

// TimeInForce 规范化有效期参数，空值默认 GTC。
func TimeInForce(tif string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(tif))
	if s == "" {
		return "GTC", nil
	}
	switch s {
	case "GTC", "IOC", "FOK", "GTX":
		return s, nil
	default:
		return "", newError("不支持的有效期 %q，可选 GTC/IOC/FOK/GTX", tif)
	}
}

// StopPrice 校验触发价相对当前市价的方向：BUY 需高于市价，SELL 需低于市价。
func StopPrice(stopPrice float64, side string, currentPrice float64) error {
	if err := Price(stopPrice); err != nil {
		return err
	}
	if side == "BUY" && stopPrice <= currentPrice {
		return newError("BUY 触发价 %v 必须高于当前市价 %v", stopPrice, currentPrice)
	}
	if side == "SELL" && stopPrice >= currentPrice {
		return newError("SELL 触发价 %v 必须低于当前市价 %v", stopPrice, currentPrice)
	}
	return nil
}
