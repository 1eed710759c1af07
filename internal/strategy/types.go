package strategy

import "time"

// Side 表示委托方向。BOTH 仅用于中性网格，排程时按索引奇偶拆分为 BUY/SELL。
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
	SideBoth Side = "BOTH"
)

// Spacing 控制网格价位的间隔方式。
type Spacing string

const (
	// SpacingArithmetic 等差间隔：相邻价位差值恒定。
	SpacingArithmetic Spacing = "ARITHMETIC"
	// SpacingGeometric 等比间隔：相邻价位百分比步长恒定。
	SpacingGeometric Spacing = "GEOMETRIC"
)

// Profile 描述 TWAP 切片的量能分布。
type Profile string

const (
	ProfileUniform      Profile = "UNIFORM"
	ProfileFrontLoaded  Profile = "FRONT_LOADED"
	ProfileBackLoaded   Profile = "BACK_LOADED"
	ProfileMiddleLoaded Profile = "MIDDLE_LOADED"
)

// OrderKind 区分 TWAP 切片使用市价单还是限价单。
type OrderKind string

const (
	OrderKindMarket OrderKind = "MARKET"
	OrderKindLimit  OrderKind = "LIMIT"
)

// 各策略族的腿数上限。网格类与时间切片类的上限并不一致，
// 这是沿用既有行为的固定策略，不做统一。
const (
	MinLegs       = 2
	MaxGridLegs   = 50
	MaxSliceLegs  = 100
	defaultSlices = 10
)

// ScheduleLeg 为排程中的一腿。Index 从 1 开始并决定提交顺序；
// Price 为 0 表示市价腿。
type ScheduleLeg struct {
	Index    int
	Price    float64
	Quantity float64
	Side     Side
}

// LegOutcome 记录一腿的提交结果。Err 非空表示该腿失败，
// 此时回执字段均为零值；二者互斥。
type LegOutcome struct {
	Leg         ScheduleLeg
	OrderID     string
	Status      string
	ExecutedQty float64
	QuoteQty    float64
	Err         string
}

// Placed 报告该腿是否提交成功。
func (o LegOutcome) Placed() bool {
	return o.Err == ""
}

// Report 为一次策略执行的聚合结果，随执行结束一次性生成。
type Report struct {
	Kind     string      `json:"kind"`
	Symbol   string      `json:"symbol"`
	Side     Side        `json:"side"`
	Request  any         `json:"request"`
	Outcomes []LegOutcome `json:"outcomes"`

	PlacedCount   int     `json:"placed_count"`
	FailedCount   int     `json:"failed_count"`
	SuccessRate   float64 `json:"success_rate"`
	TotalExecuted float64 `json:"total_executed"`
	TotalCost     float64 `json:"total_cost"`
	AveragePrice  float64 `json:"average_price"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// GridRequest 描述一张均分数量的网格。
type GridRequest struct {
	Symbol        string  `json:"symbol"`
	Side          Side    `json:"side"`
	TotalQuantity float64 `json:"total_quantity"`
	UpperPrice    float64 `json:"upper_price"`
	LowerPrice    float64 `json:"lower_price"`
	Legs          int     `json:"legs"`
	Spacing       Spacing `json:"spacing"`
	TimeInForce   string  `json:"time_in_force"`
}

// MartingaleRequest 描述逐腿倍增数量的网格。
type MartingaleRequest struct {
	Symbol       string  `json:"symbol"`
	Side         Side    `json:"side"`
	BaseQuantity float64 `json:"base_quantity"`
	UpperPrice   float64 `json:"upper_price"`
	LowerPrice   float64 `json:"lower_price"`
	Legs         int     `json:"legs"`
	Multiplier   float64 `json:"multiplier"`
	Spacing      Spacing `json:"spacing"`
}

// DCARequest 描述按计价货币预算均分的网格，腿数量与价格成反比。
type DCARequest struct {
	Symbol      string  `json:"symbol"`
	Side        Side    `json:"side"`
	QuoteBudget float64 `json:"quote_budget"`
	UpperPrice  float64 `json:"upper_price"`
	LowerPrice  float64 `json:"lower_price"`
	Legs        int     `json:"legs"`
	Spacing     Spacing `json:"spacing"`
}

// TWAPRequest 描述均匀时间切片委托。
type TWAPRequest struct {
	Symbol          string    `json:"symbol"`
	Side            Side      `json:"side"`
	TotalQuantity   float64   `json:"total_quantity"`
	DurationMinutes int       `json:"duration_minutes"`
	Legs            int       `json:"legs"`
	OrderKind       OrderKind `json:"order_kind"`
	Price           float64   `json:"price"`
	TimeInForce     string    `json:"time_in_force"`
}

// TWAPProfileRequest 描述带量能分布的时间切片委托。Legs 为 0 时取默认切片数。
type TWAPProfileRequest struct {
	Symbol          string    `json:"symbol"`
	Side            Side      `json:"side"`
	TotalQuantity   float64   `json:"total_quantity"`
	DurationMinutes int       `json:"duration_minutes"`
	Legs            int       `json:"legs"`
	Profile         Profile   `json:"profile"`
	OrderKind       OrderKind `json:"order_kind"`
	Price           float64   `json:"price"`
}
