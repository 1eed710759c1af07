package exchange

// OrderKind 枚举本系统会下发的委托类型。
type OrderKind string

const (
	OrderKindMarket           OrderKind = "MARKET"
	OrderKindLimit            OrderKind = "LIMIT"
	OrderKindStopMarket       OrderKind = "STOP_MARKET"
	OrderKindStopLimit        OrderKind = "STOP_LIMIT"
	OrderKindTakeProfitMarket OrderKind = "TAKE_PROFIT_MARKET"
	OrderKindTakeProfitLimit  OrderKind = "TAKE_PROFIT_LIMIT"
)

// OrderRequest 描述一笔待提交的委托。Price 仅限价类委托使用，
// StopPrice 仅触发类委托使用。
type OrderRequest struct {
	Symbol      string
	Side        string // BUY / SELL
	Kind        OrderKind
	Quantity    float64
	Price       float64
	StopPrice   float64
	TimeInForce string
	ReduceOnly  bool
}

// OrderAck 为交易所对一笔委托的回执。市价单成交后携带成交数量与成交额。
type OrderAck struct {
	OrderID     string
	Status      string
	ExecutedQty float64
	QuoteQty    float64
}

// OpenOrder 为挂单查询结果的精简视图。
type OpenOrder struct {
	OrderID  string
	Symbol   string
	Side     string
	Type     string
	Price    float64
	Quantity float64
	Status   string
}
