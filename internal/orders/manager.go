package orders

import (
	"context"

	"go.uber.org/zap"

	"futures-bot/internal/exchange"
	"futures-bot/internal/validate"
)

// Client 是单笔委托管理依赖的交易所能力子集。
type Client interface {
	PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.OrderAck, error)
	TickerPrice(ctx context.Context, symbol string) (float64, error)
	CancelOrder(ctx context.Context, symbol, orderID string) error
	OpenOrders(ctx context.Context, symbol string) ([]exchange.OpenOrder, error)
	CancelAllOrders(ctx context.Context, symbol string) error
}

// Manager 管理单笔委托：市价、限价、触发类以及 OCO 组合。
// 所有入参先经校验，触发价还会对照当前市价检查方向合理性。
type Manager struct {
	client Client
	logger *zap.Logger
}

// NewManager 创建委托管理器。
func NewManager(client Client, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{client: client, logger: logger}
}

// PlaceMarket 提交市价单。
func (m *Manager) PlaceMarket(ctx context.Context, symbol, side string, quantity float64, reduceOnly bool) (exchange.OrderAck, error) {
	symbol, side, err := m.validateBase(symbol, side, quantity)
	if err != nil {
		return exchange.OrderAck{}, err
	}

	return m.client.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:     symbol,
		Side:       side,
		Kind:       exchange.OrderKindMarket,
		Quantity:   quantity,
		ReduceOnly: reduceOnly,
	})
}

// PlaceMarketByQuote 按计价货币金额下市价单，数量以当前市价折算。
func (m *Manager) PlaceMarketByQuote(ctx context.Context, symbol, side string, quoteAmount float64) (exchange.OrderAck, error) {
	symbol, err := validate.Symbol(symbol)
	if err != nil {
		return exchange.OrderAck{}, err
	}
	side, err = validate.Side(side, false)
	if err != nil {
		return exchange.OrderAck{}, err
	}
	if quoteAmount <= 0 {
		return exchange.OrderAck{}, &validate.Error{Reason: "计价货币金额必须为正数"}
	}

	price, err := m.client.TickerPrice(ctx, symbol)
	if err != nil {
		return exchange.OrderAck{}, err
	}

	quantity := quoteAmount / price
	if err := validate.Quantity(quantity); err != nil {
		return exchange.OrderAck{}, err
	}

	m.logger.Info("按金额折算下单数量",
		zap.String("symbol", symbol),
		zap.Float64("quote_amount", quoteAmount),
		zap.Float64("price", price),
		zap.Float64("quantity", quantity),
	)

	return m.client.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:   symbol,
		Side:     side,
		Kind:     exchange.OrderKindMarket,
		Quantity: quantity,
	})
}

// PlaceLimit 提交限价单。
func (m *Manager) PlaceLimit(ctx context.Context, symbol, side string, quantity, price float64, timeInForce string) (exchange.OrderAck, error) {
	symbol, side, err := m.validateBase(symbol, side, quantity)
	if err != nil {
		return exchange.OrderAck{}, err
	}
	if err := validate.Price(price); err != nil {
		return exchange.OrderAck{}, err
	}
	tif, err := validate.TimeInForce(timeInForce)
	if err != nil {
		return exchange.OrderAck{}, err
	}

	return m.client.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:      symbol,
		Side:        side,
		Kind:        exchange.OrderKindLimit,
		Quantity:    quantity,
		Price:       price,
		TimeInForce: tif,
	})
}

// PlaceStopMarket 提交触发后按市价成交的止损单。
func (m *Manager) PlaceStopMarket(ctx context.Context, symbol, side string, quantity, stopPrice float64, reduceOnly bool) (exchange.OrderAck, error) {
	symbol, side, err := m.validateBase(symbol, side, quantity)
	if err != nil {
		return exchange.OrderAck{}, err
	}
	if err := m.checkStopPrice(ctx, symbol, side, stopPrice); err != nil {
		return exchange.OrderAck{}, err
	}

	return m.client.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:     symbol,
		Side:       side,
		Kind:       exchange.OrderKindStopMarket,
		Quantity:   quantity,
		StopPrice:  stopPrice,
		ReduceOnly: reduceOnly,
	})
}

// PlaceStopLimit 提交触发后挂限价的止损单。限价与触发价的
// 反常组合只告警不拒单，与交易所行为保持一致。
func (m *Manager) PlaceStopLimit(ctx context.Context, symbol, side string, quantity, price, stopPrice float64, timeInForce string, reduceOnly bool) (exchange.OrderAck, error) {
	symbol, side, err := m.validateBase(symbol, side, quantity)
	if err != nil {
		return exchange.OrderAck{}, err
	}
	if err := validate.Price(price); err != nil {
		return exchange.OrderAck{}, err
	}
	tif, err := validate.TimeInForce(timeInForce)
	if err != nil {
		return exchange.OrderAck{}, err
	}
	if err := m.checkStopPrice(ctx, symbol, side, stopPrice); err != nil {
		return exchange.OrderAck{}, err
	}

	if side == "BUY" && price < stopPrice {
		m.logger.Warn("BUY 止损单限价低于触发价",
			zap.Float64("price", price), zap.Float64("stop_price", stopPrice))
	}
	if side == "SELL" && price > stopPrice {
		m.logger.Warn("SELL 止损单限价高于触发价",
			zap.Float64("price", price), zap.Float64("stop_price", stopPrice))
	}

	return m.client.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:      symbol,
		Side:        side,
		Kind:        exchange.OrderKindStopLimit,
		Quantity:    quantity,
		Price:       price,
		StopPrice:   stopPrice,
		TimeInForce: tif,
		ReduceOnly:  reduceOnly,
	})
}

// PlaceTakeProfitMarket 提交触发后按市价成交的止盈单。
func (m *Manager) PlaceTakeProfitMarket(ctx context.Context, symbol, side string, quantity, stopPrice float64, reduceOnly bool) (exchange.OrderAck, error) {
	symbol, side, err := m.validateBase(symbol, side, quantity)
	if err != nil {
		return exchange.OrderAck{}, err
	}
	if err := validate.Price(stopPrice); err != nil {
		return exchange.OrderAck{}, err
	}

	return m.client.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:     symbol,
		Side:       side,
		Kind:       exchange.OrderKindTakeProfitMarket,
		Quantity:   quantity,
		StopPrice:  stopPrice,
		ReduceOnly: reduceOnly,
	})
}

// PlaceTakeProfitLimit 提交触发后挂限价的止盈单。
func (m *Manager) PlaceTakeProfitLimit(ctx context.Context, symbol, side string, quantity, price, stopPrice float64, timeInForce string, reduceOnly bool) (exchange.OrderAck, error) {
	symbol, side, err := m.validateBase(symbol, side, quantity)
	if err != nil {
		return exchange.OrderAck{}, err
	}
	if err := validate.Price(price); err != nil {
		return exchange.OrderAck{}, err
	}
	if err := validate.Price(stopPrice); err != nil {
		return exchange.OrderAck{}, err
	}
	tif, err := validate.TimeInForce(timeInForce)
	if err != nil {
		return exchange.OrderAck{}, err
	}

	return m.client.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:      symbol,
		Side:        side,
		Kind:        exchange.OrderKindTakeProfitLimit,
		Quantity:    quantity,
		Price:       price,
		StopPrice:   stopPrice,
		TimeInForce: tif,
		ReduceOnly:  reduceOnly,
	})
}

// CancelAll 撤销指定交易对的全部挂单，返回撤销前的挂单数量。
// 用于清理整张网格或策略中止后的残留委托。
func (m *Manager) CancelAll(ctx context.Context, symbol string) (int, error) {
	symbol, err := validate.Symbol(symbol)
	if err != nil {
		return 0, err
	}

	open, err := m.client.OpenOrders(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if len(open) == 0 {
		m.logger.Info("没有需要撤销的挂单", zap.String("symbol", symbol))
		return 0, nil
	}

	if err := m.client.CancelAllOrders(ctx, symbol); err != nil {
		return 0, err
	}

	m.logger.Info("已撤销全部挂单",
		zap.String("symbol", symbol),
		zap.Int("count", len(open)),
	)
	return len(open), nil
}

func (m *Manager) validateBase(symbol, side string, quantity float64) (string, string, error) {
	s, err := validate.Symbol(symbol)
	if err != nil {
		return "", "", err
	}
	sd, err := validate.Side(side, false)
	if err != nil {
		return "", "", err
	}
	if err := validate.Quantity(quantity); err != nil {
		return "", "", err
	}
	return s, sd, nil
}

func (m *Manager) checkStopPrice(ctx context.Context, symbol, side string, stopPrice float64) error {
	current, err := m.client.TickerPrice(ctx, symbol)
	if err != nil {
		return err
	}
	return validate.StopPrice(stopPrice, side, current)
}
