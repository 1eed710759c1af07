package strategy

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"futures-bot/internal/exchange"
)

// SimulatedClient 在不触达交易所的情况下伪造委托回执，
// 用于干跑模式下验证排程与执行路径。
type SimulatedClient struct {
	logger *zap.Logger
	seq    atomic.Int64
}

var _ OrderClient = (*SimulatedClient)(nil)

// NewSimulatedClient 创建干跑客户端。
func NewSimulatedClient(logger *zap.Logger) *SimulatedClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulatedClient{logger: logger}
}

// PlaceOrder 伪造回执：市价单视为立即全部成交，限价单视为已挂出未成交。
func (c *SimulatedClient) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.OrderAck, error) {
	if err := ctx.Err(); err != nil {
		return exchange.OrderAck{}, err
	}

	ack := exchange.OrderAck{
		OrderID: fmt.Sprintf("sim-%d", c.seq.Add(1)),
		Status:  "NEW",
	}
	if req.Kind == exchange.OrderKindMarket {
		ack.Status = "FILLED"
		ack.ExecutedQty = req.Quantity
		ack.QuoteQty = req.Quantity * req.Price
	}

	c.logger.Debug("干跑模式伪造委托回执",
		zap.String("symbol", req.Symbol),
		zap.String("side", req.Side),
		zap.String("kind", string(req.Kind)),
		zap.Float64("quantity", req.Quantity),
		zap.String("order_id", ack.OrderID),
	)
	return ack, nil
}
