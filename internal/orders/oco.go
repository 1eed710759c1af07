package orders

import (
	"context"

	"go.uber.org/zap"

	"futures-bot/internal/exchange"
	"futures-bot/internal/validate"
)

// OCORequest 描述一组 OCO 委托：止盈限价腿加止损限价腿。
type OCORequest struct {
	Symbol               string
	Side                 string
	Quantity             float64
	TakeProfitPrice      float64
	StopPrice            float64
	StopLimitPrice       float64
	StopLimitTimeInForce string
}

// OCOResult 汇总两腿回执。
type OCOResult struct {
	TakeProfit exchange.OrderAck
	StopLoss   exchange.OrderAck
}

// PlaceOCO 提交 OCO 组合。合约接口没有原生 OCO 端点，这里顺序提交
// 止盈限价单与止损限价单两腿；第二腿失败时撤销第一腿，避免留下裸挂单。
// 价格相对市价的反常关系只告警，由交易所做最终裁决。
func (m *Manager) PlaceOCO(ctx context.Context, req OCORequest) (OCOResult, error) {
	symbol, side, err := m.validateBase(req.Symbol, req.Side, req.Quantity)
	if err != nil {
		return OCOResult{}, err
	}
	if err := validate.Price(req.TakeProfitPrice); err != nil {
		return OCOResult{}, err
	}
	if err := validate.Price(req.StopPrice); err != nil {
		return OCOResult{}, err
	}
	if err := validate.Price(req.StopLimitPrice); err != nil {
		return OCOResult{}, err
	}
	tif, err := validate.TimeInForce(req.StopLimitTimeInForce)
	if err != nil {
		return OCOResult{}, err
	}

	current, err := m.client.TickerPrice(ctx, symbol)
	if err != nil {
		return OCOResult{}, err
	}
	m.warnPriceRelations(side, current, req)

	takeProfit, err := m.client.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:      symbol,
		Side:        side,
		Kind:        exchange.OrderKindLimit,
		Quantity:    req.Quantity,
		Price:       req.TakeProfitPrice,
		TimeInForce: "GTC",
	})
	if err != nil {
		return OCOResult{}, err
	}

	stopLoss, err := m.client.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:      symbol,
		Side:        side,
		Kind:        exchange.OrderKindStopLimit,
		Quantity:    req.Quantity,
		Price:       req.StopLimitPrice,
		StopPrice:   req.StopPrice,
		TimeInForce: tif,
	})
	if err != nil {
		m.logger.Warn("止损腿提交失败，回撤止盈腿",
			zap.String("symbol", symbol),
			zap.String("take_profit_order_id", takeProfit.OrderID),
			zap.Error(err),
		)
		if cancelErr := m.client.CancelOrder(ctx, symbol, takeProfit.OrderID); cancelErr != nil {
			m.logger.Error("回撤止盈腿失败，存在裸挂单",
				zap.String("symbol", symbol),
				zap.String("order_id", takeProfit.OrderID),
				zap.Error(cancelErr),
			)
		}
		return OCOResult{}, err
	}

	m.logger.Info("OCO 组合提交成功",
		zap.String("symbol", symbol),
		zap.String("side", side),
		zap.Float64("take_profit", req.TakeProfitPrice),
		zap.Float64("stop_price", req.StopPrice),
		zap.String("take_profit_order_id", takeProfit.OrderID),
		zap.String("stop_loss_order_id", stopLoss.OrderID),
	)

	return OCOResult{TakeProfit: takeProfit, StopLoss: stopLoss}, nil
}

// PlaceOCOByPercent 按相对当前市价的百分比推导止盈止损价位后提交 OCO。
// stopLimitOffsetPercent 控制止损限价相对触发价的让步幅度。
func (m *Manager) PlaceOCOByPercent(ctx context.Context, symbol, side string, quantity, takeProfitPercent, stopLossPercent, stopLimitOffsetPercent float64) (OCOResult, error) {
	symbol, side, err := m.validateBase(symbol, side, quantity)
	if err != nil {
		return OCOResult{}, err
	}

	current, err := m.client.TickerPrice(ctx, symbol)
	if err != nil {
		return OCOResult{}, err
	}

	var takeProfit, stopLoss, stopLimit float64
	if side == "BUY" {
		takeProfit = current * (1 + takeProfitPercent/100)
		stopLoss = current * (1 - stopLossPercent/100)
		stopLimit = stopLoss * (1 - stopLimitOffsetPercent/100)
	} else {
		takeProfit = current * (1 - takeProfitPercent/100)
		stopLoss = current * (1 + stopLossPercent/100)
		stopLimit = stopLoss * (1 + stopLimitOffsetPercent/100)
	}

	m.logger.Info("按百分比推导 OCO 价位",
		zap.String("symbol", symbol),
		zap.String("side", side),
		zap.Float64("current_price", current),
		zap.Float64("take_profit", takeProfit),
		zap.Float64("stop_loss", stopLoss),
		zap.Float64("stop_limit", stopLimit),
	)

	return m.PlaceOCO(ctx, OCORequest{
		Symbol:          symbol,
		Side:            side,
		Quantity:        quantity,
		TakeProfitPrice: takeProfit,
		StopPrice:       stopLoss,
		StopLimitPrice:  stopLimit,
	})
}

func (m *Manager) warnPriceRelations(side string, current float64, req OCORequest) {
	if side == "BUY" {
		if req.TakeProfitPrice <= current {
			m.logger.Warn("BUY 止盈价应高于当前市价",
				zap.Float64("take_profit", req.TakeProfitPrice), zap.Float64("current", current))
		}
		if req.StopPrice >= current {
			m.logger.Warn("BUY 止损触发价应低于当前市价",
				zap.Float64("stop_price", req.StopPrice), zap.Float64("current", current))
		}
		if req.StopLimitPrice >= req.StopPrice {
			m.logger.Warn("BUY 止损限价应低于触发价",
				zap.Float64("stop_limit", req.StopLimitPrice), zap.Float64("stop_price", req.StopPrice))
		}
		return
	}

	if req.TakeProfitPrice >= current {
		m.logger.Warn("SELL 止盈价应低于当前市价",
			zap.Float64("take_profit", req.TakeProfitPrice), zap.Float64("current", current))
	}
	if req.StopPrice <= current {
		m.logger.Warn("SELL 止损触发价应高于当前市价",
			zap.Float64("stop_price", req.StopPrice), zap.Float64("current", current))
	}
	if req.StopLimitPrice <= req.StopPrice {
		m.logger.Warn("SELL 止损限价应高于触发价",
			zap.Float64("stop_limit", req.StopLimitPrice), zap.Float64("stop_price", req.StopPrice))
	}
}
