package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"go.uber.org/zap"

	"futures-bot/internal/config"
)

// Client 封装 Binance USDⓈ-M 合约接口。签名、限速与传输均由 ccxt 承担。
// 行情类读请求带指数退避重试；下单请求只尝试一次，失败语义交由上层策略处理。
type Client struct {
	cfg      config.ExchangeConfig
	logger   *zap.Logger
	exchange *ccxt.Binanceusdm

	marketsMu     sync.Mutex
	marketsLoaded bool
}

// NewClient 构造客户端。未配置密钥时仍可访问公共行情接口。
func NewClient(cfg config.ExchangeConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	userConfig := map[string]interface{}{
		"enableRateLimit": true,
		"options": map[string]interface{}{
			"adjustForTimeDifference": true,
			"defaultType":             "future",
		},
	}

	if cfg.APIKey != "" {
		userConfig["apiKey"] = cfg.APIKey
	}
	if cfg.APISecret != "" {
		userConfig["secret"] = cfg.APISecret
	}

	ex := ccxt.NewBinanceusdm(userConfig)
	if cfg.UseSandbox {
		ex.SetSandboxMode(true)
	}

	return &Client{
		cfg:      cfg,
		logger:   logger,
		exchange: ex,
	}, nil
}

// Raw 返回底层 ccxt 客户端。
func (c *Client) Raw() *ccxt.Binanceusdm {
	return c.exchange
}

// PlaceOrder 提交一笔委托。每次调用对应一次交易所请求，不做内部重试。
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (OrderAck, error) {
	if err := ctx.Err(); err != nil {
		return OrderAck{}, err
	}
	if err := c.ensureMarketsLoaded(ctx); err != nil {
		return OrderAck{}, err
	}

	orderType, opts, err := buildOrderOptions(req)
	if err != nil {
		return OrderAck{}, err
	}

	start := time.Now()
	order, err := c.exchange.CreateOrder(req.Symbol, orderType, strings.ToLower(req.Side), req.Quantity, opts...)
	latency := time.Since(start)
	if err != nil {
		c.logger.Warn("委托提交失败",
			zap.String("symbol", req.Symbol),
			zap.String("side", req.Side),
			zap.String("kind", string(req.Kind)),
			zap.Float64("quantity", req.Quantity),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		return OrderAck{}, err
	}

	ack := convertOrder(order)
	c.logger.Info("委托已提交",
		zap.String("symbol", req.Symbol),
		zap.String("side", req.Side),
		zap.String("kind", string(req.Kind)),
		zap.Float64("quantity", req.Quantity),
		zap.Float64("price", req.Price),
		zap.String("order_id", ack.OrderID),
		zap.String("status", ack.Status),
		zap.Duration("latency", latency),
	)
	return ack, nil
}

// TickerPrice 获取最新成交价，用于相对定价校验与按金额换算数量。
func (c *Client) TickerPrice(ctx context.Context, symbol string) (float64, error) {
	var last float64

	err := c.callWithRetry(ctx, "fetch_ticker", func() error {
		if err := c.ensureMarketsLoaded(ctx); err != nil {
			return err
		}
		ticker, err := c.exchange.FetchTicker(symbol)
		if err != nil {
			return err
		}
		if ticker.Last == nil || *ticker.Last <= 0 {
			return fmt.Errorf("交易所未返回 %s 的有效最新价", symbol)
		}
		last = *ticker.Last
		return nil
	})
	if err != nil {
		return 0, err
	}
	return last, nil
}

// OpenOrders 查询指定交易对的全部挂单。
func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error) {
	var raw []ccxt.Order

	err := c.callWithRetry(ctx, "fetch_open_orders", func() error {
		if err := c.ensureMarketsLoaded(ctx); err != nil {
			return err
		}
		orders, err := c.exchange.FetchOpenOrders(ccxt.WithFetchOpenOrdersSymbol(symbol))
		if err != nil {
			return err
		}
		raw = orders
		return nil
	})
	if err != nil {
		return nil, err
	}

	open := make([]OpenOrder, 0, len(raw))
	for _, o := range raw {
		open = append(open, OpenOrder{
			OrderID:  derefString(o.Id),
			Symbol:   derefString(o.Symbol),
			Side:     strings.ToUpper(derefString(o.Side)),
			Type:     strings.ToUpper(derefString(o.Type)),
			Price:    derefFloat(o.Price),
			Quantity: derefFloat(o.Amount),
			Status:   derefString(o.Status),
		})
	}
	return open, nil
}

// CancelOrder 撤销单笔委托。
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.ensureMarketsLoaded(ctx); err != nil {
		return err
	}

	_, err := c.exchange.CancelOrder(orderID, ccxt.WithCancelOrderSymbol(symbol))
	if err != nil {
		c.logger.Warn("撤单失败",
			zap.String("symbol", symbol),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("委托已撤销", zap.String("symbol", symbol), zap.String("order_id", orderID))
	return nil
}

// CancelAllOrders 撤销指定交易对的全部挂单，用于清理整张网格。
func (c *Client) CancelAllOrders(ctx context.Context, symbol string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.ensureMarketsLoaded(ctx); err != nil {
		return err
	}

	_, err := c.exchange.CancelAllOrders(ccxt.WithCancelAllOrdersSymbol(symbol))
	if err != nil {
		return err
	}

	c.logger.Info("已撤销全部挂单", zap.String("symbol", symbol))
	return nil
}

func buildOrderOptions(req OrderRequest) (string, []ccxt.CreateOrderOptions, error) {
	params := map[string]interface{}{}
	if req.ReduceOnly {
		params["reduceOnly"] = true
	}

	var orderType string
	needPrice := false

	switch req.Kind {
	case OrderKindMarket:
		orderType = "market"
	case OrderKindLimit:
		orderType = "limit"
		needPrice = true
	case OrderKindStopMarket:
		orderType = "market"
		params["stopLossPrice"] = req.StopPrice
	case OrderKindStopLimit:
		orderType = "limit"
		needPrice = true
		params["stopLossPrice"] = req.StopPrice
	case OrderKindTakeProfitMarket:
		orderType = "market"
		params["takeProfitPrice"] = req.StopPrice
	case OrderKindTakeProfitLimit:
		orderType = "limit"
		needPrice = true
		params["takeProfitPrice"] = req.StopPrice
	default:
		return "", nil, fmt.Errorf("不支持的委托类型 %q", req.Kind)
	}

	if needPrice && req.TimeInForce != "" {
		params["timeInForce"] = req.TimeInForce
	}

	opts := make([]ccxt.CreateOrderOptions, 0, 2)
	if needPrice {
		opts = append(opts, ccxt.WithCreateOrderPrice(req.Price))
	}
	if len(params) > 0 {
		opts = append(opts, ccxt.WithCreateOrderParams(params))
	}
	return orderType, opts, nil
}

func convertOrder(order ccxt.Order) OrderAck {
	return OrderAck{
		OrderID:     derefString(order.Id),
		Status:      derefString(order.Status),
		ExecutedQty: derefFloat(order.Filled),
		QuoteQty:    derefFloat(order.Cost),
	}
}

func (c *Client) ensureMarketsLoaded(ctx context.Context) error {
	if c.marketsLoaded {
		return nil
	}

	c.marketsMu.Lock()
	defer c.marketsMu.Unlock()

	if c.marketsLoaded {
		return nil
	}

	loadErr := c.callWithRetry(ctx, "load_markets", func() error {
		_, err := c.exchange.LoadMarkets()
		return err
	})
	if loadErr != nil {
		return loadErr
	}

	c.marketsLoaded = true
	c.logger.Info("已完成市场元数据加载")
	return nil
}

func (c *Client) callWithRetry(ctx context.Context, operation string, fn func() error) error {
	attempt := 0
	delay := c.cfg.Retry.MinDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	maxDelay := c.cfg.Retry.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		attempt++
		start := time.Now()
		err := fn()
		duration := time.Since(start)
		if err == nil {
			if attempt > 1 {
				c.logger.Info("交易所调用重试后成功",
					zap.String("operation", operation),
					zap.Int("attempts", attempt),
					zap.Duration("latency", duration),
				)
			}
			return nil
		}

		normalizedErr, retry := c.classifyError(err)

		if errors.Is(normalizedErr, ErrMaintenance) {
			c.logger.Warn("交易所维护中",
				zap.String("operation", operation),
				zap.Error(normalizedErr),
			)
			return normalizedErr
		}

		if !retry || attempt >= c.cfg.Retry.MaxAttempts {
			c.logger.Error("交易所调用失败",
				zap.String("operation", operation),
				zap.Int("attempts", attempt),
				zap.Duration("latency", duration),
				zap.Error(normalizedErr),
			)
			return normalizedErr
		}

		wait := delay
		if wait > maxDelay {
			wait = maxDelay
		}

		c.logger.Warn("交易所调用失败，等待重试",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(normalizedErr),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

func (c *Client) classifyError(err error) (error, bool) {
	if err == nil {
		return nil, false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err, false
	}

	var ccxtErr *ccxt.Error
	if errors.As(err, &ccxtErr) && ccxtErr.Type == ccxt.OnMaintenanceErrType {
		message := strings.TrimSpace(ccxtErr.Message)
		if message == "" {
			message = "exchange under maintenance"
		}
		return fmt.Errorf("%w: %s", ErrMaintenance, message), false
	}

	return err, IsRetryable(err)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
