package app

import (
	"context"
	"math"
	"testing"

	"futures-bot/internal/config"
	"futures-bot/internal/exchange"
	"futures-bot/internal/orders"
	"futures-bot/internal/strategy"
)

type fakeExchange struct {
	requests     []exchange.OrderRequest
	cancelledAll []string
	open         []exchange.OpenOrder
	ticker       float64
}

func (f *fakeExchange) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.OrderAck, error) {
	f.requests = append(f.requests, req)
	return exchange.OrderAck{OrderID: "1", Status: "NEW"}, nil
}

func (f *fakeExchange) TickerPrice(ctx context.Context, symbol string) (float64, error) {
	return f.ticker, nil
}

func (f *fakeExchange) CancelOrder(ctx context.Context, symbol, orderID string) error {
	return nil
}

func (f *fakeExchange) OpenOrders(ctx context.Context, symbol string) ([]exchange.OpenOrder, error) {
	return f.open, nil
}

func (f *fakeExchange) CancelAllOrders(ctx context.Context, symbol string) error {
	f.cancelledAll = append(f.cancelledAll, symbol)
	return nil
}

func newTestApp(cfg *config.Config, fake *fakeExchange) (*App, *strategy.Service, *orders.Manager) {
	a := New(cfg, nil, nil)
	svc := strategy.NewService(fake, strategy.NewRunner(nil), nil, nil)
	mgr := orders.NewManager(fake, nil)
	return a, svc, mgr
}

func TestRunJob_MarketQuoteDispatch(t *testing.T) {
	fake := &fakeExchange{ticker: 50000}
	a, svc, mgr := newTestApp(&config.Config{}, fake)

	err := a.runJob(context.Background(), config.JobConfig{
		Kind:        "market_quote",
		Symbol:      "BTCUSDT",
		Side:        "BUY",
		QuoteBudget: 1000,
	}, svc, mgr)
	if err != nil {
		t.Fatalf("runJob returned error: %v", err)
	}

	if len(fake.requests) != 1 {
		t.Fatalf("expected one order, got %d", len(fake.requests))
	}
	req := fake.requests[0]
	if req.Kind != exchange.OrderKindMarket {
		t.Errorf("expected MARKET order, got %s", req.Kind)
	}
	if diff := math.Abs(req.Quantity - 0.02); diff > 1e-12 {
		t.Errorf("quantity should be derived from the ticker, got %f want 0.02", req.Quantity)
	}
}

func TestRunJob_CancelAllDispatch(t *testing.T) {
	fake := &fakeExchange{open: []exchange.OpenOrder{{OrderID: "1"}, {OrderID: "2"}}}
	a, svc, mgr := newTestApp(&config.Config{}, fake)

	err := a.runJob(context.Background(), config.JobConfig{
		Kind:   "cancel_all",
		Symbol: "btcusdt",
	}, svc, mgr)
	if err != nil {
		t.Fatalf("runJob returned error: %v", err)
	}

	if len(fake.cancelledAll) != 1 || fake.cancelledAll[0] != "BTCUSDT" {
		t.Errorf("cancel-all should reach the exchange with the normalized symbol, got %v", fake.cancelledAll)
	}
}

func TestRunJob_DryRunSkipsSingleOrders(t *testing.T) {
	fake := &fakeExchange{ticker: 50000}
	cfg := &config.Config{}
	cfg.Execution.DryRun = true
	a, svc, mgr := newTestApp(cfg, fake)

	err := a.runJob(context.Background(), config.JobConfig{
		Kind:        "market_quote",
		Symbol:      "BTCUSDT",
		Side:        "BUY",
		QuoteBudget: 1000,
	}, svc, mgr)
	if err != nil {
		t.Fatalf("runJob returned error: %v", err)
	}
	if len(fake.requests) != 0 {
		t.Errorf("dry run must not place single orders, got %d requests", len(fake.requests))
	}
}
