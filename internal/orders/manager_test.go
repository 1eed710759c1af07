package orders

import (
	"context"
	"errors"
	"math"
	"testing"

	"futures-bot/internal/exchange"
)

type mockClient struct {
	requests     []exchange.OrderRequest
	cancelled    []string
	cancelledAll []string
	open         []exchange.OpenOrder
	openErr      error
	ticker       float64
	tickerErr    error
	placeErr     map[int]error
}

func (m *mockClient) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.OrderAck, error) {
	m.requests = append(m.requests, req)
	if err, ok := m.placeErr[len(m.requests)]; ok {
		return exchange.OrderAck{}, err
	}
	return exchange.OrderAck{OrderID: "42", Status: "NEW"}, nil
}

func (m *mockClient) TickerPrice(ctx context.Context, symbol string) (float64, error) {
	if m.tickerErr != nil {
		return 0, m.tickerErr
	}
	return m.ticker, nil
}

func (m *mockClient) CancelOrder(ctx context.Context, symbol, orderID string) error {
	m.cancelled = append(m.cancelled, orderID)
	return nil
}

func (m *mockClient) OpenOrders(ctx context.Context, symbol string) ([]exchange.OpenOrder, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.open, nil
}

func (m *mockClient) CancelAllOrders(ctx context.Context, symbol string) error {
	m.cancelledAll = append(m.cancelledAll, symbol)
	return nil
}

func TestPlaceMarket(t *testing.T) {
	client := &mockClient{}
	mgr := NewManager(client, nil)

	ack, err := mgr.PlaceMarket(context.Background(), "btcusdt", "buy", 0.5, false)
	if err != nil {
		t.Fatalf("PlaceMarket returned error: %v", err)
	}
	if ack.OrderID != "42" {
		t.Errorf("unexpected order id: %s", ack.OrderID)
	}

	req := client.requests[0]
	if req.Symbol != "BTCUSDT" || req.Side != "BUY" {
		t.Errorf("request not normalized: %+v", req)
	}
	if req.Kind != exchange.OrderKindMarket {
		t.Errorf("expected MARKET kind, got %s", req.Kind)
	}
}

func TestPlaceMarket_RejectsInvalidQuantity(t *testing.T) {
	client := &mockClient{}
	mgr := NewManager(client, nil)

	if _, err := mgr.PlaceMarket(context.Background(), "BTCUSDT", "BUY", 0, false); err == nil {
		t.Fatal("expected error for zero quantity")
	}
	if len(client.requests) != 0 {
		t.Fatalf("invalid order must not reach exchange, got %d requests", len(client.requests))
	}
}

func TestPlaceMarketByQuote_ConvertsAtTicker(t *testing.T) {
	client := &mockClient{ticker: 50000}
	mgr := NewManager(client, nil)

	_, err := mgr.PlaceMarketByQuote(context.Background(), "BTCUSDT", "BUY", 1000)
	if err != nil {
		t.Fatalf("PlaceMarketByQuote returned error: %v", err)
	}

	req := client.requests[0]
	if diff := math.Abs(req.Quantity - 0.02); diff > 1e-12 {
		t.Errorf("converted quantity mismatch: got %f want 0.02", req.Quantity)
	}
}

func TestPlaceMarketByQuote_TooSmallAfterConversion(t *testing.T) {
	client := &mockClient{ticker: 50000}
	mgr := NewManager(client, nil)

	if _, err := mgr.PlaceMarketByQuote(context.Background(), "BTCUSDT", "BUY", 10); err == nil {
		t.Fatal("expected error when converted quantity falls below minimum")
	}
	if len(client.requests) != 0 {
		t.Fatalf("expected zero submissions, got %d", len(client.requests))
	}
}

func TestPlaceMarketByQuote_TickerFailure(t *testing.T) {
	client := &mockClient{tickerErr: errors.New("network down")}
	mgr := NewManager(client, nil)

	if _, err := mgr.PlaceMarketByQuote(context.Background(), "BTCUSDT", "BUY", 1000); err == nil {
		t.Fatal("expected ticker failure to propagate")
	}
}

func TestPlaceLimit(t *testing.T) {
	client := &mockClient{}
	mgr := NewManager(client, nil)

	_, err := mgr.PlaceLimit(context.Background(), "ETHUSDT", "SELL", 1.0, 3000, "")
	if err != nil {
		t.Fatalf("PlaceLimit returned error: %v", err)
	}

	req := client.requests[0]
	if req.Kind != exchange.OrderKindLimit || req.Price != 3000 {
		t.Errorf("unexpected limit request: %+v", req)
	}
	if req.TimeInForce != "GTC" {
		t.Errorf("empty time in force should default to GTC, got %s", req.TimeInForce)
	}
}

func TestPlaceStopMarket_ChecksDirectionAgainstTicker(t *testing.T) {
	client := &mockClient{ticker: 50000}
	mgr := NewManager(client, nil)

	if _, err := mgr.PlaceStopMarket(context.Background(), "BTCUSDT", "BUY", 0.1, 49000, false); err == nil {
		t.Fatal("expected error for BUY stop below market")
	}
	if len(client.requests) != 0 {
		t.Fatalf("rejected stop must not reach exchange, got %d requests", len(client.requests))
	}

	if _, err := mgr.PlaceStopMarket(context.Background(), "BTCUSDT", "BUY", 0.1, 51000, true); err != nil {
		t.Fatalf("valid stop market returned error: %v", err)
	}
	req := client.requests[0]
	if req.Kind != exchange.OrderKindStopMarket || req.StopPrice != 51000 || !req.ReduceOnly {
		t.Errorf("unexpected stop market request: %+v", req)
	}
}

func TestPlaceStopLimit(t *testing.T) {
	client := &mockClient{ticker: 50000}
	mgr := NewManager(client, nil)

	_, err := mgr.PlaceStopLimit(context.Background(), "BTCUSDT", "SELL", 0.1, 48900, 49000, "GTC", true)
	if err != nil {
		t.Fatalf("PlaceStopLimit returned error: %v", err)
	}

	req := client.requests[0]
	if req.Kind != exchange.OrderKindStopLimit {
		t.Errorf("expected STOP_LIMIT kind, got %s", req.Kind)
	}
	if req.Price != 48900 || req.StopPrice != 49000 {
		t.Errorf("unexpected prices: %+v", req)
	}
}

func TestPlaceTakeProfitMarket(t *testing.T) {
	client := &mockClient{}
	mgr := NewManager(client, nil)

	_, err := mgr.PlaceTakeProfitMarket(context.Background(), "BTCUSDT", "SELL", 0.1, 55000, true)
	if err != nil {
		t.Fatalf("PlaceTakeProfitMarket returned error: %v", err)
	}
	if client.requests[0].Kind != exchange.OrderKindTakeProfitMarket {
		t.Errorf("expected TAKE_PROFIT_MARKET kind, got %s", client.requests[0].Kind)
	}
}

func TestCancelAll(t *testing.T) {
	client := &mockClient{open: []exchange.OpenOrder{
		{OrderID: "1", Symbol: "BTCUSDT"},
		{OrderID: "2", Symbol: "BTCUSDT"},
	}}
	mgr := NewManager(client, nil)

	count, err := mgr.CancelAll(context.Background(), "btcusdt")
	if err != nil {
		t.Fatalf("CancelAll returned error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 cancelled orders, got %d", count)
	}
	if len(client.cancelledAll) != 1 || client.cancelledAll[0] != "BTCUSDT" {
		t.Errorf("cancel-all should hit the normalized symbol, got %v", client.cancelledAll)
	}
}

func TestCancelAll_NoOpenOrders(t *testing.T) {
	client := &mockClient{}
	mgr := NewManager(client, nil)

	count, err := mgr.CancelAll(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("CancelAll returned error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 cancelled orders, got %d", count)
	}
	if len(client.cancelledAll) != 0 {
		t.Errorf("empty book should skip the cancel-all call, got %v", client.cancelledAll)
	}
}

func TestCancelAll_QueryFailure(t *testing.T) {
	client := &mockClient{openErr: errors.New("network down")}
	mgr := NewManager(client, nil)

	if _, err := mgr.CancelAll(context.Background(), "BTCUSDT"); err == nil {
		t.Fatal("expected open-orders failure to propagate")
	}
	if len(client.cancelledAll) != 0 {
		t.Errorf("cancel-all must not run after a failed query, got %v", client.cancelledAll)
	}
}

func TestPlaceTakeProfitLimit(t *testing.T) {
	client := &mockClient{}
	mgr := NewManager(client, nil)

	_, err := mgr.PlaceTakeProfitLimit(context.Background(), "BTCUSDT", "SELL", 0.1, 55100, 55000, "GTC", false)
	if err != nil {
		t.Fatalf("PlaceTakeProfitLimit returned error: %v", err)
	}
	req := client.requests[0]
	if req.Kind != exchange.OrderKindTakeProfitLimit || req.Price != 55100 || req.StopPrice != 55000 {
		t.Errorf("unexpected take profit limit request: %+v", req)
	}
}
