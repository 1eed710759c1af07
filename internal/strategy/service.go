package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"futures-bot/internal/exchange"
	"futures-bot/internal/validate"
)

// 网格类策略的腿间固定延迟，用于规避限速。
const defaultGridDelay = 100 * time.Millisecond

// OrderClient 是策略执行依赖的唯一外部能力：提交单笔委托。
type OrderClient interface {
	PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.OrderAck, error)
}

// Recorder 将执行报告落盘。实现缺失时执行结果只返回给调用方。
type Recorder interface {
	RecordRun(ctx context.Context, report Report) error
}

// Service 把高层策略请求拆解为有序排程并驱动串行执行。
// 校验失败在任何一腿提交前直接返回；单腿失败只计入报告。
type Service struct {
	client      OrderClient
	runner      *Runner
	recorder    Recorder
	logger      *zap.Logger
	gridDelay   time.Duration
	timeInForce string
}

// NewService 创建策略服务。recorder 可为 nil。
func NewService(client OrderClient, runner *Runner, recorder Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runner == nil {
		runner = NewRunner(logger)
	}
	return &Service{
		client:      client,
		runner:      runner,
		recorder:    recorder,
		logger:      logger,
		gridDelay:   defaultGridDelay,
		timeInForce: "GTC",
	}
}

// WithGridDelay 覆盖网格腿间延迟，主要用于配置注入与测试。
func (s *Service) WithGridDelay(d time.Duration) *Service {
	if d > 0 {
		s.gridDelay = d
	}
	return s
}

// WithTimeInForce 覆盖限价类委托的默认有效期，请求未指定时生效。
func (s *Service) WithTimeInForce(tif string) *Service {
	if normalized, err := validate.TimeInForce(tif); err == nil {
		s.timeInForce = normalized
	}
	return s
}

// resolveTIF 解析请求级有效期，空值回落到服务默认值。
func (s *Service) resolveTIF(tif string) (string, error) {
	if strings.TrimSpace(tif) == "" {
		return s.timeInForce, nil
	}
	return validate.TimeInForce(tif)
}

// PlaceGrid 在价格区间内铺设均分数量的限价单网格。
// 中性网格（BOTH）按腿序号交替 BUY/SELL。
func (s *Service) PlaceGrid(ctx context.Context, req GridRequest) (Report, error) {
	symbol, err := validate.Symbol(req.Symbol)
	if err != nil {
		return Report{}, err
	}
	side, err := validate.Side(string(req.Side), true)
	if err != nil {
		return Report{}, err
	}
	if err := validate.Quantity(req.TotalQuantity); err != nil {
		return Report{}, err
	}
	if err := validate.Bounds(req.UpperPrice, req.LowerPrice); err != nil {
		return Report{}, err
	}
	if err := validate.LegCount(req.Legs, MinLegs, MaxGridLegs); err != nil {
		return Report{}, err
	}
	if err := validSpacing(req.Spacing); err != nil {
		return Report{}, err
	}
	tif, err := s.resolveTIF(req.TimeInForce)
	if err != nil {
		return Report{}, err
	}
	req.Symbol, req.Side, req.TimeInForce = symbol, Side(side), tif

	prices := GridPrices(req.LowerPrice, req.UpperPrice, req.Legs, req.Spacing)
	quantities := EvenQuantities(req.TotalQuantity, req.Legs)
	legs := BuildLegs(prices, quantities, GridSides(req.Side, req.Legs))

	return s.run(ctx, "GRID", req.Symbol, req.Side, req, legs, s.limitSubmitter(req.Symbol, tif), s.gridDelay)
}

// PlaceMartingaleGrid 铺设逐腿倍增数量的网格，所有腿同向。
func (s *Service) PlaceMartingaleGrid(ctx context.Context, req MartingaleRequest) (Report, error) {
	symbol, err := validate.Symbol(req.Symbol)
	if err != nil {
		return Report{}, err
	}
	side, err := validate.Side(string(req.Side), false)
	if err != nil {
		return Report{}, err
	}
	if err := validate.Quantity(req.BaseQuantity); err != nil {
		return Report{}, err
	}
	if err := validate.Bounds(req.UpperPrice, req.LowerPrice); err != nil {
		return Report{}, err
	}
	if err := validate.Multiplier(req.Multiplier); err != nil {
		return Report{}, err
	}
	if err := validate.LegCount(req.Legs, MinLegs, MaxGridLegs); err != nil {
		return Report{}, err
	}
	if err := validSpacing(req.Spacing); err != nil {
		return Report{}, err
	}
	req.Symbol, req.Side = symbol, Side(side)

	prices := GridPrices(req.LowerPrice, req.UpperPrice, req.Legs, req.Spacing)
	quantities := MartingaleQuantities(req.BaseQuantity, req.Multiplier, req.Legs)
	legs := BuildLegs(prices, quantities, GridSides(req.Side, req.Legs))

	return s.run(ctx, "MARTINGALE_GRID", req.Symbol, req.Side, req, legs, s.limitSubmitter(req.Symbol, s.timeInForce), s.gridDelay)
}

// PlaceDCAGrid 按计价货币预算均分铺设网格，腿数量与价位成反比。
// 腿数上限沿用时间切片一侧的 100，刻意与普通网格的 50 不一致。
func (s *Service) PlaceDCAGrid(ctx context.Context, req DCARequest) (Report, error) {
	symbol, err := validate.Symbol(req.Symbol)
	if err != nil {
		return Report{}, err
	}
	side, err := validate.Side(string(req.Side), false)
	if err != nil {
		return Report{}, err
	}
	if req.QuoteBudget <= 0 {
		return Report{}, &validate.Error{Reason: "计价货币预算必须为正数"}
	}
	if err := validate.Bounds(req.UpperPrice, req.LowerPrice); err != nil {
		return Report{}, err
	}
	if err := validate.LegCount(req.Legs, MinLegs, MaxSliceLegs); err != nil {
		return Report{}, err
	}
	if err := validSpacing(req.Spacing); err != nil {
		return Report{}, err
	}
	req.Symbol, req.Side = symbol, Side(side)

	prices := GridPrices(req.LowerPrice, req.UpperPrice, req.Legs, req.Spacing)
	quantities := DCAQuantities(req.QuoteBudget, prices)
	legs := BuildLegs(prices, quantities, GridSides(req.Side, req.Legs))

	return s.run(ctx, "DCA_GRID", req.Symbol, req.Side, req, legs, s.limitSubmitter(req.Symbol, s.timeInForce), s.gridDelay)
}

// PlaceTWAP 将总量均分为 n 个时间切片依次提交。未指定委托类型时按市价切片执行。
func (s *Service) PlaceTWAP(ctx context.Context, req TWAPRequest) (Report, error) {
	symbol, err := validate.Symbol(req.Symbol)
	if err != nil {
		return Report{}, err
	}
	side, err := validate.Side(string(req.Side), false)
	if err != nil {
		return Report{}, err
	}
	if err := validate.Quantity(req.TotalQuantity); err != nil {
		return Report{}, err
	}
	if err := validate.Duration(req.DurationMinutes); err != nil {
		return Report{}, err
	}
	if err := validate.LegCount(req.Legs, MinLegs, MaxSliceLegs); err != nil {
		return Report{}, err
	}
	if req.OrderKind == "" {
		req.OrderKind = OrderKindMarket
	}
	if err := validOrderKind(req.OrderKind, req.Price); err != nil {
		return Report{}, err
	}
	tif, err := s.resolveTIF(req.TimeInForce)
	if err != nil {
		return Report{}, err
	}
	req.Symbol, req.Side, req.TimeInForce = symbol, Side(side), tif

	quantities := EvenQuantities(req.TotalQuantity, req.Legs)
	if err := validate.Quantity(quantities[0]); err != nil {
		return Report{}, &validate.Error{Reason: fmt.Sprintf("切片数量过小: %s", err.Error())}
	}
	legs := s.sliceLegs(quantities, req.Side, req.OrderKind, req.Price)

	submit := s.sliceSubmitter(req.Symbol, req.OrderKind, tif)
	return s.run(ctx, "TWAP", req.Symbol, req.Side, req, legs, submit, SliceInterval(req.DurationMinutes, req.Legs))
}

// PlaceTWAPWithProfile 按量能分布拆分时间切片。Legs 为 0 时使用默认切片数。
func (s *Service) PlaceTWAPWithProfile(ctx context.Context, req TWAPProfileRequest) (Report, error) {
	symbol, err := validate.Symbol(req.Symbol)
	if err != nil {
		return Report{}, err
	}
	side, err := validate.Side(string(req.Side), false)
	if err != nil {
		return Report{}, err
	}
	if err := validate.Quantity(req.TotalQuantity); err != nil {
		return Report{}, err
	}
	if err := validate.Duration(req.DurationMinutes); err != nil {
		return Report{}, err
	}
	if req.Legs == 0 {
		req.Legs = defaultSlices
	}
	if err := validate.LegCount(req.Legs, MinLegs, MaxSliceLegs); err != nil {
		return Report{}, err
	}
	if err := validProfile(req.Profile); err != nil {
		return Report{}, err
	}
	if req.OrderKind == "" {
		req.OrderKind = OrderKindMarket
	}
	if err := validOrderKind(req.OrderKind, req.Price); err != nil {
		return Report{}, err
	}
	req.Symbol, req.Side = symbol, Side(side)

	quantities := ProfileQuantities(req.TotalQuantity, req.Legs, req.Profile)
	for _, q := range quantities {
		if err := validate.Quantity(q); err != nil {
			return Report{}, &validate.Error{Reason: fmt.Sprintf("切片数量过小: %s", err.Error())}
		}
	}
	legs := s.sliceLegs(quantities, req.Side, req.OrderKind, req.Price)

	submit := s.sliceSubmitter(req.Symbol, req.OrderKind, s.timeInForce)
	return s.run(ctx, "TWAP_VOLUME_PROFILE", req.Symbol, req.Side, req, legs, submit, SliceInterval(req.DurationMinutes, req.Legs))
}

func (s *Service) run(ctx context.Context, kind, symbol string, side Side, request any, legs []ScheduleLeg, submit Submitter, delay time.Duration) (Report, error) {
	startedAt := time.Now().UTC()

	s.logger.Info("策略执行开始",
		zap.String("kind", kind),
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Int("legs", len(legs)),
		zap.Duration("inter_leg_delay", delay),
	)

	outcomes := s.runner.Execute(ctx, legs, submit, delay)
	report := Aggregate(kind, symbol, side, request, outcomes, startedAt)

	s.logger.Info("策略执行完成",
		zap.String("kind", kind),
		zap.String("symbol", symbol),
		zap.Int("placed", report.PlacedCount),
		zap.Int("failed", report.FailedCount),
		zap.Float64("success_rate", report.SuccessRate),
		zap.Float64("total_executed", report.TotalExecuted),
		zap.Float64("average_price", report.AveragePrice),
	)

	if s.recorder != nil {
		if err := s.recorder.RecordRun(ctx, report); err != nil {
			s.logger.Warn("执行报告落盘失败", zap.String("kind", kind), zap.Error(err))
		}
	}

	return report, nil
}

// sliceLegs 生成时间切片排程；市价切片不携带价格。
func (s *Service) sliceLegs(quantities []float64, side Side, kind OrderKind, price float64) []ScheduleLeg {
	var prices []float64
	if kind == OrderKindLimit {
		prices = make([]float64, len(quantities))
		for i := range prices {
			prices[i] = price
		}
	}
	return BuildLegs(prices, quantities, GridSides(side, len(quantities)))
}

func (s *Service) limitSubmitter(symbol, tif string) Submitter {
	return func(ctx context.Context, leg ScheduleLeg) (exchange.OrderAck, error) {
		return s.client.PlaceOrder(ctx, exchange.OrderRequest{
			Symbol:      symbol,
			Side:        string(leg.Side),
			Kind:        exchange.OrderKindLimit,
			Quantity:    leg.Quantity,
			Price:       leg.Price,
			TimeInForce: tif,
		})
	}
}

func (s *Service) sliceSubmitter(symbol string, kind OrderKind, tif string) Submitter {
	if kind == OrderKindLimit {
		return s.limitSubmitter(symbol, tif)
	}
	return func(ctx context.Context, leg ScheduleLeg) (exchange.OrderAck, error) {
		return s.client.PlaceOrder(ctx, exchange.OrderRequest{
			Symbol:   symbol,
			Side:     string(leg.Side),
			Kind:     exchange.OrderKindMarket,
			Quantity: leg.Quantity,
		})
	}
}

func validSpacing(spacing Spacing) error {
	switch spacing {
	case SpacingArithmetic, SpacingGeometric:
		return nil
	default:
		return &validate.Error{Reason: fmt.Sprintf("不支持的网格间隔 %q，可选 ARITHMETIC/GEOMETRIC", spacing)}
	}
}

func validProfile(profile Profile) error {
	switch profile {
	case ProfileUniform, ProfileFrontLoaded, ProfileBackLoaded, ProfileMiddleLoaded:
		return nil
	default:
		return &validate.Error{Reason: fmt.Sprintf("不支持的量能分布 %q", profile)}
	}
}

func validOrderKind(kind OrderKind, price float64) error {
	switch kind {
	case OrderKindMarket:
		return nil
	case OrderKindLimit:
		return validate.Price(price)
	default:
		return &validate.Error{Reason: fmt.Sprintf("不支持的切片委托类型 %q，可选 MARKET/LIMIT", kind)}
	}
}
