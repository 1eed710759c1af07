package app

import (
	"context"

	"go.uber.org/zap"

	"futures-bot/internal/config"
	"futures-bot/internal/orders"
	"futures-bot/internal/strategy"
)

// runJob 将声明式任务分发到策略服务或单笔委托管理器。
// 单笔委托在干跑模式下跳过：伪造客户端无法回答市价查询。
func (a *App) runJob(ctx context.Context, job config.JobConfig, svc *strategy.Service, mgr *orders.Manager) error {
	switch job.Kind {
	case "grid":
		report, err := svc.PlaceGrid(ctx, strategy.GridRequest{
			Symbol:        job.Symbol,
			Side:          strategy.Side(job.Side),
			TotalQuantity: job.TotalQuantity,
			UpperPrice:    job.UpperPrice,
			LowerPrice:    job.LowerPrice,
			Legs:          job.Legs,
			Spacing:       strategy.Spacing(job.Spacing),
			TimeInForce:   job.TimeInForce,
		})
		return a.finishStrategyJob(report, err)

	case "martingale_grid":
		report, err := svc.PlaceMartingaleGrid(ctx, strategy.MartingaleRequest{
			Symbol:       job.Symbol,
			Side:         strategy.Side(job.Side),
			BaseQuantity: job.BaseQuantity,
			UpperPrice:   job.UpperPrice,
			LowerPrice:   job.LowerPrice,
			Legs:         job.Legs,
			Multiplier:   job.Multiplier,
			Spacing:      strategy.Spacing(job.Spacing),
		})
		return a.finishStrategyJob(report, err)

	case "dca_grid":
		report, err := svc.PlaceDCAGrid(ctx, strategy.DCARequest{
			Symbol:      job.Symbol,
			Side:        strategy.Side(job.Side),
			QuoteBudget: job.QuoteBudget,
			UpperPrice:  job.UpperPrice,
			LowerPrice:  job.LowerPrice,
			Legs:        job.Legs,
			Spacing:     strategy.Spacing(job.Spacing),
		})
		return a.finishStrategyJob(report, err)

	case "twap":
		report, err := svc.PlaceTWAP(ctx, strategy.TWAPRequest{
			Symbol:          job.Symbol,
			Side:            strategy.Side(job.Side),
			TotalQuantity:   job.TotalQuantity,
			DurationMinutes: job.DurationMinutes,
			Legs:            job.Legs,
			OrderKind:       strategy.OrderKind(job.OrderType),
			Price:           job.Price,
			TimeInForce:     job.TimeInForce,
		})
		return a.finishStrategyJob(report, err)

	case "twap_profile":
		report, err := svc.PlaceTWAPWithProfile(ctx, strategy.TWAPProfileRequest{
			Symbol:          job.Symbol,
			Side:            strategy.Side(job.Side),
			TotalQuantity:   job.TotalQuantity,
			DurationMinutes: job.DurationMinutes,
			Legs:            job.Legs,
			Profile:         strategy.Profile(job.Profile),
			OrderKind:       strategy.OrderKind(job.OrderType),
			Price:           job.Price,
		})
		return a.finishStrategyJob(report, err)
	}

	if a.cfg.Execution.DryRun {
		a.logger.Warn("干跑模式跳过单笔委托任务",
			zap.String("kind", job.Kind),
			zap.String("symbol", job.Symbol),
		)
		return nil
	}

	switch job.Kind {
	case "market":
		_, err := mgr.PlaceMarket(ctx, job.Symbol, job.Side, job.Quantity, job.ReduceOnly)
		return err
	case "market_quote":
		_, err := mgr.PlaceMarketByQuote(ctx, job.Symbol, job.Side, job.QuoteBudget)
		return err
	case "limit":
		_, err := mgr.PlaceLimit(ctx, job.Symbol, job.Side, job.Quantity, job.Price, job.TimeInForce)
		return err
	case "stop_market":
		_, err := mgr.PlaceStopMarket(ctx, job.Symbol, job.Side, job.Quantity, job.StopPrice, job.ReduceOnly)
		return err
	case "stop_limit":
		_, err := mgr.PlaceStopLimit(ctx, job.Symbol, job.Side, job.Quantity, job.Price, job.StopPrice, job.TimeInForce, job.ReduceOnly)
		return err
	case "take_profit_market":
		_, err := mgr.PlaceTakeProfitMarket(ctx, job.Symbol, job.Side, job.Quantity, job.StopPrice, job.ReduceOnly)
		return err
	case "take_profit_limit":
		_, err := mgr.PlaceTakeProfitLimit(ctx, job.Symbol, job.Side, job.Quantity, job.Price, job.StopPrice, job.TimeInForce, job.ReduceOnly)
		return err
	case "oco":
		_, err := mgr.PlaceOCO(ctx, orders.OCORequest{
			Symbol:               job.Symbol,
			Side:                 job.Side,
			Quantity:             job.Quantity,
			TakeProfitPrice:      job.TakeProfitPrice,
			StopPrice:            job.StopPrice,
			StopLimitPrice:       job.StopLimitPrice,
			StopLimitTimeInForce: job.TimeInForce,
		})
		return err
	case "oco_percent":
		_, err := mgr.PlaceOCOByPercent(ctx, job.Symbol, job.Side, job.Quantity,
			job.TakeProfitPercent, job.StopLossPercent, 0.1)
		return err
	case "cancel_all":
		_, err := mgr.CancelAll(ctx, job.Symbol)
		return err
	}

	// 配置校验保证 kind 落在已知集合内，理论上不可达。
	a.logger.Error("未知任务类型", zap.String("kind", job.Kind))
	return nil
}

func (a *App) finishStrategyJob(report strategy.Report, err error) error {
	if err != nil {
		return err
	}
	a.logger.Info("策略任务完成",
		zap.String("kind", report.Kind),
		zap.String("symbol", report.Symbol),
		zap.Int("placed", report.PlacedCount),
		zap.Int("failed", report.FailedCount),
		zap.Float64("success_rate", report.SuccessRate),
	)
	return nil
}
