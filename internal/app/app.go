package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"futures-bot/internal/config"
	"futures-bot/internal/exchange"
	"futures-bot/internal/journal"
	"futures-bot/internal/orders"
	"futures-bot/internal/store"
	"futures-bot/internal/strategy"
)

// App 聚合核心依赖并驱动配置中声明的全部任务。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Run 初始化交易所客户端与策略服务，并发执行配置中的任务。
// 各任务相互独立：一个任务失败不会取消其余任务，只在全部结束后汇总返回。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("交易系统已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("exchange", a.cfg.Exchange.Name),
		zap.Bool("sandbox", a.cfg.Exchange.UseSandbox),
		zap.Bool("dry_run", a.cfg.Execution.DryRun),
		zap.Int("jobs", len(a.cfg.Jobs)),
	)

	exClient, err := exchange.NewClient(a.cfg.Exchange, a.logger)
	if err != nil {
		return fmt.Errorf("初始化交易所客户端失败: %w", err)
	}

	jour, err := journal.New(a.store, a.logger)
	if err != nil {
		return fmt.Errorf("初始化执行日志失败: %w", err)
	}

	var orderClient strategy.OrderClient = exClient
	if a.cfg.Execution.DryRun {
		a.logger.Info("执行器处于干跑模式，不会触达交易所")
		orderClient = strategy.NewSimulatedClient(a.logger)
	}

	svc := strategy.NewService(orderClient, strategy.NewRunner(a.logger), jour, a.logger).
		WithGridDelay(a.cfg.Execution.GridLegDelay).
		WithTimeInForce(a.cfg.Execution.TimeInForce)
	mgr := orders.NewManager(exClient, a.logger)

	if len(a.cfg.Jobs) == 0 {
		a.logger.Warn("未配置任何任务，直接退出")
		return nil
	}

	var group errgroup.Group
	for i, job := range a.cfg.Jobs {
		group.Go(func() error {
			if err := a.runJob(ctx, job, svc, mgr); err != nil {
				a.logger.Error("任务执行失败",
					zap.Int("job", i),
					zap.String("kind", job.Kind),
					zap.String("symbol", job.Symbol),
					zap.Error(err),
				)
				return fmt.Errorf("jobs[%d] %s: %w", i, job.Kind, err)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	a.logger.Info("全部任务执行完毕")
	return nil
}
