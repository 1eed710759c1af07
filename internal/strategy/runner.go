package strategy

import (
	"context"
	"time"

	"go.uber.org/zap"

	"futures-bot/internal/exchange"
)

// Submitter 提交排程中的一腿。执行器保证每腿至多调用一次。
type Submitter func(ctx context.Context, leg ScheduleLeg) (exchange.OrderAck, error)

// Sleeper 抽象腿间等待，测试可注入零延迟或虚拟时间实现。
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Runner 按腿序号串行执行排程。单腿失败只记录不中断，
// 部分完成是正常可上报的结果而非致命错误。
type Runner struct {
	sleeper Sleeper
	logger  *zap.Logger
}

// NewRunner 创建执行器，默认使用真实时钟等待。
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		sleeper: realSleeper{},
		logger:  logger,
	}
}

// WithSleeper 替换腿间等待实现，返回 Runner 自身以便链式调用。
func (r *Runner) WithSleeper(s Sleeper) *Runner {
	if s != nil {
		r.sleeper = s
	}
	return r
}

// Execute 逐腿提交排程。每腿只尝试一次；失败记录后继续下一腿；
// 除最后一腿外，每腿之后等待 delay。每次提交前检查 ctx，
// 取消后剩余各腿以失败结果计入，保证结果序列始终覆盖全部腿。
func (r *Runner) Execute(ctx context.Context, legs []ScheduleLeg, submit Submitter, delay time.Duration) []LegOutcome {
	outcomes := make([]LegOutcome, 0, len(legs))

	for i, leg := range legs {
		if err := ctx.Err(); err != nil {
			for _, rest := range legs[i:] {
				outcomes = append(outcomes, LegOutcome{Leg: rest, Err: err.Error()})
			}
			r.logger.Warn("策略执行被取消，剩余腿记为失败",
				zap.Int("completed", i),
				zap.Int("remaining", len(legs)-i),
			)
			break
		}

		ack, err := submit(ctx, leg)
		if err != nil {
			outcomes = append(outcomes, LegOutcome{Leg: leg, Err: err.Error()})
			r.logger.Warn("单腿提交失败，继续执行后续腿",
				zap.Int("leg", leg.Index),
				zap.Int("total", len(legs)),
				zap.Float64("price", leg.Price),
				zap.Float64("quantity", leg.Quantity),
				zap.Error(err),
			)
		} else {
			outcomes = append(outcomes, LegOutcome{
				Leg:         leg,
				OrderID:     ack.OrderID,
				Status:      ack.Status,
				ExecutedQty: ack.ExecutedQty,
				QuoteQty:    ack.QuoteQty,
			})
			r.logger.Info("单腿提交成功",
				zap.Int("leg", leg.Index),
				zap.Int("total", len(legs)),
				zap.String("side", string(leg.Side)),
				zap.Float64("price", leg.Price),
				zap.Float64("quantity", leg.Quantity),
				zap.String("order_id", ack.OrderID),
			)
		}

		if i < len(legs)-1 {
			// 腿间等待是刻意的节奏控制，Sleep 被取消时由下一轮循环统一处理。
			_ = r.sleeper.Sleep(ctx, delay)
		}
	}

	return outcomes
}
