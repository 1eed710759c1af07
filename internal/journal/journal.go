package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"futures-bot/internal/store"
	"futures-bot/internal/strategy"
)

// Journal 将策略执行报告持久化到 SQLite，逐次执行一行，逐腿结果一行。
type Journal struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ strategy.Recorder = (*Journal)(nil)

// New 初始化执行日志，创建所需表结构。
func New(st *store.Store, logger *zap.Logger) (*Journal, error) {
	if st == nil {
		return nil, fmt.Errorf("journal: store 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	j := &Journal{
		db:     st.DB(),
		logger: logger,
	}

	if err := j.initSchema(); err != nil {
		return nil, err
	}

	return j, nil
}

func (j *Journal) initSchema() error {
	stmt := `
CREATE TABLE IF NOT EXISTS strategy_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	legs INTEGER NOT NULL,
	placed INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	success_rate REAL NOT NULL,
	total_executed REAL NOT NULL,
	total_cost REAL NOT NULL,
	average_price REAL NOT NULL,
	request TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS leg_outcomes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES strategy_runs(id),
	leg_index INTEGER NOT NULL,
	side TEXT NOT NULL,
	price REAL NOT NULL,
	quantity REAL NOT NULL,
	order_id TEXT,
	status TEXT,
	executed_qty REAL NOT NULL DEFAULT 0,
	quote_qty REAL NOT NULL DEFAULT 0,
	error TEXT
);
CREATE INDEX IF NOT EXISTS idx_strategy_runs_symbol ON strategy_runs(symbol);
CREATE INDEX IF NOT EXISTS idx_leg_outcomes_run ON leg_outcomes(run_id);
`
	if _, err := j.db.Exec(stmt); err != nil {
		return fmt.Errorf("journal: 初始化表失败: %w", err)
	}
	return nil
}

// RecordRun 写入一次策略执行及其全部腿结果。
func (j *Journal) RecordRun(ctx context.Context, report strategy.Report) error {
	request, err := json.Marshal(report.Request)
	if err != nil {
		return fmt.Errorf("journal: 序列化请求失败: %w", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: 开启事务失败: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO strategy_runs
			(kind, symbol, side, legs, placed, failed, success_rate,
			 total_executed, total_cost, average_price, request, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.Kind, report.Symbol, string(report.Side), len(report.Outcomes),
		report.PlacedCount, report.FailedCount, report.SuccessRate,
		report.TotalExecuted, report.TotalCost, report.AveragePrice,
		string(request),
		report.StartedAt.Format(time.RFC3339),
		report.FinishedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("journal: 写入执行记录失败: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("journal: 获取执行记录 ID 失败: %w", err)
	}

	for _, o := range report.Outcomes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO leg_outcomes
				(run_id, leg_index, side, price, quantity, order_id, status, executed_qty, quote_qty, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, o.Leg.Index, string(o.Leg.Side), o.Leg.Price, o.Leg.Quantity,
			o.OrderID, o.Status, o.ExecutedQty, o.QuoteQty, o.Err,
		)
		if err != nil {
			return fmt.Errorf("journal: 写入腿结果失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: 提交事务失败: %w", err)
	}

	j.logger.Debug("执行报告已落盘",
		zap.Int64("run_id", runID),
		zap.String("kind", report.Kind),
		zap.Int("legs", len(report.Outcomes)),
	)
	return nil
}

// RunSummary 为历史执行记录的精简视图。
type RunSummary struct {
	ID            int64
	Kind          string
	Symbol        string
	Side          string
	Legs          int
	Placed        int
	Failed        int
	SuccessRate   float64
	TotalExecuted float64
	AveragePrice  float64
	StartedAt     time.Time
}

// RecentRuns 按时间倒序返回最近的执行记录。
func (j *Journal) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, symbol, side, legs, placed, failed, success_rate,
		        total_executed, average_price, started_at
		   FROM strategy_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: 查询执行记录失败: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var (
			s         RunSummary
			startedAt string
		)
		if err := rows.Scan(&s.ID, &s.Kind, &s.Symbol, &s.Side, &s.Legs, &s.Placed,
			&s.Failed, &s.SuccessRate, &s.TotalExecuted, &s.AveragePrice, &startedAt); err != nil {
			return nil, fmt.Errorf("journal: 解析执行记录失败: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, startedAt); err == nil {
			s.StartedAt = ts
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
