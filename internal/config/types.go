package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Exchange  ExchangeConfig  `mapstructure:"exchange"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Jobs      []JobConfig     `mapstructure:"jobs"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// ExchangeConfig 描述交易所连接信息。
type ExchangeConfig struct {
	Name       string      `mapstructure:"name"`
	APIKey     string      `mapstructure:"api_key"`
	APISecret  string      `mapstructure:"api_secret"`
	UseSandbox bool        `mapstructure:"use_sandbox"`
	Retry      RetryConfig `mapstructure:"retry"`
}

// RetryConfig 统一控制行情类请求的重试机制。
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	MinDelay    time.Duration `mapstructure:"min_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// ExecutionConfig 控制下单行为。
type ExecutionConfig struct {
	GridLegDelay time.Duration `mapstructure:"grid_leg_delay"`
	TimeInForce  string        `mapstructure:"time_in_force"`
	DryRun       bool          `mapstructure:"dry_run"`
}

// DatabaseConfig 管理执行日志数据库。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// JobConfig 以声明式描述一个待执行的策略或委托任务。
// 字段按 kind 取用，未用到的字段留空即可。
type JobConfig struct {
	Kind   string `mapstructure:"kind"`
	Symbol string `mapstructure:"symbol"`
	Side   string `mapstructure:"side"`

	TotalQuantity float64 `mapstructure:"total_quantity"`
	BaseQuantity  float64 `mapstructure:"base_quantity"`
	Quantity      float64 `mapstructure:"quantity"`
	QuoteBudget   float64 `mapstructure:"quote_budget"`

	UpperPrice float64 `mapstructure:"upper_price"`
	LowerPrice float64 `mapstructure:"lower_price"`
	Legs       int     `mapstructure:"legs"`
	Spacing    string  `mapstructure:"spacing"`
	Multiplier float64 `mapstructure:"multiplier"`

	DurationMinutes int    `mapstructure:"duration_minutes"`
	Profile         string `mapstructure:"profile"`
	OrderType       string `mapstructure:"order_type"`

	Price           float64 `mapstructure:"price"`
	StopPrice       float64 `mapstructure:"stop_price"`
	StopLimitPrice  float64 `mapstructure:"stop_limit_price"`
	TakeProfitPrice float64 `mapstructure:"take_profit_price"`

	TakeProfitPercent float64 `mapstructure:"take_profit_percent"`
	StopLossPercent   float64 `mapstructure:"stop_loss_percent"`

	TimeInForce string `mapstructure:"time_in_force"`
	ReduceOnly  bool   `mapstructure:"reduce_only"`
}

var knownJobKinds = map[string]struct{}{
	"grid":               {},
	"martingale_grid":    {},
	"dca_grid":           {},
	"twap":               {},
	"twap_profile":       {},
	"market":             {},
	"market_quote":       {},
	"limit":              {},
	"stop_market":        {},
	"stop_limit":         {},
	"take_profit_market": {},
	"take_profit_limit":  {},
	"oco":                {},
	"oco_percent":        {},
	"cancel_all":         {},
}

// Validate 对配置进行基本校验。任务参数的深度校验由策略层完成，
// 这里只保证配置结构本身可用。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.Exchange.Name == "" {
		err = multierr.Append(err, errors.New("exchange.name 不能为空"))
	}
	if c.Exchange.Retry.MaxAttempts <= 0 {
		err = multierr.Append(err, errors.New("exchange.retry.max_attempts 必须大于0"))
	}
	if c.Exchange.Retry.MinDelay <= 0 || c.Exchange.Retry.MaxDelay <= 0 {
		err = multierr.Append(err, errors.New("exchange.retry.delay 必须为正"))
	}
	if c.Exchange.Retry.MinDelay > c.Exchange.Retry.MaxDelay {
		err = multierr.Append(err, errors.New("exchange.retry.min_delay 不能大于 max_delay"))
	}
	if c.Execution.GridLegDelay <= 0 {
		err = multierr.Append(err, errors.New("execution.grid_leg_delay 必须大于0"))
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}

	for i, job := range c.Jobs {
		if _, ok := knownJobKinds[job.Kind]; !ok {
			err = multierr.Append(err, fmt.Errorf("jobs[%d].kind %q 未知", i, job.Kind))
		}
		if job.Symbol == "" {
			err = multierr.Append(err, fmt.Errorf("jobs[%d].symbol 不能为空", i))
		}
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
