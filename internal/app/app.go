package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"coinsight/internal/advisor"
	"coinsight/internal/analysis"
	"coinsight/internal/config"
	"coinsight/internal/exchange"
	"coinsight/internal/structure"
)

// ErrUnknownPair 表示请求的交易对未在配置中声明。
var ErrUnknownPair = errors.New("未配置的交易对")

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	engine  *analysis.Engine
	advisor *advisor.Client

	pipelines map[string]*exchange.MarketDataService
	order     []string
}

// New 创建 App 实例并完成各管线的装配。
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := analysis.NewEngine(analysis.Settings{
		MinCandles: cfg.Analysis.MinCandles,
		Lookback:   cfg.Analysis.Limit,
		Swing: structure.Options{
			LeftBars:  cfg.Analysis.SwingLeftBars,
			RightBars: cfg.Analysis.SwingRightBars,
			BucketPct: cfg.Analysis.ClusterBucketPct,
		},
	}, logger, nil)

	var advisorClient *advisor.Client
	if cfg.OpenAI.Enabled {
		client, err := advisor.NewClient(cfg.OpenAI, logger)
		if err != nil {
			return nil, fmt.Errorf("初始化解读客户端失败: %w", err)
		}
		advisorClient = client
	}

	cache := exchange.NewCandleCache(cfg.Cache.TTL, nil)

	pipelines := make(map[string]*exchange.MarketDataService, len(cfg.Exchange.Markets))
	order := make([]string, 0, len(cfg.Exchange.Markets))
	for _, symbol := range cfg.Exchange.Markets {
		client, err := exchange.NewClient(cfg.Exchange, symbol, logger)
		if err != nil {
			return nil, fmt.Errorf("初始化行情客户端失败 (%s): %w", symbol, err)
		}
		key := normalizePair(symbol)
		pipelines[key] = exchange.NewMarketDataService(client, cache, logger)
		order = append(order, key)
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		engine:    engine,
		advisor:   advisorClient,
		pipelines: pipelines,
		order:     order,
	}, nil
}

// Run 启动HTTP接口与周期性扫描，阻塞直至上下文取消。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("分析系统已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("exchange", a.cfg.Exchange.Name),
		zap.Strings("markets", a.cfg.Exchange.Markets),
	)

	if err := a.startServer(ctx); err != nil {
		return err
	}

	scanInterval := a.cfg.Scheduler.ScanInterval
	if scanInterval <= 0 {
		scanInterval = 5 * time.Minute
	}

	if err := a.scan(ctx); err != nil {
		a.logger.Error("首次扫描失败", zap.Error(err))
	}

	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("系统异常退出: %w", err)
			}
			a.logger.Info("系统收到退出信号，正在停止")
			return nil
		case <-ticker.C:
			if err := a.scan(ctx); err != nil {
				a.logger.Error("执行扫描失败", zap.Error(err))
			}
		}
	}
}

// scan 并发分析所有已配置交易对。各交易对相互独立。
func (a *App) scan(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for _, key := range a.order {
		pair := key
		group.Go(func() error {
			result, err := a.AnalyzePair(groupCtx, pair, "")
			if err != nil {
				if errors.Is(err, exchange.ErrMaintenance) {
					a.logger.Warn("交易所维护中，跳过该交易对", zap.String("pair", pair))
					return nil
				}
				return fmt.Errorf("分析 %s 失败: %w", pair, err)
			}

			a.logger.Info("扫描结论",
				zap.String("pair", pair),
				zap.String("verdict", result.Verdict),
				zap.String("trend", result.Meta.Trend),
				zap.Float64("composite", result.Meta.Scores.Composite),
				zap.String("risk", result.RiskSummary.RiskLevel),
			)
			return nil
		})
	}

	return group.Wait()
}

// AnalyzePair 拉取K线并运行分析引擎。pair 需已在配置中声明，
// timeframe 为空时使用配置的默认周期。
func (a *App) AnalyzePair(ctx context.Context, pair, timeframe string) (analysis.Result, error) {
	market, ok := a.pipelines[normalizePair(pair)]
	if !ok {
		return analysis.Result{}, fmt.Errorf("%w: %s", ErrUnknownPair, pair)
	}

	if timeframe == "" {
		timeframe = a.cfg.Analysis.Timeframe
	}

	candles, err := market.GetCandles(ctx, timeframe, int64(a.cfg.Analysis.Limit))
	if err != nil {
		return analysis.Result{}, err
	}

	return a.engine.Analyze(market.Symbol(), candles)
}

// Commentary 为分析结果生成解读，解读功能未启用时返回空字符串。
func (a *App) Commentary(ctx context.Context, result analysis.Result) (string, error) {
	if a.advisor == nil {
		return "", nil
	}
	return a.advisor.GenerateCommentary(ctx, result)
}

func normalizePair(pair string) string {
	s := strings.ToUpper(strings.TrimSpace(pair))
	s = strings.ReplaceAll(s, "-", "/")
	if idx := strings.Index(s, ":"); idx > 0 {
		s = s[:idx]
	}
	return s
}
