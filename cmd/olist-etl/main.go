// cmd/olist-etl/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/olist-analytics/olist-etl/pkg/config"
	"github.com/olist-analytics/olist-etl/pkg/csvio"
	"github.com/olist-analytics/olist-etl/pkg/pipeline"
	"github.com/olist-analytics/olist-etl/pkg/verify"
	"github.com/olist-analytics/olist-etl/pkg/warehouse"
)

func main() {
	// Load .env if present; environment variables take precedence
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Run failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := csvio.NewStore(cfg.RawDataDir, cfg.CleanDataDir, logger)
	if err != nil {
		return err
	}

	p, err := pipeline.New(store, logger)
	if err != nil {
		return err
	}

	summary, data, err := p.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(summary.GenerateReport())

	verifier, err := verify.NewVerifier(logger)
	if err != nil {
		return err
	}
	report, err := verifier.Verify(data)
	if err != nil {
		return err
	}
	if !report.Passed() {
		return fmt.Errorf("verification found %d issues", len(report.Issues))
	}

	if !cfg.LoadWarehouse {
		return nil
	}

	wh, err := warehouse.Open(ctx, cfg.Warehouse, logger)
	if err != nil {
		return err
	}
	defer wh.Close()

	if err := wh.CreateStarSchema(ctx); err != nil {
		return err
	}

	results, err := wh.LoadStarSchema(ctx,
		data.Customers, data.Products, data.Sellers, data.Orders, data.OrderItems)
	if err != nil {
		return err
	}

	for _, res := range results {
		logger.Info("Warehouse load complete",
			zap.String("table", res.Table),
			zap.Int64("rows", res.RowsInserted))
	}

	return nil
}

// buildLogger constructs the process logger from configuration
func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
