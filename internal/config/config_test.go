package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{Environment: "test"},
		Exchange: ExchangeConfig{
			Name:    "binance",
			Markets: []string{"BTC/USDT"},
			Retry: RetryConfig{
				MaxAttempts: 5,
				MinDelay:    500 * time.Millisecond,
				MaxDelay:    5 * time.Second,
			},
		},
		Analysis: AnalysisConfig{
			Timeframe:        "1h",
			Limit:            300,
			MinCandles:       60,
			SwingLeftBars:    3,
			SwingRightBars:   3,
			ClusterBucketPct: 0.005,
		},
		Cache:  CacheConfig{TTL: time.Minute},
		OpenAI: OpenAIConfig{Enabled: false},
		Server: ServerConfig{Port: 8080},
		Logging: LoggingConfig{
			Level:            "info",
			Encoding:         "console",
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
		},
		Scheduler: SchedulerConfig{ScanInterval: 5 * time.Minute},
	}
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_MinCandlesFloor(t *testing.T) {
	cfg := validConfig()
	cfg.Analysis.MinCandles = 30
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when min_candles is below 60")
	}
}

func TestValidate_LimitMustCoverMinCandles(t *testing.T) {
	cfg := validConfig()
	cfg.Analysis.Limit = 50
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when limit is below min_candles")
	}
}

func TestValidate_OpenAIChecksOnlyWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.OpenAI.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when openai is enabled without api key")
	}

	cfg.OpenAI.APIKey = "sk-test"
	cfg.OpenAI.Model = "gpt-4.1"
	cfg.OpenAI.Timeout = 15 * time.Second
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid openai config, got %v", err)
	}
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Exchange.Name = ""
	cfg.Exchange.Markets = nil
	cfg.Server.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	msg := err.Error()
	for _, fragment := range []string{"exchange.name", "exchange.markets", "server.port"} {
		if !strings.Contains(msg, fragment) {
			t.Errorf("expected %q in the combined error, got %q", fragment, msg)
		}
	}
}
