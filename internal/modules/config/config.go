package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	brokerKeyENV      = "BROKER_API_KEY"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

// Config ...
type Config struct {
	Broker struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"broker"`
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB          string `yaml:"db_dsn"`
	JournalPath string `yaml:"journal_path"`
	Service     struct {
		HealthAddr string `yaml:"health_addr"`
	} `yaml:"service"`
	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	// Instruments: the 1x tracker and the geared tracker of the same index.
	BaseTicker string `yaml:"base_ticker"`
	LevTicker  string `yaml:"lev_ticker"`

	// Signal thresholds. Divergence must exceed LevDiffInvest (strict) and
	// the reference must be at least DwellTime old before a swap fires.
	LevDiffInvest     float64 `yaml:"lev_diff_invest"`
	DwellTime         time.Duration
	StopLossThreshold float64 `yaml:"stop_loss_threshold"`

	// Loop cadence
	TickInterval      time.Duration
	ClosedMarketRetry time.Duration

	// Order execution
	OrderStyle       string        // market | limit
	FillPollInterval time.Duration // broker has no fill push, we poll
	FillMaxWait      time.Duration
	SettleDelay      time.Duration
	PreSwapDelay     time.Duration
	CancelSettle     time.Duration // cancelled orders need time to drain from the books
	ValueNoise       float64 // min value move treated as a fill, account ccy
	BuyHeadroom      float64 // fraction of cash actually spent on the buy leg
	CashFloor        float64 // below this we don't bother buying
	LimitSlippage    float64 // limit price offset from last quote
	BaseResidual     float64 // shares kept back on sell to keep price queries alive
	LevResidual      float64
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		BaseTicker:        getenvDefault("BASE_TICKER", "VUAAm_EQ"),
		LevTicker:         getenvDefault("LEV_TICKER", "US5Ld_EQ"),
		LevDiffInvest:     0.004,
		DwellTime:         durationFromEnv("DWELL_TIME", "2m"),
		StopLossThreshold: 0.005,

		TickInterval:      durationFromEnv("TICK_INTERVAL", "20s"),
		ClosedMarketRetry: durationFromEnv("CLOSED_MARKET_RETRY", "300s"),

		OrderStyle:       getenvDefault("ORDER_STYLE", "market"),
		FillPollInterval: durationFromEnv("FILL_POLL_INTERVAL", "1100ms"),
		FillMaxWait:      durationFromEnv("FILL_MAX_WAIT", "180s"),
		SettleDelay:      durationFromEnv("SETTLE_DELAY", "5s"),
		PreSwapDelay:     durationFromEnv("PRE_SWAP_DELAY", "2s"),
		CancelSettle:     durationFromEnv("CANCEL_SETTLE", "10s"),
		ValueNoise:       floatFromEnv("VALUE_NOISE", 5.0),
		BuyHeadroom:      floatFromEnv("BUY_HEADROOM", 0.9),
		CashFloor:        floatFromEnv("CASH_FLOOR", 10.0),
		LimitSlippage:    floatFromEnv("LIMIT_SLIPPAGE", 0.0001),
		BaseResidual:     floatFromEnv("BASE_RESIDUAL", 0.1),
		LevResidual:      floatFromEnv("LEV_RESIDUAL", 0.01),
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	apiKey := os.Getenv(brokerKeyENV)
	if apiKey != "" {
		config.Broker.APIKey = apiKey
	}
	if config.Broker.BaseURL == "" {
		config.Broker.BaseURL = "https://demo.trading212.com"
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	if config.Jaeger.Port == 0 {
		config.Jaeger.Port = intFromEnv("JAEGER_PORT", 6831)
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}
	if config.JournalPath == "" {
		config.JournalPath = getenvDefault("JOURNAL_PATH", "orders.db")
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
