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
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB      string `yaml:"db_dsn"`
	Service struct {
		Host         string `yaml:"host"`
		PostbackPort int    `yaml:"postback_port"`
	} `yaml:"service"`
	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	Broker struct {
		APIURL          string `yaml:"api_url"`
		TickerURL       string `yaml:"ticker_url"`
		TriggerRangeURL string `yaml:"trigger_range_url"`
	} `yaml:"broker"`

	// Which trading variant runs this session:
	// short_stoploss | long_stoploss | short_fixed | long_fixed |
	// short_scalp | long_scalp
	Strategy string `yaml:"strategy"`

	// Controls file watched for live parameter changes.
	ControlsFile string `yaml:"controls_file"`

	// Paper trading: orders are filled by a simulated broker instead of
	// going to the exchange.
	MockTrading      bool    `yaml:"mock_trading"`
	MockInitialValue float64 `yaml:"mock_initial_value"`

	TickBufferSize    int           `yaml:"tick_buffer_size"`
	SignalQueueSize   int           `yaml:"signal_queue_size"`
	PostbackQueueSize int           `yaml:"postback_queue_size"`
	PostbackDelay     time.Duration `yaml:"postback_delay"`
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
		Strategy:     getenvDefault("STRATEGY", "short_stoploss"),
		ControlsFile: getenvDefault("CONTROLS_FILE", "configs/controls.yaml"),

		MockInitialValue: floatFromEnv("MOCK_INITIAL_VALUE", 100000.0),

		TickBufferSize:    intFromEnv("TICK_BUFFER_SIZE", 200),
		SignalQueueSize:   intFromEnv("SIGNAL_QUEUE_SIZE", 100),
		PostbackQueueSize: intFromEnv("POSTBACK_QUEUE_SIZE", 500),
		PostbackDelay:     durationFromEnv("POSTBACK_DELAY", "300ms"),
	}
	config.Broker.APIURL = "https://api.kite.trade"
	config.Broker.TickerURL = "wss://ws.kite.trade"
	config.Broker.TriggerRangeURL = "https://api.kite.trade/margins/equity"

	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
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
