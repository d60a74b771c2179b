package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string `mapstructure:"addr"`
		// Minimum interval between requests per client.
		RateLimit time.Duration `mapstructure:"rate_limit"`
	} `mapstructure:"http"`

	Market struct {
		Symbol     string `mapstructure:"symbol"`
		PriceScale int32  `mapstructure:"price_scale"`
		QtyScale   int32  `mapstructure:"qty_scale"`
		// Local close time for GoodForDay pruning, "15:04" format.
		CloseAt string `mapstructure:"close_at"`
	} `mapstructure:"market"`

	Postgres struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"postgres"`

	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`
}

// Load reads config/orderbook.yaml if present and overlays environment
// variables with the ORDERBOOK_ prefix, e.g. ORDERBOOK_HTTP_ADDR.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("orderbook")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ORDERBOOK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.rate_limit", 100*time.Millisecond)
	v.SetDefault("market.symbol", "BTC-USD")
	v.SetDefault("market.price_scale", 2)
	v.SetDefault("market.qty_scale", 0)
	v.SetDefault("market.close_at", "17:00")
	v.SetDefault("redis.ttl", time.Minute)

	if err := v.ReadInConfig(); err != nil {
		// Missing file is fine, defaults plus env carry a full config.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
