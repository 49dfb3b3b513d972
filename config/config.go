package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	API      APIConfig      `mapstructure:"api"`
	Manifest ManifestConfig `mapstructure:"manifest"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Grading  GradingConfig  `mapstructure:"grading"`
	Farming  FarmingConfig  `mapstructure:"farming"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	MembershipType int           `mapstructure:"membership_type"`
	MembershipID   string        `mapstructure:"membership_id"`
	TokenFile      string        `mapstructure:"token_file"` // written by the login flow
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

type ManifestConfig struct {
	Dir string `mapstructure:"dir"` // DestinyInventoryItemDefinition.json and DestinyPlugSetDefinition.json
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // memory | sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	// FetchTTL is how long a downloaded wishlist or popularity body is reused.
	FetchTTL time.Duration `mapstructure:"fetch_ttl"`
}

type GradingConfig struct {
	Wishlist         string  `mapstructure:"wishlist"`   // path or URL
	Popularity       string  `mapstructure:"popularity"` // path or URL, optional
	PopularityWeight float64 `mapstructure:"popularity_weight"`
}

type FarmingConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type MetricsConfig struct {
	// Textfile is written on exit for the node_exporter textfile collector.
	// Empty disables metrics output.
	Textfile string `mapstructure:"textfile"`
}

// Load reads config from the given YAML file path. A missing file is not an
// error when path is empty. Keys must have a default to be overridable through
// VAULTCTL_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("vaultctl")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.debug", false)
	v.SetDefault("api.base_url", "https://www.bungie.net/Platform")
	v.SetDefault("api.api_key", "")
	v.SetDefault("api.membership_type", 3)
	v.SetDefault("api.membership_id", "")
	v.SetDefault("api.token_file", "./data/token.json")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("api.rate_limit_rps", 10)
	v.SetDefault("api.rate_limit_burst", 5)
	v.SetDefault("manifest.dir", "./data/manifest")
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/vaultctl.db")
	v.SetDefault("database.mysql_dsn", "")
	v.SetDefault("database.mysql_max_open", 10)
	v.SetDefault("database.mysql_max_idle", 2)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.fetch_ttl", "6h")
	v.SetDefault("grading.wishlist", "")
	v.SetDefault("grading.popularity", "")
	v.SetDefault("grading.popularity_weight", 0.15)
	v.SetDefault("farming.interval", "30s")
	v.SetDefault("metrics.textfile", "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
