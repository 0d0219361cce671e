package config

import (
	"flag"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var confPath string

func init() {
	flag.StringVar(&confPath, "conf", "configs/", "default config path")
}

var (
	Server server
	MySql  mysql
	Redis  redis
	Solana solana
	Profit profit
)

// Server 配置
type server struct {
	Env         string `yaml:"env"`
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	AdminSecret string `yaml:"admin_secret"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
}

type mysql struct {
	Host            string `yaml:"host"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	Charset         string `yaml:"charset"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"`
	AutoMigrate     bool   `yaml:"auto_migrate"`
}

// DSN returns the go-sql-driver connection string.
func (m mysql) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=True&loc=UTC&clientFoundRows=true",
		m.User, m.Password, m.Host, m.Database, m.Charset)
}

// Redis is optional; an empty Addr switches the rate limiter to in-process mode.
type redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type solana struct {
	RPCURL     string `yaml:"rpc_url"`
	TokenMint  string `yaml:"token_mint"`
	Commitment string `yaml:"commitment"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// profit sharing and access related settings
type profit struct {
	VerifySchedule      string  `yaml:"verify_schedule"`
	ExpirySchedule      string  `yaml:"expiry_schedule"`
	ClaimTTLDays        int     `yaml:"claim_ttl_days"`
	StreakFloor         float64 `yaml:"streak_floor"`
	RateLimitWindowSec  int     `yaml:"rate_limit_window_sec"`
	RateLimitMaxRequest int     `yaml:"rate_limit_max_request"`
}

func Init() {
	setDefaults()
	unmarshal("server", &Server)
	unmarshal("mysql", &MySql)
	unmarshal("redis", &Redis)
	unmarshal("solana", &Solana)
	unmarshal("profit", &Profit)
}

func setDefaults() {
	viper.SetDefault("port", "8080")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("charset", "utf8mb4")
	viper.SetDefault("max_idle_conns", 10)
	viper.SetDefault("max_open_conns", 50)
	viper.SetDefault("conn_max_lifetime", 3600)
	viper.SetDefault("pool_size", 10)
	viper.SetDefault("rpc_url", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("commitment", "confirmed")
	viper.SetDefault("timeout_sec", 10)
	viper.SetDefault("verify_schedule", "0 0 0 * * *")
	viper.SetDefault("expiry_schedule", "0 30 0 * * *")
	viper.SetDefault("claim_ttl_days", 90)
	viper.SetDefault("streak_floor", 500000)
	viper.SetDefault("rate_limit_window_sec", 900)
	viper.SetDefault("rate_limit_max_request", 10)
}

// unmarshal reads <confPath>/<name>.yaml into out. Every file shares the
// same viper instance so keys are only unique per file.
func unmarshal(name string, out interface{}) {
	viper.SetConfigName(name)
	viper.AddConfigPath(confPath)
	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {             // Handle errors reading the config file
		panic(fmt.Errorf("Fatal error config file %s: %s \n", name, err))
	}

	err = viper.Unmarshal(out, func(config *mapstructure.DecoderConfig) {
		config.TagName = "yaml"
	})
	if err != nil {
		panic(fmt.Errorf("Fatal error unmarshal config file %s: %s \n", name, err))
	}
}
