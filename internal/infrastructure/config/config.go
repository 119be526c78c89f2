package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构
// 使用Viper管理配置，支持YAML文件和环境变量覆盖
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	JWT            JWTConfig            `mapstructure:"jwt"`
	Log            LogConfig            `mapstructure:"log"`
	Auth           AuthConfig           `mapstructure:"auth"`
	PortOne        PortOneConfig        `mapstructure:"portone"`
	Order          OrderConfig          `mapstructure:"order"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	MQ             MQConfig             `mapstructure:"mq"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port          int           `mapstructure:"port"`
	Mode          string        `mapstructure:"mode"` // debug | release | test
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EnableSwagger bool          `mapstructure:"enable_swagger"`
	AllowOrigins  []string      `mapstructure:"allow_origins"` // 为空时不处理跨域
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	Charset         string        `mapstructure:"charset"`
	ParseTime       bool          `mapstructure:"parse_time"`
	Loc             string        `mapstructure:"loc"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN 生成MySQL连接字符串
// loc参数需要URL编码(Asia/Seoul → Asia%2FSeoul)
func (d DatabaseConfig) DSN() string {
	loc := url.QueryEscape(d.Loc)
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.Charset, d.ParseTime, loc)
}

type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr 返回Redis地址
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpire  time.Duration `mapstructure:"access_token_expire"`
	RefreshTokenExpire time.Duration `mapstructure:"refresh_token_expire"`
}

type LogConfig struct {
	Level        string `mapstructure:"level"`  // debug | info | warn | error
	Format       string `mapstructure:"format"` // console | json
	Output       string `mapstructure:"output"` // stdout | stderr | /path/to/file
	EnableCaller bool   `mapstructure:"enable_caller"`
}

// AuthConfig 注册时命中AdminEmails的账号授予admin角色
type AuthConfig struct {
	AdminEmails []string `mapstructure:"admin_emails"`
}

// PortOneConfig 支付网关配置
type PortOneConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	APISecret string        `mapstructure:"api_secret"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// OrderConfig 订单业务配置
type OrderConfig struct {
	Timezone              string        `mapstructure:"timezone"` // 订单号日期和"今日订单"统计的时区
	FreeShippingThreshold int64         `mapstructure:"free_shipping_threshold"`
	StandardShippingFee   int64         `mapstructure:"standard_shipping_fee"`
	CreateTimeout         time.Duration `mapstructure:"create_timeout"` // 创建订单整体超时
	CacheTTL              time.Duration `mapstructure:"cache_ttl"`      // 订单详情缓存
}

// Location 解析时区
func (o OrderConfig) Location() (*time.Location, error) {
	if o.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(o.Timezone)
}

type CircuitBreakerConfig struct {
	MaxRequests         uint32        `mapstructure:"max_requests"`
	Interval            time.Duration `mapstructure:"interval"`
	Timeout             time.Duration `mapstructure:"timeout"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
}

type MQConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	URL          string `mapstructure:"url"`
	Exchange     string `mapstructure:"exchange"`
	ExchangeType string `mapstructure:"exchange_type"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	Endpoint    string `mapstructure:"endpoint"` // OTLP gRPC，如 localhost:4317
}

// Load 加载配置文件
// 1. 默认加载config/config.yaml
// 2. 通过环境变量STOREFRONT_ENV指定环境(如config.prod.yaml)
// 3. 环境变量覆盖(如STOREFRONT_DATABASE_PASSWORD)
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetConfigName("config")
	if env := v.GetString("env"); env != "" {
		v.SetConfigName("config." + env)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return decode(v)
}

// LoadFile 从指定路径加载配置
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.loc", "Local")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("portone.base_url", "https://api.iamport.kr")
	v.SetDefault("portone.timeout", 10*time.Second)
	v.SetDefault("order.timezone", "UTC")
	v.SetDefault("order.free_shipping_threshold", 50000)
	v.SetDefault("order.standard_shipping_fee", 3000)
	v.SetDefault("order.create_timeout", 30*time.Second)
	v.SetDefault("order.cache_ttl", 10*time.Minute)
	v.SetDefault("circuit_breaker.max_requests", 1)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.consecutive_failures", 5)
	v.SetDefault("mq.exchange", "storefront.events")
	v.SetDefault("mq.exchange_type", "topic")
	v.SetDefault("tracing.service_name", "storefront-api")
	v.SetDefault("tracing.endpoint", "localhost:4317")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate 配置校验
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的服务端口: %d", cfg.Server.Port)
	}

	if cfg.JWT.Secret == "your-secret-key-change-in-production" && cfg.Server.Mode == "release" {
		return fmt.Errorf("生产环境必须修改JWT密钥")
	}

	if cfg.Server.Mode == "release" && (cfg.PortOne.APIKey == "" || cfg.PortOne.APISecret == "") {
		return fmt.Errorf("生产环境必须配置PortOne密钥")
	}

	if cfg.PortOne.Timeout <= 0 {
		return fmt.Errorf("portone.timeout必须大于0")
	}

	if cfg.Order.FreeShippingThreshold < 0 || cfg.Order.StandardShippingFee < 0 {
		return fmt.Errorf("运费配置不能为负数")
	}

	if _, err := cfg.Order.Location(); err != nil {
		return fmt.Errorf("无效的订单时区 %q: %w", cfg.Order.Timezone, err)
	}

	if cfg.MQ.Enabled && cfg.MQ.URL == "" {
		return fmt.Errorf("启用MQ时必须配置mq.url")
	}

	return nil
}
