package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig 应用基础信息
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

// LumberjackConfig 日志滚动（lumberjack）配置
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig 日志级别与输出配置
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig Prometheus 指标暴露配置
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// RedisConfig 通道值镜像使用的 Redis 配置
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"poolSize"`
	MinIdleConns int           `mapstructure:"minIdleConns"`
	DialTimeout  time.Duration `mapstructure:"dialTimeout"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	KeyPrefix    string        `mapstructure:"keyPrefix"`
	QueueSize    int           `mapstructure:"queueSize"`
}

// LinkConfig 设备链路驱动配置
type LinkConfig struct {
	TickInterval time.Duration `mapstructure:"tickInterval"`
	ContractPath string        `mapstructure:"contractPath"`
}

// RFConfig 433MHz 遥控接收器；事件转发到 ForwardTo 列出的设备
type RFConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Backend       string        `mapstructure:"backend"`
	Device        string        `mapstructure:"device"`
	Baud          int           `mapstructure:"baud"`
	ReadTimeout   time.Duration `mapstructure:"readTimeout"`
	RollingWindow uint32        `mapstructure:"rollingWindow"`
	Learning      bool          `mapstructure:"learning"`
	ForwardTo     []string      `mapstructure:"forwardTo"`
}

// Config 顶层配置结构
type Config struct {
	App     AppConfig      `mapstructure:"app"`
	HTTP    HTTPConfig     `mapstructure:"http"`
	Logging LoggingConfig  `mapstructure:"logging"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
	Redis   RedisConfig    `mapstructure:"redis"`
	Link    LinkConfig     `mapstructure:"link"`
	RF      RFConfig       `mapstructure:"rf"`
	Devices []DeviceConfig `mapstructure:"devices"`
}

// Load 从 YAML/TOML/JSON 文件与环境变量加载配置。
// 若 path 为空，则尝试从环境变量 LBE_CONFIG 读取；否则回退到 configs/example.yaml。
func Load(path string) (*Config, error) {
	v := viper.New()

	// 环境变量覆盖：前缀 LBE_，并将点号替换为下划线
	v.SetEnvPrefix("LBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("example")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 首次运行允许缺少配置文件，依赖默认值与环境变量
		var notFound viper.ConfigFileNotFoundError
		if fmt.Sprintf("%T", err) != fmt.Sprintf("%T", notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	for i := range cfg.Devices {
		cfg.Devices[i].ApplyDefaults()
		if err := cfg.Devices[i].Validate(); err != nil {
			return nil, fmt.Errorf("device[%d] %q: %w", i, cfg.Devices[i].Name, err)
		}
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "lbe-link")
	v.SetDefault("app.env", "dev")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.filename", "logs/lbe-link.log")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.minIdleConns", 2)
	v.SetDefault("redis.dialTimeout", "3s")
	v.SetDefault("redis.readTimeout", "1s")
	v.SetDefault("redis.writeTimeout", "1s")
	v.SetDefault("redis.keyPrefix", "lbe:device:")
	v.SetDefault("redis.queueSize", 1024)

	v.SetDefault("link.tickInterval", "10ms")
	v.SetDefault("link.contractPath", "")

	v.SetDefault("rf.enabled", false)
	v.SetDefault("rf.backend", "generic")
	v.SetDefault("rf.device", "/dev/ttyUSB0")
	v.SetDefault("rf.baud", 115200)
	v.SetDefault("rf.readTimeout", "50ms")
	v.SetDefault("rf.rollingWindow", 16)
}
