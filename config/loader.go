// =============================================================================
// 📦 RoundTable 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("roundtable.yaml").
//	    WithEnvPrefix("ROUNDTABLE").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 RoundTable 的完整配置结构
type Config struct {
	// Chat 群聊配置
	Chat ChatConfig `yaml:"chat" env:"CHAT"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Metrics Prometheus 指标配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Database 转录归档数据库配置
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// Redis 消息流配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`
}

// ChatConfig 群聊配置
type ChatConfig struct {
	// 初始任务（种子消息）
	Task string `yaml:"task" env:"TASK"`
	// 参与者列表，按发言顺序排列（仅支持 YAML）
	Participants []ParticipantConfig `yaml:"participants" env:"-"`
	// 终止条件
	Termination TerminationConfig `yaml:"termination" env:"TERMINATION"`
	// 控制台输出是否带颜色
	Color bool `yaml:"color" env:"COLOR"`
}

// ParticipantConfig 参与者配置
type ParticipantConfig struct {
	// 名称，运行内唯一，不能为 "user"
	Name string `yaml:"name"`
	// 类型: scripted, echo
	Kind string `yaml:"kind"`
	// 脚本回复（scripted）
	Replies []string `yaml:"replies"`
	// 脚本用完后是否循环
	Cycle bool `yaml:"cycle"`
	// 每轮模拟延迟
	Latency time.Duration `yaml:"latency"`
	// 单轮超时，0 表示不限制
	Timeout time.Duration `yaml:"timeout"`
	// 可重试错误的最大重试次数
	MaxRetries int `yaml:"max_retries"`
	// 每秒最多发言次数，0 表示不限制
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
}

// TerminationConfig 终止条件配置，各条件之间为 OR 关系
type TerminationConfig struct {
	// 文本标记，为空表示不启用
	TextMention string `yaml:"text_mention" env:"TEXT_MENTION"`
	// 仅在这些发言者的消息中匹配文本标记
	TextMentionSources []string `yaml:"text_mention_sources" env:"TEXT_MENTION_SOURCES"`
	// 最大发言数（不含种子消息），第 max_turns+1 条消息后终止；0 表示不启用
	MaxTurns int `yaml:"max_turns" env:"MAX_TURNS"`
	// 这些发言者发言后终止
	Sources []string `yaml:"sources" env:"SOURCES"`
	// 运行时长上限，0 表示不启用
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// /metrics 监听地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 指标命名空间
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 是否写入转录归档
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 驱动类型: postgres, mysql, sqlite
	Driver string `yaml:"driver" env:"DRIVER"`
	// 主机
	Host string `yaml:"host" env:"HOST"`
	// 端口
	Port int `yaml:"port" env:"PORT"`
	// 用户名
	User string `yaml:"user" env:"USER"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库名（sqlite 为文件路径）
	Name string `yaml:"name" env:"NAME"`
	// SSL 模式
	SSLMode string `yaml:"ssl_mode" env:"SSL_MODE"`
	// 最大连接数
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	// 最大空闲连接
	MaxIdleConns int `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	// 连接最大生命周期
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 是否发布消息流
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最小空闲连接
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	// Stream key 前缀
	StreamPrefix string `yaml:"stream_prefix" env:"STREAM_PREFIX"`
	// 单个 stream 的近似最大长度，0 表示不裁剪
	MaxLen int64 `yaml:"max_len" env:"MAX_LEN"`
	// 运行结束后 stream 的保留时间，0 表示永久
	TTL time.Duration `yaml:"ttl" env:"TTL"`
	// 是否使用 TLS 连接
	TLS bool `yaml:"tls" env:"TLS"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "ROUNDTABLE",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// 获取 env tag
		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		// 获取环境变量值
		envValue, ok := os.LookupEnv(envKey)
		if !ok || envValue == "" {
			continue
		}

		// 设置字段值
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	// 验证参与者
	if len(c.Chat.Participants) == 0 {
		errs = append(errs, "at least one participant is required")
	}
	seen := make(map[string]bool, len(c.Chat.Participants))
	for i, p := range c.Chat.Participants {
		switch {
		case p.Name == "":
			errs = append(errs, fmt.Sprintf("participant %d: name is required", i))
		case p.Name == "user":
			errs = append(errs, fmt.Sprintf("participant %d: name %q is reserved", i, p.Name))
		case seen[p.Name]:
			errs = append(errs, fmt.Sprintf("participant %d: duplicate name %q", i, p.Name))
		}
		seen[p.Name] = true

		switch p.Kind {
		case "", KindScripted, KindEcho:
		default:
			errs = append(errs, fmt.Sprintf("participant %q: unknown kind %q", p.Name, p.Kind))
		}
		if p.Timeout < 0 || p.Latency < 0 {
			errs = append(errs, fmt.Sprintf("participant %q: durations must not be negative", p.Name))
		}
		if p.MaxRetries < 0 {
			errs = append(errs, fmt.Sprintf("participant %q: max_retries must not be negative", p.Name))
		}
		if p.RateLimitRPS < 0 {
			errs = append(errs, fmt.Sprintf("participant %q: rate_limit_rps must not be negative", p.Name))
		}
	}

	// 验证终止条件
	if c.Chat.Termination.MaxTurns < 0 {
		errs = append(errs, "termination.max_turns must not be negative (0 disables it)")
	}
	if c.Chat.Termination.Timeout < 0 {
		errs = append(errs, "termination.timeout must not be negative")
	}

	// 验证日志配置
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}

	// 验证遥测配置
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry.sample_rate must be between 0 and 1")
	}

	// 验证数据库配置
	if c.Database.Enabled && c.Database.DSN() == "" {
		errs = append(errs, fmt.Sprintf("unsupported database driver %q", c.Database.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// HasTermination 报告是否配置了至少一个终止条件
func (t TerminationConfig) HasTermination() bool {
	return t.TextMention != "" || t.MaxTurns > 0 || len(t.Sources) > 0 || t.Timeout > 0
}

// DSN 返回数据库连接字符串
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}
