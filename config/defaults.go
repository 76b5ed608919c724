// =============================================================================
// 📦 RoundTable 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// 参与者类型
const (
	KindScripted = "scripted"
	KindEcho     = "echo"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Chat:      DefaultChatConfig(),
		Log:       DefaultLogConfig(),
		Metrics:   DefaultMetricsConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Database:  DefaultDatabaseConfig(),
		Redis:     DefaultRedisConfig(),
	}
}

// DefaultChatConfig 返回默认群聊配置，参与者需由配置文件提供
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		Task:        "Write a short poem about the ocean.",
		Termination: DefaultTerminationConfig(),
		Color:       true,
	}
}

// DefaultTerminationConfig 返回默认终止条件：APPROVE 文本标记
func DefaultTerminationConfig() TerminationConfig {
	return TerminationConfig{
		TextMention: "APPROVE",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Addr:      ":9091",
		Namespace: "roundtable",
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "roundtable",
		SampleRate:   0.1,
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Enabled:         false,
		Driver:          "sqlite",
		Host:            "localhost",
		Port:            5432,
		User:            "roundtable",
		Password:        "",
		Name:            "roundtable.db",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:      false,
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		StreamPrefix: "roundtable:run:",
		MaxLen:       10000,
		TTL:          24 * time.Hour,
	}
}
