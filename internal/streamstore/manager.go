package streamstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/roundtable/config"
	"github.com/BaSui01/roundtable/internal/tlsutil"
)

// =============================================================================
// 💾 Redis Stream 管理器
// =============================================================================

// ErrClosed 管理器已关闭
var ErrClosed = errors.New("stream store is closed")

// Manager 管理 Redis 连接，并提供按运行划分的 stream 读写
type Manager struct {
	redis  *redis.Client
	config Config
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// Config 连接与 stream 配置
type Config struct {
	// Redis 地址
	Addr string `yaml:"addr" json:"addr"`

	// 密码
	Password string `yaml:"password" json:"password"`

	// 数据库编号
	DB int `yaml:"db" json:"db"`

	// 最大重试次数
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// 连接池大小
	PoolSize int `yaml:"pool_size" json:"pool_size"`

	// 最小空闲连接数
	MinIdleConns int `yaml:"min_idle_conns" json:"min_idle_conns"`

	// stream key 前缀
	Prefix string `yaml:"prefix" json:"prefix"`

	// 近似最大长度，0 不裁剪
	MaxLen int64 `yaml:"max_len" json:"max_len"`

	// 健康检查间隔
	HealthCheckInterval time.Duration `yaml:"health_check_interval" json:"health_check_interval"`

	// 是否启用 TLS
	TLS bool `yaml:"tls" json:"tls"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Addr:                "localhost:6379",
		MaxRetries:          3,
		PoolSize:            10,
		MinIdleConns:        2,
		Prefix:              "roundtable:run:",
		MaxLen:              10000,
		HealthCheckInterval: 30 * time.Second,
	}
}

// ConfigFrom 从应用 Redis 配置构建
func ConfigFrom(cfg config.RedisConfig) Config {
	c := DefaultConfig()
	if cfg.Addr != "" {
		c.Addr = cfg.Addr
	}
	c.Password = cfg.Password
	c.DB = cfg.DB
	if cfg.PoolSize > 0 {
		c.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		c.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.StreamPrefix != "" {
		c.Prefix = cfg.StreamPrefix
	}
	c.MaxLen = cfg.MaxLen
	c.TLS = cfg.TLS
	return c
}

// NewManager 连接 Redis 并创建管理器
func NewManager(cfg Config, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}
	if cfg.TLS {
		host, _, err := net.SplitHostPort(cfg.Addr)
		if err != nil {
			host = cfg.Addr
		}
		opts.TLSConfig = tlsutil.ClientConfig(host)
	}
	client := redis.NewClient(opts)

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	m := &Manager{
		redis:  client,
		config: cfg,
		logger: logger.With(zap.String("component", "stream_store")),
		done:   make(chan struct{}),
	}

	// 启动健康检查
	if cfg.HealthCheckInterval > 0 {
		go m.healthCheckLoop()
	}

	m.logger.Info("stream store initialized",
		zap.String("addr", cfg.Addr),
		zap.String("prefix", cfg.Prefix),
		zap.Int("pool_size", cfg.PoolSize),
	)

	return m, nil
}

// =============================================================================
// 🎯 核心方法
// =============================================================================

// Key 返回运行对应的 stream key
func (m *Manager) Key(runID string) string {
	return m.config.Prefix + runID
}

// Append 向运行的 stream 追加一条记录，返回 entry ID
func (m *Manager) Append(ctx context.Context, runID string, values map[string]any) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", ErrClosed
	}

	args := &redis.XAddArgs{
		Stream: m.Key(runID),
		Values: values,
	}
	if m.config.MaxLen > 0 {
		args.MaxLen = m.config.MaxLen
		args.Approx = true
	}

	id, err := m.redis.XAdd(ctx, args).Result()
	if err != nil {
		m.logger.Error("stream append failed", zap.String("run_id", runID), zap.Error(err))
		return "", fmt.Errorf("stream append failed: %w", err)
	}
	return id, nil
}

// Range 按写入顺序读取运行的全部记录
func (m *Manager) Range(ctx context.Context, runID string) ([]redis.XMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	entries, err := m.redis.XRange(ctx, m.Key(runID), "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("stream range failed: %w", err)
	}
	return entries, nil
}

// Expire 设置运行 stream 的过期时间
func (m *Manager) Expire(ctx context.Context, runID string, ttl time.Duration) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}

	if err := m.redis.Expire(ctx, m.Key(runID), ttl).Err(); err != nil {
		return fmt.Errorf("stream expire failed: %w", err)
	}
	return nil
}

// Delete 删除运行的 stream
func (m *Manager) Delete(ctx context.Context, runIDs ...string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}
	if len(runIDs) == 0 {
		return nil
	}

	keys := make([]string, len(runIDs))
	for i, id := range runIDs {
		keys[i] = m.Key(id)
	}
	if err := m.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("stream delete failed: %w", err)
	}
	return nil
}

// Ping 检查 Redis 连接
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}

	return m.redis.Ping(ctx).Err()
}

// Close 关闭管理器
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	close(m.done)
	m.logger.Info("closing stream store")

	return m.redis.Close()
}

// =============================================================================
// 🏥 健康检查
// =============================================================================

// healthCheckLoop 健康检查循环
func (m *Manager) healthCheckLoop() {
	ticker := time.NewTicker(m.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.Ping(ctx); err != nil && !errors.Is(err, ErrClosed) {
			m.logger.Error("stream store health check failed", zap.Error(err))
		} else {
			m.logger.Debug("stream store health check passed")
		}
		cancel()
	}
}
