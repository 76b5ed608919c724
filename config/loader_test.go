// 配置加载器与默认配置测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- 默认配置测试 ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// 群聊默认值
	assert.Equal(t, "APPROVE", cfg.Chat.Termination.TextMention)
	assert.Zero(t, cfg.Chat.Termination.MaxTurns)
	assert.Empty(t, cfg.Chat.Participants)
	assert.True(t, cfg.Chat.Termination.HasTermination())

	// 日志默认值
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"stderr"}, cfg.Log.OutputPaths)

	// 指标与遥测默认关闭
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "roundtable", cfg.Metrics.Namespace)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "roundtable", cfg.Telemetry.ServiceName)

	// 数据库与 Redis 默认关闭
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
}

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	// 不指定配置文件，应该返回默认值
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "APPROVE", cfg.Chat.Termination.TextMention)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roundtable.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_LoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
chat:
  task: "review this PR"
  participants:
    - name: writer
      replies: ["draft", "revised draft"]
      latency: 50ms
      timeout: 2s
      max_retries: 2
    - name: critic
      kind: echo
      rate_limit_rps: 1.5
  termination:
    text_mention: LGTM
    max_turns: 6
    sources: [critic]
    timeout: 1m

redis:
  enabled: true
  addr: "redis.example.com:6379"
  db: 1

log:
  level: "debug"
  format: "console"
`)

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "review this PR", cfg.Chat.Task)
	require.Len(t, cfg.Chat.Participants, 2)

	w := cfg.Chat.Participants[0]
	assert.Equal(t, "writer", w.Name)
	assert.Equal(t, []string{"draft", "revised draft"}, w.Replies)
	assert.Equal(t, 50*time.Millisecond, w.Latency)
	assert.Equal(t, 2*time.Second, w.Timeout)
	assert.Equal(t, 2, w.MaxRetries)

	c := cfg.Chat.Participants[1]
	assert.Equal(t, KindEcho, c.Kind)
	assert.Equal(t, 1.5, c.RateLimitRPS)

	term := cfg.Chat.Termination
	assert.Equal(t, "LGTM", term.TextMention)
	assert.Equal(t, 6, term.MaxTurns)
	assert.Equal(t, []string{"critic"}, term.Sources)
	assert.Equal(t, time.Minute, term.Timeout)

	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis.example.com:6379", cfg.Redis.Addr)
	assert.Equal(t, 1, cfg.Redis.DB)
	// 未出现在 YAML 中的字段保留默认值
	assert.Equal(t, "roundtable:run:", cfg.Redis.StreamPrefix)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	assert.NoError(t, cfg.Validate())
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("ROUNDTABLE_CHAT_TASK", "env task")
	t.Setenv("ROUNDTABLE_CHAT_TERMINATION_MAX_TURNS", "4")
	t.Setenv("ROUNDTABLE_CHAT_TERMINATION_TIMEOUT", "30s")
	t.Setenv("ROUNDTABLE_CHAT_TERMINATION_SOURCES", "critic, judge")
	t.Setenv("ROUNDTABLE_TELEMETRY_SAMPLE_RATE", "0.9")
	t.Setenv("ROUNDTABLE_METRICS_ENABLED", "true")
	t.Setenv("ROUNDTABLE_REDIS_MAX_LEN", "500")
	t.Setenv("ROUNDTABLE_LOG_LEVEL", "warn")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "env task", cfg.Chat.Task)
	assert.Equal(t, 4, cfg.Chat.Termination.MaxTurns)
	assert.Equal(t, 30*time.Second, cfg.Chat.Termination.Timeout)
	assert.Equal(t, []string{"critic", "judge"}, cfg.Chat.Termination.Sources)
	assert.Equal(t, 0.9, cfg.Telemetry.SampleRate)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, int64(500), cfg.Redis.MaxLen)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
chat:
  task: "yaml task"
  termination:
    text_mention: "DONE"
log:
  level: debug
`)
	t.Setenv("ROUNDTABLE_CHAT_TASK", "env task")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	// 环境变量应该覆盖 YAML
	assert.Equal(t, "env task", cfg.Chat.Task)
	// YAML 值应该保留
	assert.Equal(t, "DONE", cfg.Chat.Termination.TextMention)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_CHAT_TASK", "custom prefix")

	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)
	assert.Equal(t, "custom prefix", cfg.Chat.Task)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("ROUNDTABLE_CHAT_TERMINATION_TIMEOUT", "soon")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROUNDTABLE_CHAT_TERMINATION_TIMEOUT")
}

func TestLoader_WithValidator(t *testing.T) {
	_, err := NewLoader().
		WithValidator(func(c *Config) error { return c.Validate() }).
		Load()
	assert.Error(t, err, "defaults have no participants")
}

func TestLoader_NonExistentFile(t *testing.T) {
	// 指定不存在的文件，应该使用默认值（不报错）
	cfg, err := NewLoader().
		WithConfigPath("/non/existent/path/roundtable.yaml").
		Load()
	require.NoError(t, err)
	assert.Equal(t, "APPROVE", cfg.Chat.Termination.TextMention)
}

func TestLoader_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `
chat:
  participants: [invalid
  this is not valid yaml
`)

	_, err := NewLoader().WithConfigPath(path).Load()
	assert.Error(t, err)
}

// --- Config 方法测试 ---

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Chat.Participants = []ParticipantConfig{
		{Name: "writer", Replies: []string{"draft"}},
		{Name: "critic", Kind: KindEcho},
	}
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:    "no participants",
			modify:  func(c *Config) { c.Chat.Participants = nil },
			wantErr: "at least one participant",
		},
		{
			name:    "empty name",
			modify:  func(c *Config) { c.Chat.Participants[0].Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "reserved name",
			modify:  func(c *Config) { c.Chat.Participants[0].Name = "user" },
			wantErr: "reserved",
		},
		{
			name:    "duplicate name",
			modify:  func(c *Config) { c.Chat.Participants[1].Name = "writer" },
			wantErr: "duplicate",
		},
		{
			name:    "unknown kind",
			modify:  func(c *Config) { c.Chat.Participants[0].Kind = "oracle" },
			wantErr: "unknown kind",
		},
		{
			name:    "negative retries",
			modify:  func(c *Config) { c.Chat.Participants[0].MaxRetries = -1 },
			wantErr: "max_retries",
		},
		{
			name:    "negative max turns",
			modify:  func(c *Config) { c.Chat.Termination.MaxTurns = -1 },
			wantErr: "max_turns",
		},
		{
			name:    "bad log format",
			modify:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log format",
		},
		{
			name:    "sample rate out of range",
			modify:  func(c *Config) { c.Telemetry.SampleRate = 1.5 },
			wantErr: "sample_rate",
		},
		{
			name: "unsupported database driver",
			modify: func(c *Config) {
				c.Database.Enabled = true
				c.Database.Driver = "oracle"
			},
			wantErr: "database driver",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTerminationConfig_HasTermination(t *testing.T) {
	assert.False(t, TerminationConfig{}.HasTermination(), "zero value disables every condition")
	assert.True(t, TerminationConfig{MaxTurns: 1}.HasTermination())
	assert.True(t, TerminationConfig{Sources: []string{"a"}}.HasTermination())
	assert.True(t, TerminationConfig{Timeout: time.Second}.HasTermination())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name: "postgres DSN",
			config: DatabaseConfig{
				Driver:   "postgres",
				Host:     "localhost",
				Port:     5432,
				User:     "user",
				Password: "pass",
				Name:     "dbname",
				SSLMode:  "disable",
			},
			expected: "host=localhost port=5432 user=user password=pass dbname=dbname sslmode=disable",
		},
		{
			name: "mysql DSN",
			config: DatabaseConfig{
				Driver:   "mysql",
				Host:     "localhost",
				Port:     3306,
				User:     "user",
				Password: "pass",
				Name:     "dbname",
			},
			expected: "user:pass@tcp(localhost:3306)/dbname?parseTime=true",
		},
		{
			name:     "sqlite DSN",
			config:   DatabaseConfig{Driver: "sqlite", Name: "/path/to/db.sqlite"},
			expected: "/path/to/db.sqlite",
		},
		{
			name:     "unknown driver",
			config:   DatabaseConfig{Driver: "unknown"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.DSN())
		})
	}
}

// --- MustLoad 测试 ---

func TestMustLoad_Success(t *testing.T) {
	path := writeConfig(t, "chat:\n  task: hello\n")

	assert.NotPanics(t, func() {
		cfg := MustLoad(path)
		assert.Equal(t, "hello", cfg.Chat.Task)
	})
}

func TestMustLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml")

	assert.Panics(t, func() {
		MustLoad(path)
	})
}
