// =============================================================================
// RoundTable 主入口
// =============================================================================
// 运行轮询群聊、查看归档转录、执行数据库迁移
//
// 使用方法:
//
//	roundtable run --config chat.yaml            # 运行群聊
//	roundtable run --config chat.yaml --stream   # 以流式消费方式运行
//	roundtable transcript --config chat.yaml     # 列出最近的运行
//	roundtable transcript <run-id>               # 回放一次运行
//	roundtable migrate --config chat.yaml up     # 运行数据库迁移
//	roundtable version                           # 显示版本信息
// =============================================================================

package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/roundtable/config"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runChat(os.Args[2:]))
	case "transcript":
		os.Exit(runTranscript(os.Args[2:]))
	case "migrate":
		os.Exit(runMigrate(os.Args[2:]))
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// loadConfig 加载并验证配置
func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("RoundTable %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`RoundTable - round-robin group chat runner

Usage:
  roundtable <command> [options]

Commands:
  run         Run the configured group chat
  transcript  List archived runs or replay one
  migrate     Transcript database migration commands
  version     Show version information
  help        Show this help message

Options for 'run':
  --config <path>   Path to configuration file (YAML)
  --task <text>     Override the seed task
  --stream          Consume the run as a stream instead of through sinks

Options for 'transcript':
  --config <path>   Path to configuration file (YAML)
  --source <src>    db or redis (default: db when enabled)
  --limit <n>       Number of runs to list (default 20)

Migration subcommands:
  migrate up          Apply all pending migrations
  migrate down        Roll back the last migration
  migrate steps <n>   Apply (n>0) or roll back (n<0) n migrations
  migrate force <v>   Force set migration version
  migrate version     Show current migration version
  migrate status      Show migration status
  migrate info        Show migration summary

Press Ctrl+C once to stop after the current turn, twice to cancel.

Examples:
  roundtable run --config examples/poem.yaml
  ROUNDTABLE_CHAT_TERMINATION_MAX_TURNS=4 roundtable run --config examples/poem.yaml
  roundtable migrate --config prod.yaml up
  roundtable transcript --config prod.yaml 6f1c...`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	logger, err := zapConfig.Build(opts...)
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
