package quick

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/BaSui01/roundtable/config"
	"github.com/BaSui01/roundtable/groupchat"
	"github.com/BaSui01/roundtable/internal/database"
	"github.com/BaSui01/roundtable/internal/metrics"
	"github.com/BaSui01/roundtable/internal/streamstore"
	"github.com/BaSui01/roundtable/sink"
)

// =============================================================================
// 🔌 Sink infrastructure
// =============================================================================

// OpenTranscript connects to the transcript database. sqlite databases get
// their tables created in place; server databases are expected to be migrated
// with `roundtable migrate up`. The returned closer releases the pool.
func OpenTranscript(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger, collector *metrics.Collector) (*sink.Transcript, io.Closer, error) {
	db, err := database.Open(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var popts []database.PoolOption
	if collector != nil {
		popts = append(popts, database.WithMetrics(collector))
	}
	pm, err := database.NewPoolManager(db, database.PoolConfigFrom(cfg), logger, popts...)
	if err != nil {
		return nil, nil, err
	}

	tr, err := sink.NewTranscript(pm, logger)
	if err != nil {
		_ = pm.Close()
		return nil, nil, err
	}
	if cfg.Driver == "sqlite" || cfg.Driver == "sqlite3" {
		if err := tr.AutoMigrate(ctx); err != nil {
			_ = pm.Close()
			return nil, nil, fmt.Errorf("create transcript tables: %w", err)
		}
	}
	return tr, pm, nil
}

// OpenRedisStream connects to Redis and returns a stream publisher. The
// returned closer releases the connection pool.
func OpenRedisStream(cfg config.RedisConfig, logger *zap.Logger) (*sink.RedisStream, io.Closer, error) {
	store, err := streamstore.NewManager(streamstore.ConfigFrom(cfg), logger)
	if err != nil {
		return nil, nil, err
	}
	rs, err := sink.NewRedisStream(store, cfg.TTL, logger)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return rs, store, nil
}

// Closers closes in reverse order and joins the errors.
type Closers []io.Closer

func (c Closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sinks opens the persistent sinks enabled in cfg (database transcript, Redis
// stream) and groups them with extra under one Fanout.
func Sinks(ctx context.Context, cfg *config.Config, logger *zap.Logger, collector *metrics.Collector, extra ...groupchat.Sink) (*sink.Fanout, Closers, error) {
	var closers Closers
	sinks := append([]groupchat.Sink(nil), extra...)

	if cfg.Database.Enabled {
		tr, c, err := OpenTranscript(ctx, cfg.Database, logger, collector)
		if err != nil {
			return nil, nil, fmt.Errorf("transcript sink: %w", err)
		}
		closers = append(closers, c)
		sinks = append(sinks, tr)
	}
	if cfg.Redis.Enabled {
		rs, c, err := OpenRedisStream(cfg.Redis, logger)
		if err != nil {
			_ = closers.Close()
			return nil, nil, fmt.Errorf("redis sink: %w", err)
		}
		closers = append(closers, c)
		sinks = append(sinks, rs)
	}
	return sink.NewFanout(sinks...), closers, nil
}
