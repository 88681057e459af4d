// Package cache holds the optional Redis layer in front of the access request ledger.
// Every type here degrades to a no-op when Redis is not configured or unreachable.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"accreditdocs/internal/config"
)

const pingTimeout = 5 * time.Second

type metricsHook struct {
	errors *prometheus.CounterVec
}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			h.errors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			h.errors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// ParseOptions accepts either a redis:// URL or a bare host:port.
func ParseOptions(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: addr}, nil
}

// NewClient connects to Redis and registers the redis_errors_total counter on reg.
// It returns nil, and logs why, when the cache is disabled or the server cannot be reached;
// callers continue without a cache in that case.
func NewClient(ctx context.Context, cfg config.RedisConfig, log *zap.Logger, reg prometheus.Registerer) *redis.Client {
	log = log.With(zap.String("component", "cache"))
	if cfg.URL == "" {
		log.Info("redis disabled", zap.String("reason", "REDIS_URL not set"))
		return nil
	}

	opts, err := ParseOptions(cfg.URL)
	if err != nil {
		log.Warn("redis disabled", zap.Error(err))
		return nil
	}

	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Redis command failures, excluding cache misses",
	}, []string{"command"})
	if reg != nil {
		if err := reg.Register(errs); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				log.Warn("redis metrics not registered", zap.Error(err))
			} else if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				errs = existing
			}
		}
	}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{errors: errs})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, continuing without cache", zap.String("addr", opts.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}

	log.Info("redis connected", zap.String("addr", opts.Addr))
	return client
}
