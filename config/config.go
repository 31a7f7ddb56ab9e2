// Package config loads the engine's ambient tunables — tool-call timeouts,
// BFS queue limits, the default state namespace, and log formatting — from
// environment variables layered over built-in defaults, the way the
// teacher's pkg/config layers koanf providers.
package config

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"

	"github.com/graphflow/engine/logger"
)

// Config holds engine-wide runtime tunables. No other package reads
// Config; each value takes effect only where a caller passes it on.
type Config struct {
	// ToolCallTimeout is the time limit setting for a single
	// ToolExecutor.Invoke call.
	ToolCallTimeout time.Duration `koanf:"tool_call_timeout"`
	// CodeCallTimeout is the time limit setting for a single
	// CodeExecutor.Run call.
	CodeCallTimeout time.Duration `koanf:"code_call_timeout"`
	// MaxQueueSize is the queue-size setting that engine.WithMaxQueueSize
	// accepts.
	MaxQueueSize int `koanf:"max_queue_size"`
	// DefaultNamespace is the StateClient namespace setting.
	DefaultNamespace string          `koanf:"default_namespace"`
	LogLevel         logger.LogLevel `koanf:"log_level"`
}

// Default returns the built-in configuration used when no environment
// overrides are present.
func Default() *Config {
	return &Config{
		ToolCallTimeout:  30 * time.Second,
		CodeCallTimeout:  10 * time.Second,
		MaxQueueSize:     10_000,
		DefaultNamespace: "default",
		LogLevel:         logger.InfoLevel,
	}
}

const envPrefix = "GRAPHFLOW_"

// Load builds a Config by layering the "GRAPHFLOW_*" environment over
// Default(). It is the engine-scoped analogue of the teacher's
// config.Service.Load(ctx, sources...), minus the YAML/CLI layers this
// module has no use for.
func Load(_ context.Context) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")
	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}
	if v, ok := k.Get(envPrefix + "TOOL_CALL_TIMEOUT").(string); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %sTOOL_CALL_TIMEOUT: %w", envPrefix, err)
		}
		cfg.ToolCallTimeout = d
	}
	if v, ok := k.Get(envPrefix + "CODE_CALL_TIMEOUT").(string); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %sCODE_CALL_TIMEOUT: %w", envPrefix, err)
		}
		cfg.CodeCallTimeout = d
	}
	if v, ok := k.Get(envPrefix + "MAX_QUEUE_SIZE").(string); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %sMAX_QUEUE_SIZE: %w", envPrefix, err)
		}
		cfg.MaxQueueSize = n
	}
	if v, ok := k.Get(envPrefix + "DEFAULT_NAMESPACE").(string); ok && v != "" {
		cfg.DefaultNamespace = v
	}
	if v, ok := k.Get(envPrefix + "LOG_LEVEL").(string); ok && v != "" {
		cfg.LogLevel = logger.LogLevel(v)
	}
	if cfg.MaxQueueSize <= 0 {
		return nil, fmt.Errorf("max_queue_size must be positive, got %d", cfg.MaxQueueSize)
	}
	return cfg, nil
}
