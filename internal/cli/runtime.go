package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/ppiankov/qforge/internal/cache"
	"github.com/ppiankov/qforge/internal/llm"
	"github.com/ppiankov/qforge/internal/logger"
	"github.com/ppiankov/qforge/internal/metrics"
	"github.com/ppiankov/qforge/internal/model"
	"github.com/ppiankov/qforge/internal/pipeline"
	"github.com/ppiankov/qforge/internal/worker"
)

// runtime is everything a command needs after config is resolved
type runtime struct {
	cfg     *model.Config
	log     *logger.Logger
	runID   string
	metrics *metrics.Metrics
}

// newRuntime loads config, builds the run logger and starts the metrics
// endpoint when one is configured. The endpoint stops with ctx.
func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	base, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()

	rt := &runtime{
		cfg:   cfg,
		log:   base.With("run_id", runID),
		runID: runID,
	}

	if cfg.Metrics.Addr != "" {
		rt.metrics = metrics.New()
		go func() {
			if err := rt.metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				rt.log.Error("Metrics endpoint failed", "addr", cfg.Metrics.Addr, "error", err)
			}
		}()
		rt.log.Info("Serving metrics", "addr", cfg.Metrics.Addr)
	}

	return rt, nil
}

func (rt *runtime) close() {
	rt.log.Sync()
}

// provider builds the decorated backend: cache, retry, rate limit, metrics
func (rt *runtime) provider() (llm.Provider, error) {
	cfg := rt.cfg
	llmCfg := llm.ConfigFromModel(*cfg)
	if llmCfg.Model == "" {
		return nil, errors.New("no model configured (set llm.model or --model)")
	}
	if llmCfg.APIKey == "" && llmCfg.Provider != "ollama" {
		return nil, fmt.Errorf("no API key for provider %q (set OPENAI_API_KEY or ANTHROPIC_API_KEY)", llmCfg.Provider)
	}

	opts := llm.StackOptions{
		MaxRetries: cfg.LLM.MaxRetries,
		Limiter:    worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		Metrics:    rt.metrics,
	}
	if cfg.Cache.Enabled {
		opts.Cache = cache.New(cfg.Cache.Dir, cfg.Cache.MemoryTTL, cfg.Cache.DiskTTL)
		opts.CacheTTL = cfg.Cache.DiskTTL
	}

	p, err := llm.NewStack(llmCfg, opts)
	if err != nil {
		return nil, err
	}
	rt.log.Info("Backend ready",
		"provider", p.Name(),
		"model", cfg.LLM.Model,
		"verification_model", cfg.LLM.VerificationModel,
		"cache", cfg.Cache.Enabled,
		"rps", cfg.RateLimit.RequestsPerSecond)
	return p, nil
}

func (rt *runtime) generator(p llm.Provider, store pipeline.RecordWriter) *pipeline.Generator {
	return pipeline.NewGenerator(pipeline.GeneratorConfig{
		Provider:              p,
		Model:                 rt.cfg.LLM.Model,
		VerificationModel:     rt.cfg.LLM.VerificationModel,
		VerificationThreshold: rt.cfg.Generation.VerificationThreshold,
		Store:                 store,
		Logger:                rt.log,
		Metrics:               rt.metrics,
	})
}

func banner(title string) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  %s\n", title)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
}
