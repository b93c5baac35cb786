package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mathfish/mathfish/internal/benchmark"
	"github.com/mathfish/mathfish/internal/codes"
	"github.com/mathfish/mathfish/internal/config"
	"github.com/mathfish/mathfish/internal/evaluation"
	"github.com/mathfish/mathfish/internal/pkg/errors"
	"github.com/mathfish/mathfish/internal/pkg/logger"
	"github.com/mathfish/mathfish/internal/problems"
	"github.com/mathfish/mathfish/internal/taxonomy"
)

// providerOrder is the canonical ordering for provider construction
// and result reporting.
var providerOrder = []string{"google", "openai", "anthropic"}

// ProvidersFromConfig builds the requested providers in canonical
// order. An empty names list selects every provider.
func ProvidersFromConfig(cfg *config.Config, names []string) ([]Provider, error) {
	requested := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		switch name {
		case "google", "openai", "anthropic":
			requested[name] = true
		default:
			return nil, errors.ValidationError(fmt.Sprintf("unknown provider: %s", name))
		}
	}

	var providers []Provider
	for _, name := range providerOrder {
		if len(requested) > 0 && !requested[name] {
			continue
		}
		switch name {
		case "google":
			providers = append(providers, NewGemini(cfg.LLM.GoogleKey, cfg.LLM.GoogleModel, cfg.LLM.RequestTimeout))
		case "openai":
			providers = append(providers, NewOpenAI(cfg.LLM.OpenAIKey, cfg.LLM.OpenAIModel, cfg.LLM.RequestTimeout))
		case "anthropic":
			providers = append(providers, NewAnthropic(cfg.LLM.AnthropicKey, cfg.LLM.AnthropicModel, cfg.LLM.RequestTimeout))
		}
	}
	return providers, nil
}

// Result records one provider's benchmark outcome. A provider that
// failed mid-run carries only the error string.
type Result struct {
	Preds   string            `json:"preds,omitempty"`
	Metrics evaluation.Report `json:"metrics,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Results maps "provider:model" keys to outcomes.
type Results map[string]*Result

// Runner fans one benchmark run out across providers. Providers run
// concurrently; requests within a provider are paced by the configured
// interval.
type Runner struct {
	providers []Provider
	store     *taxonomy.Store
	known     codes.Set
	cache     *ResponseCache
	maxTokens int
	retries   int
	baseDelay time.Duration
	interval  time.Duration
	log       *logger.Logger
}

// NewRunner creates a benchmark runner over the given providers.
func NewRunner(cfg *config.Config, providers []Provider, store *taxonomy.Store, log *logger.Logger) *Runner {
	return &Runner{
		providers: providers,
		store:     store,
		known:     store.StandardIDs(),
		cache:     NewResponseCache(cfg.LLM.CacheSize),
		maxTokens: cfg.LLM.MaxTokens,
		retries:   cfg.LLM.MaxRetries,
		baseDelay: cfg.LLM.RetryBaseDelay,
		interval:  cfg.LLM.RequestInterval,
		log:       log.WithComponent("llm"),
	}
}

// Run benchmarks every provider over the problem set, writes one
// predictions file per provider under outputDir, and scores each
// against the gold labels. A provider failure is recorded in its
// result; only cancellation aborts the whole run.
func (r *Runner) Run(ctx context.Context, probs map[string]*problems.Problem, gold evaluation.LabelSets, outputDir string) (Results, error) {
	pids := make([]string, 0, len(probs))
	for pid := range probs {
		pids = append(pids, pid)
	}
	sort.Strings(pids)

	type outcome struct {
		preds map[string][]string
		err   error
	}
	outcomes := make([]outcome, len(r.providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range r.providers {
		g.Go(func() error {
			preds, err := r.runProvider(gctx, p, probs, pids)
			if err != nil {
				if gctx.Err() != nil {
					return err
				}
				outcomes[i] = outcome{err: err}
				return nil
			}
			outcomes[i] = outcome{preds: preds}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make(Results, len(r.providers))
	for i, p := range r.providers {
		key := p.Name() + ":" + p.Model()
		if outcomes[i].err != nil {
			r.log.Warn("provider failed", "provider", p.Name(), "model", p.Model(), "error", outcomes[i].err)
			results[key] = &Result{Error: outcomes[i].err.Error()}
			continue
		}
		path := filepath.Join(outputDir, fmt.Sprintf("%s_%s.jsonl", p.Name(), p.Model()))
		if err := benchmark.WritePredictions(path, outcomes[i].preds); err != nil {
			return nil, err
		}
		results[key] = &Result{
			Preds:   path,
			Metrics: evaluation.EvaluateAll(benchmark.ToLabelSets(outcomes[i].preds), gold),
		}
	}
	return results, nil
}

func (r *Runner) runProvider(ctx context.Context, p Provider, probs map[string]*problems.Problem, pids []string) (map[string][]string, error) {
	log := r.log.WithProvider(p.Name())
	log.Info("benchmark started", "model", p.Model(), "problems", len(pids))

	limiter := rate.NewLimiter(rate.Every(r.interval), 1)
	preds := make(map[string][]string, len(pids))
	hits := 0
	for _, pid := range pids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prompt := BuildPrompt(r.store, probs[pid])
		response, ok := r.cache.Get(p.Name(), p.Model(), prompt)
		if ok {
			hits++
		} else {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
			req := Request{System: systemPrompt, Prompt: prompt, MaxTokens: r.maxTokens}
			var err error
			response, err = completeWithRetries(ctx, p, req, r.retries, r.baseDelay)
			if err != nil {
				return nil, errors.LLMError(fmt.Sprintf("completing problem %s", pid), err)
			}
			r.cache.Set(p.Name(), p.Model(), prompt, response)
		}

		preds[pid] = FilterKnown(ExtractCodes(response), r.known)
		log.Debug("problem answered", "problem_id", pid, "predicted", len(preds[pid]))
	}

	log.Info("benchmark finished", "model", p.Model(), "cache_hits", hits)
	return preds, nil
}

// WriteResults writes the combined results JSON, creating parent
// directories as needed.
func WriteResults(path string, results Results) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating results directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing results file: %w", err)
	}
	return nil
}
