// ABOUTME: Shared runtime wiring for CLI commands
// ABOUTME: Builds the engine from config: storage, classifier, responder
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/pensive-labs/converse/internal/classify"
	"github.com/pensive-labs/converse/internal/config"
	"github.com/pensive-labs/converse/internal/core"
	"github.com/pensive-labs/converse/internal/llm"
	"github.com/pensive-labs/converse/internal/logging"
	"github.com/pensive-labs/converse/internal/storage"
)

// runtime bundles everything a command needs after wiring
type runtime struct {
	engine *core.Engine
	store  storage.Store
	cfg    *config.Config
}

func (r *runtime) Close() {
	_ = r.store.Close()
}

// newRuntime loads config and wires the full engine. Without an OpenAI key
// the rule-based classifier and a canned responder keep everything working
// offline.
func newRuntime() (*runtime, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logLevel := cfg.LogLevel
	if verbose {
		logLevel = "debug"
	}
	var logOut io.Writer = os.Stderr
	if quiet {
		logOut = io.Discard
	}
	logger := logging.New(logLevel, logOut)
	logging.SetDefault(logger)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Warn("could not create data directory", "dir", cfg.DataDir, "error", err)
	}

	opened, err := storage.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	if opened.Engine == storage.EngineMemory && !quiet {
		fmt.Fprintln(os.Stderr, "Note: running in degraded mode; conversations persist to a flat-file backup only.")
	}

	var backend classify.Backend = classify.NewRuleBackend()
	var responder llm.Responder = &llm.StaticResponder{}
	if cfg.OpenAIKey != "" {
		if b, err := classify.NewOpenAIBackend(cfg.OpenAIKey, cfg.ChatModel); err == nil {
			backend = b
		} else {
			logger.Warn("classifier backend unavailable, using rules", "error", err)
		}
		r, err := llm.NewOpenAIResponder(&llm.ClientConfig{
			APIKey:     cfg.OpenAIKey,
			ChatModel:  cfg.ChatModel,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		})
		if err != nil {
			_ = opened.Store.Close()
			return nil, fmt.Errorf("initializing responder: %w", err)
		}
		responder = r
	} else {
		logger.Debug("OPENAI_API_KEY not set, using offline classifier and canned replies")
	}

	budgets := core.Budgets{
		Fact:        cfg.FactBudget,
		Personality: cfg.PersonalityBudget,
		Emotion:     cfg.EmotionBudget,
		Summary:     cfg.SummaryBudget,
		Knowledge:   cfg.KnowledgeBudget,
		Total:       cfg.TotalBudget,
	}
	adapter := classify.NewAdapter(backend, cfg.ClassifyThreshold)
	engine := core.NewEngine(opened.Store, adapter, responder, budgets, core.Fragments{})

	return &runtime{engine: engine, store: opened.Store, cfg: cfg}, nil
}
