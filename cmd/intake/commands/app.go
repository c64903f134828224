package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/agent"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/config"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/dialogue"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/intent"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/sqlitestore"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

// app holds everything a command needs to run turns.
type app struct {
	conf     *config.Config
	flow     *agent.IntakeFlow
	registry *prometheus.Registry
	closers  []func() error
}

func (a *app) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func loadApp(ctx context.Context, flags *globalFlags) (*app, error) {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	return buildApp(ctx, conf)
}

func buildApp(ctx context.Context, conf *config.Config) (*app, error) {
	level, _ := conf.Log.SlogLevel()
	slog.SetLogLoggerLevel(level)

	a := &app{conf: conf, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, err := a.openStore(conf.Store)
	if err != nil {
		return nil, err
	}
	docs, err := a.openRetriever(conf.Retriever, store)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	prompts := conf.Dialogue.Prompts.WithDefaults()
	local := dialogue.NewLocalGenerator(prompts)
	var recognizer intent.Recognizer = intent.NewLocalRecognizer(conf.Intent.Keywords...)
	var generator dialogue.Generator = local

	if conf.LLM.APIKey != "" {
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:  conf.LLM.APIKey,
			Model:   conf.LLM.Model,
			BaseURL: conf.LLM.BaseURL,
		})
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		rag, err := dialogue.NewRAGGenerator(cm,
			dialogue.WithRetriever(docs),
			dialogue.WithTopK(conf.LLM.TopK),
		)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		generator = dialogue.NewFailbackGenerator(rag, local)
		if conf.Intent.UseModel {
			toolRecognizer, err := intent.NewToolBasedRecognizer(cm)
			if err != nil {
				_ = a.Close()
				return nil, err
			}
			recognizer = intent.NewFailbackRecognizer(recognizer, toolRecognizer)
		}
	} else {
		slog.Warn("No llm.api_key configured, answering with fixed replies")
	}

	composer := dialogue.NewComposer(
		dialogue.WithLang(conf.Dialogue.Lang),
		dialogue.WithCollectionTemplate(conf.Dialogue.CollectionTemplate),
		dialogue.WithCalculationTemplate(conf.Dialogue.CalculationTemplate),
		dialogue.WithGeneralTemplate(conf.Dialogue.GeneralTemplate),
	)
	flow, err := agent.NewIntakeFlow(store, generator,
		agent.WithRecognizer(recognizer),
		agent.WithComposer(composer),
		agent.WithPrompts(prompts),
		agent.WithMetrics(agent.NewMetrics(a.registry)),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.flow = flow
	return a, nil
}

func (a *app) openStore(conf config.StoreConfig) (agent.SessionStore, error) {
	switch conf.Driver {
	case config.StoreLRU:
		core, err := agent.NewLRUCache[[]*types.IntakeSession](conf.LRUSize)
		if err != nil {
			return nil, err
		}
		return agent.NewCacheSessionStore(core), nil
	case config.StoreSQLite:
		s, err := sqlitestore.Open(conf.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		slog.Info("Opened session database", "path", s.Path())
		return s, nil
	default:
		return agent.NewMemorySessionStore(), nil
	}
}

// openRetriever returns nil when answers are not grounded on documents. The
// session database is reused when both live in the same file.
func (a *app) openRetriever(conf config.RetrieverConfig, store agent.SessionStore) (retriever.Retriever, error) {
	if conf.Driver != config.RetrieverSQLite {
		return nil, nil
	}
	if s, ok := store.(*sqlitestore.Store); ok && s.Path() == conf.Path {
		return s.Documents(), nil
	}
	s, err := sqlitestore.Open(conf.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document database: %w", err)
	}
	a.closers = append(a.closers, s.Close)
	slog.Info("Opened document database", "path", s.Path())
	return s.Documents(), nil
}
