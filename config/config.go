// Package config loads the service configuration: defaults, then an optional
// YAML file, then INTAKE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/dialogue"
)

// EnvPrefix marks environment overrides. Nested keys are separated by a
// double underscore: INTAKE_LLM__API_KEY sets llm.api_key.
const EnvPrefix = "INTAKE_"

const (
	StoreMemory = "memory"
	StoreLRU    = "lru"
	StoreSQLite = "sqlite"
)

// Retriever drivers.
const (
	RetrieverNone   = "none"
	RetrieverSQLite = "sqlite"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	LLM       LLMConfig       `koanf:"llm"`
	Store     StoreConfig     `koanf:"store"`
	Retriever RetrieverConfig `koanf:"retriever"`
	Intent    IntentConfig    `koanf:"intent"`
	Dialogue  DialogueConfig  `koanf:"dialogue"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	// CorpusID is used when a request names no corpus.
	CorpusID string `koanf:"corpus_id"`
}

type LLMConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	TopK    int    `koanf:"top_k"`
}

type StoreConfig struct {
	Driver  string `koanf:"driver"`
	Path    string `koanf:"path"`
	LRUSize int    `koanf:"lru_size"`
}

// RetrieverConfig selects where answers find their documents. The sqlite
// driver searches the incentive_documents table of the database at Path,
// which may be the session database.
type RetrieverConfig struct {
	Driver string `koanf:"driver"`
	Path   string `koanf:"path"`
}

type IntentConfig struct {
	UseModel bool     `koanf:"use_model"`
	Keywords []string `koanf:"keywords"`
}

type DialogueConfig struct {
	Lang                string           `koanf:"lang"`
	CollectionTemplate  string           `koanf:"collection_template"`
	CalculationTemplate string           `koanf:"calculation_template"`
	GeneralTemplate     string           `koanf:"general_template"`
	Prompts             dialogue.Prompts `koanf:"prompts"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		LLM: LLMConfig{
			Model: "gpt-4o-mini",
			TopK:  5,
		},
		Store: StoreConfig{
			Driver:  StoreMemory,
			Path:    "data/intake.db",
			LRUSize: 10000,
		},
		Retriever: RetrieverConfig{
			Driver: RetrieverNone,
			Path:   "data/intake.db",
		},
		Dialogue: DialogueConfig{
			Lang:    "Turkish",
			Prompts: dialogue.DefaultPrompts(),
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (skipped when empty) over the defaults and applies the
// environment on top.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	conf := Default()
	if err := k.Unmarshal("", &conf); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	conf.Dialogue.Prompts = conf.Dialogue.Prompts.WithDefaults()
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &conf, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StoreLRU:
		if c.Store.LRUSize <= 0 {
			errs = append(errs, errors.New("store.lru_size must be positive"))
		}
	case StoreSQLite:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	switch c.Retriever.Driver {
	case RetrieverNone:
	case RetrieverSQLite:
		if c.Retriever.Path == "" {
			errs = append(errs, errors.New("retriever.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown retriever.driver %q", c.Retriever.Driver))
	}
	if c.LLM.TopK <= 0 {
		errs = append(errs, errors.New("llm.top_k must be positive"))
	}
	if c.LLM.APIKey != "" && c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required when llm.api_key is set"))
	}
	if c.Intent.UseModel && c.LLM.APIKey == "" {
		errs = append(errs, errors.New("intent.use_model needs llm.api_key"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses log.level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log.level %q: %w", l.Level, err)
	}
	return level, nil
}
