package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/dialogue"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", conf.Server.Addr)
	assert.Equal(t, StoreMemory, conf.Store.Driver)
	assert.Equal(t, RetrieverNone, conf.Retriever.Driver)
	assert.Equal(t, dialogue.DefaultPrompts(), conf.Dialogue.Prompts)
	assert.Equal(t, "Turkish", conf.Dialogue.Lang)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  read_timeout: 3s
  corpus_id: incentives-2025
store:
  driver: sqlite
  path: /tmp/intake.db
retriever:
  driver: sqlite
  path: /tmp/intake.db
intent:
  keywords: [teşvik, yatırım]
dialogue:
  lang: English
  prompts:
    province: "Which province?"
log:
  level: debug
`)
	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", conf.Server.Addr)
	assert.Equal(t, 3*time.Second, conf.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, conf.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, "incentives-2025", conf.Server.CorpusID)
	assert.Equal(t, StoreSQLite, conf.Store.Driver)
	assert.Equal(t, RetrieverConfig{Driver: RetrieverSQLite, Path: "/tmp/intake.db"}, conf.Retriever)
	assert.Equal(t, []string{"teşvik", "yatırım"}, conf.Intent.Keywords)
	assert.Equal(t, "Which province?", conf.Dialogue.Prompts.Province)
	assert.Equal(t, dialogue.DefaultPrompts().Sector, conf.Dialogue.Prompts.Sector)

	level, err := conf.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "llm:\n  model: from-file\n")
	t.Setenv("INTAKE_LLM__API_KEY", "sk-test")
	t.Setenv("INTAKE_LLM__MODEL", "from-env")
	t.Setenv("INTAKE_STORE__DRIVER", "lru")

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", conf.LLM.APIKey)
	assert.Equal(t, "from-env", conf.LLM.Model)
	assert.Equal(t, StoreLRU, conf.Store.Driver)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "store:\n  driver: redis\n"))
	assert.ErrorContains(t, err, "unknown store.driver")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "empty addr", mutate: func(c *Config) { c.Server.Addr = "" }, wantErr: "server.addr"},
		{name: "lru size", mutate: func(c *Config) { c.Store.Driver = StoreLRU; c.Store.LRUSize = 0 }, wantErr: "lru_size"},
		{name: "sqlite path", mutate: func(c *Config) { c.Store.Driver = StoreSQLite; c.Store.Path = "" }, wantErr: "store.path"},
		{name: "retriever driver", mutate: func(c *Config) { c.Retriever.Driver = "elastic" }, wantErr: "unknown retriever.driver"},
		{name: "retriever path", mutate: func(c *Config) { c.Retriever.Driver = RetrieverSQLite; c.Retriever.Path = "" }, wantErr: "retriever.path"},
		{name: "sqlite retriever", mutate: func(c *Config) { c.Retriever.Driver = RetrieverSQLite }},
		{name: "top k", mutate: func(c *Config) { c.LLM.TopK = 0 }, wantErr: "llm.top_k"},
		{name: "model intent without key", mutate: func(c *Config) { c.Intent.UseModel = true }, wantErr: "intent.use_model"},
		{name: "log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := Default()
			tt.mutate(&conf)
			err := conf.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
