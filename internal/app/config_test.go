package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "pgvector", cfg.Vector.Provider)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, devJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 5, cfg.Advisor.TopK)
}

func TestLoadConfigLayersFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
env: production
http:
  addr: ":9000"
  allowed_origins: ["https://hr.example.com"]
database:
  driver: sqlite
  dsn: /tmp/competency.db
auth:
  jwt_secret: from-file
  session_ttl: 2h
vector:
  provider: qdrant
  qdrant:
    url: http://qdrant:6333
    collection: catalog
    vector_dim: 384
`)
	t.Setenv("JWT_SECRET_KEY", "from-env")
	t.Setenv("ADVISOR_TOP_K", "8")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, []string{"https://hr.example.com"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 384, cfg.Vector.Qdrant.VectorDim)
	assert.Equal(t, 8, cfg.Advisor.TopK)
	assert.Equal(t, "ollama", cfg.LLM.Provider, "unset keys keep defaults")
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "production needs a secret", body: "env: production\n", want: "auth.jwt_secret"},
		{name: "sqlite with pgvector", body: "database:\n  driver: sqlite\n", want: "pgvector_requires_postgres"},
		{name: "openai without key", body: "llm:\n  provider: openai\n", want: "llm.openai.api_key"},
		{name: "unknown driver", body: "database:\n  driver: mysql\n", want: "database.driver"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET_KEY", "")
			_, err := LoadConfig(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
