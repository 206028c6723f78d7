package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnvFallsBackToLocal(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvJinaAPIKey, "")
	t.Setenv(EnvOpenAIAPIKey, "")

	emb, err := NewFromEnv()
	require.NoError(t, err)
	defer emb.Close()

	assert.Equal(t, ProviderLocal, emb.Provider())
	assert.Equal(t, LocalDimension, emb.Dimension())
}

func TestNewFromEnvExplicitProvider(t *testing.T) {
	t.Setenv(EnvProvider, "jina")
	t.Setenv(EnvJinaAPIKey, "test-key")

	emb, err := NewFromEnv()
	require.NoError(t, err)
	defer emb.Close()

	assert.Equal(t, ProviderJina, emb.Provider())
	assert.Equal(t, DefaultJinaModel, emb.Model())
}

func TestNewFromEnvExplicitProviderMissingKey(t *testing.T) {
	t.Setenv(EnvProvider, "openai")
	t.Setenv(EnvOpenAIAPIKey, "")

	_, err := NewFromEnv()
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestNewFromEnvUnknownProvider(t *testing.T) {
	t.Setenv(EnvProvider, "quantum")

	_, err := NewFromEnv()
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestNewFromEnvAutoDetectsByKey(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvJinaAPIKey, "")
	t.Setenv(EnvOpenAIAPIKey, "test-key")

	emb, err := NewFromEnv()
	require.NoError(t, err)
	defer emb.Close()

	assert.Equal(t, ProviderOpenAI, emb.Provider())
}

func TestDetectProvider(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvJinaAPIKey, "k")
	t.Setenv(EnvOpenAIAPIKey, "")
	assert.Equal(t, ProviderJina, DetectProvider())

	t.Setenv(EnvProvider, "LOCAL")
	assert.Equal(t, ProviderLocal, DetectProvider())
}

func TestNewWithExplicitConfig(t *testing.T) {
	emb, err := New(Config{Provider: "local", CacheSize: 50})
	require.NoError(t, err)
	defer emb.Close()
	assert.Equal(t, ProviderLocal, emb.Provider())

	_, err = New(Config{Provider: "nope"})
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}
