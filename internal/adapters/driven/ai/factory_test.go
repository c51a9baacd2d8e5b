package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryEmpty(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.List())

	_, err := r.Get("openai")
	assert.Error(t, err)
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	e, err := NewOpenAIEmbedding("sk-test", "")
	require.NoError(t, err)

	r.Register(e.Provider(), e)

	got, err := r.Get("openai")
	require.NoError(t, err)
	assert.Same(t, e, got)
	assert.Contains(t, r.List(), "openai")
}

func TestNewFromConfigSkipsUnconfiguredProviders(t *testing.T) {
	r, err := NewFromConfig(Config{})
	require.NoError(t, err)
	assert.Empty(t, r.List())
}

func TestNewFromConfigRegistersOpenAI(t *testing.T) {
	r, err := NewFromConfig(Config{OpenAIAPIKey: "sk-test"})
	require.NoError(t, err)

	e, err := r.Get("openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", e.Provider())
}

func TestNewFromConfigRegistersFastEmbedLocalAndRemote(t *testing.T) {
	r, err := NewFromConfig(Config{
		FastEmbedLocalURL:  "http://localhost:8085",
		FastEmbedRemoteURL: "http://fastembed.internal",
	})
	require.NoError(t, err)

	local, err := r.Get("fastembed-local")
	require.NoError(t, err)
	assert.Equal(t, "fastembed-local", local.Provider())

	remote, err := r.Get("fastembed-remote")
	require.NoError(t, err)
	assert.Equal(t, "fastembed-remote", remote.Provider())
}

func TestNewFromConfigRegistersAllConfiguredProviders(t *testing.T) {
	r, err := NewFromConfig(Config{
		OpenAIAPIKey:      "sk-test",
		FastEmbedLocalURL: "http://localhost:8085",
	})
	require.NoError(t, err)

	providers := r.List()
	assert.Len(t, providers, 2)
	assert.Contains(t, providers, "openai")
	assert.Contains(t, providers, "fastembed-local")

	models, err := r.embedders["openai"].ListModels(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, models)
}
