package driven

import "context"

// Embedder turns text chunks into fixed-dimensional float vectors for a
// specific provider. Variants: fastembed-local, fastembed-remote, openai.
type Embedder interface {
	// ListModels returns the model names this embedder supports.
	ListModels(ctx context.Context) ([]string, error)

	// Dimension returns the vector length produced for model.
	// Fails with domain.ErrModelUnknown if model is not supported.
	Dimension(ctx context.Context, model string) (int, error)

	// Embed returns one vector per chunk, in input order. Fails with an
	// error wrapping domain.ErrEmbedUpstream on transient upstream failure.
	Embed(ctx context.Context, model string, chunks []string) ([][]float32, error)

	// Provider returns the provider tag, e.g. "openai".
	Provider() string
}

// EmbedderRegistry maps a provider tag to its Embedder implementation.
type EmbedderRegistry interface {
	Get(provider string) (Embedder, error)
	Register(provider string, e Embedder)
	List() []string
}
