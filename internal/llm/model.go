package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sevigo/goframe/embeddings"
	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/sevigo/code-pilot/internal/config"
)

const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"

	defaultOllamaTimeout = 15 * time.Minute
)

var errMissingGeminiKey = errors.New("ai.gemini_api_key is not set (CP_AI_GEMINI_API_KEY)")

// NewGeneratorModel creates the model that answers review, continuation and
// assistant prompts.
func NewGeneratorModel(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llms.Model, error) {
	ai := cfg.AI
	switch ai.LLMProvider {
	case ProviderGemini:
		if ai.GeminiAPIKey == "" {
			return nil, errMissingGeminiKey
		}
		model, err := gemini.New(ctx, gemini.WithModel(ai.GeneratorModel), gemini.WithAPIKey(ai.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini model %s: %w", ai.GeneratorModel, err)
		}
		return model, nil
	case ProviderOllama:
		model, err := ollama.New(
			ollama.WithServerURL(ai.OllamaHost),
			ollama.WithModel(ai.GeneratorModel),
			ollama.WithHTTPClient(ollamaHTTPClient(ai.HTTPTimeout)),
			ollama.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama model %s: %w", ai.GeneratorModel, err)
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", ai.LLMProvider)
	}
}

// NewEmbedder creates the embedder used to index saved reviews for vector search.
func NewEmbedder(ctx context.Context, cfg *config.Config, logger *slog.Logger) (embeddings.Embedder, error) {
	ai := cfg.AI

	var (
		backend embeddings.Embedder
		err     error
	)
	switch ai.EmbedderProvider {
	case ProviderGemini:
		if ai.GeminiAPIKey == "" {
			return nil, errMissingGeminiKey
		}
		backend, err = gemini.New(ctx, gemini.WithEmbeddingModel(ai.EmbedderModel), gemini.WithAPIKey(ai.GeminiAPIKey))
	case ProviderOllama:
		backend, err = ollama.New(
			ollama.WithServerURL(ai.OllamaHost),
			ollama.WithModel(ai.EmbedderModel),
			ollama.WithHTTPClient(ollamaHTTPClient(ai.HTTPTimeout)),
			ollama.WithLogger(logger),
		)
	default:
		return nil, fmt.Errorf("unsupported embedder provider: %s", ai.EmbedderProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s embedder %s: %w", ai.EmbedderProvider, ai.EmbedderModel, err)
	}
	return embeddings.NewEmbedder(backend)
}

// ollamaHTTPClient allows long generations on local hardware; the per-call
// review timeout still applies through the request context.
func ollamaHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultOllamaTimeout
	}
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			MaxIdleConns:        20,
			MaxConnsPerHost:     4,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
