package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pipewise/sqlforge/pkg/prompts"
	"github.com/pipewise/sqlforge/pkg/retry"
)

// OpenAIGenerator generates SQL candidates through an OpenAI-compatible
// chat completion endpoint.
type OpenAIGenerator struct {
	client      *openai.Client
	endpoint    string
	model       string
	temperature float64
	logger      *zap.Logger
}

// OpenAIConfig holds configuration for creating an OpenAI generator.
type OpenAIConfig struct {
	Endpoint    string  // Base URL, e.g., "https://api.openai.com/v1"
	Model       string  // Model name, e.g., "gpt-4o"
	APIKey      string  // Optional for local endpoints
	Temperature float64 // Sampling temperature, 0 for deterministic output
}

// NewOpenAIGenerator creates a generator backed by an OpenAI-compatible endpoint.
func NewOpenAIGenerator(cfg *OpenAIConfig, logger *zap.Logger) (*OpenAIGenerator, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(clientConfig),
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger.Named("llm-openai"),
	}, nil
}

// GenerateSQL produces a single SQL candidate for the question.
// guidance carries feedback from a failed prior attempt and may be empty.
func (g *OpenAIGenerator) GenerateSQL(ctx context.Context, question, schemaContext, guidance string) (string, error) {
	prompt := prompts.BuildGenerationPrompt(question, schemaContext, guidance)

	g.logger.Debug("generation request",
		zap.String("model", g.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Bool("has_guidance", guidance != ""))

	start := time.Now()

	resp, err := retry.DoWithResult(ctx, nil, func() (openai.ChatCompletionResponse, error) {
		r, callErr := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: prompts.GenerationSystemMessage},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: float32(g.temperature),
		})
		if callErr != nil {
			return r, ClassifyError(callErr)
		}
		return r, nil
	})
	if err != nil {
		g.logger.Error("generation request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	g.logger.Info("generation request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return ExtractSQL(resp.Choices[0].Message.Content), nil
}

// Provider implements Generator.
func (g *OpenAIGenerator) Provider() string {
	return "openai"
}

// Model implements Generator.
func (g *OpenAIGenerator) Model() string {
	return g.model
}
