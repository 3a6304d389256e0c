package llm

import (
	"context"
	"fmt"
	"time"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/pipewise/sqlforge/pkg/prompts"
	"github.com/pipewise/sqlforge/pkg/retry"
)

// AnthropicGenerator generates SQL candidates through the Anthropic
// Messages API.
type AnthropicGenerator struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

// AnthropicConfig holds configuration for creating an Anthropic generator.
type AnthropicConfig struct {
	Model     string // Model name, e.g., "claude-sonnet-4-5-20250929"
	APIKey    string
	MaxTokens int // Completion token cap (default: 2000)
}

// NewAnthropicGenerator creates a generator backed by the Anthropic API.
func NewAnthropicGenerator(cfg *AnthropicConfig, logger *zap.Logger) (*AnthropicGenerator, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	maxTokens := cfg.MaxTokens
	if maxTokens < 1 {
		maxTokens = 2000
	}

	return &AnthropicGenerator{
		client:    anthropic.NewClient(cfg.APIKey),
		model:     cfg.Model,
		maxTokens: maxTokens,
		logger:    logger.Named("llm-anthropic"),
	}, nil
}

// GenerateSQL produces a single SQL candidate for the question.
func (g *AnthropicGenerator) GenerateSQL(ctx context.Context, question, schemaContext, guidance string) (string, error) {
	prompt := prompts.BuildGenerationPrompt(question, schemaContext, guidance)

	g.logger.Debug("generation request",
		zap.String("model", g.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Bool("has_guidance", guidance != ""))

	start := time.Now()

	resp, err := retry.DoWithResult(ctx, nil, func() (anthropic.MessagesResponse, error) {
		r, callErr := g.client.CreateMessages(ctx, anthropic.MessagesRequest{
			Model:     anthropic.Model(g.model),
			System:    prompts.GenerationSystemMessage,
			MaxTokens: g.maxTokens,
			Messages: []anthropic.Message{
				anthropic.NewUserTextMessage(prompt),
			},
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

	content := firstTextBlock(resp)
	if content == "" {
		return "", fmt.Errorf("no text content in response")
	}

	g.logger.Info("generation request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return ExtractSQL(content), nil
}

// Provider implements Generator.
func (g *AnthropicGenerator) Provider() string {
	return "anthropic"
}

// Model implements Generator.
func (g *AnthropicGenerator) Model() string {
	return g.model
}

func firstTextBlock(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}
