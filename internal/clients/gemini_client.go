package clients

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const geminiProvider = "gemini"

type geminiClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// GeminiOptions configures the Gemini caption client.
type GeminiOptions struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewGeminiClient builds a caption client on top of the Gemini API.
func NewGeminiClient(ctx context.Context, opts GeminiOptions, logger *zap.Logger) (CaptionClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.APIKey == "" {
		return nil, newNotConfiguredError(geminiProvider, "api key not configured")
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, newTransportError(geminiProvider, err)
	}
	return &geminiClient{client: client, model: opts.Model, logger: logger}, nil
}

func (c *geminiClient) GenerateCaption(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: 80,
	})
	if err != nil {
		return "", newTransportError(geminiProvider, err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", newProviderError(geminiProvider, "empty completion")
	}
	c.logger.Debug("caption generated", zap.String("model", c.model), zap.Int("length", len(text)))
	return text, nil
}
