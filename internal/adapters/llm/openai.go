package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/utils"
	"go.uber.org/zap"
)

// OpenAIClient classifies email text using an OpenAI chat model
type OpenAIClient struct {
	remoteModel
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(cfg config.OpenAIConfig, logger *zap.Logger, textProcessor *utils.TextProcessor) *OpenAIClient {
	return &OpenAIClient{
		client:        openai.NewClient(cfg.APIKey),
		modelName:     cfg.ModelName,
		maxTokens:     cfg.MaxTokens,
		temperature:   cfg.Temperature,
		topP:          cfg.TopP,
		maxBodySize:   cfg.MaxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// ClassifyText asks the model for a spam verdict on normalized email text
func (c *OpenAIClient) ClassifyText(ctx context.Context, text string) (int, []float64, error) {
	body := c.textProcessor.ProcessText(text, c.maxBodySize)
	prompt := fmt.Sprintf(classifyPrompt, body)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a spam detection system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, nil, fmt.Errorf("empty response from OpenAI")
	}

	c.logger.Debug("OpenAI verdict received",
		zap.String("model", c.modelName),
		zap.String("request_id", resp.ID))

	return parseVerdict(resp.Choices[0].Message.Content)
}
