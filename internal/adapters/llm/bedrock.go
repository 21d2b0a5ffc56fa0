package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/utils"
	"go.uber.org/zap"
)

// BedrockClient classifies email text using an Amazon Bedrock model
type BedrockClient struct {
	remoteModel
	client        *bedrockruntime.Client
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewBedrockClient creates a new Bedrock client
func NewBedrockClient(ctx context.Context, cfg config.BedrockConfig, logger *zap.Logger, textProcessor *utils.TextProcessor) (*BedrockClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &BedrockClient{
		client:        bedrockruntime.NewFromConfig(awsCfg),
		modelID:       cfg.ModelID,
		maxTokens:     cfg.MaxTokens,
		temperature:   cfg.Temperature,
		topP:          cfg.TopP,
		maxBodySize:   cfg.MaxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

func (c *BedrockClient) isAnthropicModel() bool {
	return strings.Contains(c.modelID, "anthropic")
}

func (c *BedrockClient) isAmazonTitanModel() bool {
	return strings.Contains(c.modelID, "titan")
}

// ClassifyText asks the model for a spam verdict on normalized email text
func (c *BedrockClient) ClassifyText(ctx context.Context, text string) (int, []float64, error) {
	body := c.textProcessor.ProcessText(text, c.maxBodySize)
	prompt := fmt.Sprintf(classifyPrompt, body)

	var payload []byte
	var err error
	switch {
	case c.isAnthropicModel():
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               fmt.Sprintf("\n\nHuman: %s\n\nAssistant:", prompt),
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	case c.isAmazonTitanModel():
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	default:
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal Bedrock payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	responseText, err := c.extractResponseText(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	c.logger.Debug("Bedrock verdict received", zap.String("model_id", c.modelID))

	return parseVerdict(responseText)
}

// extractResponseText pulls the generated text out of the model-specific
// response envelope.
func (c *BedrockClient) extractResponseText(body []byte) (string, error) {
	switch {
	case c.isAnthropicModel():
		var out struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return "", fmt.Errorf("failed to parse Bedrock response: %w", err)
		}
		return out.Completion, nil
	case c.isAmazonTitanModel():
		var out struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return "", fmt.Errorf("failed to parse Bedrock response: %w", err)
		}
		if len(out.Results) == 0 {
			return "", fmt.Errorf("empty response from Bedrock")
		}
		return out.Results[0].OutputText, nil
	default:
		var out struct {
			Generation string `json:"generation"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return "", fmt.Errorf("failed to parse Bedrock response: %w", err)
		}
		return out.Generation, nil
	}
}
