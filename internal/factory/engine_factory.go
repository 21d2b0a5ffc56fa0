// Package factory builds the configurable pieces of the service: the
// classification engine behind the registry and the result cache.
package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/adapters/bayes"
	"github.com/spamsift/spamsift/internal/adapters/llm"
	"github.com/spamsift/spamsift/internal/adapters/onnx"
	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/core"
	"github.com/spamsift/spamsift/internal/registry"
	"github.com/spamsift/spamsift/internal/utils"
)

// EngineFactory creates the model registry for the configured engine
type EngineFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewEngineFactory creates a new engine factory
func NewEngineFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *EngineFactory {
	return &EngineFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateRegistry creates a registry whose load function builds the artifact
// pair for the configured engine.
func (f *EngineFactory) CreateRegistry() (*registry.Registry, error) {
	modelCfg := f.cfg.GetModel()

	load, opts, err := f.loadFunc(modelCfg)
	if err != nil {
		return nil, err
	}
	return registry.New(load, f.logger, opts), nil
}

func (f *EngineFactory) loadFunc(modelCfg config.ModelConfig) (registry.LoadFunc, registry.Options, error) {
	opts := registry.Options{
		ModelPath:      modelCfg.Path,
		VectorizerPath: modelCfg.VectorizerPath,
		Version:        modelCfg.Version,
		Engine:         modelCfg.Engine,
	}

	switch modelCfg.Engine {
	case "bayes":
		load := func(_ context.Context) (core.Vectorizer, core.Model, error) {
			vectorizer, err := bayes.LoadVectorizer(modelCfg.VectorizerPath)
			if err != nil {
				return nil, nil, err
			}
			model, err := bayes.LoadModel(modelCfg.Path)
			if err != nil {
				return nil, nil, err
			}
			return vectorizer, model, nil
		}
		return load, opts, nil

	case "transformer":
		transformerCfg := f.cfg.GetTransformer()
		opts.ModelPath = transformerCfg.BundleDir
		opts.VectorizerPath = transformerCfg.BundleDir
		load := func(_ context.Context) (core.Vectorizer, core.Model, error) {
			tokenizer, classifier, err := onnx.LoadBundle(transformerCfg.BundleDir, transformerCfg.SeqLen, f.logger)
			if err != nil {
				return nil, nil, err
			}
			return tokenizer, classifier, nil
		}
		return load, opts, nil

	case "llm":
		provider := f.cfg.GetLLM().Provider
		opts.ModelPath = provider
		opts.VectorizerPath = ""
		load := func(ctx context.Context) (core.Vectorizer, core.Model, error) {
			model, err := f.createLLMClient(ctx, provider)
			if err != nil {
				return nil, nil, &core.ModelLoadError{Path: provider, Cause: err}
			}
			return llm.NewTextVectorizer(), model, nil
		}
		return load, opts, nil

	default:
		return nil, opts, fmt.Errorf("unsupported classification engine: %s", modelCfg.Engine)
	}
}

// createLLMClient creates the remote model client for the configured provider.
func (f *EngineFactory) createLLMClient(ctx context.Context, provider string) (core.Model, error) {
	switch provider {
	case "openai":
		return llm.NewOpenAIClient(f.cfg.GetOpenAI(), f.logger, f.textProcessor), nil
	case "bedrock":
		return llm.NewBedrockClient(ctx, f.cfg.GetBedrock(), f.logger, f.textProcessor)
	case "gemini":
		return llm.NewGeminiClient(ctx, f.cfg.GetGemini(), f.logger, f.textProcessor)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
