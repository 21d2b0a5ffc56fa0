package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/core"
	"github.com/spamsift/spamsift/internal/factory"
	"github.com/spamsift/spamsift/internal/fileparse"
	"github.com/spamsift/spamsift/internal/logging"
	"github.com/spamsift/spamsift/internal/utils"
)

var (
	// Engine flags
	engine         = flag.String("engine", "bayes", "Classification engine (bayes, transformer, llm)")
	modelPath      = flag.String("model", "models/spam_model.gob", "Path to the model artifact")
	vectorizerPath = flag.String("vectorizer", "models/vectorizer.gob", "Path to the vectorizer artifact")
	modelVersion   = flag.String("model-version", "dev", "Model version to report")
	maxLength      = flag.Int("max-length", 10000, "Maximum email text length in characters")

	// Transformer flags
	bundleDir = flag.String("bundle", "", "Transformer bundle directory (model.onnx + vocab.txt)")
	seqLen    = flag.Int("seq-len", 256, "Transformer sequence length")

	// LLM flags
	provider     = flag.String("provider", "openai", "LLM provider (openai, bedrock, gemini)")
	openaiAPIKey = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModel  = flag.String("openai-model", "gpt-4o-mini", "OpenAI model name")
	geminiAPIKey = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModel  = flag.String("gemini-model", "gemini-pro", "Gemini model name")
	bedrockRegion = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModel  = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Input flags
	inputFile  = flag.String("file", "", "Input file (.txt, .eml or .pdf; use stdin if neither -file nor -text is given)")
	inputText  = flag.String("text", "", "Email text to classify")
	jsonOutput = flag.Bool("json", false, "Print the full result as JSON")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
	} else {
		cfg = createConfigFromFlags()
	}

	text, err := readInput()
	if err != nil {
		logger.Fatal("Failed to read input", zap.Error(err))
	}

	engineFactory := factory.NewEngineFactory(cfg, logger, utils.NewTextProcessor(logger))
	reg, err := engineFactory.CreateRegistry()
	if err != nil {
		logger.Fatal("Failed to create model registry", zap.Error(err))
	}
	defer reg.Close()

	modelCfg := cfg.GetModel()
	normalizer := core.NewNormalizer(logger)
	predictor := core.NewPredictor(reg, normalizer, logger, modelCfg.MaxContentLength, modelCfg.Version)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	result, err := predictor.Predict(ctx, text)
	if err != nil {
		logger.Fatal("Classification failed", zap.Error(err))
	}

	if *jsonOutput {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			logger.Fatal("Failed to encode result", zap.Error(err))
		}
		fmt.Println(string(out))
	} else {
		fmt.Printf("Is spam: %t\n", result.IsSpam)
		fmt.Printf("Spam probability: %.4f\n", result.SpamProbability)
		fmt.Printf("Ham probability: %.4f\n", result.HamProbability)
		fmt.Printf("Confidence: %.4f\n", result.Confidence)
		fmt.Printf("Model version: %s\n", result.ModelVersion)
		fmt.Printf("Processing time: %.2fms\n", result.ProcessingTimeMs)
	}

	if result.IsSpam {
		os.Exit(1)
	}
}

// readInput resolves the email text from -text, -file or stdin.
func readInput() (string, error) {
	if *inputText != "" {
		return *inputText, nil
	}
	if *inputFile != "" {
		data, err := os.ReadFile(*inputFile)
		if err != nil {
			return "", err
		}
		return fileparse.FromUpload(*inputFile, data)
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("model.engine", *engine)
	v.Set("model.path", *modelPath)
	v.Set("model.vectorizer_path", *vectorizerPath)
	v.Set("model.version", *modelVersion)
	v.Set("model.max_content_length", *maxLength)

	switch *engine {
	case "transformer":
		v.Set("transformer.bundle_dir", *bundleDir)
		v.Set("transformer.seq_len", *seqLen)
	case "llm":
		v.Set("llm.provider", *provider)
		switch *provider {
		case "openai":
			v.Set("openai.api_key", *openaiAPIKey)
			v.Set("openai.model_name", *openaiModel)
		case "gemini":
			v.Set("gemini.api_key", *geminiAPIKey)
			v.Set("gemini.model_name", *geminiModel)
		case "bedrock":
			v.Set("bedrock.region", *bedrockRegion)
			v.Set("bedrock.model_id", *bedrockModel)
		}
	}

	return config.NewFromViper(v)
}
