package config

// ModelConfig represents the configuration for the classification engine
type ModelConfig struct {
	Engine           string
	Path             string
	VectorizerPath   string
	Version          string
	MaxContentLength int
}

// TransformerConfig represents the configuration for the ONNX transformer engine
type TransformerConfig struct {
	BundleDir string
	SeqLen    int
}

// LLMConfig represents the configuration for the LLM engine
type LLMConfig struct {
	Provider string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// SMTPConfig represents the configuration for the SMTP ingestion filter
type SMTPConfig struct {
	Enabled            bool
	ListenAddress      string
	BlockSpam          bool
	SpamHeader         string
	ProbabilityHeader  string
	ConfidenceHeader   string
	RelayEnabled       bool
	RelayAddress       string
	RelayPort          int
	SubjectPrefix      string
	ModifySubject      bool
	WhitelistedDomains []string
}

// GetModel returns the classification engine configuration
func (c *Config) GetModel() ModelConfig {
	return ModelConfig{
		Engine:           c.GetString("model.engine"),
		Path:             c.GetString("model.path"),
		VectorizerPath:   c.GetString("model.vectorizer_path"),
		Version:          c.GetString("model.version"),
		MaxContentLength: c.GetInt("model.max_content_length"),
	}
}

// GetTransformer returns the transformer engine configuration
func (c *Config) GetTransformer() TransformerConfig {
	return TransformerConfig{
		BundleDir: c.GetString("transformer.bundle_dir"),
		SeqLen:    c.GetInt("transformer.seq_len"),
	}
}

// GetLLM returns the LLM engine configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetSMTP returns the SMTP filter configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Enabled:            c.GetBool("smtp.enabled"),
		ListenAddress:      c.GetString("smtp.listen_address"),
		BlockSpam:          c.GetBool("smtp.block_spam"),
		SpamHeader:         c.GetString("smtp.headers.spam"),
		ProbabilityHeader:  c.GetString("smtp.headers.probability"),
		ConfidenceHeader:   c.GetString("smtp.headers.confidence"),
		RelayEnabled:       c.GetBool("smtp.relay.enabled"),
		RelayAddress:       c.GetString("smtp.relay.address"),
		RelayPort:          c.GetInt("smtp.relay.port"),
		SubjectPrefix:      c.GetString("smtp.subject_prefix"),
		ModifySubject:      c.GetBool("smtp.modify_subject"),
		WhitelistedDomains: c.GetStringSlice("smtp.whitelisted_domains"),
	}
}
