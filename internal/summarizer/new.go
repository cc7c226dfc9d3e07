package summarizer

import (
	"fmt"
	"sync"

	"github.com/nguyentantai21042004/announce-flow/internal/config"
	"github.com/nguyentantai21042004/announce-flow/internal/logger"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type implGemini struct {
	apiKeys []string
	baseURL string
	model   string
	prompt  *Prompt
	logger  logger.Logger

	mu         sync.Mutex
	currentKey int
}

// NewGemini creates a Summarizer that rotates through the supplied Gemini API keys.
// An empty baseURL uses the public Gemini endpoint.
func NewGemini(apiKeys []string, baseURL, model string, prompt *Prompt, log logger.Logger) Summarizer {
	return &implGemini{
		apiKeys: apiKeys,
		baseURL: baseURL,
		model:   model,
		prompt:  prompt,
		logger:  log,
	}
}

type implOpenAI struct {
	client *openai.Client
	model  string
	prompt *Prompt
	logger logger.Logger
}

// NewOpenAI creates a Summarizer backed by the chat completions API
func NewOpenAI(apiKey, baseURL, model string, prompt *Prompt, log logger.Logger, extra ...option.RequestOption) Summarizer {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)
	client := openai.NewClient(opts...)
	return &implOpenAI{
		client: &client,
		model:  model,
		prompt: prompt,
		logger: log,
	}
}

// New picks the provider named in cfg
func New(cfg config.SummarizerConfig, prompt *Prompt, log logger.Logger) (Summarizer, error) {
	if len(cfg.APIKeys) == 0 {
		return nil, fmt.Errorf("summarizer %s: no API keys configured", cfg.Provider)
	}
	switch cfg.Provider {
	case "gemini":
		return NewGemini(cfg.APIKeys, cfg.BaseURL, cfg.Model, prompt, log), nil
	case "openai":
		return NewOpenAI(cfg.APIKeys[0], cfg.BaseURL, cfg.Model, prompt, log), nil
	}
	return nil, fmt.Errorf("unknown summarizer provider %q", cfg.Provider)
}
