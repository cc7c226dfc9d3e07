package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	outputDirEnv     = "OUTPUT_DIR"
	portEnv          = "PORT"
	geminiAPIKeysEnv = "GEMINI_API_KEYS"
	openAIAPIKeyEnv  = "OPENAI_API_KEY"
	archiveURLEnv    = "AUTO_STT_API_URL"
	archiveKeyEnv    = "AUTO_STT_API_KEY"
	awsRegionEnv     = "AWS_REGION"
	azureKeyEnv      = "AZURE_SPEECH_API_KEY"
)

// Load reads the YAML file at path, applies environment overrides and validates the result
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(outputDirEnv); v != "" {
		c.Paths.Output = v
	}
	if v := os.Getenv(portEnv); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := os.Getenv(geminiAPIKeysEnv); v != "" && c.Summarizer.Provider != "openai" {
		c.Summarizer.APIKeys = splitList(v)
	}
	if v := os.Getenv(openAIAPIKeyEnv); v != "" && c.Summarizer.Provider == "openai" {
		c.Summarizer.APIKeys = []string{v}
	}
	if v := os.Getenv(archiveURLEnv); v != "" {
		c.Publisher.HTTP.URL = v
	}
	if v := os.Getenv(archiveKeyEnv); v != "" {
		c.Publisher.HTTP.APIKey = v
	}
	if v := os.Getenv(azureKeyEnv); v != "" {
		c.Transcription.Azure.APIKey = v
	}
	if v := os.Getenv(awsRegionEnv); v != "" {
		if c.Transcription.Amazon.Region == "" {
			c.Transcription.Amazon.Region = v
		}
		if c.Publisher.S3.Region == "" {
			c.Publisher.S3.Region = v
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
