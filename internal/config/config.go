package config

import (
	"fmt"
	"runtime"
	"time"
)

type Config struct {
	Recorder      RecorderConfig      `yaml:"recorder"`
	Encoder       EncoderConfig       `yaml:"encoder"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Summarizer    SummarizerConfig    `yaml:"summarizer"`
	Publisher     PublisherConfig     `yaml:"publisher"`
	Push          PushConfig          `yaml:"push"`
	Server        ServerConfig        `yaml:"server"`
	Paths         PathsConfig         `yaml:"paths"`
	Logging       LoggingConfig       `yaml:"logging"`
	Orchestrator  OrchestratorConfig  `yaml:"orchestrator"`
}

// RecorderConfig drives the sox capture process and its silence gate.
type RecorderConfig struct {
	BinaryPath string   `yaml:"binary_path"`
	Input      []string `yaml:"input"`
	SampleRate int      `yaml:"sample_rate"`
	Silence    Silence  `yaml:"silence"`
}

// Silence is the start/end gate pair handed to sox's silence effect.
// Durations are in seconds, thresholds are sox amplitude strings like "0.10%".
type Silence struct {
	StartDuration  float64 `yaml:"start_duration"`
	StartThreshold string  `yaml:"start_threshold"`
	EndPeriods     int     `yaml:"end_periods"`
	EndDuration    float64 `yaml:"end_duration"`
	EndThreshold   string  `yaml:"end_threshold"`
}

type EncoderConfig struct {
	BinaryPath string `yaml:"binary_path"`
	Extension  string `yaml:"extension"`
}

type TranscriptionConfig struct {
	Backend     string       `yaml:"backend"`
	Language    string       `yaml:"language"`
	MaxAttempts int          `yaml:"max_attempts"`
	Google      GoogleConfig `yaml:"google"`
	Amazon      AmazonConfig `yaml:"amazon"`
	Azure       AzureConfig  `yaml:"azure"`
}

type GoogleConfig struct {
	Model      string   `yaml:"model"`
	PhraseSets []string `yaml:"phrase_sets"`
}

type AmazonConfig struct {
	Region string `yaml:"region"`
}

type AzureConfig struct {
	Region string `yaml:"region"`
	APIKey string `yaml:"api_key"`
}

type SummarizerConfig struct {
	Provider    string   `yaml:"provider"`
	Model       string   `yaml:"model"`
	PromptPath  string   `yaml:"prompt_path"`
	APIKeys     []string `yaml:"api_keys"`
	BaseURL     string   `yaml:"base_url"`
	MaxAttempts int      `yaml:"max_attempts"`
}

type PublisherConfig struct {
	Kind        string          `yaml:"kind"`
	MaxAttempts int             `yaml:"max_attempts"`
	HTTP        HTTPArchive     `yaml:"http"`
	S3          S3ArchiveConfig `yaml:"s3"`
}

type HTTPArchive struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

type S3ArchiveConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

type PushConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Subject           string `yaml:"subject"`
	VAPIDPath         string `yaml:"vapid_path"`
	SubscriptionsPath string `yaml:"subscriptions_path"`
	Concurrency       int    `yaml:"concurrency"`
	NotifyOnStart     bool   `yaml:"notify_on_start"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type PathsConfig struct {
	Output  string `yaml:"output"`
	Data    string `yaml:"data"`
	Catalog string `yaml:"catalog"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type OrchestratorConfig struct {
	RestartDelay time.Duration `yaml:"restart_delay"`
}

func (c *Config) Validate() error {
	if c.Paths.Output == "" {
		return fmt.Errorf("paths.output is required")
	}
	switch c.Transcription.Backend {
	case "google", "amazon":
	case "azure":
		if c.Transcription.Azure.APIKey == "" {
			return fmt.Errorf("transcription.azure.api_key is required for the azure backend")
		}
	case "":
		return fmt.Errorf("transcription.backend is required")
	default:
		return fmt.Errorf("transcription.backend %q is not supported", c.Transcription.Backend)
	}
	switch c.Summarizer.Provider {
	case "", "gemini", "openai":
	default:
		return fmt.Errorf("summarizer.provider %q is not supported", c.Summarizer.Provider)
	}
	switch c.Publisher.Kind {
	case "", "none":
	case "http":
		if c.Publisher.HTTP.URL == "" || c.Publisher.HTTP.APIKey == "" {
			return fmt.Errorf("publisher.http.url and publisher.http.api_key are required")
		}
	case "s3":
		if c.Publisher.S3.Bucket == "" {
			return fmt.Errorf("publisher.s3.bucket is required")
		}
	default:
		return fmt.Errorf("publisher.kind %q is not supported", c.Publisher.Kind)
	}

	if c.Paths.Data == "" {
		c.Paths.Data = "data"
	}
	if c.Paths.Catalog == "" {
		c.Paths.Catalog = c.Paths.Data + "/catalog.sqlite"
	}
	if c.Recorder.BinaryPath == "" {
		c.Recorder.BinaryPath = "sox"
	}
	if len(c.Recorder.Input) == 0 {
		c.Recorder.Input = defaultRecorderInput()
	}
	if c.Recorder.SampleRate == 0 {
		c.Recorder.SampleRate = 16000
	}
	if err := c.Recorder.Silence.applyDefaults(); err != nil {
		return err
	}
	if c.Encoder.BinaryPath == "" {
		c.Encoder.BinaryPath = "lame"
	}
	if c.Encoder.Extension == "" {
		c.Encoder.Extension = ".mp3"
	}
	if c.Transcription.Language == "" {
		c.Transcription.Language = "ja-JP"
	}
	if c.Transcription.MaxAttempts == 0 {
		c.Transcription.MaxAttempts = 3
	}
	if c.Transcription.Google.Model == "" {
		c.Transcription.Google.Model = "latest_long"
	}
	if c.Transcription.Amazon.Region == "" {
		c.Transcription.Amazon.Region = "ap-northeast-1"
	}
	if c.Transcription.Azure.Region == "" {
		c.Transcription.Azure.Region = "japanwest"
	}
	if c.Summarizer.Provider == "" {
		c.Summarizer.Provider = "gemini"
	}
	if c.Summarizer.Model == "" {
		if c.Summarizer.Provider == "openai" {
			c.Summarizer.Model = "gpt-4o"
		} else {
			c.Summarizer.Model = "gemini-2.5-flash"
		}
	}
	if c.Summarizer.MaxAttempts == 0 {
		c.Summarizer.MaxAttempts = 1
	}
	if c.Publisher.Kind == "" {
		c.Publisher.Kind = "none"
	}
	if c.Publisher.MaxAttempts == 0 {
		c.Publisher.MaxAttempts = 3
	}
	if c.Push.VAPIDPath == "" {
		c.Push.VAPIDPath = c.Paths.Data + "/vapid.json"
	}
	if c.Push.SubscriptionsPath == "" {
		c.Push.SubscriptionsPath = c.Paths.Data + "/subscriptions.json"
	}
	if c.Push.Subject == "" {
		c.Push.Subject = "mailto:announce-flow@localhost"
	}
	if c.Push.Concurrency == 0 {
		c.Push.Concurrency = 10
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Orchestrator.RestartDelay == 0 {
		c.Orchestrator.RestartDelay = time.Second
	}

	return nil
}

func (s *Silence) applyDefaults() error {
	if s.StartDuration == 0 {
		s.StartDuration = 0.5
	}
	if s.StartThreshold == "" {
		s.StartThreshold = "0.10%"
	}
	if s.EndPeriods == 0 {
		s.EndPeriods = 3
	}
	if s.EndDuration == 0 {
		s.EndDuration = 1.0
	}
	if s.EndThreshold == "" {
		s.EndThreshold = "0.15%"
	}
	// A short start gate and a longer end gate keep transient noise from
	// opening a session and mid-announcement pauses from closing one.
	if float64(s.EndPeriods)*s.EndDuration <= s.StartDuration {
		return fmt.Errorf("recorder.silence: end gate (%d x %.2fs) must be longer than start gate (%.2fs)",
			s.EndPeriods, s.EndDuration, s.StartDuration)
	}
	return nil
}

func defaultRecorderInput() []string {
	if runtime.GOOS == "darwin" {
		return []string{"-t", "coreaudio", "default"}
	}
	return []string{"-t", "alsa", "hw:0"}
}
