package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				Transcription: TranscriptionConfig{Backend: "google"},
				Paths:         PathsConfig{Output: "out"},
			},
			wantErr: false,
		},
		{
			name: "missing output path",
			config: Config{
				Transcription: TranscriptionConfig{Backend: "google"},
			},
			wantErr: true,
		},
		{
			name: "unknown backend",
			config: Config{
				Transcription: TranscriptionConfig{Backend: "whisper"},
				Paths:         PathsConfig{Output: "out"},
			},
			wantErr: true,
		},
		{
			name: "azure without key",
			config: Config{
				Transcription: TranscriptionConfig{Backend: "azure"},
				Paths:         PathsConfig{Output: "out"},
			},
			wantErr: true,
		},
		{
			name: "azure with key",
			config: Config{
				Transcription: TranscriptionConfig{Backend: "azure", Azure: AzureConfig{APIKey: "k"}},
				Paths:         PathsConfig{Output: "out"},
			},
			wantErr: false,
		},
		{
			name: "http publisher without key",
			config: Config{
				Transcription: TranscriptionConfig{Backend: "amazon"},
				Publisher:     PublisherConfig{Kind: "http", HTTP: HTTPArchive{URL: "https://archive.example"}},
				Paths:         PathsConfig{Output: "out"},
			},
			wantErr: true,
		},
		{
			name: "s3 publisher without bucket",
			config: Config{
				Transcription: TranscriptionConfig{Backend: "amazon"},
				Publisher:     PublisherConfig{Kind: "s3"},
				Paths:         PathsConfig{Output: "out"},
			},
			wantErr: true,
		},
		{
			name: "end gate shorter than start gate",
			config: Config{
				Transcription: TranscriptionConfig{Backend: "google"},
				Recorder: RecorderConfig{Silence: Silence{
					StartDuration: 2, EndPeriods: 1, EndDuration: 1,
				}},
				Paths: PathsConfig{Output: "out"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Config{
		Transcription: TranscriptionConfig{Backend: "google"},
		Paths:         PathsConfig{Output: "out"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Transcription.MaxAttempts != 3 {
		t.Errorf("Transcription.MaxAttempts = %d, want 3", cfg.Transcription.MaxAttempts)
	}
	if cfg.Publisher.MaxAttempts != 3 {
		t.Errorf("Publisher.MaxAttempts = %d, want 3", cfg.Publisher.MaxAttempts)
	}
	if cfg.Summarizer.MaxAttempts != 1 {
		t.Errorf("Summarizer.MaxAttempts = %d, want 1", cfg.Summarizer.MaxAttempts)
	}
	if cfg.Push.Concurrency != 10 {
		t.Errorf("Push.Concurrency = %d, want 10", cfg.Push.Concurrency)
	}
	if cfg.Recorder.Silence.StartThreshold != "0.10%" || cfg.Recorder.Silence.EndThreshold != "0.15%" {
		t.Errorf("Silence thresholds = %+v", cfg.Recorder.Silence)
	}
	if cfg.Summarizer.Model != "gemini-2.5-flash" {
		t.Errorf("Summarizer.Model = %q", cfg.Summarizer.Model)
	}
	if cfg.Orchestrator.RestartDelay != time.Second {
		t.Errorf("RestartDelay = %v", cfg.Orchestrator.RestartDelay)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	content := `
recorder:
  sample_rate: 16000
  silence:
    start_duration: 0.5
    start_threshold: "0.10%"
    end_periods: 3
    end_duration: 1.0
    end_threshold: "0.15%"

transcription:
  backend: "google"
  language: "ja-JP"
  google:
    phrase_sets:
      - "projects/1/locations/global/phraseSets/bosai"

summarizer:
  provider: "openai"
  prompt_path: "files/summarize-prompt.txt"

publisher:
  kind: "http"
  http:
    url: "https://archive.example"
    api_key: "secret"

paths:
  output: "out"

orchestrator:
  restart_delay: 5s

logging:
  level: "info"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Transcription.Google.PhraseSets[0] != "projects/1/locations/global/phraseSets/bosai" {
		t.Errorf("PhraseSets = %v", cfg.Transcription.Google.PhraseSets)
	}
	if cfg.Paths.Output != "out" {
		t.Errorf("Output = %v, want %v", cfg.Paths.Output, "out")
	}
	if cfg.Summarizer.Model != "gpt-4o" {
		t.Errorf("Summarizer.Model = %v, want gpt-4o", cfg.Summarizer.Model)
	}
	if cfg.Orchestrator.RestartDelay != 5*time.Second {
		t.Errorf("RestartDelay = %v, want 5s", cfg.Orchestrator.RestartDelay)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
transcription:
  backend: "azure"
paths:
  output: "out"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OUTPUT_DIR", "/srv/out")
	t.Setenv("PORT", "8080")
	t.Setenv("GEMINI_API_KEYS", "k1, k2")
	t.Setenv("AZURE_SPEECH_API_KEY", "speech-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Paths.Output != "/srv/out" {
		t.Errorf("Output = %q", cfg.Paths.Output)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if len(cfg.Summarizer.APIKeys) != 2 || cfg.Summarizer.APIKeys[1] != "k2" {
		t.Errorf("APIKeys = %v", cfg.Summarizer.APIKeys)
	}
	if cfg.Transcription.Azure.APIKey != "speech-key" || cfg.Transcription.Azure.Region != "japanwest" {
		t.Errorf("Azure = %+v", cfg.Transcription.Azure)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}
