package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/nguyentantai21042004/announce-flow/internal/catalog"
	"github.com/nguyentantai21042004/announce-flow/internal/config"
	"github.com/nguyentantai21042004/announce-flow/internal/encoder"
	"github.com/nguyentantai21042004/announce-flow/internal/events"
	"github.com/nguyentantai21042004/announce-flow/internal/fanout"
	"github.com/nguyentantai21042004/announce-flow/internal/logger"
	"github.com/nguyentantai21042004/announce-flow/internal/postprocess"
	"github.com/nguyentantai21042004/announce-flow/internal/publisher"
	"github.com/nguyentantai21042004/announce-flow/internal/segmenter"
	"github.com/nguyentantai21042004/announce-flow/internal/server"
	"github.com/nguyentantai21042004/announce-flow/internal/session"
	"github.com/nguyentantai21042004/announce-flow/internal/summarizer"
	"github.com/nguyentantai21042004/announce-flow/internal/transcription"
	"github.com/nguyentantai21042004/announce-flow/internal/watcher"
	"github.com/nguyentantai21042004/announce-flow/internal/webpush"
	"github.com/nguyentantai21042004/announce-flow/pkg/executor"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const pushTimeout = 30 * time.Second

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the capture daemon and its HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return run(cfg)
		},
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.NewWithFormat(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	log.Info(ctx, "========================================")
	log.Info(ctx, "Announcement Pipeline")
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s", runtime.GOOS, runtime.GOARCH)
	log.Info(ctx, "Configuration loaded successfully")

	if err := ensureDirectories(cfg); err != nil {
		return err
	}

	exec := executor.New()
	checkBinaries(ctx, exec, log, cfg.Recorder.BinaryPath, cfg.Encoder.BinaryPath)

	backend, closer, err := newBackend(ctx, cfg, log.With("transcription"))
	if err != nil {
		return err
	}
	defer closer.Close()

	prompt, err := summarizer.LoadPrompt(cfg.Summarizer.PromptPath)
	if err != nil {
		return fmt.Errorf("load prompt: %w", err)
	}
	summ, err := summarizer.New(cfg.Summarizer, prompt, log.With("summarizer"))
	if err != nil {
		return fmt.Errorf("create summarizer: %w", err)
	}

	archive, err := publisher.New(ctx, cfg.Publisher, log.With("publisher"))
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}

	// handlers keep running while the bus drains after ctx is cancelled
	bus := events.New(context.Background(), log.With("bus"))
	defer bus.Close()

	hub := fanout.New(log.With("fanout"))
	bus.Subscribe("fanout", hub.HandleEvent)

	cat, err := catalog.Open(ctx, cfg.Paths.Catalog, log.With("catalog"))
	if err != nil {
		return err
	}
	defer cat.Close()
	bus.Subscribe("catalog", cat.HandleEvent)

	srvOpts := server.Options{
		Addr:      cfg.Server.Addr,
		OutputDir: cfg.Paths.Output,
	}
	if cfg.Push.Enabled {
		keys, err := webpush.LoadVAPID(cfg.Push.VAPIDPath)
		if err != nil {
			return fmt.Errorf("%w (generate keys with `pipeline vapid`)", err)
		}
		registry, err := webpush.OpenRegistry(cfg.Push.SubscriptionsPath,
			webpush.NewSender(keys, cfg.Push.Subject, &http.Client{Timeout: pushTimeout}), cfg.Push.Concurrency, log.With("webpush"))
		if err != nil {
			return err
		}
		defer registry.Close()
		bus.Subscribe("webpush", webpush.NewNotifier(registry, cfg.Push.NotifyOnStart).HandleEvent)

		srvOpts.Push = registry
		srvOpts.VAPID = keys
		log.Info(ctx, "Push notifications enabled (%d subscriptions)", registry.Len())
	}

	post := postprocess.New(postprocess.Options{
		OutputDir:       cfg.Paths.Output,
		SummaryAttempts: cfg.Summarizer.MaxAttempts,
		UploadAttempts:  cfg.Publisher.MaxAttempts,
	}, summ, archive, bus, log.With("postprocess"))
	bus.Subscribe("postprocess", post.HandleEvent)

	orchestrator := session.New(session.Options{
		OutputDir:    cfg.Paths.Output,
		MaxAttempts:  cfg.Transcription.MaxAttempts,
		RestartDelay: cfg.Orchestrator.RestartDelay,
		SampleRate:   cfg.Recorder.SampleRate,
	},
		segmenter.New(cfg.Recorder, exec, log.With("segmenter")),
		encoder.New(cfg.Encoder, cfg.Recorder.SampleRate, cfg.Paths.Output, exec, log.With("encoder")),
		backend, bus, log.With("session"))

	srvOpts.Current = orchestrator.Current
	srv := server.New(srvOpts, hub, cat, log.With("server"))

	// Nothing starts until every component is built.
	promptWatcher, err := newPromptWatcher(prompt, log.With("watcher"))
	if err != nil {
		return err
	}
	if promptWatcher != nil {
		defer promptWatcher.Stop()
		log.Info(ctx, "Watching summary prompt: %v", promptWatcher.Files())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return orchestrator.Run(gctx) })
	g.Go(func() error { return post.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	if promptWatcher != nil {
		g.Go(func() error { return promptWatcher.Start(gctx) })
	}

	log.Info(ctx, "========================================")
	log.Info(ctx, "Pipeline is ready!")
	log.Info(ctx, "Transcription: %s (%s)", backend.Name(), cfg.Transcription.Language)
	log.Info(ctx, "Summarizer: %s %s", cfg.Summarizer.Provider, cfg.Summarizer.Model)
	log.Info(ctx, "Publisher: %s", cfg.Publisher.Kind)
	log.Info(ctx, "Output: %s", cfg.Paths.Output)
	log.Info(ctx, "Listening: %s", cfg.Server.Addr)
	log.Info(ctx, "")
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case <-gctx.Done():
		log.Error(ctx, "Component stopped unexpectedly")
	}

	log.Info(ctx, "Shutting down gracefully...")
	cancel()
	err = g.Wait()
	bus.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info(ctx, "Pipeline stopped")
	return nil
}

// newBackend builds the configured speech backend. The closer releases its client.
func newBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (transcription.Backend, io.Closer, error) {
	switch cfg.Transcription.Backend {
	case "google":
		return transcription.NewGoogle(ctx, transcription.GoogleOptions{
			LanguageCode: cfg.Transcription.Language,
			Model:        cfg.Transcription.Google.Model,
			SampleRate:   cfg.Recorder.SampleRate,
			PhraseSets:   cfg.Transcription.Google.PhraseSets,
		}, log)
	case "amazon":
		backend, err := transcription.NewAmazon(ctx, transcription.AmazonOptions{
			Region:       cfg.Transcription.Amazon.Region,
			LanguageCode: cfg.Transcription.Language,
			SampleRate:   cfg.Recorder.SampleRate,
		}, log)
		return backend, closerFunc(func() error { return nil }), err
	case "azure":
		backend, err := transcription.NewAzure(transcription.AzureOptions{
			Region:       cfg.Transcription.Azure.Region,
			APIKey:       cfg.Transcription.Azure.APIKey,
			LanguageCode: cfg.Transcription.Language,
			SampleRate:   cfg.Recorder.SampleRate,
		}, log)
		return backend, closerFunc(func() error { return nil }), err
	}
	return nil, nil, fmt.Errorf("unknown transcription backend %q", cfg.Transcription.Backend)
}

// newPromptWatcher reloads the summary prompt whenever its file changes.
// A built-in prompt has no file and gets no watcher.
func newPromptWatcher(prompt *summarizer.Prompt, log logger.Logger) (watcher.Watcher, error) {
	if prompt.Path() == "" {
		return nil, nil
	}
	return watcher.New([]string{prompt.Path()}, func(ctx context.Context, path string) error {
		if err := prompt.Reload(); err != nil {
			return err
		}
		log.Info(ctx, "Summary prompt reloaded from %s", path)
		return nil
	}, log, 1)
}

// checkBinaries logs the version of each external tool. A missing tool is
// reported but not fatal; the capture loop keeps retrying.
func checkBinaries(ctx context.Context, exec executor.Executor, log logger.Logger, binaries ...string) {
	for _, bin := range binaries {
		out, err := exec.Execute(ctx, bin, "--version")
		if err != nil {
			log.Warn(ctx, "%s is not usable: %v", bin, err)
			continue
		}
		if first, _, _ := strings.Cut(strings.TrimSpace(out), "\n"); first != "" {
			log.Info(ctx, "Found %s", first)
		}
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Paths.Output,
		cfg.Paths.Data,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
