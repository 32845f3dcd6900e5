// Command liveremarkd runs the live commentary pipeline behind a
// WebSocket endpoint: one isolated System per connected stream.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/liveremark/core/internal/config"
	"github.com/liveremark/core/internal/detector"
	"github.com/liveremark/core/internal/generator"
	"github.com/liveremark/core/internal/orchestrator"
	"github.com/liveremark/core/internal/transport/ws"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("exit", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "liveremarkd",
		Short: "Runs the live commentary pipeline's WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.String("http-addr", ":8000", "address the WebSocket/HTTP server listens on")
	flags.String("openai-api-key", "", "OpenAI API key (overrides OPENAI_API_KEY)")
	flags.String("gemini-api-key", "", "Gemini API key (overrides GEMINI_API_KEY)")

	_ = viper.BindPFlag("httpAddr", flags.Lookup("http-addr"))
	_ = viper.BindPFlag("openaiApiKey", flags.Lookup("openai-api-key"))
	_ = viper.BindPFlag("geminiApiKey", flags.Lookup("gemini-api-key"))

	return cmd
}

func run(configPath string, cmd *cobra.Command) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr := viper.GetString("httpAddr"); addr != "" {
		cfg.HTTPAddr = addr
	}

	openAIKey := firstNonEmpty(viper.GetString("openaiApiKey"), os.Getenv("OPENAI_API_KEY"))
	geminiKey := firstNonEmpty(viper.GetString("geminiApiKey"), os.Getenv("GEMINI_API_KEY"))

	registry := orchestrator.NewRegistry()
	orchCfg := cfg.ToOrchestratorConfig()

	newBackend := func(streamID string) (detector.Backend, generator.Backend) {
		var detBackend detector.Backend
		var genBackend generator.Backend
		switch cfg.Detector.ModelProvider {
		case "google":
			detBackend = detector.NewGeminiBackend(geminiKey)
			genBackend = generator.NewGeminiBackend(geminiKey, cfg.Generator.SelectorModel)
		default:
			detBackend = detector.NewOpenAIBackend(openAIKey)
			genBackend = generator.NewOpenAIBackend(openAIKey, cfg.Generator.SelectorModel)
		}
		return detBackend, genBackend
	}

	wsServer := ws.New(registry, orchCfg, newBackend)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      wsServer.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("liveremarkd starting", "http", cfg.HTTPAddr, "provider", cfg.Detector.ModelProvider)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	slog.Info("shutdown complete")
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
