// Command agentloop runs the interactive question-answering agent: a
// Thought-Action-Observation loop over a configurable model backend with
// weather, geocoding, and currency tools.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agentloop/pkg/config"
	"agentloop/pkg/history"
	"agentloop/pkg/llm"
	"agentloop/pkg/llm/anthropicclient"
	"agentloop/pkg/llm/ollamaclient"
	"agentloop/pkg/llm/openaicompat"
	"agentloop/pkg/logx"
	"agentloop/pkg/restclient"
	"agentloop/pkg/taoloop"
	"agentloop/pkg/tokens"
	"agentloop/pkg/tools"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults apply if omitted)")
	debug := flag.Bool("debug", false, "enable debug logging for all components")
	flag.Parse()

	if *debug {
		logx.SetDebug(true, nil)
	}
	logger := logx.NewLogger("agentloop")

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "agentloop: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	modelClient, err := buildModelClient(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agentloop: %v\n", err)
		os.Exit(1)
	}

	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agentloop: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	restClient := restclient.NewClient(cfg.Retry)
	registry, err := tools.NewRegistry(
		tools.NewWeatherTool(restClient),
		tools.NewGeocodeTool(restClient),
		tools.NewConvertTool(),
		tools.NewCurrencyTool(restClient),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agentloop: %v\n", err)
		os.Exit(1)
	}

	opts := []taoloop.Option{
		taoloop.WithMaxIterations(cfg.Loop.MaxIterations),
		taoloop.WithTemperature(cfg.Model.Temperature),
	}
	if counter, err := tokens.NewCounter(cfg.Model.Name); err == nil {
		opts = append(opts, taoloop.WithTokenCounter(counter))
	} else {
		logger.Warn("token counter unavailable: %v", err)
	}
	loop := taoloop.New(modelClient, registry, opts...)

	if cfg.MetricsAddr != "" {
		go serveMetrics(logger, cfg.MetricsAddr)
	}

	logger.Info("ready: provider=%s model=%s tools=%v", cfg.Model.Provider, modelClient.GetModelName(), registry.Names())
	runPrompt(loop, store, logger)
}

// buildModelClient selects the model backend from config.
func buildModelClient(cfg config.Config) (llm.Client, error) {
	switch cfg.Model.Provider {
	case config.ProviderOllama:
		return ollamaclient.New(cfg.Model.Host, cfg.Model.Name), nil
	case config.ProviderOpenAICompat:
		base := strings.TrimSuffix(cfg.Model.Host, "/") + "/v1"
		return openaicompat.NewWithBaseURL(base, cfg.Model.APIKey, cfg.Model.Name), nil
	case config.ProviderAnthropic:
		return anthropicclient.New(cfg.Model.APIKey, cfg.Model.Name), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}

func serveMetrics(logger *logx.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped: %v", err)
	}
}

// runPrompt reads questions from stdin until EOF or "exit".
func runPrompt(loop *taoloop.Loop, store *history.Store, logger *logx.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Ask a question ('history' for recent runs, 'exit' to quit).")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return
		case line == "history":
			printHistory(store)
			continue
		}

		start := time.Now()
		res := loop.Run(context.Background(), line)
		fmt.Println(res.Answer)

		run := history.Run{
			ID:         res.RunID,
			Question:   line,
			Answer:     res.Answer,
			Status:     res.Status.String(),
			Reason:     res.Reason,
			Iterations: res.Iterations,
			StartedAt:  start,
			Duration:   time.Since(start),
		}
		if err := store.Record(context.Background(), run); err != nil {
			logger.Warn("failed to record run: %v", err)
		}
	}
}

func printHistory(store *history.Store) {
	runs, err := store.Recent(context.Background(), 10)
	if err != nil {
		fmt.Printf("history unavailable: %v\n", err)
		return
	}
	if len(runs) == 0 {
		fmt.Println("no runs yet")
		return
	}
	for i := range runs {
		run := &runs[i]
		status := run.Status
		if run.Reason != "" {
			status = fmt.Sprintf("%s (%s)", run.Status, run.Reason)
		}
		fmt.Printf("[%s] %s -> %s [%s, %d iter, %.1fs]\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Question, run.Answer, status, run.Iterations, run.Duration.Seconds())
	}
}
