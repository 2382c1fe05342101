// Command warmup pre-loads models on an Ollama server so the first real
// request doesn't pay the weights-loading cost. It pings the server, issues
// one sequential generate call per model, then fills caches with a small
// bounded-concurrency burst.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"agentloop/pkg/config"
	"agentloop/pkg/logx"
	"agentloop/pkg/restclient"
)

const warmPrompt = "You are a helpful assistant. Reply briefly to confirm readiness."

// settings are the resolved warm-up parameters: explicit flags win, then the
// OLLAMA_HOST env var for the host, then config file values.
type settings struct {
	host        string
	reps        int
	concurrency int
	timeout     time.Duration
}

func main() {
	configPath := flag.String("config", "", "path to YAML config (warmup section supplies defaults)")
	host := flag.String("host", "", "Ollama server URL")
	models := flag.String("models", "", "comma-separated list of models to warm (required)")
	reps := flag.Int("reps", 0, "total generate calls per model")
	concurrency := flag.Int("concurrency", 0, "parallel calls after the first")
	timeout := flag.Duration("timeout", 0, "per-call timeout")
	debug := flag.Bool("debug", false, "enable debug logging for all components")
	flag.Parse()

	if *debug {
		logx.SetDebug(true, nil)
	}

	modelList := splitModels(*models)
	if len(modelList) == 0 {
		fmt.Fprintln(os.Stderr, "warmup: --models is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warmup: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	s := resolveSettings(cfg, *host, os.Getenv("OLLAMA_HOST"), *reps, *concurrency, *timeout)

	logger := logx.NewLogger("warmup")
	client := restclient.NewClient(cfg.Retry)
	ctx := context.Background()

	// Fail fast if the server is down: a warm-up run against a dead host
	// should not grind through retries per model.
	version := restclient.Call(ctx, client, restclient.Request{
		URL:     s.host + "/api/version",
		Timeout: 5 * time.Second,
	}, decodeVersion)
	if !version.OK {
		fmt.Fprintf(os.Stderr, "warmup: host not reachable at %s (%s)\n", s.host, version.Summary())
		os.Exit(1)
	}
	logger.Info("server %s reachable (version %s)", s.host, version.Value)

	for _, model := range modelList {
		warmModel(ctx, client, logger, s.host, model, s.reps, s.concurrency, s.timeout)
	}
}

// resolveSettings merges flag values over env and config defaults. Zero flag
// values mean "not set".
func resolveSettings(cfg config.Config, host, envHost string, reps, concurrency int, timeout time.Duration) settings {
	s := settings{
		host:        cfg.Model.Host,
		reps:        cfg.Warmup.Reps,
		concurrency: cfg.Warmup.Concurrency,
		timeout:     cfg.Warmup.Timeout,
	}
	if envHost != "" {
		s.host = envHost
	}
	if host != "" {
		s.host = host
	}
	if reps > 0 {
		s.reps = reps
	}
	if concurrency > 0 {
		s.concurrency = concurrency
	}
	if timeout > 0 {
		s.timeout = timeout
	}
	return s
}

func warmModel(ctx context.Context, client *restclient.Client, logger *logx.Logger, host, model string, reps, concurrency int, timeout time.Duration) {
	// First call alone: it instantiates the weights, so its duration is
	// the interesting number and shouldn't race with anything.
	first := restclient.Warmup(ctx, client, []restclient.WarmupCall{generateCall(host, model, "first", timeout)}, 1)
	if !first[0].OK {
		logger.Error("%s: first call failed: %s: %s", model, first[0].Kind, first[0].Message)
		return
	}
	logger.Info("%s: first call %.2fs", model, first[0].Duration.Seconds())

	results := first
	if remaining := reps - 1; remaining > 0 {
		calls := make([]restclient.WarmupCall, remaining)
		for i := range calls {
			calls[i] = generateCall(host, model, fmt.Sprintf("rep-%d", i+1), timeout)
		}
		burst := restclient.Warmup(ctx, client, calls, concurrency)
		for i := range burst {
			if !burst[i].OK {
				logger.Warn("%s: warm call %s failed: %s", model, burst[i].Name, burst[i].Message)
			}
		}
		results = append(results, burst...)
	}

	median := restclient.MedianDuration(results)
	fmt.Printf("%s: first=%.2fs, median=%.2fs (%d/%d calls ok)\n",
		model, first[0].Duration.Seconds(), median.Seconds(), countOK(results), len(results))
}

func generateCall(host, model, name string, timeout time.Duration) restclient.WarmupCall {
	body, _ := json.Marshal(map[string]any{
		"model":  model,
		"prompt": warmPrompt,
		"stream": false,
		"options": map[string]any{
			"temperature": 0.0,
			"top_k":       1,
			"num_predict": 32,
		},
		"keep_alive": "10m",
	})
	return restclient.WarmupCall{
		Name: name,
		Request: restclient.Request{
			URL:     host + "/api/generate",
			Method:  "POST",
			Body:    body,
			Timeout: timeout,
		},
	}
}

func decodeVersion(body []byte) (string, error) {
	var decoded struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", err
	}
	return decoded.Version, nil
}

func splitModels(raw string) []string {
	var models []string
	for _, m := range strings.Split(raw, ",") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	return models
}

func countOK(results []restclient.WarmupResult) int {
	n := 0
	for i := range results {
		if results[i].OK {
			n++
		}
	}
	return n
}
