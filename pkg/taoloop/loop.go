package taoloop

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"agentloop/pkg/llm"
	"agentloop/pkg/logx"
	"agentloop/pkg/tokens"
	"agentloop/pkg/tools"
)

// DefaultMaxIterations bounds how many model round-trips one Run may make.
const DefaultMaxIterations = 5

// FailureApology is the user-facing text returned for every failed run.
const FailureApology = "Sorry, I couldn't complete the task."

// Terminal failure reasons.
const (
	ReasonMalformedArgs   = "malformed args"
	ReasonUnknownTool     = "unknown tool"
	ReasonMissingMarkers  = "response missing required markers"
	ReasonBudgetExhausted = "iteration budget exhausted"
	ReasonCancelled       = "cancelled"
)

// Status is the terminal state of a run.
type Status int

const (
	// StatusDone means the model produced a final answer.
	StatusDone Status = iota
	// StatusFailed means the run terminated without an answer.
	StatusFailed
)

// String returns human-readable name for Status.
func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}

// Result is the outcome of one Run. Failures are values: callers never need
// to catch anything to tell success from failure.
type Result struct {
	// Answer is the final answer on success, FailureApology on failure.
	Answer string

	// Reason is the structured failure reason, empty on success.
	Reason string

	// RunID uniquely identifies this run for history and logs.
	RunID uuid.UUID

	// Iterations is how many model round-trips were completed.
	Iterations int

	Status Status
}

// Loop drives the Thought-Action-Observation cycle. Safe for concurrent Run
// calls: each run owns its own ConversationState.
type Loop struct {
	client        llm.Client
	registry      *tools.Registry
	counter       *tokens.Counter
	logger        *logx.Logger
	systemPrompt  string
	temperature   float32
	maxIterations int
}

// Option configures a Loop.
type Option func(*Loop)

// WithMaxIterations overrides the iteration budget.
func WithMaxIterations(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxIterations = n
		}
	}
}

// WithTemperature overrides the sampling temperature sent with every
// completion request.
func WithTemperature(t float32) Option {
	return func(l *Loop) {
		if t > 0 {
			l.temperature = t
		}
	}
}

// WithTokenCounter enables advisory transcript-size logging.
func WithTokenCounter(counter *tokens.Counter) Option {
	return func(l *Loop) {
		l.counter = counter
	}
}

// New creates a loop over the given model client and tool registry.
func New(client llm.Client, registry *tools.Registry, opts ...Option) *Loop {
	l := &Loop{
		client:        client,
		registry:      registry,
		logger:        logx.NewLogger("taoloop"),
		temperature:   llm.TemperatureDefault,
		maxIterations: DefaultMaxIterations,
	}
	l.systemPrompt = buildSystemPrompt(registry)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// buildSystemPrompt renders the fixed marker-protocol instructions plus the
// registry's tool documentation.
func buildSystemPrompt(registry *tools.Registry) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant that answers questions by reasoning step by step and calling tools.\n\n")
	b.WriteString("Reply using exactly this protocol:\n")
	b.WriteString("  Thought: <your reasoning about the next step>\n")
	b.WriteString("  Action: <tool name>\n")
	b.WriteString("  Args: <tool arguments as a single JSON object>\n")
	b.WriteString("When you know the answer, reply instead with:\n")
	b.WriteString("  Final: <the answer>\n\n")
	b.WriteString("Use one Action per reply. Tool results arrive as Observation messages.\n\n")
	b.WriteString(registry.PromptDocumentation())
	return b.String()
}

// Run answers one question. It never returns an error: every failure mode is
// a Result with StatusFailed and a structured reason.
func (l *Loop) Run(ctx context.Context, question string) Result {
	runID := uuid.New()
	conv := newConversation(l.systemPrompt, question, l.counter)
	start := time.Now()

	l.logger.Info("run %s started: model=%s question=%q", runID, l.client.GetModelName(), question)

	for iteration := 1; iteration <= l.maxIterations; iteration++ {
		if ctx.Err() != nil {
			return l.fail(runID, ReasonCancelled, iteration-1, start)
		}

		if count := conv.TokenCount(); count > 0 {
			l.logger.Debug("run %s iteration %d: transcript ~%d tokens", runID, iteration, count)
		}

		req := llm.NewCompletionRequest(conv.Messages())
		req.Temperature = l.temperature
		resp, err := l.client.Complete(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return l.fail(runID, ReasonCancelled, iteration, start)
			}
			l.logger.Warn("run %s: completion failed (%s): %v", runID, llm.TypeOf(err), err)
			return l.fail(runID, fmt.Sprintf("model error: %v", err), iteration, start)
		}
		conv.AddReply(resp.Content)

		directive := Parse(resp.Content)
		switch directive.Kind {
		case DirectiveFinal:
			l.logger.Info("run %s done in %d iteration(s), %.2fs", runID, iteration, time.Since(start).Seconds())
			return Result{
				Status:     StatusDone,
				Answer:     directive.Answer,
				RunID:      runID,
				Iterations: iteration,
			}

		case DirectiveMalformed:
			// Parse reports the raw reply as Detail when no markers matched;
			// anything else is an args JSON parse error.
			if directive.Detail != resp.Content {
				l.logger.Warn("run %s: %s", runID, directive.Detail)
				return l.fail(runID, ReasonMalformedArgs, iteration, start)
			}
			l.logger.Warn("run %s: reply missing markers: %q", runID, truncate(resp.Content, 120))
			return l.fail(runID, ReasonMissingMarkers, iteration, start)

		case DirectiveAction:
			tool, ok := l.registry.Resolve(directive.ToolName)
			if !ok {
				l.logger.Warn("run %s: model requested %q, known tools: %v", runID, directive.ToolName, l.registry.Names())
				return l.fail(runID, ReasonUnknownTool, iteration, start)
			}

			toolStart := time.Now()
			outcome := tool.Exec(ctx, directive.Args)
			l.logger.Info("run %s: %s finished in %.2fs (ok=%v)", runID, directive.ToolName, time.Since(toolStart).Seconds(), outcome.OK)

			// Graceful tool failures become observations like any other
			// result and consume the iteration.
			conv.AddObservation(outcome.Summary())
		}
	}

	return l.fail(runID, ReasonBudgetExhausted, l.maxIterations, start)
}

func (l *Loop) fail(runID uuid.UUID, reason string, iterations int, start time.Time) Result {
	l.logger.Warn("run %s failed after %d iteration(s), %.2fs: %s", runID, iterations, time.Since(start).Seconds(), reason)
	return Result{
		Status:     StatusFailed,
		Answer:     FailureApology,
		Reason:     reason,
		RunID:      runID,
		Iterations: iterations,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
