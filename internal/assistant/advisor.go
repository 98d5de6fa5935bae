package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SummaryReader is the slice of the ledger service the advisor needs.
type SummaryReader interface {
	ExpenseSummary(ctx context.Context, email string) (map[string]float64, error)
}

// Generator produces text for a prompt. The production implementation wraps
// Gemini; tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Advisor answers free-text finance questions grounded in the user's expense
// summary. It never returns an error: any collaborator failure degrades into
// an "Error: ..." message so ledger features stay available regardless of
// assistant health.
type Advisor struct {
	summaries SummaryReader
	generator Generator
	timeout   time.Duration
}

func NewAdvisor(summaries SummaryReader, generator Generator, timeout time.Duration) *Advisor {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Advisor{
		summaries: summaries,
		generator: generator,
		timeout:   timeout,
	}
}

// Answer fetches the user's summary, builds the prompt and asks the
// generator, retrying once on failure before falling back to the error
// message.
func (a *Advisor) Answer(ctx context.Context, email, query string) string {
	if a.generator == nil {
		return "Error: assistant is not configured"
	}

	summary, err := a.summaries.ExpenseSummary(ctx, email)
	if err != nil {
		slog.ErrorContext(ctx, "Assistant summary fetch failed", "email", email, "error", err)
		return fmt.Sprintf("Error: %v", err)
	}

	prompt := BuildPrompt(BuildContext(summary), query)

	text, err := a.generate(ctx, prompt)
	if err != nil {
		// One retry on transient failure, unless the caller is already gone.
		if ctx.Err() == nil {
			slog.WarnContext(ctx, "Assistant call failed, retrying once", "error", err)
			text, err = a.generate(ctx, prompt)
		}
	}
	if err != nil {
		slog.ErrorContext(ctx, "Assistant call failed", "email", email, "error", err)
		return fmt.Sprintf("Error: %v", err)
	}

	return text
}

func (a *Advisor) generate(ctx context.Context, prompt string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.generator.Generate(cctx, prompt)
}
