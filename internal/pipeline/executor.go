package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/yoyo-gitroi/GTM-Newsletter/internal/agents"
	"github.com/yoyo-gitroi/GTM-Newsletter/internal/store"
)

// LLMClient dispatches an invocation to a named provider.
type LLMClient interface {
	Invoke(ctx context.Context, provider, model, systemPrompt, userPrompt string) (string, error)
}

// RunStore is the subset of the store the pipeline needs.
type RunStore interface {
	GetNewsletter(ctx context.Context, id string) (store.Newsletter, bool, error)
	SetNewsletterStatus(ctx context.Context, id, status string) error
	ClaimNewsletterRun(ctx context.Context, id string) (bool, error)
	SaveAgentOutput(ctx context.Context, id, agent, output string, counter *int) error
	ReplaceAgentRun(ctx context.Context, newsletterID, agentName string) (store.AgentRun, error)
	CompleteAgentRun(ctx context.Context, runID, output, model string, durationSeconds int) error
	FailAgentRun(ctx context.Context, runID, errMsg string) error
	GetSettings(ctx context.Context) (store.Settings, error)
}

// StepExecutor runs one agent step: evict the previous run record, invoke
// the LLM with retries, and persist the outcome.
type StepExecutor struct {
	Store       RunStore
	LLM         LLMClient
	MaxAttempts int
	RetryDelay  time.Duration

	sleep func(time.Duration) // test hook
}

func NewStepExecutor(st RunStore, llm LLMClient, maxAttempts int, retryDelay time.Duration) *StepExecutor {
	return &StepExecutor{
		Store:       st,
		LLM:         llm,
		MaxAttempts: maxAttempts,
		RetryDelay:  retryDelay,
		sleep:       time.Sleep,
	}
}

// Execute runs the named agent for a newsletter and returns its output.
// The run record is replaced up front so reruns never show stale results.
func (e *StepExecutor) Execute(ctx context.Context, newsletterID, dateRange, agentName string, in agents.Input) (string, error) {
	inv, err := agents.Build(agentName, in)
	if err != nil {
		return "", err
	}

	run, err := e.Store.ReplaceAgentRun(ctx, newsletterID, agentName)
	if err != nil {
		return "", err
	}

	userPrompt := agents.UserPrompt(dateRange)

	var lastErr error
	for attempt := 1; attempt <= e.MaxAttempts; attempt++ {
		start := time.Now()
		output, err := e.LLM.Invoke(ctx, inv.Provider, inv.Model, inv.SystemPrompt, userPrompt)
		if err == nil {
			duration := time.Since(start)
			if err := e.Store.CompleteAgentRun(ctx, run.ID, output, inv.Model, int(duration.Seconds())); err != nil {
				return "", err
			}
			var counter *int
			if count := agents.Counter(agentName); count != nil {
				n := count(output)
				counter = &n
			}
			if err := e.Store.SaveAgentOutput(ctx, newsletterID, agentName, output, counter); err != nil {
				return "", err
			}
			agentRunsTotal.WithLabelValues(agentName, "completed").Inc()
			agentDuration.WithLabelValues(agentName).Observe(duration.Seconds())
			log.Printf("[PIPELINE] agent %s completed for newsletter %s in %s", agentName, newsletterID, duration.Round(time.Millisecond))
			return output, nil
		}

		lastErr = err
		if attempt < e.MaxAttempts {
			log.Printf("[PIPELINE] agent %s attempt %d failed, retrying: %v", agentName, attempt, err)
			agentRetriesTotal.WithLabelValues(agentName).Inc()
			e.sleep(e.RetryDelay)
		}
	}

	log.Printf("[PIPELINE] agent %s failed after %d attempts: %v", agentName, e.MaxAttempts, lastErr)
	agentRunsTotal.WithLabelValues(agentName, "failed").Inc()
	if err := e.Store.FailAgentRun(ctx, run.ID, lastErr.Error()); err != nil {
		log.Printf("[PIPELINE] could not record failed run %s: %v", run.ID, err)
	}
	return "", lastErr
}
