package pipeline

import (
	"context"
	"errors"
	"log"

	"github.com/yoyo-gitroi/GTM-Newsletter/internal/agents"
	"github.com/yoyo-gitroi/GTM-Newsletter/internal/store"
)

// ErrAlreadyRunning is returned when a pipeline for the newsletter is
// already in flight.
var ErrAlreadyRunning = errors.New("pipeline already running for newsletter")

// ErrUnknownAgent is returned when startFrom names no pipeline agent.
var ErrUnknownAgent = errors.New("unknown agent")

// Orchestrator drives the fixed agent sequence for one newsletter at a
// time, resuming from persisted outputs when started mid-pipeline.
type Orchestrator struct {
	Store   RunStore
	Exec    *StepExecutor
	Tracker *Tracker
	Locker  Locker
}

func NewOrchestrator(st RunStore, exec *StepExecutor, tracker *Tracker, locker Locker) *Orchestrator {
	return &Orchestrator{Store: st, Exec: exec, Tracker: tracker, Locker: locker}
}

// Run executes the pipeline for a newsletter. startFrom, when set, skips
// the agents before it; their persisted outputs feed the remaining steps.
func (o *Orchestrator) Run(ctx context.Context, newsletterID, startFrom string) error {
	sequence := agents.Order
	if startFrom != "" {
		idx := agents.IndexOf(startFrom)
		if idx < 0 {
			o.Tracker.Clear(newsletterID)
			return ErrUnknownAgent
		}
		sequence = sequence[idx:]
	}

	// The caller marks the tracker running before handing off; a rejected
	// run must drop that entry or every later launch is refused.
	ok, err := o.Locker.Acquire(ctx, newsletterID)
	if err != nil {
		o.Tracker.Clear(newsletterID)
		return err
	}
	if !ok {
		o.Tracker.Clear(newsletterID)
		return ErrAlreadyRunning
	}
	defer o.Locker.Release(ctx, newsletterID)

	claimed, err := o.Store.ClaimNewsletterRun(ctx, newsletterID)
	if err != nil {
		o.Tracker.Clear(newsletterID)
		return err
	}
	if !claimed {
		o.Tracker.Clear(newsletterID)
		return ErrAlreadyRunning
	}

	if err := o.run(ctx, newsletterID, sequence); err != nil {
		if setErr := o.Store.SetNewsletterStatus(ctx, newsletterID, store.NewsletterStatusFailed); setErr != nil {
			log.Printf("[PIPELINE] could not mark newsletter %s failed: %v", newsletterID, setErr)
		}
		if s, ok := o.Tracker.Get(newsletterID); !ok || s.Status != store.NewsletterStatusFailed {
			o.Tracker.Set(newsletterID, store.NewsletterStatusFailed, "")
		}
		return err
	}

	if err := o.Store.SetNewsletterStatus(ctx, newsletterID, store.NewsletterStatusCompleted); err != nil {
		o.Tracker.Set(newsletterID, store.NewsletterStatusFailed, "")
		return err
	}
	o.Tracker.Set(newsletterID, store.NewsletterStatusCompleted, "")
	log.Printf("[PIPELINE] completed for newsletter %s", newsletterID)
	pipelineRunsTotal.WithLabelValues("completed").Inc()
	return nil
}

func (o *Orchestrator) run(ctx context.Context, newsletterID string, sequence []string) error {
	nl, found, err := o.Store.GetNewsletter(ctx, newsletterID)
	if err != nil {
		return err
	}
	if !found {
		return store.ErrNotFound
	}

	settings, err := o.Store.GetSettings(ctx)
	if err != nil {
		return err
	}

	in := agents.Input{
		DateRange:      nl.DateRange,
		MonitoredTools: settings.MonitoredTools,
		Outputs:        make(map[string]string),
	}
	if nl.CustomInstructions != nil {
		in.CustomInstructions = *nl.CustomInstructions
	}
	if nl.ReferenceNewsletterID != nil {
		ref, found, err := o.Store.GetNewsletter(ctx, *nl.ReferenceNewsletterID)
		if err != nil {
			return err
		}
		if found {
			switch {
			case ref.AssembledNewsletter != nil && *ref.AssembledNewsletter != "":
				in.ReferenceContent = *ref.AssembledNewsletter
			case ref.ToolSearchOutput != nil:
				in.ReferenceContent = *ref.ToolSearchOutput
			}
		}
	}

	// Persisted outputs seed the resume: agents before startFrom are not
	// re-executed, their stored results feed the downstream prompts.
	seed := map[string]*string{
		agents.Scout:    nl.ToolSearchOutput,
		agents.Tracker:  nl.ReleaseSearchOutput,
		agents.Sage:     nl.TrendAnalysisOutput,
		agents.Nexus:    nl.AssembledNewsletter,
		agents.Language: nl.LanguageRefinedOutput,
		agents.HTML:     nl.HTMLOutput,
	}
	for name, out := range seed {
		if out != nil {
			in.Outputs[name] = *out
		}
	}

	for _, agentName := range sequence {
		o.Tracker.Set(newsletterID, store.NewsletterStatusRunning, agentName)

		output, err := o.Exec.Execute(ctx, newsletterID, nl.DateRange, agentName, in)
		if err != nil {
			o.Tracker.Set(newsletterID, store.NewsletterStatusFailed, agentName)
			pipelineRunsTotal.WithLabelValues("failed").Inc()
			return err
		}
		in.Outputs[agentName] = output
	}
	return nil
}
