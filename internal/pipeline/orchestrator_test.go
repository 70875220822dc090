package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yoyo-gitroi/GTM-Newsletter/internal/agents"
	"github.com/yoyo-gitroi/GTM-Newsletter/internal/store"
)

func strptr(s string) *string { return &s }

func newOrchestrator(st RunStore, llm LLMClient) *Orchestrator {
	return NewOrchestrator(st, newExecutor(st, llm), NewTracker(), NewMemoryLocker())
}

func TestRunExecutesAllAgentsInOrder(t *testing.T) {
	st := newFakeStore()
	st.newsletters["nl-1"] = store.Newsletter{ID: "nl-1", Title: "Weekly", DateRange: "Last 7 days", Status: store.NewsletterStatusDraft}
	llm := &fakeLLM{}
	o := newOrchestrator(st, llm)

	if err := o.Run(context.Background(), "nl-1", ""); err != nil {
		t.Fatal(err)
	}

	want := []string{agents.Scout, agents.Tracker, agents.Sage, agents.Nexus, agents.Language, agents.HTML}
	if len(llm.calls) != len(want) {
		t.Fatalf("expected %d agent calls, got %d: %v", len(want), len(llm.calls), llm.calls)
	}
	for i, agent := range want {
		if llm.calls[i] != agent {
			t.Errorf("call %d = %s, want %s", i, llm.calls[i], agent)
		}
	}
	if st.newsletters["nl-1"].Status != store.NewsletterStatusCompleted {
		t.Errorf("newsletter status = %s, want completed", st.newsletters["nl-1"].Status)
	}
	status, ok := o.Tracker.Get("nl-1")
	if !ok || status.Status != store.NewsletterStatusCompleted {
		t.Errorf("tracker status = %+v", status)
	}
}

func TestRunThreadsOutputsDownstream(t *testing.T) {
	st := newFakeStore()
	st.newsletters["nl-1"] = store.Newsletter{ID: "nl-1", DateRange: "Last 7 days"}
	llm := &fakeLLM{responses: map[string]string{
		agents.Scout:   "scout intel ALPHA",
		agents.Tracker: "tracker intel BETA",
	}}
	o := newOrchestrator(st, llm)

	if err := o.Run(context.Background(), "nl-1", ""); err != nil {
		t.Fatal(err)
	}

	// sage is the third call; its prompt embeds both upstream outputs
	sagePrompt := llm.prompts[2]
	if !strings.Contains(sagePrompt, "scout intel ALPHA") || !strings.Contains(sagePrompt, "tracker intel BETA") {
		t.Error("sage prompt missing upstream outputs")
	}
}

func TestRunResumesFromAgent(t *testing.T) {
	st := newFakeStore()
	st.newsletters["nl-1"] = store.Newsletter{
		ID:                  "nl-1",
		DateRange:           "Last 7 days",
		ToolSearchOutput:    strptr("stored scout data"),
		ReleaseSearchOutput: strptr("stored tracker data"),
		TrendAnalysisOutput: strptr("stored sage data"),
	}
	llm := &fakeLLM{}
	o := newOrchestrator(st, llm)

	if err := o.Run(context.Background(), "nl-1", agents.Nexus); err != nil {
		t.Fatal(err)
	}

	want := []string{agents.Nexus, agents.Language, agents.HTML}
	if len(llm.calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), llm.calls)
	}
	for i, agent := range want {
		if llm.calls[i] != agent {
			t.Errorf("call %d = %s, want %s", i, llm.calls[i], agent)
		}
	}
	if !strings.Contains(llm.prompts[0], "stored sage data") {
		t.Error("nexus prompt should use the persisted sage output")
	}
}

func TestRunHaltsOnStepFailure(t *testing.T) {
	st := newFakeStore()
	st.newsletters["nl-1"] = store.Newsletter{ID: "nl-1", DateRange: "Last 7 days"}
	llm := &fakeLLM{failures: map[string]int{agents.Tracker: 3}}
	o := newOrchestrator(st, llm)

	if err := o.Run(context.Background(), "nl-1", ""); err == nil {
		t.Fatal("expected pipeline failure")
	}

	for _, call := range llm.calls {
		if call == agents.Sage || call == agents.Nexus {
			t.Fatalf("downstream agent %s should not run after a failure", call)
		}
	}
	if st.newsletters["nl-1"].Status != store.NewsletterStatusFailed {
		t.Errorf("newsletter status = %s, want failed", st.newsletters["nl-1"].Status)
	}
	status, _ := o.Tracker.Get("nl-1")
	if status.Status != store.NewsletterStatusFailed {
		t.Errorf("tracker status = %+v", status)
	}
	if status.CurrentAgent == nil || *status.CurrentAgent != agents.Tracker {
		t.Errorf("tracker current agent = %v, want tracker", status.CurrentAgent)
	}
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	st := newFakeStore()
	st.newsletters["nl-1"] = store.Newsletter{ID: "nl-1", DateRange: "Last 7 days"}
	o := newOrchestrator(st, &fakeLLM{})

	if ok, _ := o.Locker.Acquire(context.Background(), "nl-1"); !ok {
		t.Fatal("setup: could not pre-acquire lock")
	}
	// the HTTP handler marks the tracker running before calling Run
	o.Tracker.Set("nl-1", store.NewsletterStatusRunning, "")
	if err := o.Run(context.Background(), "nl-1", ""); err != ErrAlreadyRunning {
		t.Errorf("got %v, want ErrAlreadyRunning", err)
	}
	if _, ok := o.Tracker.Get("nl-1"); ok {
		t.Error("rejected run should drop the tracker entry")
	}
}

func TestRunRejectsWhenClaimFails(t *testing.T) {
	st := newFakeStore()
	st.newsletters["nl-1"] = store.Newsletter{ID: "nl-1", DateRange: "Last 7 days", Status: store.NewsletterStatusRunning}
	st.claimOK = false
	o := newOrchestrator(st, &fakeLLM{})

	o.Tracker.Set("nl-1", store.NewsletterStatusRunning, "")
	if err := o.Run(context.Background(), "nl-1", ""); err != ErrAlreadyRunning {
		t.Errorf("got %v, want ErrAlreadyRunning", err)
	}
	if _, ok := o.Tracker.Get("nl-1"); ok {
		t.Error("failed claim should drop the tracker entry")
	}
}

func TestRunClearsTrackerOnClaimError(t *testing.T) {
	st := newFakeStore()
	st.newsletters["nl-1"] = store.Newsletter{ID: "nl-1", DateRange: "Last 7 days"}
	st.claimErr = errors.New("connection reset")
	o := newOrchestrator(st, &fakeLLM{})

	o.Tracker.Set("nl-1", store.NewsletterStatusRunning, "")
	if err := o.Run(context.Background(), "nl-1", ""); err == nil {
		t.Fatal("expected claim error")
	}
	if _, ok := o.Tracker.Get("nl-1"); ok {
		t.Error("claim error should drop the tracker entry")
	}
}

func TestRunMarksTrackerFailedWhenCompletionWriteFails(t *testing.T) {
	st := newFakeStore()
	st.newsletters["nl-1"] = store.Newsletter{ID: "nl-1", DateRange: "Last 7 days"}
	st.statusErr = errors.New("connection reset")
	o := newOrchestrator(st, &fakeLLM{})

	if err := o.Run(context.Background(), "nl-1", ""); err == nil {
		t.Fatal("expected completion-write error")
	}
	status, ok := o.Tracker.Get("nl-1")
	if !ok || status.Status != store.NewsletterStatusFailed {
		t.Errorf("tracker status = %+v, want failed", status)
	}
}

func TestRunUnknownStartAgent(t *testing.T) {
	st := newFakeStore()
	o := newOrchestrator(st, &fakeLLM{})
	if err := o.Run(context.Background(), "nl-1", "oracle"); err != ErrUnknownAgent {
		t.Errorf("got %v, want ErrUnknownAgent", err)
	}
}

func TestRunMissingNewsletter(t *testing.T) {
	st := newFakeStore()
	o := newOrchestrator(st, &fakeLLM{})
	if err := o.Run(context.Background(), "ghost", ""); err != store.ErrNotFound {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestRunUsesReferenceNewsletterContent(t *testing.T) {
	st := newFakeStore()
	st.newsletters["ref-1"] = store.Newsletter{ID: "ref-1", AssembledNewsletter: strptr("previous issue body")}
	st.newsletters["nl-1"] = store.Newsletter{ID: "nl-1", DateRange: "Last 7 days", ReferenceNewsletterID: strptr("ref-1")}
	llm := &fakeLLM{}
	o := newOrchestrator(st, llm)

	if err := o.Run(context.Background(), "nl-1", ""); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(llm.prompts[0], "previous issue body") {
		t.Error("scout prompt should carry the reference newsletter content")
	}
}

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()
	tr.Set("nl-1", "running", "scout")
	s, ok := tr.Get("nl-1")
	if !ok || s.Status != "running" || s.CurrentAgent == nil || *s.CurrentAgent != "scout" {
		t.Errorf("got %+v", s)
	}
	tr.Set("nl-1", "completed", "")
	s, _ = tr.Get("nl-1")
	if s.CurrentAgent != nil {
		t.Error("current agent should be nil once cleared")
	}
	tr.Clear("nl-1")
	if _, ok := tr.Get("nl-1"); ok {
		t.Error("status should be gone after Clear")
	}
}

func TestMemoryLocker(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()
	if ok, _ := l.Acquire(ctx, "a"); !ok {
		t.Fatal("first acquire should succeed")
	}
	if ok, _ := l.Acquire(ctx, "a"); ok {
		t.Fatal("second acquire should fail while held")
	}
	if ok, _ := l.Acquire(ctx, "b"); !ok {
		t.Fatal("different key should acquire")
	}
	l.Release(ctx, "a")
	if ok, _ := l.Acquire(ctx, "a"); !ok {
		t.Fatal("acquire after release should succeed")
	}
}
