package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cinemind/internal/agent"
	"cinemind/internal/model"
	"cinemind/internal/pipeline"
)

// stubCrew answers instantly unless gate is set, in which case Director
// blocks until the gate is closed.
type stubCrew struct {
	gate chan struct{}
}

func (c *stubCrew) out(role model.AgentRole) (agent.Output, error) {
	return agent.Output{Role: role, Content: string(role) + " notes"}, nil
}

func (c *stubCrew) Scriptwriter(context.Context, model.StoryInput) (agent.Output, error) {
	return c.out(model.RoleScriptwriter)
}

func (c *stubCrew) Director(ctx context.Context, _ model.StoryInput, _ string) (agent.Output, error) {
	if c.gate != nil {
		<-c.gate
	}
	return c.out(model.RoleDirector)
}

func (c *stubCrew) Cinematographer(context.Context, model.StoryInput, string) (agent.Output, error) {
	return c.out(model.RoleCinematographer)
}

func (c *stubCrew) Producer(context.Context, model.StoryInput, string) (agent.Output, error) {
	return c.out(model.RoleProducer)
}

func (c *stubCrew) Editor(context.Context, model.StoryInput, string, string) (agent.Output, error) {
	return c.out(model.RoleEditor)
}

func (c *stubCrew) Marketing(context.Context, model.StoryInput, string) (agent.Output, error) {
	return c.out(model.RoleMarketing)
}

func (c *stubCrew) StoryboardPrompts(context.Context, string, string) ([]string, error) {
	return []string{"frame one", "frame two"}, nil
}

func (c *stubCrew) StoryboardImage(_ context.Context, prompt string) (string, bool) {
	return "data:image/png;base64,AAAA", prompt != "frame two"
}

func newService(crew pipeline.Crew) *ProductionService {
	return NewProductionService(pipeline.New(crew, pipeline.Options{}), nil)
}

func waitAll(t *testing.T, s *ProductionService) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestStartRunsToCompletion(t *testing.T) {
	s := newService(&stubCrew{})
	id, err := s.Start(context.Background(), model.StoryInput{Title: "Echo", Content: "A retired detective discovers a time machine."})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitAll(t, s)

	snap, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if snap.Package.ID != id || snap.Package.MarketingCopy != "Marketing notes" {
		t.Fatalf("package = %+v", snap.Package)
	}
	if snap.Package.Input.Mode != model.ModeNetflix || snap.Package.Input.Language != "English" {
		t.Fatalf("input not normalized: %+v", snap.Package.Input)
	}
	if n := len(snap.Package.GeneratedImages); n != 2 {
		t.Fatalf("images = %d", n)
	}
	if len(s.List()) != 1 {
		t.Fatalf("List = %d entries", len(s.List()))
	}
}

func TestStartRejectsBadInput(t *testing.T) {
	s := newService(&stubCrew{})
	if _, err := s.Start(context.Background(), model.StoryInput{Content: "  "}); !errors.Is(err, pipeline.ErrEmptyContent) {
		t.Fatalf("empty content err = %v", err)
	}
	if _, err := s.Start(context.Background(), model.StoryInput{Content: "x", Mode: "Arthouse"}); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("bad mode err = %v", err)
	}
	if len(s.List()) != 0 {
		t.Fatalf("rejected input registered a production")
	}
}

func TestRerunWhileProcessing(t *testing.T) {
	crew := &stubCrew{gate: make(chan struct{})}
	s := newService(crew)
	id, err := s.Start(context.Background(), model.StoryInput{Content: "logline"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Rerun(context.Background(), id); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("rerun during run err = %v", err)
	}
	close(crew.gate)
	waitAll(t, s)

	if err := s.Rerun(context.Background(), id); err != nil {
		t.Fatalf("rerun after settle: %v", err)
	}
	waitAll(t, s)
	if snap, _ := s.Get(id); snap.IsProcessing || snap.Package.EditPlan == "" {
		t.Fatalf("rerun did not complete: %+v", snap)
	}
}

func TestUnknownProduction(t *testing.T) {
	s := newService(&stubCrew{})
	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get err = %v", err)
	}
	if err := s.Rerun(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Rerun err = %v", err)
	}
	if err := s.RetryImage(context.Background(), "missing", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RetryImage err = %v", err)
	}
}

func TestRetryImage(t *testing.T) {
	s := newService(&stubCrew{})
	id, _ := s.Start(context.Background(), model.StoryInput{Content: "logline"})
	waitAll(t, s)

	snap, _ := s.Get(id)
	if snap.Package.GeneratedImages[1].State() != model.ImageFailed {
		t.Fatalf("frame two should fail: %+v", snap.Package.GeneratedImages)
	}
	if err := s.RetryImage(context.Background(), id, 7); !errors.Is(err, pipeline.ErrImageIndex) {
		t.Fatalf("index err = %v", err)
	}
	if err := s.RetryImage(context.Background(), id, 0); err != nil {
		t.Fatalf("RetryImage: %v", err)
	}
	waitAll(t, s)
	snap, _ = s.Get(id)
	if snap.Package.GeneratedImages[0].State() != model.ImageReady {
		t.Fatalf("retried frame = %+v", snap.Package.GeneratedImages[0])
	}
}
