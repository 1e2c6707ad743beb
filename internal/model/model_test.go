package model

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from StepState
		to   StepState
		want bool
	}{
		{StepPending, StepProcessing, true},
		{StepProcessing, StepComplete, true},
		{StepComplete, StepPending, true},
		{StepProcessing, StepPending, true},
		{StepPending, StepComplete, false},
		{StepComplete, StepProcessing, false},
		{"unknown", StepPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestAgentStatusTransition(t *testing.T) {
	s := NewAgentStatus(RoleDirector)
	if s.Label != "Director" || s.Description == "" {
		t.Fatalf("unexpected metadata: %+v", s)
	}
	if err := s.Transition(StepComplete); err == nil {
		t.Fatalf("pending -> complete should be rejected")
	}
	if err := s.Transition(StepProcessing); err != nil {
		t.Fatalf("Transition(processing): %v", err)
	}
	if !s.IsProcessing || s.IsComplete {
		t.Fatalf("unexpected flags after processing: %+v", s)
	}
	if err := s.Transition(StepComplete); err != nil {
		t.Fatalf("Transition(complete): %v", err)
	}
	if s.IsProcessing || !s.IsComplete {
		t.Fatalf("unexpected flags after complete: %+v", s)
	}
	if err := s.Transition(StepProcessing); err == nil {
		t.Fatalf("complete -> processing should be rejected")
	}
}

func TestStoryInputNormalize(t *testing.T) {
	in := StoryInput{Title: "  Echo ", Mode: "budget", Language: "  spanish", InputType: "SCRIPT", Content: "x"}.Normalize()
	if in.Title != "Echo" {
		t.Fatalf("Title = %q", in.Title)
	}
	if in.Mode != ModeBudget {
		t.Fatalf("Mode = %q, want %q", in.Mode, ModeBudget)
	}
	if in.Language != "Spanish" {
		t.Fatalf("Language = %q, want Spanish", in.Language)
	}
	if in.InputType != InputScript {
		t.Fatalf("InputType = %q, want %q", in.InputType, InputScript)
	}

	defaults := StoryInput{Content: "x"}.Normalize()
	if defaults.Mode != ModeNetflix || defaults.Language != "English" || defaults.InputType != InputLogline {
		t.Fatalf("unexpected defaults: %+v", defaults)
	}
}

func TestCanonicalLanguage(t *testing.T) {
	cases := map[string]string{
		"":                     "English",
		"chinese (mandarin)":   "Chinese (Mandarin)",
		"KOREAN":               "Korean",
		"brazilian portuguese": "Brazilian Portuguese",
	}
	for in, want := range cases {
		if got := CanonicalLanguage(in); got != want {
			t.Fatalf("CanonicalLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStoryInputValidate(t *testing.T) {
	ok := StoryInput{Mode: ModeFestival, InputType: InputLogline}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	bad := StoryInput{Mode: "Theatrical", InputType: InputLogline}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Validate err = %v, want ErrInvalidInput", err)
	}
	bad = StoryInput{Mode: ModeNetflix, InputType: "novel"}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Validate err = %v, want ErrInvalidInput", err)
	}
}

func TestFilmPackageArtifacts(t *testing.T) {
	p := &FilmPackage{ID: "pkg"}
	for _, role := range Roles {
		p.SetArtifact(role, string(role)+" output")
	}
	if p.ShotList != "Cinematographer output" || p.MarketingCopy != "Marketing output" {
		t.Fatalf("artifacts not mapped to fields: %+v", p)
	}
	p.GeneratedImages = []StoryboardImage{{Prompt: "a", Loading: true}}
	clone := p.Clone()
	clone.GeneratedImages[0].Loading = false
	if !p.GeneratedImages[0].Loading {
		t.Fatalf("Clone shares image slice with original")
	}

	p.Reset(StoryInput{Title: "Echo"})
	if p.ID != "pkg" || p.Input.Title != "Echo" {
		t.Fatalf("Reset lost id or input: %+v", p)
	}
	for _, role := range Roles {
		if p.Artifact(role) != "" {
			t.Fatalf("Reset kept %s artifact", role)
		}
	}
	if p.StoryboardPrompts == nil || len(p.GeneratedImages) != 0 {
		t.Fatalf("Reset should leave empty, non-nil sequences")
	}
}

func TestStoryboardImageState(t *testing.T) {
	cases := []struct {
		img  StoryboardImage
		want ImageState
	}{
		{StoryboardImage{Prompt: "p", Loading: true}, ImageLoading},
		{StoryboardImage{Prompt: "p", Base64: "data:image/png;base64,AA=="}, ImageReady},
		{StoryboardImage{Prompt: "p"}, ImageFailed},
	}
	for _, tc := range cases {
		if got := tc.img.State(); got != tc.want {
			t.Fatalf("State(%+v) = %q, want %q", tc.img, got, tc.want)
		}
	}
}
