package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cinemind/internal/genai"
)

func TestStoryboardPromptsEnglishAndStructured(t *testing.T) {
	assets := &fakeAssets{prompts: "a detective in a basement|a glowing machine| |rain on a window"}
	c := newTestCrew(t, &fakeChatModel{}, assets)
	prompts, err := c.StoryboardPrompts(context.Background(), "## Acto Uno", "| Plano | Lente |")
	if err != nil {
		t.Fatalf("StoryboardPrompts: %v", err)
	}
	if len(prompts) != 3 || prompts[2] != "rain on a window" {
		t.Fatalf("prompts = %q", prompts)
	}
	sent := assets.structuredPrompts[0]
	if !strings.Contains(sent, "ENGLISH") || !strings.Contains(sent, "Acto Uno") {
		t.Fatalf("prompt = %q", sent)
	}
	opts := assets.structuredOpts[0]
	if opts.ResponseMimeType != "application/json" || opts.ResponseSchema == nil || opts.ResponseSchema.Properties["prompts"] == nil {
		t.Fatalf("structured options = %+v", opts)
	}
}

func TestStoryboardPromptsBundleTruncated(t *testing.T) {
	assets := &fakeAssets{}
	c := newTestCrew(t, &fakeChatModel{}, assets)
	if _, err := c.StoryboardPrompts(context.Background(), strings.Repeat("b", 20000), "shots"); err != nil {
		t.Fatalf("StoryboardPrompts: %v", err)
	}
	if strings.Contains(assets.structuredPrompts[0], strings.Repeat("b", MaxStoryboardContextChars)) {
		t.Fatalf("bundle was not truncated")
	}
}

func TestStoryboardPromptsParseFailureIsEmpty(t *testing.T) {
	assets := &fakeAssets{structuredErr: &genai.ParseError{Model: "m", Raw: "nope", Err: errors.New("invalid character")}}
	c := newTestCrew(t, &fakeChatModel{}, assets)
	prompts, err := c.StoryboardPrompts(context.Background(), "b", "s")
	if err != nil {
		t.Fatalf("parse failure should not error: %v", err)
	}
	if prompts == nil || len(prompts) != 0 {
		t.Fatalf("prompts = %#v, want empty", prompts)
	}
}

func TestStoryboardPromptsTransportFailure(t *testing.T) {
	assets := &fakeAssets{structuredErr: &genai.GenerationError{Op: "transport", Message: "refused"}}
	c := newTestCrew(t, &fakeChatModel{}, assets)
	if _, err := c.StoryboardPrompts(context.Background(), "b", "s"); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestStoryboardImage(t *testing.T) {
	assets := &fakeAssets{image: &genai.InlineData{MimeType: "image/png", Data: "iVBO"}}
	c := newTestCrew(t, &fakeChatModel{}, assets)
	uri, ok := c.StoryboardImage(context.Background(), " a glowing machine ")
	if !ok || uri != "data:image/png;base64,iVBO" {
		t.Fatalf("uri = %q ok = %v", uri, ok)
	}
	if assets.imagePrompts[0] != "a glowing machine"+imageStyleSuffix {
		t.Fatalf("image prompt = %q", assets.imagePrompts[0])
	}
	if assets.imageOpts[0].ImageConfig.AspectRatio != "16:9" {
		t.Fatalf("aspect ratio = %+v", assets.imageOpts[0].ImageConfig)
	}
}

func TestStoryboardImageNeverFails(t *testing.T) {
	for name, assets := range map[string]*fakeAssets{
		"error":    {imageErr: errors.New("timeout")},
		"no image": {},
	} {
		c := newTestCrew(t, &fakeChatModel{}, assets)
		if uri, ok := c.StoryboardImage(context.Background(), "p"); ok || uri != "" {
			t.Fatalf("%s: uri = %q ok = %v", name, uri, ok)
		}
	}
}
