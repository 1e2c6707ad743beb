package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"cinemind/internal/genai"
)

const storyboardAspectRatio = "16:9"

var storyboardSchema = &genai.Schema{
	Type: "OBJECT",
	Properties: map[string]*genai.Schema{
		"prompts": {Type: "ARRAY", Items: &genai.Schema{Type: "STRING"}},
	},
	Required: []string{"prompts"},
}

type storyboardBundle struct {
	Script string `json:"script"`
	Shots  string `json:"shots"`
}

type storyboardResult struct {
	Prompts []string `json:"prompts"`
}

// StoryboardPrompts asks the structured model for English image prompts
// describing the most iconic frames. An unparseable answer yields an empty
// list; transport and backend failures are returned.
func (c *Crew) StoryboardPrompts(ctx context.Context, breakdown, shotList string) ([]string, error) {
	bundle, err := json.Marshal(storyboardBundle{Script: breakdown, Shots: shotList})
	if err != nil {
		return nil, fmt.Errorf("storyboard: %w", err)
	}
	var out storyboardResult
	err = c.assets.GenerateStructured(ctx, c.structuredModel, genai.Text(storyboardPrompt(string(bundle))),
		genai.Options{ResponseMimeType: "application/json", ResponseSchema: storyboardSchema}, &out)
	if err != nil {
		var parseErr *genai.ParseError
		if errors.As(err, &parseErr) {
			c.log.WithError(err).Warn("storyboard: unparseable prompt list")
			return []string{}, nil
		}
		return nil, fmt.Errorf("storyboard: %w", err)
	}
	prompts := make([]string, 0, len(out.Prompts))
	for _, p := range out.Prompts {
		if strings.TrimSpace(p) != "" {
			prompts = append(prompts, p)
		}
	}
	return prompts, nil
}

// StoryboardImage renders one 16:9 frame. It never fails: ok is false when the
// call errored or the model returned no image.
func (c *Crew) StoryboardImage(ctx context.Context, prompt string) (string, bool) {
	img, err := c.assets.GenerateImage(ctx, c.imageModel,
		genai.Content{Parts: []genai.Part{{Text: imagePrompt(prompt)}}},
		genai.Options{ImageConfig: &genai.ImageConfig{AspectRatio: storyboardAspectRatio}})
	if err != nil {
		c.log.WithFields(logrus.Fields{"model": c.imageModel}).WithError(err).Warn("storyboard: image generation failed")
		return "", false
	}
	if img == nil {
		c.log.WithField("model", c.imageModel).Warn("storyboard: response carried no image")
		return "", false
	}
	return img.DataURI(), true
}
