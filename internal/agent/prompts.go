package agent

import (
	"fmt"
	"strings"

	"cinemind/internal/model"
)

const (
	// MaxContextChars bounds upstream artifact text embedded in a text prompt.
	MaxContextChars = 50000
	// MaxStoryboardContextChars bounds the storyboard bundle.
	MaxStoryboardContextChars = 10000

	// StoryboardFrames is how many iconic frames the prompt generator asks for.
	StoryboardFrames = 4

	imageStyleSuffix = ", cinematic lighting, photorealistic, movie still, 8k, detailed"
)

// Producer directives, one per mode.
const (
	DirectiveCostReduction = "CRITICAL: Rewrite or flag scenes to reduce cost drastically."
	DirectiveBingeable     = "Ensure the pacing is binge-worthy and commercial."
	DirectiveArtisticMerit = "Focus on artistic merit over commercial viability, but keep it producible."
)

var systemInstructions = map[model.AgentRole]string{
	model.RoleScriptwriter:    "You are a professional screenwriter. You write vivid action and realistic dialogue.",
	model.RoleDirector:        "You are a visionary film director known for strong structural storytelling and cultural authenticity.",
	model.RoleCinematographer: "You are a master of light and composition. You speak in visual terms.",
	model.RoleProducer:        "You are the reality check. You care about budget, schedule, and marketability.",
	model.RoleEditor:          "You are the final rewrite. You control time and tension.",
	model.RoleMarketing:       "You sell the dream. You are hype, precision, and audience psychology.",
}

// SystemInstruction returns the fixed persona for a role.
func SystemInstruction(role model.AgentRole) string {
	return systemInstructions[role]
}

// FallbackText is substituted when a role's model call returns no text.
func FallbackText(role model.AgentRole) string {
	return fmt.Sprintf("%s failed to generate output.", role)
}

// Truncate cuts s to at most n runes. Cutting mid-scene is accepted.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func genreOf(in model.StoryInput) string {
	if in.Genre == "" {
		return "Unspecified"
	}
	return in.Genre
}

func writeConfig(b *strings.Builder, in model.StoryInput, withGenre bool) {
	if in.Title != "" {
		fmt.Fprintf(b, "TITLE: %s\n", in.Title)
	}
	if withGenre {
		fmt.Fprintf(b, "GENRE: %s\n", genreOf(in))
	}
	fmt.Fprintf(b, "MODE: %s\n", in.Mode)
	fmt.Fprintf(b, "TARGET LANGUAGE: %s\n\n", in.Language)
}

func writeTasks(b *strings.Builder, heading string, tasks []string) {
	b.WriteString(heading)
	b.WriteString(":\n")
	for i, t := range tasks {
		fmt.Fprintf(b, "%d. %s\n", i+1, t)
	}
	b.WriteString("\n")
}

// localization is appended to every text prompt.
func localization(in model.StoryInput) string {
	var b strings.Builder
	b.WriteString("LOCALIZATION:\n")
	fmt.Fprintf(&b, "- Write your entire response (headers, descriptions, dialogue) in %s.\n", in.Language)
	if !in.IsEnglish() {
		fmt.Fprintf(&b, "- Adapt dialogue and cultural references so they feel native to %s-speaking audiences; do not translate literally.\n", in.Language)
		b.WriteString("- Preserve the emotional subtext specific to that cultural context.\n")
	}
	return b.String()
}

func scriptwriterPrompt(in model.StoryInput) string {
	var b strings.Builder
	b.WriteString("You are an expert Screenwriter.\n\n")
	if in.InputType == model.InputScript {
		fmt.Fprintf(&b, "EXISTING SCRIPT CONTENT:\n\"%s\"\n\n", Truncate(in.Content, MaxContextChars))
		writeConfig(&b, in, true)
		b.WriteString("TASK:\nRewrite, format, and polish the existing script content into a professional screenplay.\n\n")
		writeTasks(&b, "REQUIREMENTS", []string{
			"Fix any formatting issues (ensure standard Scene Headers, Action, Dialogue).",
			"Enhance dialogue for impact and natural flow.",
			fmt.Sprintf("Ensure the tone matches the %s mode.", in.Mode),
			"Maintain the core story but improve execution.",
		})
	} else {
		fmt.Fprintf(&b, "LOGLINE/IDEA:\n\"%s\"\n\n", Truncate(in.Content, MaxContextChars))
		writeConfig(&b, in, true)
		b.WriteString("TASK:\nWrite a complete short film screenplay based on the logline above.\n\n")
		writeTasks(&b, "REQUIREMENTS", []string{
			"Standard Screenplay Format (Scene Headers, Action, Character Name, Dialogue).",
			"Develop compelling characters and dialogue.",
			fmt.Sprintf("Ensure the tone matches the %s mode.", in.Mode),
			"Structure it with a clear beginning, middle, and end.",
		})
	}
	b.WriteString(localization(in))
	b.WriteString("\nOutput in clean Markdown.")
	return b.String()
}

func directorPrompt(in model.StoryInput, script string) string {
	var b strings.Builder
	b.WriteString("You are the Lead Director of a prestigious film studio.\n\n")
	fmt.Fprintf(&b, "SCRIPT:\n\"%s\"\n\n", Truncate(script, MaxContextChars))
	writeConfig(&b, in, true)
	structure := "Divide the story into a clear 3-Act Structure."
	if in.Mode == model.ModeFestival {
		structure = "Divide the story into a clear 3-Act Structure, or an alternative structure if it serves the film better."
	}
	writeTasks(&b, "TASK", []string{
		"Interpret the script deeply. Identify the core theme, tone, and emotional arc.",
		"Create detailed CHARACTER PROFILES for the main cast: name & role, backstory & personality, core motivation, key emotional arc.",
		structure,
		"Break down key scenes with specific directorial notes on performance.",
	})
	b.WriteString(localization(in))
	b.WriteString("\nOutput in clean Markdown format with headers.")
	return b.String()
}

func cinematographerPrompt(in model.StoryInput, breakdown string) string {
	var b strings.Builder
	b.WriteString("You are an Oscar-winning Cinematographer (DOP).\n\n")
	fmt.Fprintf(&b, "DIRECTOR'S VISION:\n%s\n\n", Truncate(breakdown, MaxContextChars))
	writeConfig(&b, in, false)
	writeTasks(&b, "TASK", []string{
		"Convert the key scenes into a visual shot list.",
		"Define the visual language: color palette, lighting style (e.g., chiaroscuro, high-key), and camera movement.",
		fmt.Sprintf("Specify lenses and aspect ratio suitable for the %s mode.", in.Mode),
	})
	b.WriteString(localization(in))
	b.WriteString("\nOutput in clean Markdown. Use tables for shot lists where appropriate.")
	return b.String()
}

// producerDirective is the only mode-conditional line of the producer prompt.
func producerDirective(mode model.Mode) string {
	switch mode {
	case model.ModeBudget:
		return DirectiveCostReduction
	case model.ModeNetflix:
		return DirectiveBingeable
	case model.ModeFestival:
		return DirectiveArtisticMerit
	default:
		return ""
	}
}

func producerPrompt(in model.StoryInput, shotList string) string {
	var b strings.Builder
	b.WriteString("You are a pragmatic and experienced Executive Producer.\n\n")
	fmt.Fprintf(&b, "CINEMATOGRAPHY PLAN:\n%s\n\n", Truncate(shotList, MaxContextChars))
	writeConfig(&b, in, false)
	tasks := []string{
		"Analyze the feasibility of the proposed shots and scenes.",
		"Identify expensive elements (CGI, locations, cast size).",
	}
	if d := producerDirective(in.Mode); d != "" {
		tasks = append(tasks, d)
	}
	writeTasks(&b, "TASK", tasks)
	b.WriteString(localization(in))
	b.WriteString("\nOutput a production report in Markdown.")
	return b.String()
}

func editorPrompt(in model.StoryInput, breakdown, budget string) string {
	var b strings.Builder
	b.WriteString("You are a Master Film Editor.\n\n")
	fmt.Fprintf(&b, "SCRIPT STRUCTURE:\n%s\n\n", Truncate(breakdown, MaxContextChars))
	fmt.Fprintf(&b, "PRODUCER NOTES:\n%s\n\n", Truncate(budget, MaxContextChars))
	writeConfig(&b, in, false)
	writeTasks(&b, "TASK", []string{
		"Review the scene order. Suggest reordering for maximum emotional impact.",
		"Flag slow sections or pacing issues.",
		"Suggest where to cut early or enter late in scenes.",
		`Create a "Rhythm and Pacing" guide for the final cut.`,
	})
	b.WriteString(localization(in))
	b.WriteString("\nOutput in Markdown.")
	return b.String()
}

func marketingPrompt(in model.StoryInput, breakdown string) string {
	var b strings.Builder
	b.WriteString("You are a Head of Marketing at a major studio.\n\n")
	fmt.Fprintf(&b, "FINAL VISION:\n%s\n\n", Truncate(breakdown, MaxContextChars))
	writeConfig(&b, in, false)
	pitch := "Draft a pitch blurb for streaming platform executives."
	if in.Mode == model.ModeFestival {
		pitch = "Draft a Director Statement for Sundance/Cannes."
	}
	writeTasks(&b, "TASK", []string{
		"Write a compelling Logline (1 sentence).",
		"Write a Tagline.",
		"Write a Trailer Script (Voiceover + Visual cues).",
		pitch,
	})
	b.WriteString(localization(in))
	fmt.Fprintf(&b, "- Ensure the tone fits the %s film market.\n", in.Language)
	b.WriteString("\nOutput in Markdown.")
	return b.String()
}

func storyboardPrompt(bundle string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on the following film production package, generate %d distinct, highly visual image prompts for a text-to-image AI model.\n", StoryboardFrames)
	fmt.Fprintf(&b, "These should represent the %d most iconic frames of the movie.\n\n", StoryboardFrames)
	fmt.Fprintf(&b, "CONTEXT:\n%s\n\n", Truncate(bundle, MaxStoryboardContextChars))
	b.WriteString("IMPORTANT: Even if the context is in another language, generate the image prompts in ENGLISH for best image generation results.\n\n")
	b.WriteString(`Return JSON only, shaped as {"prompts": ["prompt 1", "prompt 2", ...]}.`)
	return b.String()
}

func imagePrompt(prompt string) string {
	return strings.TrimSpace(prompt) + imageStyleSuffix
}
