package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"cinemind/internal/genai"
	"cinemind/internal/model"
)

const (
	DefaultTextModel       = "gemini-3-pro-preview"
	DefaultStructuredModel = "gemini-3-pro-preview"
	DefaultImageModel      = "gemini-2.5-flash-image"
)

// AssetGenerator is the part of the generation client used for storyboard
// prompts and frames. *genai.Client satisfies it.
type AssetGenerator interface {
	GenerateStructured(ctx context.Context, model string, prompt genai.Content, opts genai.Options, out any) error
	GenerateImage(ctx context.Context, model string, prompt genai.Content, opts genai.Options) (*genai.InlineData, error)
}

// Config wires a Crew. ChatModel drives every text role.
type Config struct {
	ChatModel       einomodel.BaseChatModel
	Assets          AssetGenerator
	TextModel       string
	StructuredModel string
	ImageModel      string
	Logger          logrus.FieldLogger
}

// Output is one role's artifact. Fallback marks an empty-but-successful
// response that was replaced by FallbackText; a failed call is an error instead.
type Output struct {
	Role     model.AgentRole `json:"role"`
	Content  string          `json:"content"`
	Fallback bool            `json:"fallback"`
}

// Crew holds one function per pipeline role.
type Crew struct {
	text            compose.Runnable[map[string]any, *schema.Message]
	assets          AssetGenerator
	textModel       string
	structuredModel string
	imageModel      string
	log             logrus.FieldLogger
}

func NewCrew(ctx context.Context, cfg Config) (*Crew, error) {
	if cfg.ChatModel == nil {
		return nil, errors.New("agent: chat model required")
	}
	if cfg.Assets == nil {
		return nil, errors.New("agent: asset generator required")
	}
	runnable, err := compileTextGraph(ctx, cfg.ChatModel)
	if err != nil {
		return nil, err
	}
	c := &Crew{
		text:            runnable,
		assets:          cfg.Assets,
		textModel:       firstNonEmpty(cfg.TextModel, DefaultTextModel),
		structuredModel: firstNonEmpty(cfg.StructuredModel, DefaultStructuredModel),
		imageModel:      firstNonEmpty(cfg.ImageModel, DefaultImageModel),
		log:             cfg.Logger,
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	return c, nil
}

// compileTextGraph builds template -> chat model once; every text role reuses it.
func compileTextGraph(ctx context.Context, chatModel einomodel.BaseChatModel) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := prompt.FromMessages(schema.GoTemplate,
		schema.SystemMessage("{{.system}}"),
		schema.UserMessage("{{.prompt}}"),
	)
	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("template", template); err != nil {
		return nil, fmt.Errorf("failed to add template node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("failed to add model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "template"); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("template", "model"); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, err
	}
	runnable, err := graph.Compile(ctx, compose.WithGraphName("text_agent"))
	if err != nil {
		return nil, fmt.Errorf("failed to compile graph: %w", err)
	}
	return runnable, nil
}

func (c *Crew) runText(ctx context.Context, role model.AgentRole, userPrompt string) (Output, error) {
	log := c.log.WithField("role", role)
	log.Debug("agent: invoking text model")
	msg, err := c.text.Invoke(ctx, map[string]any{
		"system": SystemInstruction(role),
		"prompt": userPrompt,
	}, compose.WithChatModelOption(einomodel.WithModel(c.textModel)))
	if err != nil {
		return Output{Role: role}, fmt.Errorf("%s: %w", role, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		log.Warn("agent: empty response, substituting fallback")
		return Output{Role: role, Content: FallbackText(role), Fallback: true}, nil
	}
	return Output{Role: role, Content: msg.Content}, nil
}

// Scriptwriter generates a screenplay from a logline, or polishes an uploaded script.
func (c *Crew) Scriptwriter(ctx context.Context, in model.StoryInput) (Output, error) {
	return c.runText(ctx, model.RoleScriptwriter, scriptwriterPrompt(in))
}

// Director breaks down script, which is the generated script when present and the raw content otherwise.
func (c *Crew) Director(ctx context.Context, in model.StoryInput, script string) (Output, error) {
	return c.runText(ctx, model.RoleDirector, directorPrompt(in, script))
}

func (c *Crew) Cinematographer(ctx context.Context, in model.StoryInput, breakdown string) (Output, error) {
	return c.runText(ctx, model.RoleCinematographer, cinematographerPrompt(in, breakdown))
}

func (c *Crew) Producer(ctx context.Context, in model.StoryInput, shotList string) (Output, error) {
	return c.runText(ctx, model.RoleProducer, producerPrompt(in, shotList))
}

func (c *Crew) Editor(ctx context.Context, in model.StoryInput, breakdown, budget string) (Output, error) {
	return c.runText(ctx, model.RoleEditor, editorPrompt(in, breakdown, budget))
}

func (c *Crew) Marketing(ctx context.Context, in model.StoryInput, breakdown string) (Output, error) {
	return c.runText(ctx, model.RoleMarketing, marketingPrompt(in, breakdown))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
