package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

type FrameRenderer interface {
	StoryboardImage(ctx context.Context, prompt string) (string, bool)
}

type StoryboardToolArgs struct {
	Prompt  string   `json:"prompt"`
	Prompts []string `json:"prompts"`
}

type StoryboardToolResp struct {
	Images []string `json:"images"`
	Failed []int    `json:"failed"`
	Count  int      `json:"count"`
}

type StoryboardTool struct {
	renderer FrameRenderer
}

func NewStoryboardTool(renderer FrameRenderer) *StoryboardTool {
	return &StoryboardTool{renderer: renderer}
}

func (t *StoryboardTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	params := map[string]*schema.ParameterInfo{
		"prompt":  {Type: schema.String, Required: false, Desc: "单帧分镜提示词（英文）"},
		"prompts": {Type: schema.Array, Required: false, Desc: "多帧分镜提示词，按顺序生成", ElemInfo: &schema.ParameterInfo{Type: schema.String}},
	}
	return &schema.ToolInfo{
		Name:        "storyboard_image",
		Desc:        "生成16:9电影感分镜图，返回data URI",
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}, nil
}

// InvokableRun renders the frames one after another. A failed frame leaves an
// empty entry in images and its index in failed.
func (t *StoryboardTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error) {
	var args StoryboardToolArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", err
	}
	var prompts []string
	if strings.TrimSpace(args.Prompt) != "" {
		prompts = append(prompts, args.Prompt)
	}
	for _, p := range args.Prompts {
		if strings.TrimSpace(p) != "" {
			prompts = append(prompts, p)
		}
	}
	if len(prompts) == 0 {
		return "", errors.New("prompt required")
	}

	out := StoryboardToolResp{Images: make([]string, len(prompts)), Failed: []int{}}
	for i, p := range prompts {
		uri, ok := t.renderer.StoryboardImage(ctx, p)
		if !ok {
			out.Failed = append(out.Failed, i)
			continue
		}
		out.Images[i] = uri
		out.Count++
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var _ einotool.InvokableTool = (*StoryboardTool)(nil)
