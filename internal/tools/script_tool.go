package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"cinemind/internal/agent"
	"cinemind/internal/model"
)

// Scriptwriter 编剧agent，*agent.Crew 实现了该接口
type Scriptwriter interface {
	Scriptwriter(ctx context.Context, in model.StoryInput) (agent.Output, error)
}

// ScriptTool 实现eino框架的剧本生成工具
type ScriptTool struct {
	writer Scriptwriter
}

// ScriptToolArgs 剧本生成请求参数
type ScriptToolArgs struct {
	Title     string `json:"title"`      // 片名
	Genre     string `json:"genre"`      // 类型
	Mode      string `json:"mode"`       // Netflix / Festival / Budget
	Language  string `json:"language"`   // 输出语言
	Content   string `json:"content"`    // 梗概或剧本原文
	InputType string `json:"input_type"` // logline / script
}

// ScriptToolResp 剧本生成响应
type ScriptToolResp struct {
	Title    string `json:"title"`    // 片名
	Script   string `json:"script"`   // 生成的剧本
	Fallback bool   `json:"fallback"` // 模型无输出时为true
	Message  string `json:"message"`  // 提示信息
}

// NewScriptTool 创建剧本生成工具实例
func NewScriptTool(writer Scriptwriter) *ScriptTool {
	return &ScriptTool{writer: writer}
}

// Info 获取剧本生成工具信息
func (t *ScriptTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	params := map[string]*schema.ParameterInfo{
		"content":    {Type: schema.String, Required: true, Desc: "梗概或已有剧本内容"},
		"title":      {Type: schema.String, Required: false, Desc: "片名"},
		"genre":      {Type: schema.String, Required: false, Desc: "影片类型"},
		"mode":       {Type: schema.String, Required: false, Desc: "Netflix、Festival或Budget", Enum: []string{"Netflix", "Festival", "Budget"}},
		"language":   {Type: schema.String, Required: false, Desc: "输出语言，默认English"},
		"input_type": {Type: schema.String, Required: false, Desc: "logline或script", Enum: []string{"logline", "script"}},
	}
	return &schema.ToolInfo{
		Name:        "script_generate",
		Desc:        "根据梗概生成短片剧本，或润色已有剧本",
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}, nil
}

// InvokableRun 执行剧本生成任务
func (t *ScriptTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error) {
	var args ScriptToolArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", err
	}

	in := model.StoryInput{
		Title:     args.Title,
		Genre:     args.Genre,
		Mode:      model.Mode(args.Mode),
		Language:  args.Language,
		Content:   args.Content,
		InputType: model.InputType(args.InputType),
	}.Normalize()
	if !in.HasContent() {
		return "", errors.New("content required")
	}
	if err := in.Validate(); err != nil {
		return "", err
	}

	out, err := t.writer.Scriptwriter(ctx, in)
	if err != nil {
		return "", fmt.Errorf("script generate: %w", err)
	}

	msg := "剧本生成完成"
	if out.Fallback {
		msg = "模型未返回内容"
	}
	b, err := json.Marshal(ScriptToolResp{Title: in.Title, Script: out.Content, Fallback: out.Fallback, Message: msg})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// 确保ScriptTool实现了einotool.InvokableTool接口
var _ einotool.InvokableTool = (*ScriptTool)(nil)
