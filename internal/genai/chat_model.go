package genai

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel adapts Client to eino's BaseChatModel so it can sit in a compose
// graph. System messages are folded into the systemInstruction config.
type ChatModel struct {
	client *Client
	model  string
}

func NewChatModel(client *Client, modelName string) *ChatModel {
	return &ChatModel{client: client, model: modelName}
}

func (m *ChatModel) GetType() string { return "GenAI" }

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{Model: &m.model}, opts...)
	modelName := m.model
	if options.Model != nil && *options.Model != "" {
		modelName = *options.Model
	}

	var system []string
	contents := make([]Content, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			system = append(system, msg.Content)
		case schema.Assistant:
			contents = append(contents, Content{Role: "model", Parts: []Part{{Text: msg.Content}}})
		default:
			contents = append(contents, Content{Role: "user", Parts: []Part{{Text: msg.Content}}})
		}
	}

	cfg := &Options{SystemInstruction: strings.Join(system, "\n\n"), Temperature: options.Temperature}
	resp, err := m.client.GenerateContent(ctx, Request{Model: modelName, Contents: contents, Config: cfg})
	if err != nil {
		return nil, err
	}
	out := schema.AssistantMessage(resp.Text(), nil)
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		out.ResponseMeta = &schema.ResponseMeta{FinishReason: resp.Candidates[0].FinishReason}
	}
	return out, nil
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

var _ model.BaseChatModel = (*ChatModel)(nil)
