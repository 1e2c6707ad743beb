package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultEndpoint = "http://localhost:5000/api/generate"
	defaultTimeout  = 120 * time.Second
)

// Client posts {model, contents, config} to a single generation endpoint and
// returns the provider's raw generateContent response. It holds no state
// between calls.
type Client struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
	Mock       bool
	Logger     logrus.FieldLogger
}

func NewClientDefault() *Client {
	return &Client{
		Endpoint:   envOr("GENAI_ENDPOINT", defaultEndpoint),
		APIKey:     os.Getenv("GENAI_API_KEY"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		Mock:       isTrue(os.Getenv("GENAI_MOCK")),
		Logger:     logrus.StandardLogger(),
	}
}

func NewClientWithTimeout(timeout time.Duration) *Client {
	c := NewClientDefault()
	c.HTTPClient = &http.Client{Timeout: timeout}
	return c
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

type InlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

// DataURI renders the payload as data:<mime>;base64,<payload>.
func (d *InlineData) DataURI() string {
	mime := d.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + d.Data
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Text builds a single-part user prompt.
func Text(prompt string) Content {
	return Content{Role: "user", Parts: []Part{{Text: prompt}}}
}

type ImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

// Options is the config bag passed through to the provider untouched.
type Options struct {
	SystemInstruction string       `json:"systemInstruction,omitempty"`
	ResponseMimeType  string       `json:"responseMimeType,omitempty"`
	ResponseSchema    *Schema      `json:"responseSchema,omitempty"`
	Temperature       *float32     `json:"temperature,omitempty"`
	ImageConfig       *ImageConfig `json:"imageConfig,omitempty"`
}

// Schema is the provider's OpenAPI subset used for structured output.
type Schema struct {
	Type       string             `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

type Request struct {
	Model    string    `json:"model"`
	Contents []Content `json:"contents"`
	Config   *Options  `json:"config,omitempty"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type Response struct {
	Candidates []Candidate `json:"candidates"`
}

// Text joins every text part of the first candidate.
func (r *Response) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// InlineData returns the first inline payload of the first candidate, or nil.
func (r *Response) InlineData() *InlineData {
	if r == nil || len(r.Candidates) == 0 {
		return nil
	}
	for _, p := range r.Candidates[0].Content.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			return p.InlineData
		}
	}
	return nil
}

func (c *Client) GenerateContent(ctx context.Context, req Request) (*Response, error) {
	if req.Model == "" {
		return nil, &GenerationError{Op: "generate", Message: "model required"}
	}
	if c.Mock {
		return mockResponse(req), nil
	}
	var resp Response
	if err := c.postJSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GenerateText(ctx context.Context, model string, prompt Content, opts Options) (string, error) {
	resp, err := c.GenerateContent(ctx, Request{Model: model, Contents: []Content{prompt}, Config: &opts})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// GenerateStructured requests a schema-constrained JSON response and decodes
// it into out. A response that is not valid JSON for out is reported as a
// *ParseError so callers can tell it apart from transport failures.
func (c *Client) GenerateStructured(ctx context.Context, model string, prompt Content, opts Options, out any) error {
	if opts.ResponseMimeType == "" {
		opts.ResponseMimeType = "application/json"
	}
	text, err := c.GenerateText(ctx, model, prompt, opts)
	if err != nil {
		return err
	}
	text = stripCodeFence(text)
	if text == "" {
		text = "{}"
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return &ParseError{Model: model, Raw: text, Err: err}
	}
	return nil
}

// GenerateImage returns the first inline image of the response, or nil when
// the model answered without one.
func (c *Client) GenerateImage(ctx context.Context, model string, prompt Content, opts Options) (*InlineData, error) {
	resp, err := c.GenerateContent(ctx, Request{Model: model, Contents: []Content{prompt}, Config: &opts})
	if err != nil {
		return nil, err
	}
	return resp.InlineData(), nil
}

func (c *Client) postJSON(ctx context.Context, body Request, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return &GenerationError{Op: "marshal", Model: body.Model, Message: err.Error(), Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(b))
	if err != nil {
		return &GenerationError{Op: "request", Model: body.Model, Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("x-goog-api-key", c.APIKey)
	}
	c.logger().WithFields(logrus.Fields{"model": body.Model, "bytes": len(b)}).Debug("genai: POST " + c.Endpoint)

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	res, err := hc.Do(req)
	if err != nil {
		return &GenerationError{Op: "transport", Model: body.Model, Message: err.Error(), Err: err}
	}
	defer res.Body.Close()
	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return &GenerationError{Op: "read", Model: body.Model, Status: res.StatusCode, Message: err.Error(), Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &GenerationError{
			Op:      "status",
			Model:   body.Model,
			Status:  res.StatusCode,
			Message: fmt.Sprintf("backend error (%d): %s", res.StatusCode, strings.TrimSpace(string(bodyBytes))),
		}
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return &GenerationError{Op: "decode", Model: body.Model, Status: res.StatusCode, Message: "malformed response: " + err.Error(), Err: err}
	}
	return nil
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func isTrue(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "1" || v == "true"
}
