package genai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// 1x1 PNG pixel base64
const mockPixel = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR4nGNgYAAAAAMAASsJTYQAAAAASUVORK5CYII="

func mockResponse(req Request) *Response {
	var part Part
	switch {
	case req.Config != nil && req.Config.ImageConfig != nil:
		part = Part{InlineData: &InlineData{MimeType: "image/png", Data: mockPixel}}
	case req.Config != nil && req.Config.ResponseMimeType == "application/json":
		b, _ := json.Marshal(map[string][]string{"prompts": {
			"Wide establishing shot, mock frame 1",
			"Close-up on the protagonist, mock frame 2",
			"Tense confrontation, mock frame 3",
			"Final image at dawn, mock frame 4",
		}})
		part = Part{Text: string(b)}
	default:
		part = Part{Text: fmt.Sprintf("## Mock output (%s)\n\n%s", req.Model, excerpt(req.Contents, 200))}
	}
	return &Response{Candidates: []Candidate{{
		Content:      Content{Role: "model", Parts: []Part{part}},
		FinishReason: "STOP",
	}}}
}

func excerpt(contents []Content, n int) string {
	var b strings.Builder
	for _, c := range contents {
		for _, p := range c.Parts {
			b.WriteString(p.Text)
		}
	}
	s := strings.TrimSpace(b.String())
	r := []rune(s)
	if len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
