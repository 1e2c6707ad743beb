package tools

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"cinemind/internal/agent"
	"cinemind/internal/model"
)

type fakeWriter struct {
	got model.StoryInput
	out agent.Output
	err error
}

func (f *fakeWriter) Scriptwriter(_ context.Context, in model.StoryInput) (agent.Output, error) {
	f.got = in
	return f.out, f.err
}

type fakeRenderer map[string]string

func (f fakeRenderer) StoryboardImage(_ context.Context, prompt string) (string, bool) {
	uri, ok := f[prompt]
	return uri, ok
}

func TestScriptToolInfo(t *testing.T) {
	info, err := NewScriptTool(&fakeWriter{}).Info(context.Background())
	if err != nil || info.Name != "script_generate" {
		t.Fatalf("info = %+v, err = %v", info, err)
	}
}

func TestScriptToolRun(t *testing.T) {
	w := &fakeWriter{out: agent.Output{Role: model.RoleScriptwriter, Content: "FADE IN:"}}
	res, err := NewScriptTool(w).InvokableRun(context.Background(), `{"title":"Echo","content":"A detective finds a time machine.","mode":"budget","language":"spanish"}`)
	if err != nil {
		t.Fatalf("InvokableRun: %v", err)
	}
	var resp ScriptToolResp
	if err := json.Unmarshal([]byte(res), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Script != "FADE IN:" || resp.Title != "Echo" || resp.Fallback {
		t.Fatalf("resp = %+v", resp)
	}
	if w.got.Mode != model.ModeBudget || w.got.Language != "Spanish" || w.got.InputType != model.InputLogline {
		t.Fatalf("input not normalized: %+v", w.got)
	}
}

func TestScriptToolErrors(t *testing.T) {
	tool := NewScriptTool(&fakeWriter{err: errors.New("backend down")})
	for _, args := range []string{`not json`, `{"content":"  "}`, `{"content":"x","mode":"Arthouse"}`, `{"content":"x"}`} {
		if _, err := tool.InvokableRun(context.Background(), args); err == nil {
			t.Fatalf("args %s: expected error", args)
		}
	}
}

func TestStoryboardToolRun(t *testing.T) {
	r := fakeRenderer{"a": "data:image/png;base64,AA", "c": "data:image/png;base64,CC"}
	res, err := NewStoryboardTool(r).InvokableRun(context.Background(), `{"prompt":"a","prompts":["b","c"]}`)
	if err != nil {
		t.Fatalf("InvokableRun: %v", err)
	}
	var resp StoryboardToolResp
	if err := json.Unmarshal([]byte(res), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := StoryboardToolResp{Images: []string{"data:image/png;base64,AA", "", "data:image/png;base64,CC"}, Failed: []int{1}, Count: 2}
	if !reflect.DeepEqual(resp, want) {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestStoryboardToolRequiresPrompt(t *testing.T) {
	if _, err := NewStoryboardTool(fakeRenderer{}).InvokableRun(context.Background(), `{"prompts":[" "]}`); err == nil {
		t.Fatalf("expected error")
	}
}
