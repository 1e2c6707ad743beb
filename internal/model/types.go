package model

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalidInput 输入参数不合法
var ErrInvalidInput = errors.New("invalid story input")

// Mode 制作模式，影响各agent提示词中的语气与预算约束
type Mode string

const (
	ModeNetflix  Mode = "Netflix"
	ModeFestival Mode = "Festival"
	ModeBudget   Mode = "Budget"
)

// Modes 所有支持的制作模式
var Modes = []Mode{ModeNetflix, ModeFestival, ModeBudget}

// InputType 输入类型：一句话梗概或完整剧本
type InputType string

const (
	InputLogline InputType = "logline"
	InputScript  InputType = "script"
)

// Languages 界面提供的语言列表，也允许自由输入
var Languages = []string{
	"English",
	"Spanish",
	"French",
	"German",
	"Italian",
	"Japanese",
	"Korean",
	"Chinese (Mandarin)",
	"Hindi",
	"Portuguese",
}

// StoryInput 一次制作运行的配置
type StoryInput struct {
	Title     string    `json:"title"`             // 片名
	Genre     string    `json:"genre"`             // 类型
	Mode      Mode      `json:"mode"`              // 制作模式
	Language  string    `json:"language"`          // 输出语言
	Content   string    `json:"content"`           // 梗概或剧本原文
	InputType InputType `json:"inputType"`         // 输入类型
	Rewrite   bool      `json:"rewrite,omitempty"` // 剧本输入时是否需要编剧润色
}

// Normalize 去除空白并补全默认值
func (in StoryInput) Normalize() StoryInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Genre = strings.TrimSpace(in.Genre)
	in.Mode = Mode(strings.TrimSpace(string(in.Mode)))
	for _, m := range Modes {
		if strings.EqualFold(string(in.Mode), string(m)) {
			in.Mode = m
		}
	}
	if in.Mode == "" {
		in.Mode = ModeNetflix
	}
	in.InputType = InputType(strings.ToLower(strings.TrimSpace(string(in.InputType))))
	if in.InputType == "" {
		in.InputType = InputLogline
	}
	in.Language = CanonicalLanguage(in.Language)
	return in
}

// Validate 校验模式与输入类型
func (in StoryInput) Validate() error {
	switch in.Mode {
	case ModeNetflix, ModeFestival, ModeBudget:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, in.Mode)
	}
	switch in.InputType {
	case InputLogline, InputScript:
	default:
		return fmt.Errorf("%w: unknown input type %q", ErrInvalidInput, in.InputType)
	}
	return nil
}

// HasContent 内容是否非空
func (in StoryInput) HasContent() bool {
	return strings.TrimSpace(in.Content) != ""
}

// IsEnglish 输出语言是否为英语
func (in StoryInput) IsEnglish() bool {
	return strings.EqualFold(in.Language, "English")
}

// CanonicalLanguage 将语言名规范化：命中预置列表时使用列表写法，否则按标题格式返回
func CanonicalLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "English"
	}
	for _, l := range Languages {
		if strings.EqualFold(l, lang) {
			return l
		}
	}
	return cases.Title(language.English).String(lang)
}
