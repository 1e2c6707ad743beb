package model

// ImageState 分镜图片状态
type ImageState string

const (
	ImageLoading ImageState = "loading"
	ImageReady   ImageState = "ready"
	ImageFailed  ImageState = "failed"
)

// StoryboardImage 分镜图片，Base64为data URI，为空表示未生成或生成失败
type StoryboardImage struct {
	Prompt  string `json:"prompt"`           // 生成提示词
	Base64  string `json:"base64,omitempty"` // data:<mime>;base64,<payload>
	Loading bool   `json:"loading"`          // 是否生成中
}

// State loading=false且无图片表示本次运行永久失败
func (img StoryboardImage) State() ImageState {
	switch {
	case img.Loading:
		return ImageLoading
	case img.Base64 != "":
		return ImageReady
	default:
		return ImageFailed
	}
}

// FilmPackage 制作产物，随流水线推进逐步填充
type FilmPackage struct {
	ID                string            `json:"id"`
	Input             StoryInput        `json:"input"`
	GeneratedScript   string            `json:"generatedScript,omitempty"` // Scriptwriter
	ScriptBreakdown   string            `json:"scriptBreakdown,omitempty"` // Director
	ShotList          string            `json:"shotList,omitempty"`        // Cinematographer
	BudgetReport      string            `json:"budgetReport,omitempty"`    // Producer
	EditPlan          string            `json:"editPlan,omitempty"`        // Editor
	MarketingCopy     string            `json:"marketingCopy,omitempty"`   // Marketing
	StoryboardPrompts []string          `json:"storyboardPrompts"`         // 分镜提示词
	GeneratedImages   []StoryboardImage `json:"generatedImages"`           // 分镜图片
}

// Artifact 返回角色对应的产物
func (p *FilmPackage) Artifact(role AgentRole) string {
	if f := p.field(role); f != nil {
		return *f
	}
	return ""
}

// SetArtifact 写入角色对应的产物
func (p *FilmPackage) SetArtifact(role AgentRole, content string) {
	if f := p.field(role); f != nil {
		*f = content
	}
}

// Reset 清空所有产物，保留ID
func (p *FilmPackage) Reset(input StoryInput) {
	*p = FilmPackage{
		ID:                p.ID,
		Input:             input,
		StoryboardPrompts: []string{},
		GeneratedImages:   []StoryboardImage{},
	}
}

// Clone 深拷贝，供展示层读取
func (p FilmPackage) Clone() FilmPackage {
	out := p
	out.StoryboardPrompts = append([]string{}, p.StoryboardPrompts...)
	out.GeneratedImages = append([]StoryboardImage{}, p.GeneratedImages...)
	return out
}

func (p *FilmPackage) field(role AgentRole) *string {
	switch role {
	case RoleScriptwriter:
		return &p.GeneratedScript
	case RoleDirector:
		return &p.ScriptBreakdown
	case RoleCinematographer:
		return &p.ShotList
	case RoleProducer:
		return &p.BudgetReport
	case RoleEditor:
		return &p.EditPlan
	case RoleMarketing:
		return &p.MarketingCopy
	default:
		return nil
	}
}
