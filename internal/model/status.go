package model

import "fmt"

// AgentRole 流水线中的agent角色，顺序即执行顺序
type AgentRole string

const (
	RoleScriptwriter    AgentRole = "Scriptwriter"
	RoleDirector        AgentRole = "Director"
	RoleCinematographer AgentRole = "Cinematographer"
	RoleProducer        AgentRole = "Producer"
	RoleEditor          AgentRole = "Editor"
	RoleMarketing       AgentRole = "Marketing"
)

// Roles 全部角色，按流水线顺序
var Roles = []AgentRole{
	RoleScriptwriter,
	RoleDirector,
	RoleCinematographer,
	RoleProducer,
	RoleEditor,
	RoleMarketing,
}

// RoleInfo 角色的静态展示信息
type RoleInfo struct {
	ID          AgentRole `json:"id"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
}

var roleInfo = map[AgentRole]RoleInfo{
	RoleScriptwriter:    {ID: RoleScriptwriter, Label: "Scriptwriter", Description: "Screenplay draft & polish"},
	RoleDirector:        {ID: RoleDirector, Label: "Director", Description: "Story structure & themes"},
	RoleCinematographer: {ID: RoleCinematographer, Label: "Cinematographer", Description: "Shot list & lighting"},
	RoleProducer:        {ID: RoleProducer, Label: "Producer", Description: "Budget & feasibility"},
	RoleEditor:          {ID: RoleEditor, Label: "Editor", Description: "Pacing & rhythm"},
	RoleMarketing:       {ID: RoleMarketing, Label: "Marketing", Description: "Trailer & pitch"},
}

// Info 返回角色信息，未知角色返回以ID为标签的空描述
func (r AgentRole) Info() RoleInfo {
	if info, ok := roleInfo[r]; ok {
		return info
	}
	return RoleInfo{ID: r, Label: string(r)}
}

// StepState agent步骤状态
type StepState string

const (
	StepPending    StepState = "pending"
	StepProcessing StepState = "processing"
	StepComplete   StepState = "complete"
)

var allowedTransitions = map[StepState]map[StepState]bool{
	StepPending: {
		StepPending:    true,
		StepProcessing: true,
	},
	StepProcessing: {
		StepComplete: true,
		StepPending:  true, // reset
	},
	StepComplete: {
		StepPending: true, // reset
	},
}

// CanTransition 判断状态迁移是否合法
func CanTransition(from, to StepState) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// AgentStatus 单个agent的运行状态
type AgentStatus struct {
	ID           AgentRole `json:"id"`
	Label        string    `json:"label"`
	Description  string    `json:"description"`
	IsProcessing bool      `json:"isProcessing"`
	IsComplete   bool      `json:"isComplete"`
}

// NewAgentStatus 创建处于pending的状态
func NewAgentStatus(role AgentRole) AgentStatus {
	info := role.Info()
	return AgentStatus{ID: role, Label: info.Label, Description: info.Description}
}

// State 由两个布尔字段推导当前状态
func (s AgentStatus) State() StepState {
	switch {
	case s.IsComplete:
		return StepComplete
	case s.IsProcessing:
		return StepProcessing
	default:
		return StepPending
	}
}

// Transition 迁移到目标状态，非法迁移返回错误
func (s *AgentStatus) Transition(to StepState) error {
	from := s.State()
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid agent status transition: %q -> %q (role=%s)", from, to, s.ID)
	}
	s.IsProcessing = to == StepProcessing
	s.IsComplete = to == StepComplete
	return nil
}
