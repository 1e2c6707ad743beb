package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"cinemind/internal/model"
)

var (
	ErrEmptyContent = errors.New("story content is empty")
	ErrAssetsBusy   = errors.New("storyboard generation already in progress")
	ErrImageIndex   = errors.New("storyboard image index out of range")
)

// Snapshot is a deep copy of a Store, safe to serialize while a run continues.
type Snapshot struct {
	Package            model.FilmPackage   `json:"package"`
	Statuses           []model.AgentStatus `json:"statuses"`
	Plan               []model.AgentRole   `json:"plan"`
	IsProcessing       bool                `json:"isProcessing"`
	IsGeneratingImages bool                `json:"isGeneratingImages"`
	ActiveRole         model.AgentRole     `json:"activeRole,omitempty"`
	Error              string              `json:"error,omitempty"`
	AssetError         string              `json:"assetError,omitempty"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// Status returns the status entry for role.
func (s Snapshot) Status(role model.AgentRole) model.AgentStatus {
	for _, st := range s.Statuses {
		if st.ID == role {
			return st
		}
	}
	return model.NewAgentStatus(role)
}

// Store holds the package and per-agent status of one production. The
// orchestrator is its only writer; readers take snapshots.
type Store struct {
	mu         sync.RWMutex
	pkg        model.FilmPackage
	statuses   []model.AgentStatus
	plan       []model.AgentRole
	processing bool
	generating bool
	active     model.AgentRole
	err        string
	assetErr   string
	updatedAt  time.Time
}

func NewStore(id string, input model.StoryInput) *Store {
	s := &Store{}
	s.pkg.ID = id
	s.pkg.Reset(input)
	s.statuses = freshStatuses()
	s.updatedAt = time.Now()
	return s
}

func freshStatuses() []model.AgentStatus {
	out := make([]model.AgentStatus, len(model.Roles))
	for i, r := range model.Roles {
		out[i] = model.NewAgentStatus(r)
	}
	return out
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Package:            s.pkg.Clone(),
		Statuses:           append([]model.AgentStatus{}, s.statuses...),
		Plan:               append([]model.AgentRole{}, s.plan...),
		IsProcessing:       s.processing,
		IsGeneratingImages: s.generating,
		ActiveRole:         s.active,
		Error:              s.err,
		AssetError:         s.assetErr,
		UpdatedAt:          s.updatedAt,
	}
}

func (s *Store) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pkg.ID
}

func (s *Store) Input() model.StoryInput {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pkg.Input
}

func (s *Store) Processing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processing
}

// TryStart claims the store for a new run. It fails with false when a run or
// an asset phase is still in flight.
func (s *Store) TryStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing || s.generating {
		return false
	}
	s.processing = true
	s.touch()
	return true
}

// begin resets artifacts and statuses for a run over plan.
func (s *Store) begin(input model.StoryInput, plan []model.AgentRole) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pkg.Reset(input)
	s.statuses = freshStatuses()
	s.plan = append([]model.AgentRole{}, plan...)
	s.processing = true
	s.generating = false
	s.err = ""
	s.assetErr = ""
	s.active = ""
	if len(plan) > 0 {
		s.active = plan[0]
	}
	s.touch()
}

func (s *Store) markProcessing(role model.AgentRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status(role)
	if st == nil {
		return fmt.Errorf("unknown role %q", role)
	}
	if err := st.Transition(model.StepProcessing); err != nil {
		return err
	}
	s.active = role
	s.touch()
	return nil
}

func (s *Store) complete(role model.AgentRole, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status(role)
	if st == nil {
		return fmt.Errorf("unknown role %q", role)
	}
	s.pkg.SetArtifact(role, content)
	if err := st.Transition(model.StepComplete); err != nil {
		return err
	}
	s.touch()
	return nil
}

// fail records a pipeline abort. The failing role drops back to pending.
func (s *Store) fail(role model.AgentRole, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.status(role); st != nil && st.IsProcessing {
		_ = st.Transition(model.StepPending)
	}
	s.err = err.Error()
	s.touch()
}

func (s *Store) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false
	s.touch()
}

func (s *Store) beginAssets() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generating {
		return false
	}
	s.generating = true
	s.assetErr = ""
	s.touch()
	return true
}

// setPrompts publishes one loading placeholder per prompt.
func (s *Store) setPrompts(prompts []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pkg.StoryboardPrompts = append([]string{}, prompts...)
	s.pkg.GeneratedImages = make([]model.StoryboardImage, len(prompts))
	for i, p := range prompts {
		s.pkg.GeneratedImages[i] = model.StoryboardImage{Prompt: p, Loading: true}
	}
	s.touch()
}

func (s *Store) resolveImage(index int, dataURI string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.pkg.GeneratedImages) {
		return
	}
	img := &s.pkg.GeneratedImages[index]
	img.Loading = false
	img.Base64 = ""
	if ok {
		img.Base64 = dataURI
	}
	s.touch()
}

func (s *Store) failAssets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assetErr = err.Error()
	s.touch()
}

func (s *Store) endAssets() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generating = false
	s.touch()
}

// beginRetry puts one slot back into loading and returns its prompt.
func (s *Store) beginRetry(index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generating || s.processing {
		return "", ErrAssetsBusy
	}
	if index < 0 || index >= len(s.pkg.GeneratedImages) {
		return "", fmt.Errorf("%w: %d of %d", ErrImageIndex, index, len(s.pkg.GeneratedImages))
	}
	s.generating = true
	img := &s.pkg.GeneratedImages[index]
	img.Loading = true
	img.Base64 = ""
	s.touch()
	return img.Prompt, nil
}

func (s *Store) status(role model.AgentRole) *model.AgentStatus {
	for i := range s.statuses {
		if s.statuses[i].ID == role {
			return &s.statuses[i]
		}
	}
	return nil
}

func (s *Store) touch() { s.updatedAt = time.Now() }
