package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cinemind/internal/model"
	"cinemind/internal/pipeline"
)

var (
	ErrNotFound      = errors.New("production not found")
	ErrRunInProgress = errors.New("production run already in progress")
)

// ProductionService keeps one pipeline store per production and starts runs
// in the background. A production accepts a new run only once the previous
// one, storyboard included, has settled.
type ProductionService struct {
	orch *pipeline.Orchestrator
	log  logrus.FieldLogger

	mu     sync.RWMutex
	stores map[string]*pipeline.Store
	runs   sync.WaitGroup
}

func NewProductionService(orch *pipeline.Orchestrator, logger logrus.FieldLogger) *ProductionService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ProductionService{orch: orch, log: logger, stores: make(map[string]*pipeline.Store)}
}

// Start validates the input, registers a new production and launches its run.
func (s *ProductionService) Start(ctx context.Context, in model.StoryInput) (string, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return "", err
	}
	if !in.HasContent() {
		return "", pipeline.ErrEmptyContent
	}

	id := uuid.NewString()
	store := pipeline.NewStore(id, in)
	store.TryStart()

	s.mu.Lock()
	s.stores[id] = store
	s.mu.Unlock()

	s.launch(ctx, store, in)
	return id, nil
}

// Rerun starts a fresh run of an existing production with its original input.
func (s *ProductionService) Rerun(ctx context.Context, id string) error {
	store, err := s.store(id)
	if err != nil {
		return err
	}
	if !store.TryStart() {
		return fmt.Errorf("%w: %s", ErrRunInProgress, id)
	}
	s.launch(ctx, store, store.Input())
	return nil
}

func (s *ProductionService) Get(id string) (pipeline.Snapshot, error) {
	store, err := s.store(id)
	if err != nil {
		return pipeline.Snapshot{}, err
	}
	return store.Snapshot(), nil
}

// List returns the snapshots of every production, most recently updated first.
func (s *ProductionService) List() []pipeline.Snapshot {
	s.mu.RLock()
	out := make([]pipeline.Snapshot, 0, len(s.stores))
	for _, st := range s.stores {
		out = append(out, st.Snapshot())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

// RetryImage regenerates one storyboard frame of a production.
func (s *ProductionService) RetryImage(ctx context.Context, id string, index int) error {
	store, err := s.store(id)
	if err != nil {
		return err
	}
	return s.orch.RetryImage(context.WithoutCancel(ctx), store, index)
}

// Wait blocks until every started run and storyboard phase has finished, or ctx ends.
func (s *ProductionService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.runs.Wait()
		s.orch.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// launch detaches the run from the caller so that a finished HTTP request
// does not cancel it.
func (s *ProductionService) launch(ctx context.Context, store *pipeline.Store, in model.StoryInput) {
	runCtx := context.WithoutCancel(ctx)
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		log := s.log.WithFields(logrus.Fields{"package_id": store.ID(), "title": in.Title})
		if err := s.orch.Run(runCtx, store, in); err != nil {
			log.WithError(err).Error("production run failed")
			return
		}
		log.Info("production text stages finished")
	}()
}

func (s *ProductionService) store(id string) (*pipeline.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stores[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return st, nil
}
