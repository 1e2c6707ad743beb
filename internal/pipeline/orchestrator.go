package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"cinemind/internal/agent"
	"cinemind/internal/model"
)

// Crew is the set of agent functions a run drives. *agent.Crew implements it.
type Crew interface {
	Scriptwriter(ctx context.Context, in model.StoryInput) (agent.Output, error)
	Director(ctx context.Context, in model.StoryInput, script string) (agent.Output, error)
	Cinematographer(ctx context.Context, in model.StoryInput, breakdown string) (agent.Output, error)
	Producer(ctx context.Context, in model.StoryInput, shotList string) (agent.Output, error)
	Editor(ctx context.Context, in model.StoryInput, breakdown, budget string) (agent.Output, error)
	Marketing(ctx context.Context, in model.StoryInput, breakdown string) (agent.Output, error)
	StoryboardPrompts(ctx context.Context, breakdown, shotList string) ([]string, error)
	StoryboardImage(ctx context.Context, prompt string) (string, bool)
}

type step struct {
	role    model.AgentRole
	include func(model.StoryInput) bool
}

func always(model.StoryInput) bool { return true }

// needsScriptwriter: a logline has no script yet; an uploaded script only
// goes through the scriptwriter when a polish pass is requested.
func needsScriptwriter(in model.StoryInput) bool {
	return in.InputType == model.InputLogline || (in.InputType == model.InputScript && in.Rewrite)
}

var steps = []step{
	{model.RoleScriptwriter, needsScriptwriter},
	{model.RoleDirector, always},
	{model.RoleCinematographer, always},
	{model.RoleProducer, always},
	{model.RoleEditor, always},
	{model.RoleMarketing, always},
}

// Plan evaluates the step predicates once and returns the ordered roles of a run.
func Plan(in model.StoryInput) []model.AgentRole {
	roles := make([]model.AgentRole, 0, len(steps))
	for _, s := range steps {
		if s.include(in) {
			roles = append(roles, s.role)
		}
	}
	return roles
}

// artifacts carries each step's output to the next one.
type artifacts struct {
	script    string
	breakdown string
	shots     string
	budget    string
	edit      string
	marketing string
}

type Options struct {
	// ImageConcurrency bounds parallel storyboard renders. Values below 2 render
	// one frame at a time in prompt order.
	ImageConcurrency int
	Logger           logrus.FieldLogger
}

type Orchestrator struct {
	crew   Crew
	opts   Options
	log    logrus.FieldLogger
	assets sync.WaitGroup
}

func New(crew Crew, opts Options) *Orchestrator {
	o := &Orchestrator{crew: crew, opts: opts, log: opts.Logger}
	if o.log == nil {
		o.log = logrus.StandardLogger()
	}
	return o
}

// Run drives one production over store. Roles run strictly in order; the first
// error aborts the rest and keeps what was already produced. On success the
// storyboard phase is started in the background and Run returns without
// waiting for it.
func (o *Orchestrator) Run(ctx context.Context, store *Store, in model.StoryInput) error {
	defer store.finish()
	if !in.HasContent() {
		return ErrEmptyContent
	}

	plan := Plan(in)
	store.begin(in, plan)
	log := o.log.WithFields(logrus.Fields{"package_id": store.ID(), "mode": in.Mode, "language": in.Language})
	log.WithField("plan", plan).Info("pipeline: run started")
	started := time.Now()

	var arts artifacts
	for _, role := range plan {
		if err := store.markProcessing(role); err != nil {
			store.fail(role, err)
			return err
		}
		out, err := o.runRole(ctx, role, in, &arts)
		if err != nil {
			log.WithField("role", role).WithError(err).Error("pipeline: aborted")
			store.fail(role, err)
			return fmt.Errorf("pipeline aborted at %s: %w", role, err)
		}
		if out.Fallback {
			log.WithField("role", role).Warn("pipeline: empty response replaced with fallback")
		}
		if err := store.complete(role, out.Content); err != nil {
			store.fail(role, err)
			return err
		}
		log.WithFields(logrus.Fields{"role": role, "chars": len(out.Content)}).Info("pipeline: step complete")
	}
	log.WithField("elapsed", time.Since(started).Round(time.Millisecond)).Info("pipeline: text stages complete")

	if store.beginAssets() {
		o.assets.Add(1)
		go func() {
			defer o.assets.Done()
			o.generateAssets(ctx, store, arts.breakdown, arts.shots)
		}()
	}
	return nil
}

func (o *Orchestrator) runRole(ctx context.Context, role model.AgentRole, in model.StoryInput, arts *artifacts) (agent.Output, error) {
	var (
		out agent.Output
		err error
	)
	switch role {
	case model.RoleScriptwriter:
		out, err = o.crew.Scriptwriter(ctx, in)
		arts.script = out.Content
	case model.RoleDirector:
		script := arts.script
		if script == "" {
			script = in.Content
		}
		out, err = o.crew.Director(ctx, in, script)
		arts.breakdown = out.Content
	case model.RoleCinematographer:
		out, err = o.crew.Cinematographer(ctx, in, arts.breakdown)
		arts.shots = out.Content
	case model.RoleProducer:
		out, err = o.crew.Producer(ctx, in, arts.shots)
		arts.budget = out.Content
	case model.RoleEditor:
		out, err = o.crew.Editor(ctx, in, arts.breakdown, arts.budget)
		arts.edit = out.Content
	case model.RoleMarketing:
		out, err = o.crew.Marketing(ctx, in, arts.breakdown)
		arts.marketing = out.Content
	default:
		err = fmt.Errorf("no agent for role %q", role)
	}
	return out, err
}

// generateAssets is the storyboard phase. A prompt failure ends the phase;
// a failed frame only marks its own slot.
func (o *Orchestrator) generateAssets(ctx context.Context, store *Store, breakdown, shots string) {
	defer store.endAssets()
	log := o.log.WithField("package_id", store.ID())

	prompts, err := o.crew.StoryboardPrompts(ctx, breakdown, shots)
	if err != nil {
		log.WithError(err).Error("storyboard: prompt generation failed")
		store.failAssets(err)
		return
	}
	store.setPrompts(prompts)
	log.WithField("frames", len(prompts)).Info("storyboard: prompts ready")
	if len(prompts) == 0 {
		return
	}

	if o.opts.ImageConcurrency < 2 {
		for i, p := range prompts {
			o.renderFrame(ctx, store, log, i, p)
		}
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.ImageConcurrency)
	for i, p := range prompts {
		g.Go(func() error {
			o.renderFrame(gctx, store, log, i, p)
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) renderFrame(ctx context.Context, store *Store, log logrus.FieldLogger, index int, prompt string) {
	uri, ok := o.crew.StoryboardImage(ctx, prompt)
	store.resolveImage(index, uri, ok)
	if !ok {
		log.WithField("slot", index).Warn("storyboard: frame failed")
	}
}

// RetryImage regenerates one storyboard frame in the background.
func (o *Orchestrator) RetryImage(ctx context.Context, store *Store, index int) error {
	prompt, err := store.beginRetry(index)
	if err != nil {
		return err
	}
	o.assets.Add(1)
	go func() {
		defer o.assets.Done()
		defer store.endAssets()
		o.renderFrame(ctx, store, o.log.WithField("package_id", store.ID()), index, prompt)
	}()
	return nil
}

// Wait blocks until every detached storyboard phase has settled.
func (o *Orchestrator) Wait() {
	o.assets.Wait()
}
