package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"storyboarder/internal/fanout"
	"storyboarder/internal/pipeline"
	"storyboarder/internal/reconcile"
	t "storyboarder/internal/types"
)

// Snapshot is a read-only copy of a session's state.
type Snapshot struct {
	ID              string      `json:"id"`
	Stage           t.Stage     `json:"stage"`
	StageName       string      `json:"stageName"`
	Busy            bool        `json:"busy"`
	Error           string      `json:"error,omitempty"`
	Project         t.Project   `json:"project"`
	WorkingInsights *t.Insights `json:"workingInsights,omitempty"`
	Version         uint64      `json:"version"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBrief sets the brief new and reset projects start with.
func WithBrief(b t.Brief) Option {
	return func(s *Session) { s.defaults = b }
}

// WithConcurrency caps the calls in flight per fan-out batch.
func WithConcurrency(n int) Option {
	return func(s *Session) { s.fanout = []fanout.Option{fanout.WithLimit(n)} }
}

// Session owns one project and serialises every operation on it. The lock
// is never held across a generation call.
type Session struct {
	id       string
	stages   *pipeline.Stages
	logger   *slog.Logger
	defaults t.Brief
	fanout   []fanout.Option

	mu      sync.Mutex
	project t.Project
	stage   t.Stage
	busy    bool
	errMsg  string
	working t.Insights
	// lastRemoval lets a deselected idea be toggled back into place.
	lastRemoval reconcile.Removal
	epoch       uint64 // bumped by StartOver
	boardsGen   uint64 // bumped whenever storyboards are replaced
	version     uint64
	updatedAt   time.Time
	listeners   map[int]func(Snapshot)
	nextSub     int
}

// NewSession starts a project at the setup stage.
func NewSession(id string, stages *pipeline.Stages, opts ...Option) *Session {
	s := &Session{
		id:        id,
		stages:    stages,
		logger:    slog.Default(),
		defaults:  t.DefaultBrief(),
		stage:     t.StageSetup,
		listeners: make(map[int]func(Snapshot)),
		updatedAt: time.Now(),
	}
	for _, o := range opts {
		o(s)
	}
	s.fanout = append(s.fanout, fanout.WithLogger(s.logger))
	s.project = t.Project{Brief: s.defaults}
	return s
}

// Restore rebuilds a session from a stored snapshot. In-flight per-scene
// generations are not resumed, so their progress flags are cleared.
func Restore(snap Snapshot, stages *pipeline.Stages, opts ...Option) *Session {
	s := NewSession(snap.ID, stages, opts...)
	s.project = snap.Project.Clone()
	for i := range s.project.Storyboards {
		for j := range s.project.Storyboards[i].Scenes {
			s.project.Storyboards[i].Scenes[j].Generating = false
		}
	}
	s.stage = snap.Stage
	if s.stage < t.StageSetup || s.stage > t.StageFinal {
		s.stage = t.StageSetup
	}
	s.errMsg = snap.Error
	if snap.WorkingInsights != nil {
		s.working = snap.WorkingInsights.Clone()
	} else if s.project.Insights != nil {
		s.working = s.project.Insights.Clone()
	}
	s.version = snap.Version
	if !snap.UpdatedAt.IsZero() {
		s.updatedAt = snap.UpdatedAt
	}
	return s
}

func (s *Session) ID() string { return s.id }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		Stage:     s.stage,
		StageName: s.stage.String(),
		Busy:      s.busy,
		Error:     s.errMsg,
		Project:   s.project.Clone(),
		Version:   s.version,
		UpdatedAt: s.updatedAt,
	}
	if s.stage == t.StageInsightReview {
		w := s.working.Clone()
		snap.WorkingInsights = &w
	}
	return snap
}

// Subscribe registers fn to receive a snapshot after every change. fn runs
// outside the session lock and must not block.
func (s *Session) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// changedLocked records a change and returns what to notify once the lock
// is released.
func (s *Session) changedLocked() func() {
	s.version++
	s.updatedAt = time.Now()
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(snap)
		}
	}
}

// edit runs fn under the lock when the session is idle and in stage.
func (s *Session) edit(stage t.Stage, fn func() error) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.stage != stage {
		cur := s.stage
		s.mu.Unlock()
		return fmt.Errorf("%w: in %s, want %s", ErrWrongStage, cur, stage)
	}
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	notify := s.changedLocked()
	s.mu.Unlock()
	notify()
	return nil
}

// forward runs a generating transition from stage. The project copy handed
// to run is taken under the lock; the result is committed under the lock.
// keepOnErr commits the returned project even when run fails.
func (s *Session) forward(ctx context.Context, from t.Stage, keepOnErr bool, run func(ctx context.Context, p t.Project, working t.Insights) (t.Project, error)) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.stage != from {
		cur := s.stage
		s.mu.Unlock()
		return fmt.Errorf("%w: in %s, want %s", ErrWrongStage, cur, from)
	}
	s.busy = true
	s.errMsg = ""
	p := s.project.Clone()
	working := s.working.Clone()
	epoch := s.epoch
	notify := s.changedLocked()
	s.mu.Unlock()
	notify()

	start := time.Now()
	next, err := run(ctx, p, working)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.logger.Info("transition result discarded after reset", "session", s.id, "from", from.String())
		return err
	}
	s.busy = false
	to := from + 1
	switch {
	case err != nil:
		s.errMsg = err.Error()
		if keepOnErr {
			next.Storyboards = s.project.Storyboards
			s.project = next
			if next.Insights != nil {
				s.working = next.Insights.Clone()
			}
		}
		s.logger.Warn("stage transition failed", "session", s.id, "from", from.String(), "elapsed", time.Since(start), "err", err)
	default:
		// Per-scene image results may land on the live storyboards while
		// run is out; only the storyboard transition replaces them.
		if from == t.StageScriptReview {
			s.boardsGen++
		} else {
			next.Storyboards = s.project.Storyboards
		}
		s.project = next
		s.stage = to
		s.lastRemoval = reconcile.Removal{}
		if to == t.StageInsightReview && next.Insights != nil {
			s.working = next.Insights.Clone()
		}
		s.logger.Info("stage transition", "session", s.id, "from", from.String(), "to", to.String(), "elapsed", time.Since(start))
	}
	notify = s.changedLocked()
	s.mu.Unlock()
	notify()
	return err
}

// UpdateBrief replaces the brief. Only allowed in the setup stage.
func (s *Session) UpdateBrief(b t.Brief) error {
	return s.edit(t.StageSetup, func() error {
		s.project.Brief = b
		return nil
	})
}

// SubmitBrief validates the brief, analyses it and moves to insight review.
func (s *Session) SubmitBrief(ctx context.Context) error {
	return s.forward(ctx, t.StageSetup, false, func(ctx context.Context, p t.Project, _ t.Insights) (t.Project, error) {
		return AnalyzeBrief(ctx, s.stages, p)
	})
}

// AddInsight appends text to one set of the working copy. Blank text is
// ignored.
func (s *Session) AddInsight(cat t.InsightCategory, text string) error {
	return s.edit(t.StageInsightReview, func() error {
		w, ok, err := reconcile.AddInsight(s.working, cat, text)
		if err != nil {
			return invalidErr(err)
		}
		if ok {
			s.working = w
		}
		return nil
	})
}

// RemoveInsight drops one entry of the working copy.
func (s *Session) RemoveInsight(cat t.InsightCategory, index int) error {
	return s.edit(t.StageInsightReview, func() error {
		w, err := reconcile.RemoveInsight(s.working, cat, index)
		if err != nil {
			return invalidErr(err)
		}
		s.working = w
		return nil
	})
}

// SubmitInsights commits the cleaned working copy and generates ideas. The
// cleaned insights stay committed when the idea call fails.
func (s *Session) SubmitInsights(ctx context.Context) error {
	return s.forward(ctx, t.StageInsightReview, true, func(ctx context.Context, p t.Project, working t.Insights) (t.Project, error) {
		return GenerateIdeas(ctx, s.stages, p, working)
	})
}

// ToggleIdea selects or deselects an idea by title.
func (s *Session) ToggleIdea(title string) error {
	return s.edit(t.StageIdeaSelection, func() error {
		p, removed, err := ToggleIdea(s.project, title, s.lastRemoval)
		if err != nil {
			return err
		}
		s.project = p
		s.lastRemoval = removed
		return nil
	})
}

// SubmitIdeas writes a script per selected idea and moves to script review.
func (s *Session) SubmitIdeas(ctx context.Context) error {
	return s.forward(ctx, t.StageIdeaSelection, false, func(ctx context.Context, p t.Project, _ t.Insights) (t.Project, error) {
		return WriteScripts(ctx, s.stages, p, s.fanout...)
	})
}

// EditScriptScene edits one scene of the committed scripts.
func (s *Session) EditScriptScene(scriptIdx, sceneIdx int, edit reconcile.SceneEdit) error {
	return s.edit(t.StageScriptReview, func() error {
		p, err := EditScriptScene(s.project, scriptIdx, sceneIdx, edit)
		if err != nil {
			return err
		}
		s.project = p
		return nil
	})
}

// SubmitScripts designs image prompts and moves to the storyboard stage.
func (s *Session) SubmitScripts(ctx context.Context) error {
	return s.forward(ctx, t.StageScriptReview, false, func(ctx context.Context, p t.Project, _ t.Insights) (t.Project, error) {
		return BuildStoryboards(ctx, s.stages, p, s.fanout...)
	})
}

// EditStoryboardScene edits one scene of the committed storyboards.
func (s *Session) EditStoryboardScene(sbIdx, sceneIdx int, edit reconcile.SceneEdit) error {
	return s.edit(t.StageStoryboard, func() error {
		p, err := EditStoryboardScene(s.project, sbIdx, sceneIdx, edit)
		if err != nil {
			return err
		}
		s.project = p
		return nil
	})
}

// GenerateSceneImage refreshes one scene's prompt from its current fields
// and renders its image. Only that scene's progress flag is held, so other
// scenes stay editable and may generate at the same time. A generation
// failure is recorded on the scene as the "error" reference and is not
// returned. The refreshed prompt is written back only if the scene's prompt
// was not edited meanwhile.
func (s *Session) GenerateSceneImage(ctx context.Context, sbIdx, sceneIdx int) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.stage != t.StageStoryboard {
		cur := s.stage
		s.mu.Unlock()
		return fmt.Errorf("%w: in %s, want %s", ErrWrongStage, cur, t.StageStoryboard)
	}
	scene, err := storyboardScene(s.project, sbIdx, sceneIdx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if scene.Generating {
		s.mu.Unlock()
		return fmt.Errorf("%w: storyboard %d scene %d is generating", ErrBusy, sbIdx, sceneIdx)
	}
	s.project.Storyboards, _ = reconcile.UpdateStoryboardScene(s.project.Storyboards, sbIdx, sceneIdx, func(sc *t.StoryboardScene) {
		sc.Generating = true
	})
	gen := s.boardsGen
	aspect := s.project.AspectRatio
	notify := s.changedLocked()
	s.mu.Unlock()
	notify()

	res, genErr := s.stages.Images.Run(ctx, s.id, sbIdx, sceneIdx, scene.ScriptScene, aspect)
	if genErr != nil {
		s.logger.Warn("scene image failed", "session", s.id, "storyboard", sbIdx, "scene", sceneIdx, "err", genErr)
	}

	s.mu.Lock()
	if s.boardsGen != gen {
		s.mu.Unlock()
		s.logger.Info("scene image discarded, storyboards replaced", "session", s.id, "storyboard", sbIdx, "scene", sceneIdx)
		return nil
	}
	s.project.Storyboards, _ = reconcile.UpdateStoryboardScene(s.project.Storyboards, sbIdx, sceneIdx, func(sc *t.StoryboardScene) {
		// A prompt edited while the image rendered is the user's; keep it.
		if res.Prompt != "" && sc.ImagePrompt == scene.ImagePrompt {
			sc.ImagePrompt = res.Prompt
		}
		if genErr != nil {
			sc.ImageRef = t.ImageRefError
		} else {
			sc.ImageRef = res.Ref
		}
		sc.Generating = false
	})
	notify = s.changedLocked()
	s.mu.Unlock()
	notify()
	return nil
}

type sceneAddr struct{ sb, scene int }

// GenerateAllSceneImages runs GenerateSceneImage for every scene of every
// storyboard, each independently.
func (s *Session) GenerateAllSceneImages(ctx context.Context) error {
	s.mu.Lock()
	var addrs []sceneAddr
	for i, sb := range s.project.Storyboards {
		for j := range sb.Scenes {
			addrs = append(addrs, sceneAddr{i, j})
		}
	}
	s.mu.Unlock()
	errs := fanout.Isolated(ctx, addrs, func(ctx context.Context, _ int, a sceneAddr) error {
		return s.GenerateSceneImage(ctx, a.sb, a.scene)
	}, s.fanout...)
	return errors.Join(errs...)
}

// Finalize freezes the storyboards and moves to the final stage.
func (s *Session) Finalize() error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.stage != t.StageStoryboard {
		cur := s.stage
		s.mu.Unlock()
		return fmt.Errorf("%w: in %s, want %s", ErrWrongStage, cur, t.StageStoryboard)
	}
	s.stage = t.StageFinal
	s.errMsg = ""
	notify := s.changedLocked()
	s.mu.Unlock()
	notify()
	s.logger.Info("stage transition", "session", s.id, "from", t.StageStoryboard.String(), "to", t.StageFinal.String())
	return nil
}

// Back moves to the previous stage without touching any artifact. Returning
// to insight review reloads the working copy from the committed insights.
func (s *Session) Back() error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.stage <= t.StageSetup {
		s.mu.Unlock()
		return ErrNoPrevious
	}
	from := s.stage
	s.stage--
	s.errMsg = ""
	if s.stage == t.StageInsightReview && s.project.Insights != nil {
		s.working = s.project.Insights.Clone()
	}
	to := s.stage
	notify := s.changedLocked()
	s.mu.Unlock()
	notify()
	s.logger.Info("stage back", "session", s.id, "from", from.String(), "to", to.String())
	return nil
}

// StartOver clears every artifact and returns to setup, whatever the
// current state. Results of calls still in flight are dropped.
func (s *Session) StartOver() {
	s.mu.Lock()
	s.epoch++
	s.boardsGen++
	s.project = t.Project{Brief: s.defaults}
	s.stage = t.StageSetup
	s.busy = false
	s.errMsg = ""
	s.working = t.Insights{}
	s.lastRemoval = reconcile.Removal{}
	notify := s.changedLocked()
	s.mu.Unlock()
	notify()
	s.logger.Info("session reset", "session", s.id)
}
