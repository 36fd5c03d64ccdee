// Package session keeps the gateway's live workflow sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"storyboarder/internal/events"
	"storyboarder/internal/pipeline"
	"storyboarder/internal/sessionstore"
	"storyboarder/internal/workflow"
)

var ErrSessionNotFound = errors.New("session not found")

const (
	defaultCacheSize = 256
	saveTimeout      = 10 * time.Second
)

type Options struct {
	// CacheSize bounds the sessions kept resident when a Store is set.
	CacheSize int
	// Store persists snapshots; nil keeps sessions in memory only.
	Store    sessionstore.Store
	Logger   *slog.Logger
	Sessions []workflow.Option
}

type resident struct {
	s      *workflow.Session
	cancel func()
}

// Registry creates sessions and resolves them by id. Every change of a
// session is published on Events under the session id.
type Registry struct {
	stages *pipeline.Stages
	store  sessionstore.Store
	logger *slog.Logger
	opts   []workflow.Option
	events *events.Broker[workflow.Snapshot]

	mu   sync.Mutex
	all  map[string]resident
	hot  *lru.Cache[string, struct{}]
	size int
	// parked holds sessions the cache pushed out while they were still
	// active. They stay resident until idle.
	parked map[string]struct{}
	// saves tracks background snapshot writes so Close can wait for them.
	saves sync.WaitGroup
}

func New(stages *pipeline.Stages, o Options) (*Registry, error) {
	if o.CacheSize <= 0 {
		o.CacheSize = defaultCacheSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	r := &Registry{
		stages: stages,
		store:  o.Store,
		logger: o.Logger,
		opts:   append([]workflow.Option{workflow.WithLogger(o.Logger)}, o.Sessions...),
		events: events.NewBroker[workflow.Snapshot](16),
		all:    make(map[string]resident),
		size:   o.CacheSize,
		parked: make(map[string]struct{}),
	}
	hot, err := lru.NewWithEvict[string, struct{}](o.CacheSize, r.evictLocked)
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	r.hot = hot
	return r, nil
}

func (r *Registry) Events() *events.Broker[workflow.Snapshot] { return r.events }

// Create starts a new session and stores its first snapshot.
func (r *Registry) Create(ctx context.Context, opts ...workflow.Option) (*workflow.Session, error) {
	s := workflow.NewSession(uuid.NewString(), r.stages, append(append([]workflow.Option{}, r.opts...), opts...)...)
	if r.store != nil {
		if err := r.store.Save(ctx, s.Snapshot()); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}
	r.mu.Lock()
	r.addLocked(s)
	r.mu.Unlock()
	r.logger.Info("session created", "session_id", s.ID())
	return s, nil
}

// Get returns the session with id, restoring it from the store when it is
// not resident.
func (r *Registry) Get(ctx context.Context, id string) (*workflow.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrSessionNotFound)
	}
	r.mu.Lock()
	if res, ok := r.all[id]; ok {
		r.touchLocked(id)
		r.mu.Unlock()
		return res.s, nil
	}
	r.mu.Unlock()

	if r.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	snap, err := r.store.Load(ctx, id)
	if errors.Is(err, sessionstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have restored it meanwhile.
	if res, ok := r.all[id]; ok {
		r.touchLocked(id)
		return res.s, nil
	}
	s := workflow.Restore(snap, r.stages, r.opts...)
	r.addLocked(s)
	r.logger.Info("session restored", "session_id", id, "stage", snap.StageName)
	return s, nil
}

// Resident reports how many sessions are held in memory.
func (r *Registry) Resident() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.all)
}

// Close waits for pending snapshot writes.
func (r *Registry) Close() {
	r.saves.Wait()
}

func (r *Registry) addLocked(s *workflow.Session) {
	id := s.ID()
	cancel := s.Subscribe(func(snap workflow.Snapshot) {
		r.events.Publish(id, snap)
		r.save(snap)
	})
	r.all[id] = resident{s: s, cancel: cancel}
	r.touchLocked(id)
}

// touchLocked marks id as recently used, then settles the parked sessions:
// idle ones are unloaded and active ones go back into the cache when it has
// room. This runs after hot.Add returns, never inside the evict callback.
func (r *Registry) touchLocked(id string) {
	delete(r.parked, id)
	r.hot.Add(id, struct{}{})
	for p := range r.parked {
		res, ok := r.all[p]
		switch {
		case !ok:
			delete(r.parked, p)
		case !r.activeLocked(p, res.s):
			delete(r.parked, p)
			r.unloadLocked(p, res)
		case r.hot.Len() < r.size:
			delete(r.parked, p)
			r.hot.Add(p, struct{}{})
		}
	}
}

// activeLocked reports whether a session must stay resident. A watched
// session stays, as does one with a transition or scene image in flight.
func (r *Registry) activeLocked(id string, s *workflow.Session) bool {
	if r.events.Subscribers(id) > 0 {
		return true
	}
	snap := s.Snapshot()
	if snap.Busy {
		return true
	}
	for _, sb := range snap.Project.Storyboards {
		for _, sc := range sb.Scenes {
			if sc.Generating {
				return true
			}
		}
	}
	return false
}

func (r *Registry) unloadLocked(id string, res resident) {
	res.cancel()
	delete(r.all, id)
	r.logger.Debug("session unloaded", "session_id", id)
}

func (r *Registry) save(snap workflow.Snapshot) {
	if r.store == nil {
		return
	}
	r.saves.Add(1)
	go func() {
		defer r.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := r.store.Save(ctx, snap); err != nil {
			r.logger.Warn("session snapshot save failed", "session_id", snap.ID, "version", snap.Version, "error", err)
		}
	}()
}

// evictLocked runs inside hot.Add, which is only called with r.mu held.
// Without a store nothing is unloaded. An active session is parked so its
// in-flight result is still saved.
func (r *Registry) evictLocked(id string, _ struct{}) {
	if r.store == nil {
		return
	}
	res, ok := r.all[id]
	if !ok {
		return
	}
	if r.activeLocked(id, res.s) {
		r.parked[id] = struct{}{}
		return
	}
	r.unloadLocked(id, res)
}
