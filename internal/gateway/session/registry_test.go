package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storyboarder/internal/imagestore"
	"storyboarder/internal/llm"
	"storyboarder/internal/pipeline"
	"storyboarder/internal/sessionstore"
	"storyboarder/internal/types"
	"storyboarder/internal/workflow"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testStages() *pipeline.Stages {
	return pipeline.New(llm.NewFakeClient(3, nil), llm.FakeImageClient{}, imagestore.NewMemoryStore(), pipeline.Options{})
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r, err := New(testStages(), Options{Logger: quiet})
	require.NoError(t, err)

	s, err := r.Create(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, s.ID())

	got, err := r.Get(t.Context(), " "+s.ID()+" ")
	require.NoError(t, err)
	require.Same(t, s, got)

	_, err = r.Get(t.Context(), "missing")
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, err = r.Get(t.Context(), "")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistry_PublishesChanges(t *testing.T) {
	r, err := New(testStages(), Options{Logger: quiet})
	require.NoError(t, err)
	s, err := r.Create(t.Context())
	require.NoError(t, err)

	ch, cancel := r.Events().Subscribe(s.ID())
	defer cancel()

	b := types.DefaultBrief()
	b.Goal = "g"
	require.NoError(t, s.UpdateBrief(b))

	select {
	case snap := <-ch:
		require.Equal(t, "g", snap.Project.Brief.Goal)
		require.Equal(t, s.ID(), snap.ID)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestRegistry_SavesAndRestores(t *testing.T) {
	store := sessionstore.NewMemoryStore()
	r, err := New(testStages(), Options{Logger: quiet, Store: store})
	require.NoError(t, err)
	s, err := r.Create(t.Context())
	require.NoError(t, err)

	b := types.DefaultBrief()
	b.Goal, b.Audience, b.UserInsights, b.CTA = "g", "a", "i", "c"
	require.NoError(t, s.UpdateBrief(b))
	require.NoError(t, s.SubmitBrief(t.Context()))
	r.Close()

	saved, err := store.Load(t.Context(), s.ID())
	require.NoError(t, err)
	require.Equal(t, types.StageInsightReview, saved.Stage)

	fresh, err := New(testStages(), Options{Logger: quiet, Store: store})
	require.NoError(t, err)
	restored, err := fresh.Get(t.Context(), s.ID())
	require.NoError(t, err)
	snap := restored.Snapshot()
	require.Equal(t, types.StageInsightReview, snap.Stage)
	require.Equal(t, "g", snap.Project.Brief.Goal)
	require.NotNil(t, snap.WorkingInsights)
}

func TestRegistry_EvictsIdleSessionsWithStore(t *testing.T) {
	store := sessionstore.NewMemoryStore()
	r, err := New(testStages(), Options{Logger: quiet, Store: store, CacheSize: 1})
	require.NoError(t, err)

	first, err := r.Create(t.Context())
	require.NoError(t, err)
	_, err = r.Create(t.Context())
	require.NoError(t, err)
	require.Equal(t, 1, r.Resident())

	again, err := r.Get(t.Context(), first.ID())
	require.NoError(t, err)
	require.NotSame(t, first, again)
	require.Equal(t, first.ID(), again.ID())
}

func TestRegistry_KeepsEverythingWithoutStore(t *testing.T) {
	r, err := New(testStages(), Options{Logger: quiet, CacheSize: 1})
	require.NoError(t, err)
	first, err := r.Create(t.Context())
	require.NoError(t, err)
	_, err = r.Create(t.Context())
	require.NoError(t, err)

	require.Equal(t, 2, r.Resident())
	got, err := r.Get(t.Context(), first.ID())
	require.NoError(t, err)
	require.Same(t, first, got)
}

func TestRegistry_SessionOptions(t *testing.T) {
	b := types.DefaultBrief()
	b.Platform = "YouTube"
	r, err := New(testStages(), Options{Logger: quiet, Sessions: []workflow.Option{workflow.WithBrief(b)}})
	require.NoError(t, err)
	s, err := r.Create(t.Context())
	require.NoError(t, err)
	require.Equal(t, "YouTube", s.Snapshot().Project.Brief.Platform)
}

func TestRegistry_ParksWatchedSessionUntilIdle(t *testing.T) {
	store := sessionstore.NewMemoryStore()
	r, err := New(testStages(), Options{Logger: quiet, Store: store, CacheSize: 1})
	require.NoError(t, err)

	watched, err := r.Create(t.Context())
	require.NoError(t, err)
	_, cancel := r.Events().Subscribe(watched.ID())

	for range 10 {
		_, err := r.Create(t.Context())
		require.NoError(t, err)
		require.Equal(t, 2, r.Resident(), "idle sessions are still unloaded")
	}
	got, err := r.Get(t.Context(), watched.ID())
	require.NoError(t, err)
	require.Same(t, watched, got)

	cancel()
	_, err = r.Create(t.Context())
	require.NoError(t, err)
	_, err = r.Create(t.Context())
	require.NoError(t, err)
	require.Equal(t, 1, r.Resident())

	got, err = r.Get(t.Context(), watched.ID())
	require.NoError(t, err)
	require.NotSame(t, watched, got)
}

// blockingImages holds every image call until release is closed.
type blockingImages struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingImages) GenerateImage(ctx context.Context, prompt, aspect string) (llm.Image, error) {
	b.started <- struct{}{}
	<-b.release
	return llm.FakeImageClient{}.GenerateImage(ctx, prompt, aspect)
}

func TestRegistry_KeepsSessionRenderingSceneImage(t *testing.T) {
	images := &blockingImages{started: make(chan struct{}, 1), release: make(chan struct{})}
	stages := pipeline.New(llm.NewFakeClient(3, nil), images, imagestore.NewMemoryStore(), pipeline.Options{})
	store := sessionstore.NewMemoryStore()
	r, err := New(stages, Options{Logger: quiet, Store: store, CacheSize: 1})
	require.NoError(t, err)

	s, err := r.Create(t.Context())
	require.NoError(t, err)
	b := types.DefaultBrief()
	b.Goal, b.Audience, b.UserInsights, b.CTA = "g", "a", "i", "c"
	b.SceneCount = 4
	require.NoError(t, s.UpdateBrief(b))
	require.NoError(t, s.SubmitBrief(t.Context()))
	require.NoError(t, s.SubmitInsights(t.Context()))
	require.NoError(t, s.ToggleIdea(s.Snapshot().Project.ContentIdeas[0].Title))
	require.NoError(t, s.SubmitIdeas(t.Context()))
	require.NoError(t, s.SubmitScripts(t.Context()))
	require.Equal(t, types.StageStoryboard, s.Snapshot().Stage)

	done := make(chan error, 1)
	go func() { done <- s.GenerateSceneImage(context.Background(), 0, 2) }()
	select {
	case <-images.started:
	case <-time.After(5 * time.Second):
		t.Fatal("image generation never started")
	}
	require.False(t, s.Snapshot().Busy)

	_, err = r.Create(t.Context())
	require.NoError(t, err)
	require.Equal(t, 2, r.Resident())
	got, err := r.Get(t.Context(), s.ID())
	require.NoError(t, err)
	require.Same(t, s, got)

	close(images.release)
	require.NoError(t, <-done)
	_, err = r.Create(t.Context())
	require.NoError(t, err)
	require.Equal(t, 1, r.Resident())
	r.Close()

	restored, err := r.Get(t.Context(), s.ID())
	require.NoError(t, err)
	require.NotSame(t, s, restored)
	scene := restored.Snapshot().Project.Storyboards[0].Scenes[2]
	require.True(t, scene.HasImage(), scene.ImageRef)
}
