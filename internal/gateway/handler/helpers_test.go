package handler

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"storyboarder/internal/gateway/session"
	"storyboarder/internal/imagestore"
	"storyboarder/internal/llm"
	"storyboarder/internal/pipeline"
	"storyboarder/internal/types"
	"storyboarder/internal/workflow"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newRegistry(t *testing.T) *session.Registry {
	t.Helper()
	stages := pipeline.New(
		llm.NewFakeClient(3, map[string]int{pipeline.PhaseScenePrompt: 1}),
		llm.FakeImageClient{},
		imagestore.NewMemoryStore(),
		pipeline.Options{},
	)
	reg, err := session.New(stages, session.Options{Logger: quiet})
	require.NoError(t, err)
	return reg
}

// driveTo runs a fresh session of reg up to stage with the first idea
// selected.
func driveTo(t *testing.T, reg *session.Registry, stage types.Stage) *workflow.Session {
	t.Helper()
	ctx := t.Context()
	s, err := reg.Create(ctx)
	require.NoError(t, err)

	b := types.DefaultBrief()
	b.Goal, b.Audience, b.UserInsights, b.CTA = "Tăng đăng ký", "Phụ huynh", "bé hay nghẹt mũi", "Đăng ký ngay"
	b.SceneCount = 3
	require.NoError(t, s.UpdateBrief(b))

	steps := []func() error{
		func() error { return s.SubmitBrief(ctx) },
		func() error { return s.SubmitInsights(ctx) },
		func() error {
			if err := s.ToggleIdea(s.Snapshot().Project.ContentIdeas[0].Title); err != nil {
				return err
			}
			return s.SubmitIdeas(ctx)
		},
		func() error { return s.SubmitScripts(ctx) },
		func() error { return s.Finalize() },
	}
	for i := 0; s.Snapshot().Stage < stage; i++ {
		require.NoError(t, steps[i]())
	}
	return s
}
