package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"

	"storyboarder/internal/fanout"
	"storyboarder/internal/gateway/session"
	"storyboarder/internal/imagestore"
	"storyboarder/internal/llm"
	llmclient "storyboarder/internal/llmClient"
	"storyboarder/internal/pipeline"
	"storyboarder/internal/reconcile"
	"storyboarder/internal/types"
	"storyboarder/internal/workflow"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestServer(t *testing.T) string {
	t.Helper()
	stages := pipeline.New(
		llm.NewFakeClient(3, map[string]int{pipeline.PhaseScenePrompt: 1}),
		llm.FakeImageClient{},
		imagestore.NewMemoryStore(),
		pipeline.Options{},
	)
	reg, err := session.New(stages, session.Options{Logger: quiet})
	require.NoError(t, err)
	path, h := NewStoryboardServiceHandler(NewStoryboardHandler(reg, quiet))
	mux := http.NewServeMux()
	mux.Handle(path, h)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

func call[Req any](t *testing.T, base, procedure string, req *Req) (workflow.Snapshot, error) {
	t.Helper()
	cli := connect.NewClient[Req, SessionResponse](http.DefaultClient, base+procedure, connect.WithCodec(jsonCodec{name: "json"}))
	resp, err := cli.CallUnary(t.Context(), connect.NewRequest(req))
	if err != nil {
		return workflow.Snapshot{}, err
	}
	return resp.Msg.Session, nil
}

func mustCall[Req any](t *testing.T, base, procedure string, req *Req) workflow.Snapshot {
	t.Helper()
	snap, err := call(t, base, procedure, req)
	require.NoError(t, err, procedure)
	return snap
}

func filledBrief() types.Brief {
	b := types.DefaultBrief()
	b.Goal = "Tăng đăng ký"
	b.Audience = "Phụ huynh"
	b.UserInsights = "bé hay nghẹt mũi"
	b.CTA = "Đăng ký ngay"
	b.SceneCount = 3
	return b
}

func TestStoryboardService_FullRun(t *testing.T) {
	base := newTestServer(t)

	snap := mustCall(t, base, CreateSessionProcedure, &CreateSessionRequest{})
	id := snap.ID
	require.Equal(t, types.StageSetup, snap.Stage)

	snap = mustCall(t, base, UpdateBriefProcedure, &UpdateBriefRequest{SessionID: id, Brief: filledBrief()})
	require.Equal(t, "Tăng đăng ký", snap.Project.Goal)

	snap = mustCall(t, base, SubmitBriefProcedure, &SessionRequest{SessionID: id})
	require.Equal(t, types.StageInsightReview, snap.Stage)
	require.NotNil(t, snap.WorkingInsights)

	snap = mustCall(t, base, AddInsightProcedure, &AddInsightRequest{SessionID: id, Category: types.Desires, Text: "  bé ngủ ngon  "})
	require.Contains(t, snap.WorkingInsights.Desires, "bé ngủ ngon")
	before := len(snap.WorkingInsights.PainPoints)
	snap = mustCall(t, base, RemoveInsightProcedure, &RemoveInsightRequest{SessionID: id, Category: types.PainPoints, Index: 0})
	require.Len(t, snap.WorkingInsights.PainPoints, before-1)

	snap = mustCall(t, base, SubmitInsightsProcedure, &SessionRequest{SessionID: id})
	require.Equal(t, types.StageIdeaSelection, snap.Stage)
	require.NotEmpty(t, snap.Project.ContentIdeas)

	title := snap.Project.ContentIdeas[0].Title
	snap = mustCall(t, base, ToggleIdeaProcedure, &ToggleIdeaRequest{SessionID: id, Title: title})
	require.Len(t, snap.Project.SelectedIdeas, 1)

	snap = mustCall(t, base, SubmitIdeasProcedure, &SessionRequest{SessionID: id})
	require.Equal(t, types.StageScriptReview, snap.Stage)
	require.Len(t, snap.Project.Scripts, 1)
	require.Len(t, snap.Project.Scripts[0].Scenes, 3)

	voice := "Lời thoại mới"
	snap = mustCall(t, base, EditScriptSceneProcedure, &EditScriptSceneRequest{SessionID: id, ScriptIndex: 0, SceneIndex: 1, Edit: reconcile.SceneEdit{VoiceoverText: &voice}})
	require.Equal(t, voice, snap.Project.Scripts[0].Scenes[1].VoiceoverText)

	snap = mustCall(t, base, SubmitScriptsProcedure, &SessionRequest{SessionID: id})
	require.Equal(t, types.StageStoryboard, snap.Stage)
	require.Len(t, snap.Project.Storyboards, 1)
	require.Equal(t, voice, snap.Project.Storyboards[0].Scenes[1].VoiceoverText)

	prompt := "ảnh cận cảnh"
	snap = mustCall(t, base, EditStoryboardSceneProcedure, &EditStoryboardSceneRequest{SessionID: id, StoryboardIndex: 0, SceneIndex: 0, Edit: reconcile.SceneEdit{ImagePrompt: &prompt}})
	require.Equal(t, prompt, snap.Project.Storyboards[0].Scenes[0].ImagePrompt)

	snap = mustCall(t, base, GenerateSceneImageProcedure, &GenerateSceneImageRequest{SessionID: id, StoryboardIndex: 0, SceneIndex: 2})
	sc := snap.Project.Storyboards[0].Scenes[2]
	require.True(t, sc.HasImage())
	require.False(t, sc.Generating)

	snap = mustCall(t, base, GenerateSceneImageProcedure, &GenerateSceneImageRequest{SessionID: id, All: true})
	for _, sc := range snap.Project.Storyboards[0].Scenes {
		require.True(t, sc.HasImage())
	}

	snap = mustCall(t, base, FinalizeProcedure, &SessionRequest{SessionID: id})
	require.Equal(t, types.StageFinal, snap.Stage)

	snap = mustCall(t, base, BackProcedure, &SessionRequest{SessionID: id})
	require.Equal(t, types.StageStoryboard, snap.Stage)

	snap = mustCall(t, base, StartOverProcedure, &SessionRequest{SessionID: id})
	require.Equal(t, types.StageSetup, snap.Stage)
	require.Empty(t, snap.Project.Storyboards)

	got := mustCall(t, base, GetSessionProcedure, &SessionRequest{SessionID: id})
	require.Equal(t, snap.Version, got.Version)
}

func TestStoryboardService_CreateWithBriefClamps(t *testing.T) {
	base := newTestServer(t)
	b := filledBrief()
	b.SceneCount = 50
	b.Duration = 1
	snap := mustCall(t, base, CreateSessionProcedure, &CreateSessionRequest{Brief: &b})
	require.Equal(t, types.MaxSceneCount, snap.Project.SceneCount)
	require.Equal(t, types.MinDuration, snap.Project.Duration)
}

func TestStoryboardService_ErrorCodes(t *testing.T) {
	base := newTestServer(t)

	_, err := call(t, base, GetSessionProcedure, &SessionRequest{SessionID: "nope"})
	require.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	id := mustCall(t, base, CreateSessionProcedure, &CreateSessionRequest{}).ID

	_, err = call(t, base, SubmitBriefProcedure, &SessionRequest{SessionID: id})
	require.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = call(t, base, BackProcedure, &SessionRequest{SessionID: id})
	require.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	_, err = call(t, base, FinalizeProcedure, &SessionRequest{SessionID: id})
	require.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	_, err = call(t, base, AddInsightProcedure, &AddInsightRequest{SessionID: id, Category: types.Desires, Text: "x"})
	require.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
}

func TestCodeOf(t *testing.T) {
	cases := []struct {
		err  error
		want connect.Code
	}{
		{&workflow.ValidationError{Reason: "missing required fields"}, connect.CodeInvalidArgument},
		{fmt.Errorf("wrap: %w", reconcile.ErrUnknownIdea), connect.CodeInvalidArgument},
		{fmt.Errorf("%w: x", session.ErrSessionNotFound), connect.CodeNotFound},
		{workflow.ErrNoPrevious, connect.CodeFailedPrecondition},
		{fmt.Errorf("%w: in setup", workflow.ErrWrongStage), connect.CodeFailedPrecondition},
		{errors.Join(workflow.ErrBusy, workflow.ErrBusy), connect.CodeAborted},
		{&llmclient.GenerationError{Op: "ideas", Err: llmclient.ErrEmptyResponse}, connect.CodeUnavailable},
		{&fanout.PartialBatchError{Index: 1, Total: 2, Err: errors.New("boom")}, connect.CodeUnavailable},
		{context.DeadlineExceeded, connect.CodeDeadlineExceeded},
		{errors.New("other"), connect.CodeInternal},
	}
	for _, c := range cases {
		require.Equal(t, c.want, codeOf(c.err), c.err.Error())
	}
}

func TestToConnectError_KeepsConnectErrors(t *testing.T) {
	in := connect.NewError(connect.CodeResourceExhausted, errors.New("quota"))
	require.Same(t, in, toConnectError(in))
	require.NoError(t, toConnectError(nil))
}
