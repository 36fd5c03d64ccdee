package rpc

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"storyboarder/internal/workflow"
)

const StoryboardServiceName = "storyboard.v1.StoryboardService"

const (
	CreateSessionProcedure       = "/" + StoryboardServiceName + "/CreateSession"
	GetSessionProcedure          = "/" + StoryboardServiceName + "/GetSession"
	UpdateBriefProcedure         = "/" + StoryboardServiceName + "/UpdateBrief"
	SubmitBriefProcedure         = "/" + StoryboardServiceName + "/SubmitBrief"
	AddInsightProcedure          = "/" + StoryboardServiceName + "/AddInsight"
	RemoveInsightProcedure       = "/" + StoryboardServiceName + "/RemoveInsight"
	SubmitInsightsProcedure      = "/" + StoryboardServiceName + "/SubmitInsights"
	ToggleIdeaProcedure          = "/" + StoryboardServiceName + "/ToggleIdea"
	SubmitIdeasProcedure         = "/" + StoryboardServiceName + "/SubmitIdeas"
	EditScriptSceneProcedure     = "/" + StoryboardServiceName + "/EditScriptScene"
	SubmitScriptsProcedure       = "/" + StoryboardServiceName + "/SubmitScripts"
	EditStoryboardSceneProcedure = "/" + StoryboardServiceName + "/EditStoryboardScene"
	GenerateSceneImageProcedure  = "/" + StoryboardServiceName + "/GenerateSceneImage"
	FinalizeProcedure            = "/" + StoryboardServiceName + "/Finalize"
	BackProcedure                = "/" + StoryboardServiceName + "/Back"
	StartOverProcedure           = "/" + StoryboardServiceName + "/StartOver"
)

// Sessions resolves the sessions the handler operates on.
type Sessions interface {
	Create(ctx context.Context, opts ...workflow.Option) (*workflow.Session, error)
	Get(ctx context.Context, id string) (*workflow.Session, error)
}

// StoryboardHandler serves the storyboard RPC procedures. Every procedure
// answers with the session snapshot taken after the operation.
type StoryboardHandler struct {
	sessions Sessions
	logger   *slog.Logger
}

func NewStoryboardHandler(sessions Sessions, logger *slog.Logger) *StoryboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoryboardHandler{sessions: sessions, logger: logger}
}

type response = connect.Response[SessionResponse]

func generate(fn func(*workflow.Session, context.Context) error) func(context.Context, *workflow.Session) error {
	return func(ctx context.Context, s *workflow.Session) error { return fn(s, ctx) }
}

// apply runs op on the session. Generation outlives the request so a
// dropped client does not abort a transition the stream still reports.
func (h *StoryboardHandler) apply(ctx context.Context, id string, op func(context.Context, *workflow.Session) error) (*response, error) {
	s, err := h.sessions.Get(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := op(context.WithoutCancel(ctx), s); err != nil {
		h.logger.Debug("rpc operation failed", "session_id", s.ID(), "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SessionResponse{Session: s.Snapshot()}), nil
}

func (h *StoryboardHandler) CreateSession(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*response, error) {
	var opts []workflow.Option
	if req.Msg.Brief != nil {
		opts = append(opts, workflow.WithBrief(req.Msg.Brief.Clamped()))
	}
	s, err := h.sessions.Create(ctx, opts...)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SessionResponse{Session: s.Snapshot()}), nil
}

func (h *StoryboardHandler) GetSession(ctx context.Context, req *connect.Request[SessionRequest]) (*response, error) {
	return h.apply(ctx, req.Msg.SessionID, func(context.Context, *workflow.Session) error { return nil })
}

func (h *StoryboardHandler) UpdateBrief(ctx context.Context, req *connect.Request[UpdateBriefRequest]) (*response, error) {
	return h.apply(ctx, req.Msg.SessionID, func(_ context.Context, s *workflow.Session) error {
		return s.UpdateBrief(req.Msg.Brief.Clamped())
	})
}

func (h *StoryboardHandler) SubmitBrief(ctx context.Context, req *connect.Request[SessionRequest]) (*response, error) {
	return h.apply(ctx, req.Msg.SessionID, generate((*workflow.Session).SubmitBrief))
}

func (h *StoryboardHandler) AddInsight(ctx context.Context, req *connect.Request[AddInsightRequest]) (*response, error) {
	return h.apply(ctx, req.Msg.SessionID, func(_ context.Context, s *workflow.Session) error {
		return s.AddInsight(req.Msg.Category, req.Msg.Text)
	})
}

func (h *StoryboardHandler) RemoveInsight(ctx context.Context, req *connect.Request[RemoveInsightRequest]) (*response, error) {
	return h.apply(ctx, req.Msg.SessionID, func(_ context.Context, s *workflow.Session) error {
		return s.RemoveInsight(req.Msg.Category, req.Msg.Index)
	})
}

func (h *StoryboardHandler) SubmitInsights(ctx context.Context, req *connect.Request[SessionRequest]) (*response, error) {
	return h.apply(ctx, req.Msg.SessionID, generate((*workflow.Session).SubmitInsights))
}

func (h *StoryboardHandler) ToggleIdea(ctx context.Context, req *connect.Request[ToggleIdeaRequest]) (*response, error) {
	return h.apply(ctx, req.Msg.SessionID, func(_ context.Context, s *workflow.Session) error {
		return s.ToggleIdea(req.Msg.Title)
	})
}

func (h *StoryboardHandler) SubmitIdeas(ctx context.Context, req *connect.Request[SessionRequest]) (*response, error) {
	return h.apply(ctx, req.Msg.SessionID, generate((*workflow.Session).SubmitIdeas))
}

func (h *StoryboardHandler) EditScriptScene(ctx context.Context, req *connect.Request[EditScriptSceneRequest]) (*response, error) {
	return h.apply(ctx, req.Msg.SessionID, func(_ context.Context, s *workflow.Session) error {
		return s.EditScriptScene(req.Msg.ScriptIndex, req.Msg.SceneIndex, req.Msg.Edit)
	})
}

func (h *StoryboardHandler) SubmitScripts(ctx context.Context, req *connect.Request[SessionRequest]) (*response, error) {
	return h.apply(ctx, req.Msg.SessionID, generate((*workflow.Session).SubmitScripts))
}

func (h *StoryboardHandler) EditStoryboardScene(ctx context.Context, req *connect.Request[EditStoryboardSceneRequest]) (*response, error) {
	return h.apply(ctx, req.Msg.SessionID, func(_ context.Context, s *workflow.Session) error {
		return s.EditStoryboardScene(req.Msg.StoryboardIndex, req.Msg.SceneIndex, req.Msg.Edit)
	})
}

func (h *StoryboardHandler) GenerateSceneImage(ctx context.Context, req *connect.Request[GenerateSceneImageRequest]) (*response, error) {
	return h.apply(ctx, req.Msg.SessionID, func(ctx context.Context, s *workflow.Session) error {
		if req.Msg.All {
			return s.GenerateAllSceneImages(ctx)
		}
		return s.GenerateSceneImage(ctx, req.Msg.StoryboardIndex, req.Msg.SceneIndex)
	})
}

func (h *StoryboardHandler) Finalize(ctx context.Context, req *connect.Request[SessionRequest]) (*response, error) {
	return h.apply(ctx, req.Msg.SessionID, func(_ context.Context, s *workflow.Session) error {
		return s.Finalize()
	})
}

func (h *StoryboardHandler) Back(ctx context.Context, req *connect.Request[SessionRequest]) (*response, error) {
	return h.apply(ctx, req.Msg.SessionID, func(_ context.Context, s *workflow.Session) error {
		return s.Back()
	})
}

func (h *StoryboardHandler) StartOver(ctx context.Context, req *connect.Request[SessionRequest]) (*response, error) {
	return h.apply(ctx, req.Msg.SessionID, func(_ context.Context, s *workflow.Session) error {
		s.StartOver()
		return nil
	})
}

// NewStoryboardServiceHandler mounts every procedure and returns the path
// prefix to register it under.
func NewStoryboardServiceHandler(h *StoryboardHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{name: "json"}),
		connect.WithCodec(jsonCodec{name: "json; charset=utf-8"}),
	}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateSessionProcedure, connect.NewUnaryHandler(CreateSessionProcedure, h.CreateSession, opts...))
	mux.Handle(GetSessionProcedure, connect.NewUnaryHandler(GetSessionProcedure, h.GetSession, opts...))
	mux.Handle(UpdateBriefProcedure, connect.NewUnaryHandler(UpdateBriefProcedure, h.UpdateBrief, opts...))
	mux.Handle(SubmitBriefProcedure, connect.NewUnaryHandler(SubmitBriefProcedure, h.SubmitBrief, opts...))
	mux.Handle(AddInsightProcedure, connect.NewUnaryHandler(AddInsightProcedure, h.AddInsight, opts...))
	mux.Handle(RemoveInsightProcedure, connect.NewUnaryHandler(RemoveInsightProcedure, h.RemoveInsight, opts...))
	mux.Handle(SubmitInsightsProcedure, connect.NewUnaryHandler(SubmitInsightsProcedure, h.SubmitInsights, opts...))
	mux.Handle(ToggleIdeaProcedure, connect.NewUnaryHandler(ToggleIdeaProcedure, h.ToggleIdea, opts...))
	mux.Handle(SubmitIdeasProcedure, connect.NewUnaryHandler(SubmitIdeasProcedure, h.SubmitIdeas, opts...))
	mux.Handle(EditScriptSceneProcedure, connect.NewUnaryHandler(EditScriptSceneProcedure, h.EditScriptScene, opts...))
	mux.Handle(SubmitScriptsProcedure, connect.NewUnaryHandler(SubmitScriptsProcedure, h.SubmitScripts, opts...))
	mux.Handle(EditStoryboardSceneProcedure, connect.NewUnaryHandler(EditStoryboardSceneProcedure, h.EditStoryboardScene, opts...))
	mux.Handle(GenerateSceneImageProcedure, connect.NewUnaryHandler(GenerateSceneImageProcedure, h.GenerateSceneImage, opts...))
	mux.Handle(FinalizeProcedure, connect.NewUnaryHandler(FinalizeProcedure, h.Finalize, opts...))
	mux.Handle(BackProcedure, connect.NewUnaryHandler(BackProcedure, h.Back, opts...))
	mux.Handle(StartOverProcedure, connect.NewUnaryHandler(StartOverProcedure, h.StartOver, opts...))
	return "/" + StoryboardServiceName + "/", mux
}
