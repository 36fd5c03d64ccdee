package rpc

import (
	"storyboarder/internal/reconcile"
	t "storyboarder/internal/types"
	"storyboarder/internal/workflow"
)

type CreateSessionRequest struct {
	// Brief optionally replaces the configured defaults.
	Brief *t.Brief `json:"brief,omitempty"`
}

// SessionRequest addresses a session for operations without arguments.
type SessionRequest struct {
	SessionID string `json:"sessionId"`
}

type UpdateBriefRequest struct {
	SessionID string  `json:"sessionId"`
	Brief     t.Brief `json:"brief"`
}

type AddInsightRequest struct {
	SessionID string            `json:"sessionId"`
	Category  t.InsightCategory `json:"category"`
	Text      string            `json:"text"`
}

type RemoveInsightRequest struct {
	SessionID string            `json:"sessionId"`
	Category  t.InsightCategory `json:"category"`
	Index     int               `json:"index"`
}

type ToggleIdeaRequest struct {
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
}

type EditScriptSceneRequest struct {
	SessionID   string              `json:"sessionId"`
	ScriptIndex int                 `json:"scriptIndex"`
	SceneIndex  int                 `json:"sceneIndex"`
	Edit        reconcile.SceneEdit `json:"edit"`
}

type EditStoryboardSceneRequest struct {
	SessionID       string              `json:"sessionId"`
	StoryboardIndex int                 `json:"storyboardIndex"`
	SceneIndex      int                 `json:"sceneIndex"`
	Edit            reconcile.SceneEdit `json:"edit"`
}

type GenerateSceneImageRequest struct {
	SessionID       string `json:"sessionId"`
	StoryboardIndex int    `json:"storyboardIndex"`
	SceneIndex      int    `json:"sceneIndex"`
	// All regenerates every scene of every storyboard.
	All bool `json:"all,omitempty"`
}

// SessionResponse is returned by every procedure.
type SessionResponse struct {
	Session workflow.Snapshot `json:"session"`
}
