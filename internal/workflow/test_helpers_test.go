package workflow

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"storyboarder/internal/imagestore"
	"storyboarder/internal/llm"
	"storyboarder/internal/pipeline"
	t "storyboarder/internal/types"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func ideaTitle(i int) string { return fmt.Sprintf("Ý tưởng %d", i) }

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func insightsReply() string {
	return mustJSON(t.Insights{
		PainPoints:     []string{"bé nghẹt mũi về đêm", "sợ dùng thuốc"},
		Desires:        []string{"bé ngủ ngon"},
		KeyBehaviors:   []string{"hỏi nhóm mẹ bỉm"},
		IdentifiedGaps: []string{"thiếu hướng dẫn vệ sinh mũi"},
	})
}

func ideasReply(n int) string {
	ideas := make([]t.Idea, n)
	for i := range ideas {
		ideas[i] = t.Idea{Title: ideaTitle(i + 1), Concept: "concept", Angle: "giải quyết vấn đề"}
	}
	return mustJSON(ideas)
}

// scriptFor returns a script whose scenes are labelled with the idea found
// in the prompt, so tests can check positional pairing.
func scriptFor(prompt string, scenes int) (string, error) {
	title := ""
	for i := 1; i <= 8; i++ {
		if strings.Contains(prompt, fmt.Sprintf("%q: %q", "title", ideaTitle(i))) {
			title = ideaTitle(i)
			break
		}
	}
	if title == "" {
		return "", fmt.Errorf("no idea in prompt")
	}
	out := make([]t.ScriptScene, scenes)
	for i := range out {
		out[i] = t.ScriptScene{
			SceneNumber:       i + 1,
			DurationSeconds:   20,
			VisualDescription: fmt.Sprintf("%s cảnh %d", title, i+1),
			SceneDetails:      "chi tiết",
			VisualSuggestions: "cận cảnh",
			VoiceoverText:     "lời thoại",
		}
	}
	return mustJSON(map[string]any{"script": out}), nil
}

var visualRe = regexp.MustCompile(`"visual_description": "([^"]*)"`)

// promptsFor answers a prompt batch with one prompt per scene in the input.
func promptsFor(prompt string) (string, error) {
	var out []string
	for _, m := range visualRe.FindAllStringSubmatch(prompt, -1) {
		out = append(out, "prompt: "+m[1])
	}
	return mustJSON(map[string]any{"prompts": out}), nil
}

func scriptedPipeline(sceneCount int) *llm.ScriptedClient {
	return llm.NewScriptedClient().
		Reply(pipeline.PhaseInsights, insightsReply()).
		Reply(pipeline.PhaseIdeas, ideasReply(8)).
		On(pipeline.PhaseScript, func(p string) (string, error) { return scriptFor(p, sceneCount) }).
		On(pipeline.PhasePrompts, promptsFor).
		On(pipeline.PhaseScenePrompt, promptsFor)
}

func newTestSession(cli llm.LLMClient, images llm.ImageClient) *Session {
	if images == nil {
		images = &llm.ScriptedImageClient{}
	}
	st := pipeline.New(cli, images, imagestore.NewMemoryStore(), pipeline.Options{})
	return NewSession("sess-1", st, WithLogger(quietLogger))
}

func filledBrief() t.Brief {
	b := t.DefaultBrief()
	b.Goal = "Tăng đăng ký"
	b.Audience = "Phụ huynh"
	b.UserInsights = "bé hay nghẹt mũi"
	b.CTA = "Đăng ký ngay"
	b.SceneCount = 3
	b.Duration = 60
	b.AspectRatio = t.AspectPortrait
	return b
}

// advance drives s to stage with ideas 2 and 5 selected.
func advance(tt *testing.T, s *Session, stage t.Stage) {
	tt.Helper()
	ctx := tt.Context()
	steps := []func() error{
		func() error { return s.UpdateBrief(filledBrief()) },
		func() error { return s.SubmitBrief(ctx) },
		func() error { return s.SubmitInsights(ctx) },
		func() error {
			if err := s.ToggleIdea(ideaTitle(2)); err != nil {
				return err
			}
			if err := s.ToggleIdea(ideaTitle(5)); err != nil {
				return err
			}
			return s.SubmitIdeas(ctx)
		},
		func() error { return s.SubmitScripts(ctx) },
		func() error { return s.Finalize() },
	}
	for i := 0; s.Snapshot().Stage < stage; i++ {
		if err := steps[i](); err != nil {
			tt.Fatalf("advance step %d: %v", i, err)
		}
	}
}
