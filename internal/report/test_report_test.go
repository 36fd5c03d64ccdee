package report

import (
	"strings"
	"testing"

	"storyboarder/internal/tester"
	t "storyboarder/internal/types"
)

func sampleProject() t.Project {
	p := t.NewProject()
	p.Goal = "Tăng đăng ký"
	p.Audience = "Phụ huynh <3 tuổi>"
	scene := func(n int, ref string) t.StoryboardScene {
		return t.StoryboardScene{
			ScriptScene: t.ScriptScene{SceneNumber: n, DurationSeconds: 20, VisualDescription: "mẹ bế bé", VoiceoverText: "Đăng ký ngay"},
			ImageRef:    ref,
		}
	}
	p.Storyboards = []t.Storyboard{
		{Idea: t.Idea{Title: "Đêm không nghẹt", Angle: "giải quyết vấn đề", Concept: "c1"},
			Scenes: []t.StoryboardScene{scene(1, "data:image/jpeg;base64,AAAA"), scene(2, t.ImageRefError), scene(3, "")}},
		{Idea: t.Idea{Title: "Bí kíp của mẹ", Angle: "hướng dẫn", Concept: "c2"},
			Scenes: []t.StoryboardScene{scene(1, "https://cdn.example/x.jpg")}},
	}
	return p
}

func TestRender_AllStoryboards(tt *testing.T) {
	out, err := HTML(sampleProject(), All)
	tester.NoErr(tt, err)

	tester.True(tt, strings.Contains(out, "Báo Cáo Dự Án Video Marketing"))
	tester.True(tt, strings.Contains(out, "Ý Tưởng: Đêm không nghẹt"))
	tester.True(tt, strings.Contains(out, "Ý Tưởng: Bí kíp của mẹ"))
	tester.True(tt, strings.Contains(out, "Cảnh 2 (20 giây)"))
	tester.True(tt, strings.Contains(out, `src="data:image/jpeg;base64,AAAA"`), "data URI kept")
	tester.True(tt, strings.Contains(out, `src="https://cdn.example/x.jpg"`))
	tester.Eq(tt, strings.Count(out, "No Image"), 2, "error and empty refs get a placeholder")
	tester.True(tt, strings.Contains(out, "Phụ huynh &lt;3 tuổi&gt;"), "text is escaped")
	tester.Eq(tt, strings.Count(out, "page-break\""), 1)
}

func TestRender_SingleStoryboard(tt *testing.T) {
	out, err := HTML(sampleProject(), 1)
	tester.NoErr(tt, err)
	tester.True(tt, strings.Contains(out, "Bí kíp của mẹ"))
	tester.False(tt, strings.Contains(out, "Đêm không nghẹt"))
	tester.True(tt, strings.Contains(out, "Tăng đăng ký"), "summary always present")
}

func TestRender_IndexOutOfRange(tt *testing.T) {
	_, err := HTML(sampleProject(), 2)
	tester.ErrIs(tt, err, ErrStoryboardIndex)
	_, err = HTML(t.NewProject(), 0)
	tester.ErrIs(tt, err, ErrStoryboardIndex)
}

func TestRender_UnsafeRefDropped(tt *testing.T) {
	p := sampleProject()
	p.Storyboards[1].Scenes[0].ImageRef = "javascript:alert(1)"
	out, err := HTML(p, 1)
	tester.NoErr(tt, err)
	tester.False(tt, strings.Contains(out, "javascript:"))
	tester.True(tt, strings.Contains(out, "No Image"))
}
