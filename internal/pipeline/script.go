package pipeline

import (
	"context"
	"errors"
	"fmt"

	"storyboarder/internal/llm"
	llmclient "storyboarder/internal/llmClient"
	"storyboarder/internal/llmtool"
	t "storyboarder/internal/types"
)

var ErrSceneCount = errors.New("scene count does not match the brief")

type scriptOut struct {
	Script []t.ScriptScene `json:"script"`
}

var scriptShape = llmtool.ShapeOf(scriptOut{})

// ScriptWriter writes the scene list of one idea.
type ScriptWriter struct {
	LLM            llm.LLMClient
	ProductContext string
}

func scriptPrompt(productContext string, brief t.Brief) llmtool.StructuredPromptSpec {
	return llmtool.StructuredPromptSpec{
		Purpose: "Bạn là nhà biên kịch và đạo diễn chuyên nghiệp cho video marketing lan truyền. " +
			"Viết kịch bản video hoàn chỉnh, chi tiết cho ý tưởng sáng tạo trong INPUT theo các thông số chiến lược đi kèm.",
		Background:   productContext,
		OutputFields: llmtool.FieldsFromShape(scriptShape.Properties["script"]),
		Constraints: []string{
			fmt.Sprintf("Chính xác %d cảnh, scene_number từ 1 đến %d.", brief.SceneCount, brief.SceneCount),
			fmt.Sprintf("Tổng duration_seconds của các cảnh xấp xỉ %d giây, phân bổ hợp lý.", brief.Duration),
			fmt.Sprintf("Cảnh cuối cùng phải lồng ghép lời kêu gọi hành động: %q.", brief.CTA),
		},
		Rules: []string{
			fmt.Sprintf("Tuân thủ chặt chẽ cấu trúc kịch bản %q; nếu là \"AI tự do sáng tạo\" thì tự chọn cấu trúc tốt nhất và theo nó.", brief.ScriptStructure),
			fmt.Sprintf("Giọng văn hợp phong cách %q và nền tảng %q.", brief.VideoStyle, brief.Platform),
			"Dùng ngôn ngữ đời thường, gần gũi, chân thật như trò chuyện tự nhiên; tránh giọng trang trọng hoặc sặc mùi quảng cáo.",
			"visual_description cô đọng, giàu hình ảnh vì sẽ được dùng để tạo image prompt.",
		},
		Assumptions:  structureGlossary,
		OutputFormat: `Một đối tượng JSON có khóa "script" là mảng các cảnh, không markdown.`,
		Language:     "Tiếng Việt",
	}
}

// Run returns exactly brief.SceneCount scenes numbered 1..N by position.
func (p *ScriptWriter) Run(ctx context.Context, brief t.Brief, idea t.Idea) ([]t.ScriptScene, error) {
	spec := scriptPrompt(p.ProductContext, brief)
	prompt, err := spec.Render(map[string]any{
		"audience":         brief.Audience,
		"video_type":       brief.VideoType,
		"platform":         brief.Platform,
		"script_structure": brief.ScriptStructure,
		"video_style":      brief.VideoStyle,
		"duration_seconds": brief.Duration,
		"scene_count":      brief.SceneCount,
		"cta":              brief.CTA,
		"idea":             idea,
	})
	if err != nil {
		return nil, fmt.Errorf("script prompt: %w", err)
	}
	ctx = llm.WithItems(llm.WithPhase(ctx, PhaseScript), brief.SceneCount)
	out, err := llm.Structured[scriptOut](ctx, p.LLM, prompt, scriptShape)
	if err != nil {
		return nil, err
	}
	if len(out.Script) != brief.SceneCount {
		return nil, &llmclient.GenerationError{
			Op:  PhaseScript,
			Err: fmt.Errorf("%w: idea %q got %d scenes, want %d", ErrSceneCount, idea.Title, len(out.Script), brief.SceneCount),
		}
	}
	for i := range out.Script {
		out.Script[i].SceneNumber = i + 1
	}
	return out.Script, nil
}
