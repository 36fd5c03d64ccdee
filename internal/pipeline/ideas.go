package pipeline

import (
	"context"
	"fmt"

	"storyboarder/internal/llm"
	"storyboarder/internal/llmtool"
	"storyboarder/internal/reconcile"
	t "storyboarder/internal/types"
)

var ideasShape = llmtool.ShapeOf([]t.Idea{})

func ideasPrompt(productContext string) llmtool.StructuredPromptSpec {
	return llmtool.StructuredPromptSpec{
		Purpose: fmt.Sprintf("Bạn là giám đốc sáng tạo chuyên về video marketing lan truyền. "+
			"Dựa trên bản phân tích insight trong INPUT, hãy tạo chính xác %d ý tưởng nội dung video khác biệt và hấp dẫn.", reconcile.MaxIdeas),
		Background:   productContext,
		OutputFields: llmtool.FieldsFromShape(ideasShape),
		Rules: []string{
			"Mỗi ý tưởng giải quyết trực tiếp một hoặc nhiều điểm trong bản phân tích và bối cảnh sản phẩm.",
			"title: tiêu đề ngắn gọn, hấp dẫn; không trùng nhau giữa các ý tưởng.",
			"concept: 2-3 câu giải thích cách ý tưởng kết nối với insight.",
			"angle: góc độ tiếp cận chính, ví dụ Giải Quyết Vấn Đề, Truyền Cảm Hứng, Hướng Dẫn Thực Tế, So Sánh, Hài Hước.",
		},
		OutputFormat: "Một mảng JSON các đối tượng ý tưởng, không markdown.",
		Language:     "Tiếng Việt",
	}
}

// IdeaGenerator proposes content ideas from the committed insights.
type IdeaGenerator struct {
	LLM            llm.LLMClient
	ProductContext string
}

// Run returns at most reconcile.MaxIdeas ideas. Fewer are accepted.
func (p *IdeaGenerator) Run(ctx context.Context, in t.Insights) ([]t.Idea, error) {
	spec := ideasPrompt(p.ProductContext)
	prompt, err := spec.Render(in)
	if err != nil {
		return nil, fmt.Errorf("ideas prompt: %w", err)
	}
	ctx = llm.WithPhase(ctx, PhaseIdeas)
	ideas, err := llm.Structured[[]t.Idea](ctx, p.LLM, prompt, ideasShape)
	if err != nil {
		return nil, err
	}
	return reconcile.TruncateIdeas(ideas), nil
}
