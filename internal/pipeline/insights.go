package pipeline

import (
	"context"
	"fmt"

	"storyboarder/internal/llm"
	"storyboarder/internal/llmtool"
	t "storyboarder/internal/types"
)

var insightsShape = llmtool.ShapeOf(t.Insights{})

var insightsPrompt = llmtool.StructuredPromptSpec{
	Purpose: "Đóng vai chuyên gia phân tích dữ liệu marketing và tâm lý học khách hàng. " +
		"Phân tích, mở rộng và cấu trúc insight khách hàng cho một chiến dịch video marketing, " +
		"suy luận thêm những insight tiềm năng người dùng có thể đã bỏ qua.",
	Background:   "INPUT chứa mục tiêu marketing, đối tượng mục tiêu và insight ban đầu do người dùng nhập.",
	OutputFields: llmtool.FieldsFromShape(insightsShape),
	Rules: []string{
		"pain_points: 2-3 nỗi đau hoặc vấn đề cốt lõi, gồm cả nỗi đau được cung cấp và nỗi đau suy luận được.",
		"desires: 2-3 mong muốn hoặc kết quả lý tưởng mà đối tượng khao khát.",
		"key_behaviors: 1-2 hành vi hoặc thói quen điển hình liên quan đến vấn đề.",
		"identified_gaps: 2-3 câu hỏi chiến lược hoặc cơ hội marketing chưa được khai thác, nhằm kiểm chứng giả định.",
	},
	OutputFormat: "Một đối tượng JSON duy nhất, không markdown.",
	Language:     "Tiếng Việt",
}

// InsightAnalyzer turns the brief into the four structured insight sets.
type InsightAnalyzer struct{ LLM llm.LLMClient }

func (p *InsightAnalyzer) Run(ctx context.Context, brief t.Brief) (t.Insights, error) {
	prompt, err := insightsPrompt.Render(map[string]any{
		"goal":          brief.Goal,
		"audience":      brief.Audience,
		"user_insights": brief.UserInsights,
	})
	if err != nil {
		return t.Insights{}, fmt.Errorf("insights prompt: %w", err)
	}
	ctx = llm.WithPhase(ctx, PhaseInsights)
	return llm.Structured[t.Insights](ctx, p.LLM, prompt, insightsShape)
}
