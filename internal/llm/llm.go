package llm

import (
	"context"
	"encoding/json"

	llmclient "storyboarder/internal/llmClient"
	"storyboarder/internal/llmtool"
	"storyboarder/internal/util/jsonutil"
)

type (
	LLMClient   = llmclient.LLMClient
	ImageClient = llmclient.ImageClient
	Image       = llmclient.Image
)

// Structured runs one schema-constrained call and decodes the result into
// T. The raw text is untrusted: it must satisfy shape before it is decoded,
// and every failure comes back as a *llmclient.GenerationError.
func Structured[T any](ctx context.Context, cli LLMClient, prompt string, shape *llmtool.Shape) (T, error) {
	var out T
	op := PhaseFrom(ctx)
	raw, err := cli.GenerateJSON(ctx, prompt, shape)
	if err != nil {
		return out, llmclient.NewGenerationError(op, err)
	}
	body := jsonutil.StripFences(raw)
	if len(body) == 0 {
		return out, llmclient.NewGenerationError(op, llmclient.ErrEmptyResponse)
	}
	if shape != nil {
		if err := shape.Validate(body); err != nil {
			return out, llmclient.NewGenerationError(op, err)
		}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, llmclient.NewGenerationError(op, err)
	}
	return out, nil
}
