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

var ErrPromptCount = errors.New("prompt count does not match scene count")

type promptsOut struct {
	Prompts []string `json:"prompts" prompt_desc:"one structured English image prompt per input scene, in input order"`
}

var promptsShape = llmtool.ShapeOf(promptsOut{})

func storyboardPrompt(aspect t.AspectRatio) llmtool.StructuredPromptSpec {
	return llmtool.StructuredPromptSpec{
		Purpose: "You are an expert prompt engineer for text-to-image and text-to-video models (Imagen, Veo, Kling, Runway). " +
			"Convert each Vietnamese script scene in INPUT into one detailed, structured image prompt.",
		Background:   fmt.Sprintf("Target aspect ratio: %s. Compose every frame for it.", aspect),
		OutputFields: llmtool.FieldsFromShape(promptsShape),
		Constraints:  []string{"Return exactly one prompt per input scene, in the same order."},
		Rules:        storyboardRules,
		OutputFormat: `A JSON object with the single key "prompts". No markdown.`,
		Language:     "English",
	}
}

// PromptDesigner turns script scenes into image prompts.
type PromptDesigner struct{ LLM llm.LLMClient }

// Run designs prompts for a whole scene list in one call.
func (p *PromptDesigner) Run(ctx context.Context, scenes []t.ScriptScene, aspect t.AspectRatio) ([]string, error) {
	return p.run(llm.WithPhase(ctx, PhasePrompts), scenes, aspect)
}

// RunScene re-derives the prompt of a single scene.
func (p *PromptDesigner) RunScene(ctx context.Context, scene t.ScriptScene, aspect t.AspectRatio) (string, error) {
	prompts, err := p.run(llm.WithPhase(ctx, PhaseScenePrompt), []t.ScriptScene{scene}, aspect)
	if err != nil {
		return "", err
	}
	return prompts[0], nil
}

func (p *PromptDesigner) run(ctx context.Context, scenes []t.ScriptScene, aspect t.AspectRatio) ([]string, error) {
	spec := storyboardPrompt(aspect)
	prompt, err := spec.Render(scenes)
	if err != nil {
		return nil, fmt.Errorf("storyboard prompt: %w", err)
	}
	out, err := llm.Structured[promptsOut](llm.WithItems(ctx, len(scenes)), p.LLM, prompt, promptsShape)
	if err != nil {
		return nil, err
	}
	if len(out.Prompts) != len(scenes) {
		return nil, &llmclient.GenerationError{
			Op:  llm.PhaseFrom(ctx),
			Err: fmt.Errorf("%w: got %d prompts for %d scenes", ErrPromptCount, len(out.Prompts), len(scenes)),
		}
	}
	return out.Prompts, nil
}

// BuildStoryboard pairs each script scene with its prompt by position.
// Image references start empty and no scene is generating.
func BuildStoryboard(script t.Script, prompts []string) (t.Storyboard, error) {
	if len(prompts) != len(script.Scenes) {
		return t.Storyboard{}, &llmclient.GenerationError{
			Op:  PhasePrompts,
			Err: fmt.Errorf("%w: got %d prompts for %d scenes", ErrPromptCount, len(prompts), len(script.Scenes)),
		}
	}
	sb := t.Storyboard{Idea: script.Idea, Scenes: make([]t.StoryboardScene, len(script.Scenes))}
	for i, sc := range script.Scenes {
		sb.Scenes[i] = t.StoryboardScene{ScriptScene: sc, ImagePrompt: prompts[i]}
	}
	return sb, nil
}
