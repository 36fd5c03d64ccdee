package pipeline

import (
	"context"
	"fmt"

	"storyboarder/internal/imagestore"
	"storyboarder/internal/llm"
	llmclient "storyboarder/internal/llmClient"
	t "storyboarder/internal/types"
)

// SceneImager refreshes one scene's prompt and renders its image.
type SceneImager struct {
	Prompts *PromptDesigner
	Images  llm.ImageClient
	Store   imagestore.Store
}

// SceneResult is the outcome of one per-scene generation. Prompt is set
// whenever the prompt call succeeded, even if the image failed.
type SceneResult struct {
	Prompt string
	Ref    string
}

func (p *SceneImager) Run(ctx context.Context, sessionID string, sbIdx, sceneIdx int, scene t.ScriptScene, aspect t.AspectRatio) (SceneResult, error) {
	var res SceneResult
	prompt, err := p.Prompts.RunScene(ctx, scene, aspect)
	if err != nil {
		return res, err
	}
	res.Prompt = prompt
	img, err := p.Images.GenerateImage(llm.WithPhase(ctx, PhaseSceneImage), prompt, string(aspect))
	if err != nil {
		return res, llmclient.NewGenerationError(PhaseSceneImage, err)
	}
	name := fmt.Sprintf("storyboard-%d/scene-%d", sbIdx+1, sceneIdx+1)
	ref, err := p.Store.Save(ctx, sessionID, name, img)
	if err != nil {
		return res, fmt.Errorf("store image: %w", err)
	}
	res.Ref = ref
	return res, nil
}
