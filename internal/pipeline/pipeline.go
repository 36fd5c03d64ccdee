// Package pipeline holds one generator per stage of the storyboard
// pipeline. Generators are stateless; the workflow package sequences them.
package pipeline

import (
	"storyboarder/internal/imagestore"
	"storyboarder/internal/llm"
)

// Stages bundles the generators used by a session.
type Stages struct {
	Insights *InsightAnalyzer
	Ideas    *IdeaGenerator
	Scripts  *ScriptWriter
	Prompts  *PromptDesigner
	Images   *SceneImager
}

// Options configures New. Empty fields take defaults.
type Options struct {
	ProductContext string
}

// New wires every stage onto one text client, one image client and one
// image store.
func New(cli llm.LLMClient, images llm.ImageClient, store imagestore.Store, opts Options) *Stages {
	pc := opts.ProductContext
	if pc == "" {
		pc = DefaultProductContext
	}
	prompts := &PromptDesigner{LLM: cli}
	return &Stages{
		Insights: &InsightAnalyzer{LLM: cli},
		Ideas:    &IdeaGenerator{LLM: cli, ProductContext: pc},
		Scripts:  &ScriptWriter{LLM: cli, ProductContext: pc},
		Prompts:  prompts,
		Images:   &SceneImager{Prompts: prompts, Images: images, Store: store},
	}
}
