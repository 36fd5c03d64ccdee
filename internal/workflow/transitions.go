// Package workflow sequences the pipeline stages over a project. The
// transition functions take a project and return the next one; Session
// adds the stage index, busy flag, surfaced error and insight working copy.
package workflow

import (
	"context"
	"fmt"

	"storyboarder/internal/fanout"
	"storyboarder/internal/pipeline"
	"storyboarder/internal/reconcile"
	t "storyboarder/internal/types"
)

// AnalyzeBrief validates the brief and commits the analysed insights. On
// failure p is returned unchanged.
func AnalyzeBrief(ctx context.Context, st *pipeline.Stages, p t.Project) (t.Project, error) {
	if err := ValidateBrief(p.Brief); err != nil {
		return p, err
	}
	ins, err := st.Insights.Run(ctx, p.Brief)
	if err != nil {
		return p, err
	}
	out := p.Clone()
	out.Insights = &ins
	return out, nil
}

// GenerateIdeas cleans and commits working, then generates content ideas.
// The returned project carries the committed insights even when the idea
// call fails.
func GenerateIdeas(ctx context.Context, st *pipeline.Stages, p t.Project, working t.Insights) (t.Project, error) {
	cleaned := reconcile.CleanInsights(working)
	if cleaned.Empty() {
		return p, invalid("at least one insight is required")
	}
	out := p.Clone()
	out.Insights = &cleaned
	ideas, err := st.Ideas.Run(ctx, cleaned)
	if err != nil {
		return out, err
	}
	return SetContentIdeas(out, ideas), nil
}

// SetContentIdeas replaces the content ideas and re-filters the selection.
func SetContentIdeas(p t.Project, ideas []t.Idea) t.Project {
	out := p.Clone()
	out.ContentIdeas = reconcile.TruncateIdeas(ideas)
	out.SelectedIdeas = reconcile.FilterSelected(out.ContentIdeas, out.SelectedIdeas)
	return out
}

// ToggleIdea adds or removes one idea from the selection by title. last is
// the removal returned by the previous toggle.
func ToggleIdea(p t.Project, title string, last reconcile.Removal) (t.Project, reconcile.Removal, error) {
	sel, removed, err := reconcile.ToggleIdea(p.ContentIdeas, p.SelectedIdeas, title, last)
	if err != nil {
		return p, last, invalidErr(err)
	}
	out := p.Clone()
	out.SelectedIdeas = sel
	return out, removed, nil
}

// WriteScripts writes one script per selected idea concurrently. Scripts
// are committed only when every call succeeds, in selection order.
func WriteScripts(ctx context.Context, st *pipeline.Stages, p t.Project, opts ...fanout.Option) (t.Project, error) {
	if len(p.SelectedIdeas) == 0 {
		return p, invalid("select at least one idea")
	}
	brief := p.Brief
	scripts, err := fanout.JoinAll(ctx, p.SelectedIdeas, func(ctx context.Context, _ int, idea t.Idea) (t.Script, error) {
		scenes, err := st.Scripts.Run(ctx, brief, idea)
		if err != nil {
			return t.Script{}, err
		}
		return t.Script{Idea: idea, Scenes: scenes}, nil
	}, opts...)
	if err != nil {
		return p, err
	}
	out := p.Clone()
	out.Scripts = scripts
	return out, nil
}

// EditScriptScene applies a field edit to one script scene.
func EditScriptScene(p t.Project, scriptIdx, sceneIdx int, edit reconcile.SceneEdit) (t.Project, error) {
	scripts, err := reconcile.EditScriptScene(p.Scripts, scriptIdx, sceneIdx, edit)
	if err != nil {
		return p, invalidErr(err)
	}
	out := p.Clone()
	out.Scripts = scripts
	return out, nil
}

// BuildStoryboards designs the image prompts of every script, one batch
// per script, and pairs them with the scenes by position.
func BuildStoryboards(ctx context.Context, st *pipeline.Stages, p t.Project, opts ...fanout.Option) (t.Project, error) {
	if len(p.Scripts) == 0 {
		return p, invalid("no scripts to storyboard")
	}
	aspect := p.AspectRatio
	boards, err := fanout.JoinAll(ctx, p.Scripts, func(ctx context.Context, _ int, s t.Script) (t.Storyboard, error) {
		prompts, err := st.Prompts.Run(ctx, s.Scenes, aspect)
		if err != nil {
			return t.Storyboard{}, err
		}
		return pipeline.BuildStoryboard(s, prompts)
	}, opts...)
	if err != nil {
		return p, err
	}
	out := p.Clone()
	out.Storyboards = boards
	return out, nil
}

// EditStoryboardScene applies a field edit to one storyboard scene.
func EditStoryboardScene(p t.Project, sbIdx, sceneIdx int, edit reconcile.SceneEdit) (t.Project, error) {
	boards, err := reconcile.EditStoryboardScene(p.Storyboards, sbIdx, sceneIdx, edit)
	if err != nil {
		return p, invalidErr(err)
	}
	out := p.Clone()
	out.Storyboards = boards
	return out, nil
}

func storyboardScene(p t.Project, sbIdx, sceneIdx int) (t.StoryboardScene, error) {
	if sbIdx < 0 || sbIdx >= len(p.Storyboards) {
		return t.StoryboardScene{}, invalidErr(fmt.Errorf("%w: storyboard %d", reconcile.ErrIndexOutOfRange, sbIdx))
	}
	scenes := p.Storyboards[sbIdx].Scenes
	if sceneIdx < 0 || sceneIdx >= len(scenes) {
		return t.StoryboardScene{}, invalidErr(fmt.Errorf("%w: storyboard %d scene %d", reconcile.ErrIndexOutOfRange, sbIdx, sceneIdx))
	}
	return scenes[sceneIdx], nil
}
