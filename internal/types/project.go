package types

// ImageRefError marks a storyboard scene whose image generation failed.
const ImageRefError = "error"

// InsightCategory names one of the four insight sets.
type InsightCategory string

const (
	PainPoints     InsightCategory = "pain_points"
	Desires        InsightCategory = "desires"
	KeyBehaviors   InsightCategory = "key_behaviors"
	IdentifiedGaps InsightCategory = "identified_gaps"
)

// InsightCategories lists the sets in display order.
var InsightCategories = []InsightCategory{PainPoints, Desires, KeyBehaviors, IdentifiedGaps}

// Valid reports whether c names a known insight set.
func (c InsightCategory) Valid() bool {
	switch c {
	case PainPoints, Desires, KeyBehaviors, IdentifiedGaps:
		return true
	}
	return false
}

// Insights is the structured analysis of the audience.
type Insights struct {
	PainPoints     []string `json:"pain_points" prompt_desc:"2-3 core pain points, given and inferred"`
	Desires        []string `json:"desires" prompt_desc:"2-3 desired outcomes, given and inferred"`
	KeyBehaviors   []string `json:"key_behaviors" prompt_desc:"1-2 typical behaviours inferred from context"`
	IdentifiedGaps []string `json:"identified_gaps" prompt_desc:"2-3 strategic questions or untapped opportunities"`
}

// Set returns a pointer to the slice backing category c, or nil.
func (in *Insights) Set(c InsightCategory) *[]string {
	switch c {
	case PainPoints:
		return &in.PainPoints
	case Desires:
		return &in.Desires
	case KeyBehaviors:
		return &in.KeyBehaviors
	case IdentifiedGaps:
		return &in.IdentifiedGaps
	}
	return nil
}

// Empty reports whether all four sets have no entries.
func (in Insights) Empty() bool {
	return len(in.PainPoints) == 0 && len(in.Desires) == 0 &&
		len(in.KeyBehaviors) == 0 && len(in.IdentifiedGaps) == 0
}

// Clone deep-copies the insight sets.
func (in Insights) Clone() Insights {
	return Insights{
		PainPoints:     cloneStrings(in.PainPoints),
		Desires:        cloneStrings(in.Desires),
		KeyBehaviors:   cloneStrings(in.KeyBehaviors),
		IdentifiedGaps: cloneStrings(in.IdentifiedGaps),
	}
}

// Idea is a content idea. Title is its identity within a project.
type Idea struct {
	Title   string `json:"title" prompt_desc:"short catchy title"`
	Concept string `json:"concept" prompt_desc:"2-3 sentences tying the idea to the insights"`
	Angle   string `json:"angle" prompt_desc:"main approach, e.g. problem solving, inspiration, how-to, comparison, humour"`
}

// ScriptScene is one scene of a written script.
type ScriptScene struct {
	SceneNumber       int    `json:"scene_number" prompt_type:"integer" prompt_desc:"1-based scene index"`
	DurationSeconds   int    `json:"duration_seconds" prompt_type:"integer" prompt_desc:"scene length in seconds"`
	VisualDescription string `json:"visual_description" prompt_desc:"condensed visual description used for the image prompt"`
	SceneDetails      string `json:"scene_details" prompt_desc:"actions, expressions and events in the scene"`
	VisualSuggestions string `json:"visual_suggestions" prompt_desc:"camera angle, movement, lighting and colour notes"`
	VoiceoverText     string `json:"voiceover_text" prompt_desc:"voiceover, dialogue or on-screen caption"`
}

// Script pairs an idea with its scenes.
type Script struct {
	Idea   Idea          `json:"idea"`
	Scenes []ScriptScene `json:"scenes"`
}

// StoryboardScene extends a script scene with its image state.
type StoryboardScene struct {
	ScriptScene
	ImagePrompt string `json:"imagePrompt"`
	ImageRef    string `json:"imageRef"`
	Generating  bool   `json:"generating"`
}

// HasImage reports whether the scene carries a usable image reference.
func (s StoryboardScene) HasImage() bool {
	return s.ImageRef != "" && s.ImageRef != ImageRefError
}

// Storyboard pairs an idea with its storyboard scenes.
type Storyboard struct {
	Idea   Idea              `json:"idea"`
	Scenes []StoryboardScene `json:"scenes"`
}

// Project is the root artifact threaded through every stage. Optional
// artifacts are nil until the stage producing them has committed.
type Project struct {
	Brief
	Insights      *Insights    `json:"analyzedInsights,omitempty"`
	ContentIdeas  []Idea       `json:"contentIdeas,omitempty"`
	SelectedIdeas []Idea       `json:"selectedIdeas,omitempty"`
	Scripts       []Script     `json:"scripts,omitempty"`
	Storyboards   []Storyboard `json:"storyboards,omitempty"`
}

// NewProject returns an empty project with the default brief.
func NewProject() Project {
	return Project{Brief: DefaultBrief()}
}

// Clone returns a deep copy of p.
func (p Project) Clone() Project {
	out := Project{Brief: p.Brief}
	if p.Insights != nil {
		in := p.Insights.Clone()
		out.Insights = &in
	}
	out.ContentIdeas = cloneIdeas(p.ContentIdeas)
	out.SelectedIdeas = cloneIdeas(p.SelectedIdeas)
	if p.Scripts != nil {
		out.Scripts = make([]Script, len(p.Scripts))
		for i, s := range p.Scripts {
			out.Scripts[i] = Script{Idea: s.Idea, Scenes: append([]ScriptScene(nil), s.Scenes...)}
		}
	}
	if p.Storyboards != nil {
		out.Storyboards = make([]Storyboard, len(p.Storyboards))
		for i, sb := range p.Storyboards {
			out.Storyboards[i] = Storyboard{Idea: sb.Idea, Scenes: append([]StoryboardScene(nil), sb.Scenes...)}
		}
	}
	return out
}

func cloneIdeas(in []Idea) []Idea {
	if in == nil {
		return nil
	}
	return append([]Idea(nil), in...)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
