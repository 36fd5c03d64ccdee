// Package reconcile keeps derived project collections consistent with the
// edits made to their sources. Every function returns fresh values and
// leaves its arguments untouched.
package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"storyboarder/internal/types"
)

// MaxIdeas is the number of content ideas kept from one generation.
const MaxIdeas = 6

var (
	ErrUnknownCategory = errors.New("unknown insight category")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrUnknownIdea     = errors.New("unknown idea title")
)

// FilterSelected keeps the selected ideas whose title still appears in
// content, in their prior relative order. The kept value is the one from
// content so edits to concept or angle flow through.
func FilterSelected(content, selected []types.Idea) []types.Idea {
	if selected == nil {
		return nil
	}
	byTitle := make(map[string]types.Idea, len(content))
	for _, c := range content {
		if _, dup := byTitle[c.Title]; !dup {
			byTitle[c.Title] = c
		}
	}
	out := make([]types.Idea, 0, len(selected))
	for _, s := range selected {
		if c, ok := byTitle[s.Title]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Removal remembers where ToggleIdea took an idea out of the selection so
// that toggling it back restores the prior order. The zero value remembers
// nothing.
type Removal struct {
	ok      bool
	title   string
	index   int
	prev    string
	hasPrev bool
	next    string
	hasNext bool
}

// fits reports whether the selection around index is unchanged since the
// removal.
func (r Removal) fits(selected []types.Idea, title string) bool {
	if !r.ok || r.title != title || r.index > len(selected) {
		return false
	}
	if r.hasPrev != (r.index > 0) || r.hasNext != (r.index < len(selected)) {
		return false
	}
	if r.hasPrev && selected[r.index-1].Title != r.prev {
		return false
	}
	return !r.hasNext || selected[r.index].Title == r.next
}

// ToggleIdea removes title from selected when present, otherwise inserts
// the matching content idea. A re-added idea goes back where last removed
// it while its neighbours are unchanged; any other insertion follows
// content order. The returned Removal is set only when title was removed.
func ToggleIdea(content, selected []types.Idea, title string, last Removal) ([]types.Idea, Removal, error) {
	for i, s := range selected {
		if s.Title == title {
			r := Removal{ok: true, title: title, index: i, hasPrev: i > 0, hasNext: i+1 < len(selected)}
			if r.hasPrev {
				r.prev = selected[i-1].Title
			}
			if r.hasNext {
				r.next = selected[i+1].Title
			}
			out := make([]types.Idea, 0, len(selected)-1)
			out = append(out, selected[:i]...)
			return append(out, selected[i+1:]...), r, nil
		}
	}
	pos := -1
	for i, c := range content {
		if c.Title == title {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, Removal{}, fmt.Errorf("%w: %q", ErrUnknownIdea, title)
	}
	if last.fits(selected, title) {
		out := make([]types.Idea, 0, len(selected)+1)
		out = append(out, selected[:last.index]...)
		out = append(out, content[pos])
		return append(out, selected[last.index:]...), Removal{}, nil
	}
	rank := make(map[string]int, len(content))
	for i, c := range content {
		if _, dup := rank[c.Title]; !dup {
			rank[c.Title] = i
		}
	}
	out := make([]types.Idea, 0, len(selected)+1)
	inserted := false
	for _, s := range selected {
		if !inserted && rank[s.Title] > pos {
			out = append(out, content[pos])
			inserted = true
		}
		out = append(out, s)
	}
	if !inserted {
		out = append(out, content[pos])
	}
	return out, Removal{}, nil
}

// TruncateIdeas keeps at most MaxIdeas ideas. Fewer are returned as-is.
func TruncateIdeas(ideas []types.Idea) []types.Idea {
	if len(ideas) > MaxIdeas {
		ideas = ideas[:MaxIdeas]
	}
	return append([]types.Idea{}, ideas...)
}

// AddInsight appends text to one set of the working copy. Whitespace-only
// input is ignored and reported by ok=false.
func AddInsight(working types.Insights, cat types.InsightCategory, text string) (out types.Insights, ok bool, err error) {
	out = working.Clone()
	set := out.Set(cat)
	if set == nil {
		return working, false, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return out, false, nil
	}
	*set = append(*set, text)
	return out, true, nil
}

// RemoveInsight drops entry index of one set of the working copy.
func RemoveInsight(working types.Insights, cat types.InsightCategory, index int) (types.Insights, error) {
	out := working.Clone()
	set := out.Set(cat)
	if set == nil {
		return working, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	if index < 0 || index >= len(*set) {
		return working, fmt.Errorf("%w: %s[%d]", ErrIndexOutOfRange, cat, index)
	}
	*set = append((*set)[:index], (*set)[index+1:]...)
	return out, nil
}

// CleanInsights trims every entry and drops the empty ones.
func CleanInsights(in types.Insights) types.Insights {
	out := types.Insights{}
	for _, cat := range types.InsightCategories {
		src := in.Set(cat)
		dst := out.Set(cat)
		*dst = []string{}
		for _, s := range *src {
			if s = strings.TrimSpace(s); s != "" {
				*dst = append(*dst, s)
			}
		}
	}
	return out
}

// SceneEdit carries the fields a user may change on a scene. Nil fields
// are left alone.
type SceneEdit struct {
	DurationSeconds   *int    `json:"duration_seconds,omitempty"`
	VisualDescription *string `json:"visual_description,omitempty"`
	SceneDetails      *string `json:"scene_details,omitempty"`
	VisualSuggestions *string `json:"visual_suggestions,omitempty"`
	VoiceoverText     *string `json:"voiceover_text,omitempty"`
	// ImagePrompt applies to storyboard scenes only.
	ImagePrompt *string `json:"imagePrompt,omitempty"`
}

func (e SceneEdit) apply(s *types.ScriptScene) {
	if e.DurationSeconds != nil {
		s.DurationSeconds = *e.DurationSeconds
	}
	if e.VisualDescription != nil {
		s.VisualDescription = *e.VisualDescription
	}
	if e.SceneDetails != nil {
		s.SceneDetails = *e.SceneDetails
	}
	if e.VisualSuggestions != nil {
		s.VisualSuggestions = *e.VisualSuggestions
	}
	if e.VoiceoverText != nil {
		s.VoiceoverText = *e.VoiceoverText
	}
}

// EditScriptScene applies edit to scene sceneIdx of script scriptIdx.
func EditScriptScene(scripts []types.Script, scriptIdx, sceneIdx int, edit SceneEdit) ([]types.Script, error) {
	if scriptIdx < 0 || scriptIdx >= len(scripts) {
		return scripts, fmt.Errorf("%w: script %d", ErrIndexOutOfRange, scriptIdx)
	}
	if sceneIdx < 0 || sceneIdx >= len(scripts[scriptIdx].Scenes) {
		return scripts, fmt.Errorf("%w: script %d scene %d", ErrIndexOutOfRange, scriptIdx, sceneIdx)
	}
	out := append([]types.Script(nil), scripts...)
	scenes := append([]types.ScriptScene(nil), out[scriptIdx].Scenes...)
	edit.apply(&scenes[sceneIdx])
	out[scriptIdx].Scenes = scenes
	return out, nil
}

// EditStoryboardScene applies edit to scene sceneIdx of storyboard sbIdx.
func EditStoryboardScene(boards []types.Storyboard, sbIdx, sceneIdx int, edit SceneEdit) ([]types.Storyboard, error) {
	if sbIdx < 0 || sbIdx >= len(boards) {
		return boards, fmt.Errorf("%w: storyboard %d", ErrIndexOutOfRange, sbIdx)
	}
	if sceneIdx < 0 || sceneIdx >= len(boards[sbIdx].Scenes) {
		return boards, fmt.Errorf("%w: storyboard %d scene %d", ErrIndexOutOfRange, sbIdx, sceneIdx)
	}
	out := append([]types.Storyboard(nil), boards...)
	scenes := append([]types.StoryboardScene(nil), out[sbIdx].Scenes...)
	edit.apply(&scenes[sceneIdx].ScriptScene)
	if edit.ImagePrompt != nil {
		scenes[sceneIdx].ImagePrompt = *edit.ImagePrompt
	}
	out[sbIdx].Scenes = scenes
	return out, nil
}

// UpdateStoryboardScene replaces one storyboard scene through fn. Only the
// addressed (storyboard, scene) pair is touched.
func UpdateStoryboardScene(boards []types.Storyboard, sbIdx, sceneIdx int, fn func(*types.StoryboardScene)) ([]types.Storyboard, error) {
	if sbIdx < 0 || sbIdx >= len(boards) {
		return boards, fmt.Errorf("%w: storyboard %d", ErrIndexOutOfRange, sbIdx)
	}
	if sceneIdx < 0 || sceneIdx >= len(boards[sbIdx].Scenes) {
		return boards, fmt.Errorf("%w: storyboard %d scene %d", ErrIndexOutOfRange, sbIdx, sceneIdx)
	}
	out := append([]types.Storyboard(nil), boards...)
	scenes := append([]types.StoryboardScene(nil), out[sbIdx].Scenes...)
	fn(&scenes[sceneIdx])
	out[sbIdx].Scenes = scenes
	return out, nil
}
