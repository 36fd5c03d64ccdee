package types

import "fmt"

// Stage is one of the six ordered pipeline phases.
type Stage int

const (
	StageSetup Stage = iota + 1
	StageInsightReview
	StageIdeaSelection
	StageScriptReview
	StageStoryboard
	StageFinal
)

// StageCount is the number of stages.
const StageCount = int(StageFinal)

func (s Stage) String() string {
	switch s {
	case StageSetup:
		return "setup"
	case StageInsightReview:
		return "insight_review"
	case StageIdeaSelection:
		return "idea_selection"
	case StageScriptReview:
		return "script_review"
	case StageStoryboard:
		return "storyboard"
	case StageFinal:
		return "final"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}
