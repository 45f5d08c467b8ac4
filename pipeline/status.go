package pipeline

import (
	"github.com/paperpilot/paperpilot/types"
)

// runningStatus maps a stage to its in-progress status.
func runningStatus(stage types.Stage) types.Status {
	switch stage {
	case types.StageResearch:
		return types.StatusResearching
	case types.StageWriting:
		return types.StatusWriting
	default:
		return types.StatusReviewing
	}
}

// completeStatus maps a stage to its terminal success status.
func completeStatus(stage types.Stage) types.Status {
	switch stage {
	case types.StageResearch:
		return types.StatusResearchComplete
	case types.StageWriting:
		return types.StatusWritingComplete
	default:
		return types.StatusReviewComplete
	}
}

// failedStatus maps a stage to its failed status.
func failedStatus(stage types.Stage) types.Status {
	switch stage {
	case types.StageResearch:
		return types.StatusResearchFailed
	case types.StageWriting:
		return types.StatusWritingFailed
	default:
		return types.StatusReviewFailed
	}
}

// statusRank orders the resting statuses by how far the pipeline has
// advanced. A failed stage ranks with the status it fell from, so it
// unlocks nothing beyond what had already completed.
var statusRank = map[types.Status]int{
	types.StatusCreated:          0,
	types.StatusResearchFailed:   0,
	types.StatusResearchComplete: 1,
	types.StatusWritingFailed:    1,
	types.StatusWritingComplete:  2,
	types.StatusReviewFailed:     2,
	types.StatusReviewComplete:   3,
}

// stagePrerequisite is the minimum rank a project must have reached before
// a stage may start. Research has no prerequisite; writing needs completed
// research; review needs a completed draft.
var stagePrerequisite = map[types.Stage]int{
	types.StageResearch: 0,
	types.StageWriting:  1,
	types.StageReview:   2,
}

// CanStart checks whether a stage may begin from the project's current
// status. A stage never starts while another one is running. Any stage
// whose prerequisite holds may start, including re-runs of stages that
// already completed; a re-run replaces that stage's artifact.
func CanStart(stage types.Stage, status types.Status) error {
	if status.InProgress() {
		return types.NewErrorf(types.ErrInvalidState,
			"cannot start stage %q while project is %q", stage, status)
	}
	if statusRank[status] < stagePrerequisite[stage] {
		return types.NewErrorf(types.ErrInvalidState,
			"cannot start stage %q from status %q", stage, status)
	}
	return nil
}
