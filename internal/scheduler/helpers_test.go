package scheduler_test

import (
	"time"

	"github.com/buildsched/buildsched/internal/state"
)

func stateRunning(started time.Time, estimate time.Duration) state.CommitState {
	return state.CommitState{
		State:             state.Running,
		Started:           state.NewTimestamp(started),
		EstimatedDuration: state.NewDuration(estimate),
	}
}
