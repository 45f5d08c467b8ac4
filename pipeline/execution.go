package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paperpilot/paperpilot/types"
)

// executionCounter provides a monotonically increasing counter for unique
// execution IDs.
var executionCounter uint64

func generateExecutionID() string {
	return fmt.Sprintf("exec-%d-%d", time.Now().UnixNano(), atomic.AddUint64(&executionCounter, 1))
}

// ExecutionStatus is the lifecycle state of a single stage run.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// stageResult bundles the outcome of a stage run into a single value so
// waiters read one channel instead of racing two.
type stageResult struct {
	Err error
}

// StageExecution is the handle to one asynchronous stage run. StartStage
// returns it immediately; the stage body completes it in the background.
type StageExecution struct {
	ID        string
	ProjectID string
	Stage     types.Stage
	StartTime time.Time

	// mu protects status, errMsg and endTime.
	mu      sync.RWMutex
	status  ExecutionStatus
	errMsg  string
	endTime time.Time

	doneCh chan stageResult
}

func newStageExecution(projectID string, stage types.Stage) *StageExecution {
	return &StageExecution{
		ID:        generateExecutionID(),
		ProjectID: projectID,
		Stage:     stage,
		StartTime: time.Now(),
		status:    ExecutionStatusRunning,
		doneCh:    make(chan stageResult, 1),
	}
}

// setCompleted atomically marks the execution as completed.
func (e *StageExecution) setCompleted() {
	e.mu.Lock()
	e.status = ExecutionStatusCompleted
	e.endTime = time.Now()
	e.mu.Unlock()
	e.doneCh <- stageResult{}
}

// setFailed atomically marks the execution as failed.
func (e *StageExecution) setFailed(err error) {
	e.mu.Lock()
	e.status = ExecutionStatusFailed
	e.errMsg = err.Error()
	e.endTime = time.Now()
	e.mu.Unlock()
	e.doneCh <- stageResult{Err: err}
}

// Status returns the current execution status.
func (e *StageExecution) Status() ExecutionStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// Err returns the error message, if the run failed.
func (e *StageExecution) Err() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.errMsg
}

// EndTime returns when the run finished, zero while still running.
func (e *StageExecution) EndTime() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.endTime
}

// Wait blocks until the stage run finishes or the context expires. The
// stage itself keeps running when the waiter gives up.
func (e *StageExecution) Wait(ctx context.Context) error {
	select {
	case res := <-e.doneCh:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}
