package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAvailabilityRefresh re-checks which years have data and repairs the selection.
	TaskAvailabilityRefresh = "dashboard:availability"
	// TaskDashboardRefresh reloads the summary for the current selection.
	TaskDashboardRefresh = "dashboard:refresh"
	// TaskTrendRefresh reloads the multi-year trend series.
	TaskTrendRefresh = "dashboard:trend"
)

// TrendRefreshPayload sizes the trend window ending at the current year.
type TrendRefreshPayload struct {
	WindowYears int `json:"window_years"`
}

// NewAvailabilityRefreshTask builds an availability refresh task.
func NewAvailabilityRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskAvailabilityRefresh, nil, asynq.Queue(QueueDefault))
}

// NewDashboardRefreshTask builds a summary refresh task.
func NewDashboardRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskDashboardRefresh, nil, asynq.Queue(QueueDefault))
}

// NewTrendRefreshTask builds a trend refresh task.
func NewTrendRefreshTask(payload TrendRefreshPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTrendRefresh, body, asynq.Queue(QueueDefault)), nil
}
