package monitoring

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dwarvesf/withdrawal-engine/internal/utils/logger"
)

// JobExecutionStatus represents different job execution states
type JobExecutionStatus string

const (
	JobStatusPending JobExecutionStatus = "pending"
	JobStatusRunning JobExecutionStatus = "running"
	JobStatusSuccess JobExecutionStatus = "success"
	JobStatusFailed  JobExecutionStatus = "failed"
)

// JobStatus contains status information for a background job
type JobStatus struct {
	JobName             string             `json:"job_name"`
	Status              JobExecutionStatus `json:"status"`
	LastRunTime         time.Time          `json:"last_run_time"`
	LastDuration        time.Duration      `json:"last_duration_ms"`
	SuccessCount        int64              `json:"success_count"`
	FailureCount        int64              `json:"failure_count"`
	ConsecutiveFailures int64              `json:"consecutive_failures"`
	LastError           string             `json:"last_error,omitempty"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// JobStatusManager tracks cron job executions with thread-safe operations
type JobStatusManager struct {
	mu       sync.RWMutex
	statuses map[string]*JobStatus
	logger   *logger.Logger
	metrics  *BackgroundJobMetrics
}

// NewJobStatusManager creates a new job status manager instance
func NewJobStatusManager(logger *logger.Logger, metrics *BackgroundJobMetrics) *JobStatusManager {
	return &JobStatusManager{
		statuses: make(map[string]*JobStatus),
		logger:   logger,
		metrics:  metrics,
	}
}

// RegisterJob registers a new job for monitoring
func (jsm *JobStatusManager) RegisterJob(jobName string) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	if _, exists := jsm.statuses[jobName]; !exists {
		jsm.statuses[jobName] = &JobStatus{
			JobName:   jobName,
			Status:    JobStatusPending,
			UpdatedAt: time.Now(),
		}
	}
}

// Instrument wraps a cron job function with status tracking, metrics and
// panic recovery. The returned function is what gets scheduled.
func (jsm *JobStatusManager) Instrument(jobName string, fn func() error) func() {
	jsm.RegisterJob(jobName)

	return func() {
		start := time.Now()
		jsm.setRunning(jobName, start)

		var err error
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
					jsm.logger.Error("Background job panicked", map[string]string{
						"job":   jobName,
						"panic": fmt.Sprintf("%v", r),
						"stack": string(debug.Stack()),
					})
				}
			}()
			err = fn()
		}()

		duration := time.Since(start)
		jsm.recordResult(jobName, duration, err)
	}
}

func (jsm *JobStatusManager) setRunning(jobName string, start time.Time) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	status, ok := jsm.statuses[jobName]
	if !ok {
		return
	}
	status.Status = JobStatusRunning
	status.LastRunTime = start
	status.UpdatedAt = time.Now()
}

func (jsm *JobStatusManager) recordResult(jobName string, duration time.Duration, err error) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	status, ok := jsm.statuses[jobName]
	if !ok {
		return
	}

	status.LastDuration = duration
	status.UpdatedAt = time.Now()

	outcome := "success"
	if err != nil {
		outcome = "failed"
		status.Status = JobStatusFailed
		status.FailureCount++
		status.ConsecutiveFailures++
		status.LastError = err.Error()
		jsm.logger.Error("Background job failed", map[string]string{
			"job":      jobName,
			"duration": duration.String(),
			"error":    err.Error(),
		})
	} else {
		status.Status = JobStatusSuccess
		status.SuccessCount++
		status.ConsecutiveFailures = 0
		status.LastError = ""
	}

	if jsm.metrics != nil {
		jsm.metrics.RecordJobRun(jobName, outcome, duration.Seconds())
	}
}

// GetJobStatus returns a copy of one job's status
func (jsm *JobStatusManager) GetJobStatus(jobName string) (JobStatus, bool) {
	jsm.mu.RLock()
	defer jsm.mu.RUnlock()

	status, ok := jsm.statuses[jobName]
	if !ok {
		return JobStatus{}, false
	}
	return *status, true
}

// GetAllJobStatuses returns copies of all tracked job statuses
func (jsm *JobStatusManager) GetAllJobStatuses() map[string]JobStatus {
	jsm.mu.RLock()
	defer jsm.mu.RUnlock()

	out := make(map[string]JobStatus, len(jsm.statuses))
	for name, status := range jsm.statuses {
		out[name] = *status
	}
	return out
}
