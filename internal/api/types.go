package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a queue entry in a transport-friendly format.
type Job struct {
	ID            int64   `json:"id"`
	SubjectID     string  `json:"subjectId"`
	Status        string  `json:"status"`
	Progress      float64 `json:"progress"`
	StatusMessage string  `json:"statusMessage,omitempty"`
	ErrorMessage  string  `json:"errorMessage,omitempty"`
	CreatedAt     string  `json:"createdAt,omitempty"`
	UpdatedAt     string  `json:"updatedAt,omitempty"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running     bool           `json:"running"`
	PID         int            `json:"pid"`
	QueueDBPath string         `json:"queueDbPath"`
	QueueStats  map[string]int `json:"queueStats"`
	StageHealth []StageHealth  `json:"stageHealth"`
	LastError   string         `json:"lastError,omitempty"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// StartJobRequest asks the daemon to enqueue processing for a subject.
type StartJobRequest struct {
	SubjectID string `json:"subjectId"`
}

// CancelResponse reports how a cancel request was honored.
type CancelResponse struct {
	Cancelled bool   `json:"cancelled"`
	Deferred  bool   `json:"deferred"`
	Detail    string `json:"detail,omitempty"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
