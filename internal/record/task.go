package record

// TaskStatus is the lifecycle state of a background task.
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// ValidTaskStatus reports whether s is a known task status.
func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskQueued, TaskProcessing, TaskCompleted, TaskFailed:
		return true
	}
	return false
}

// Task type names produced by capture actions.
const (
	TaskTypeSummarize = "summarize"
	TaskTypeAnalyze   = "analyze"
)

// TaskResult is the structured summary carried by a completed task.
type TaskResult struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints,omitempty"`
}

// Task is a background-worker-owned unit of AI analysis work. Created
// queued by a capture action; moves to processing when a worker picks it
// up; terminal completed (with a result) or failed (with an error string).
// Deletable at any state.
type Task struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	WorkspaceID string      `json:"workspaceId"`
	Content     string      `json:"content"`
	URL         string      `json:"url"`
	Title       string      `json:"title"`
	Status      TaskStatus  `json:"status"`
	CreatedAt   int64       `json:"createdAt"`
	UpdatedAt   int64       `json:"updatedAt"`
	Error       string      `json:"error,omitempty"`
	Result      *TaskResult `json:"result,omitempty"`
}
