package model

import "time"

// JobKind identifies the handler a queued job is dispatched to.
type JobKind string

const (
	JobCompanyEnrichment JobKind = "company_enrichment"
	JobEmployeeDiscovery JobKind = "employee_discovery"
	JobTaskGeneration    JobKind = "task_generation"
	JobEmail             JobKind = "email"
)

// BackoffType selects how the retry delay grows between attempts.
type BackoffType string

const (
	BackoffFixed       BackoffType = "fixed"
	BackoffExponential BackoffType = "exponential"
)

// Backoff describes the retry delay policy for a job.
type Backoff struct {
	Type  BackoffType   `json:"type"`
	Delay time.Duration `json:"delay"`
}

// Job is a unit of background work. Owned by the queue until dequeued;
// AttemptsRemaining and EnqueuedAt are mutated only by the queue. Attempts
// holds the original budget so the queue can derive the retry index.
type Job struct {
	ID                string    `json:"id"`
	Kind              JobKind   `json:"kind"`
	Payload           any       `json:"payload"`
	Attempts          int       `json:"attempts"`
	AttemptsRemaining int       `json:"attempts_remaining"`
	Backoff           Backoff   `json:"backoff"`
	EnqueuedAt        time.Time `json:"enqueued_at"`
}

// EnrichmentPayload is the payload for kind company_enrichment. URL, when
// set, is treated as an already-discovered website and short-circuits the
// discovery waterfall.
type EnrichmentPayload struct {
	CompanyID   int64  `json:"company_id"`
	CompanyName string `json:"company_name"`
	URL         string `json:"url,omitempty"`
	UserID      int64  `json:"user_id"`
}

// EmployeeDiscoveryPayload is the payload for kind employee_discovery.
type EmployeeDiscoveryPayload struct {
	CompanyID   int64  `json:"company_id"`
	CompanyName string `json:"company_name"`
	WebsiteURL  string `json:"website_url,omitempty"`
	Location    string `json:"location,omitempty"`
	UserID      int64  `json:"user_id"`
}

// TaskGenerationPayload is the payload for kind task_generation.
type TaskGenerationPayload struct {
	GroupID    int64 `json:"group_id"`
	WorkflowID int64 `json:"workflow_id"`
	UserID     int64 `json:"user_id"`
}

// EmailPayload is the payload for kind email.
type EmailPayload struct {
	TaskID    int64             `json:"task_id"`
	To        string            `json:"to"`
	Subject   string            `json:"subject"`
	Template  string            `json:"template"`
	Variables map[string]string `json:"variables,omitempty"`
	UserID    int64             `json:"user_id"`
}
