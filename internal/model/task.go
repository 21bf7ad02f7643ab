package model

import "time"

// WorkflowStep is one step of an outreach workflow: a task type scheduled
// some number of days after generation.
type WorkflowStep struct {
	Type       string `json:"type"`
	OffsetDays int    `json:"offset_days"`
}

// Workflow is a named sequence of outreach steps.
type Workflow struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Steps     []WorkflowStep `json:"steps"`
	CreatedAt time.Time      `json:"created_at"`
}

// Task is a scheduled outreach action for a company, generated from a
// workflow step.
type Task struct {
	ID         int64     `json:"id"`
	WorkflowID int64     `json:"workflow_id"`
	CompanyID  int64     `json:"company_id"`
	ContactID  *int64    `json:"contact_id,omitempty"`
	Type       string    `json:"type"`
	DueDate    time.Time `json:"due_date"`
	AssignedTo *int64    `json:"assigned_to,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditEntry is a structured record of an action taken by the system on
// behalf of a user.
type AuditEntry struct {
	ID         string         `json:"id"`
	ActorID    int64          `json:"actor_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   int64          `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
