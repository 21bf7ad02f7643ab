// Package taskgen creates outreach tasks for every company in a group by
// expanding a workflow's steps into dated tasks.
package taskgen

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Store is the persistence surface task generation needs.
type Store interface {
	GetWorkflow(ctx context.Context, id int64) (*model.Workflow, error)
	ListCompaniesInGroup(ctx context.Context, groupID int64) ([]model.Company, error)
	ListContacts(ctx context.Context, companyID int64) ([]model.Contact, error)
	CreateTask(ctx context.Context, task model.Task) (int64, error)
	RecordAudit(ctx context.Context, entry model.AuditEntry) error
}

// Generator handles task_generation jobs.
type Generator struct {
	store Store
	now   func() time.Time
}

// New creates a Generator.
func New(store Store) *Generator {
	return &Generator{store: store, now: time.Now}
}

// primaryRoles pick the contact a task is attached to, in preference order.
var primaryRoles = []string{"ceo", "owner", "founder", "president", "director", "manager"}

// HandleGeneration is the queue handler for task_generation jobs. For each
// company in the group it creates one task per workflow step, due at
// today + the step's offset, attached to the company's primary contact when
// one exists.
func (g *Generator) HandleGeneration(ctx context.Context, job *model.Job) error {
	payload, err := generationPayload(job)
	if err != nil {
		zap.L().Error("taskgen: bad payload, dropping job",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return nil
	}

	log := zap.L().With(
		zap.Int64("group_id", payload.GroupID),
		zap.Int64("workflow_id", payload.WorkflowID),
		zap.String("job_id", job.ID),
	)

	workflow, err := g.store.GetWorkflow(ctx, payload.WorkflowID)
	if err != nil {
		return eris.Wrapf(err, "taskgen: load workflow %d", payload.WorkflowID)
	}
	if len(workflow.Steps) == 0 {
		log.Warn("taskgen: workflow has no steps, nothing to do")
		return nil
	}

	companies, err := g.store.ListCompaniesInGroup(ctx, payload.GroupID)
	if err != nil {
		return eris.Wrapf(err, "taskgen: list companies in group %d", payload.GroupID)
	}

	today := g.now().Truncate(24 * time.Hour)
	created := 0
	for _, company := range companies {
		contactID := g.primaryContact(ctx, company.ID)
		for _, step := range workflow.Steps {
			task := model.Task{
				WorkflowID: workflow.ID,
				CompanyID:  company.ID,
				ContactID:  contactID,
				Type:       step.Type,
				DueDate:    today.AddDate(0, 0, step.OffsetDays),
			}
			if _, err := g.store.CreateTask(ctx, task); err != nil {
				return eris.Wrapf(err, "taskgen: create task for company %d", company.ID)
			}
			created++
		}
	}

	g.audit(ctx, payload, len(companies), created)
	log.Info("taskgen: generation complete",
		zap.Int("companies", len(companies)),
		zap.Int("tasks", created),
	)
	return nil
}

// primaryContact returns the first contact whose role matches a primary role
// keyword, falling back to the first contact on record.
func (g *Generator) primaryContact(ctx context.Context, companyID int64) *int64 {
	contacts, err := g.store.ListContacts(ctx, companyID)
	if err != nil || len(contacts) == 0 {
		return nil
	}

	for _, kw := range primaryRoles {
		for _, c := range contacts {
			if strings.Contains(strings.ToLower(c.Role), kw) {
				return &c.ID
			}
		}
	}
	return &contacts[0].ID
}

func (g *Generator) audit(ctx context.Context, payload model.TaskGenerationPayload, companies, tasks int) {
	entry := model.AuditEntry{
		ActorID:    payload.UserID,
		Action:     "group.tasks_generated",
		EntityType: "group",
		EntityID:   payload.GroupID,
		Details: map[string]any{
			"workflow_id": payload.WorkflowID,
			"companies":   companies,
			"tasks":       tasks,
		},
		CreatedAt: time.Now(),
	}
	if err := g.store.RecordAudit(ctx, entry); err != nil {
		zap.L().Warn("taskgen: audit write failed", zap.Error(err))
	}
}

func generationPayload(job *model.Job) (model.TaskGenerationPayload, error) {
	switch p := job.Payload.(type) {
	case model.TaskGenerationPayload:
		return p, nil
	case *model.TaskGenerationPayload:
		if p != nil {
			return *p, nil
		}
	}
	return model.TaskGenerationPayload{}, eris.Errorf("taskgen: unexpected payload type %T", job.Payload)
}
