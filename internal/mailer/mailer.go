// Package mailer sends templated outreach email for queued email jobs.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/model"
)

// AuditStore records audit entries for sent mail.
type AuditStore interface {
	RecordAudit(ctx context.Context, entry model.AuditEntry) error
}

// sendFunc matches smtp.SendMail, injectable for testing.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer handles email jobs over SMTP.
type Mailer struct {
	cfg   config.MailConfig
	store AuditStore
	send  sendFunc
}

// New creates a Mailer.
func New(cfg config.MailConfig, store AuditStore) *Mailer {
	return &Mailer{cfg: cfg, store: store, send: smtp.SendMail}
}

// HandleEmail is the queue handler for email jobs. Render failures drop the
// job; transport failures return an error so the queue retries.
func (m *Mailer) HandleEmail(ctx context.Context, job *model.Job) error {
	payload, err := emailPayload(job)
	if err != nil {
		zap.L().Error("mailer: bad payload, dropping job",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return nil
	}
	if payload.To == "" {
		zap.L().Error("mailer: no recipient, dropping job", zap.String("job_id", job.ID))
		return nil
	}

	subject := Render(payload.Subject, payload.Variables)
	body := Render(payload.Template, payload.Variables)

	msg := buildMessage(m.cfg.From, payload.To, subject, body)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.From, []string{payload.To}, msg); err != nil {
		return eris.Wrapf(err, "mailer: send to %s", payload.To)
	}

	m.audit(ctx, payload, subject)
	zap.L().Info("mailer: sent",
		zap.String("to", payload.To),
		zap.Int64("task_id", payload.TaskID),
	)
	return nil
}

// Render substitutes {key} placeholders in template with their values.
// Unknown placeholders are left in place.
func Render(template string, variables map[string]string) string {
	out := template
	for key, value := range variables {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

// buildMessage assembles a minimal RFC 5322 message.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func (m *Mailer) audit(ctx context.Context, payload model.EmailPayload, subject string) {
	entry := model.AuditEntry{
		ActorID:    payload.UserID,
		Action:     "send_email",
		EntityType: "task",
		EntityID:   payload.TaskID,
		Details: map[string]any{
			"to":      payload.To,
			"subject": subject,
		},
		CreatedAt: time.Now(),
	}
	if err := m.store.RecordAudit(ctx, entry); err != nil {
		zap.L().Warn("mailer: audit write failed", zap.Error(err))
	}
}

func emailPayload(job *model.Job) (model.EmailPayload, error) {
	switch p := job.Payload.(type) {
	case model.EmailPayload:
		return p, nil
	case *model.EmailPayload:
		if p != nil {
			return *p, nil
		}
	}
	return model.EmailPayload{}, eris.Errorf("mailer: unexpected payload type %T", job.Payload)
}
