package infrastructure

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Mailer sends invitation emails. SMTP settings come from SMTP_ADDR
// (host:port) and SMTP_FROM; when unset the mailer logs instead of sending,
// which is what local development wants.
type Mailer struct {
	addr   string
	from   string
	logger *zap.Logger
}

func NewMailer(logger *zap.Logger) *Mailer {
	return &Mailer{
		addr:   os.Getenv("SMTP_ADDR"),
		from:   os.Getenv("SMTP_FROM"),
		logger: logger,
	}
}

func (m *Mailer) SendInvite(job InviteEmailJob) error {
	subject := "You're invited to an assessment"
	name := job.CandidateName
	if name == "" {
		name = "there"
	}
	body := fmt.Sprintf(
		"Hi %s,\n\nYou have been invited to complete an assessment.\n\nStart here: %s\n\nThe link expires on %s.\n",
		name, job.AssessmentURL, job.ExpiresAt.Format("Jan 2, 2006 15:04 MST"),
	)

	if m.addr == "" {
		m.logger.Info("SMTP not configured, skipping invite email",
			zap.Uint("invitation_id", job.InvitationID),
			zap.String("to", job.CandidateEmail))
		return nil
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + job.CandidateEmail,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(m.addr, nil, m.from, []string{job.CandidateEmail}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send invite email: %w", err)
	}

	m.logger.Info("invite email sent",
		zap.Uint("invitation_id", job.InvitationID),
		zap.String("to", job.CandidateEmail))
	return nil
}
