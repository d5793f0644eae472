package mail

import (
	"time"

	"smallbiznis-backoffice/pkg/task"
	"smallbiznis-backoffice/pkg/taskname"

	"github.com/hibiken/asynq"
)

// InvitationPayload carries everything the invitation email needs. The raw
// token only travels inside AcceptURL.
type InvitationPayload struct {
	InvitationID string    `json:"invitation_id"`
	Email        string    `json:"email"`
	AccountName  string    `json:"account_name"`
	InviterEmail string    `json:"inviter_email"`
	Role         string    `json:"role"`
	AcceptURL    string    `json:"accept_url"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func NewInvitationTask(p InvitationPayload) (*asynq.Task, error) {
	return task.NewJSONTask(taskname.MailInvitation, p,
		asynq.Queue(taskname.QueueCritical),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
}
