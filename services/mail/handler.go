package mail

import (
	"context"
	"encoding/json"
	"fmt"

	"smallbiznis-backoffice/pkg/logger"
	"smallbiznis-backoffice/pkg/mailer"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type Handler struct {
	renderer *mailer.Renderer
	sender   mailer.Sender
}

func NewHandler(renderer *mailer.Renderer, sender mailer.Sender) *Handler {
	return &Handler{renderer: renderer, sender: sender}
}

// HandleInvitation renders and sends one invitation. Malformed payloads are
// not retried.
func (h *Handler) HandleInvitation(ctx context.Context, t *asynq.Task) error {
	var p InvitationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode invitation payload: %v: %w", err, asynq.SkipRetry)
	}

	zapLog := logger.FromContext(ctx).With(zap.String("invitation_id", p.InvitationID))

	subject, body, err := h.renderer.Render("invitation", map[string]any{
		"AccountName":  p.AccountName,
		"InviterEmail": p.InviterEmail,
		"Role":         p.Role,
		"AcceptURL":    p.AcceptURL,
		"ExpiresAt":    p.ExpiresAt.UTC().Format("January 2, 2006"),
	})
	if err != nil {
		zapLog.Error("failed to render invitation email", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := h.sender.Send(ctx, mailer.Message{To: p.Email, Subject: subject, HTML: body}); err != nil {
		zapLog.Warn("failed to send invitation email", zap.Error(err))
		return err
	}

	zapLog.Info("invitation email sent")
	return nil
}
