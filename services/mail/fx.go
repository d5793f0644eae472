package mail

import (
	"smallbiznis-backoffice/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Worker = fx.Module("mail.worker",
	fx.Provide(NewHandler),
	fx.Invoke(registerHandlers),
)

func registerHandlers(mux *asynq.ServeMux, h *Handler) {
	mux.HandleFunc(taskname.MailInvitation, h.HandleInvitation)
}
