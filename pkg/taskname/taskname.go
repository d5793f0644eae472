package taskname

const (
	// Mail tasks
	MailInvitation = "mail:invitation"
)

// Queues in priority order.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)
