package billing

import (
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/auditlog"
)

// Repository persists the webhook audit trail.
type Repository interface {
	AppendWebhookEvent(event WebhookEventRecord) error
}

type fileRepository struct {
	log *auditlog.CappedLog
}

// NewRepository creates a billing repository backed by a capped JSON log.
func NewRepository(l *auditlog.CappedLog) Repository {
	return &fileRepository{log: l}
}

func (r *fileRepository) AppendWebhookEvent(event WebhookEventRecord) error {
	return r.log.Append(event)
}
