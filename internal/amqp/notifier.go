package amqp

import (
	"context"

	"fluxo/internal/log"
	"fluxo/internal/services"
)

// Publisher is the publishing half of Client.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, msg *LedgerChangedMessage) error
}

// Notifier forwards ledger changes to the broker. Publish failures are logged
// and never fail the write that caused them.
type Notifier struct {
	publisher Publisher
	logger    *log.Logger
}

func NewNotifier(publisher Publisher, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.Default(log.ComponentAMQP)
	}
	return &Notifier{publisher: publisher, logger: logger.WithComponent(log.ComponentAMQP)}
}

func (n *Notifier) LedgerChanged(ctx context.Context, change services.LedgerChange) {
	if n.publisher == nil {
		return
	}
	msg := NewLedgerChangedMessage(change.OwnerID, change.Periods, change.Entries, change.Source)
	if err := n.publisher.PublishLedgerChanged(ctx, msg); err != nil {
		n.logger.ErrorContext(ctx, "Failed to publish ledger changed message",
			log.FieldOwnerID, change.OwnerID,
			log.FieldMessageID, msg.ID,
			log.FieldError, err.Error())
	}
}
