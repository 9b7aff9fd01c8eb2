package services

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ChangeNotifier is told about every committed transaction mutation.
// action is one of the models.EventTransaction* types.
type ChangeNotifier interface {
	NotifyChange(ctx context.Context, ownerID, action string, payload any) error
}

// Notifiers fans a change out to every notifier in the list. Delivery is best
// effort: failures are logged and never returned.
type Notifiers []ChangeNotifier

func (ns Notifiers) NotifyChange(ctx context.Context, ownerID, action string, payload any) error {
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.NotifyChange(ctx, ownerID, action, payload); err != nil {
			log.Warn().Err(err).Str("user_id", ownerID).Str("action", action).Msg("Failed to deliver change notification")
		}
	}
	return nil
}
