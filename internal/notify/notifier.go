package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Taskify-udl/taskify-contracts/internal/model"
)

type InboxStore interface {
	CreateNotification(ctx context.Context, notification model.Notification) error
}

// InboxNotifier is the best-effort notifier: it logs the event and files it
// into the identity's inbox so a client can list what it missed. Actual push
// delivery lives outside this service.
type InboxNotifier struct {
	store InboxStore
	log   zerolog.Logger
}

func NewInboxNotifier(store InboxStore, log zerolog.Logger) *InboxNotifier {
	return &InboxNotifier{store: store, log: log}
}

func (n *InboxNotifier) Notify(ctx context.Context, identityID uuid.UUID, title, body string) error {
	n.log.Info().
		Str("identity", identityID.String()).
		Str("title", title).
		Msg("notification")

	return n.store.CreateNotification(ctx, model.Notification{
		ID:         uuid.New(),
		IdentityID: identityID,
		Title:      title,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	})
}
