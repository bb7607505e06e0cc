package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/krishikarobar/marketplace-backend/pkg/db/models"
	"github.com/krishikarobar/marketplace-backend/pkg/enums"
)

// Message is one notification to deliver.
type Message struct {
	RecipientID uuid.UUID
	Type        enums.NotificationType
	Text        string
	Link        string
}

// Notifier writes notifications as part of the caller's transaction, so a
// rolled back write never leaves a notification behind.
type Notifier struct {
	repo Repository
}

func NewNotifier(repo Repository) (*Notifier, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &Notifier{repo: repo}, nil
}

// Notify persists msgs inside tx. A nil tx writes outside any transaction.
func (n *Notifier) Notify(ctx context.Context, tx *gorm.DB, msgs ...Message) error {
	repo := n.repo.WithTx(tx)
	for _, msg := range msgs {
		if msg.RecipientID == uuid.Nil {
			return fmt.Errorf("notification recipient required")
		}
		if !msg.Type.IsValid() {
			return fmt.Errorf("invalid notification type %q", msg.Type)
		}
		row := &models.Notification{
			RecipientID: msg.RecipientID,
			Type:        msg.Type,
			Text:        msg.Text,
		}
		if link := strings.TrimSpace(msg.Link); link != "" {
			row.Link = &link
		}
		if err := repo.Create(ctx, row); err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
	}
	return nil
}
