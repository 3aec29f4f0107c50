package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Taskify-udl/taskify-contracts/internal/model"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) ListStatuses(ctx context.Context, identityID uuid.UUID) (map[uuid.UUID]model.ContractStatus, error) {
	var rows []struct {
		ContractID uuid.UUID
		LastStatus string
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT contract_id, last_status
		FROM notification_state
		WHERE identity_id = ?
	`, identityID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	statuses := make(map[uuid.UUID]model.ContractStatus, len(rows))
	for _, row := range rows {
		statuses[row.ContractID] = model.ParseContractStatus(row.LastStatus)
	}
	return statuses, nil
}

func (r *NotificationRepository) SetStatus(ctx context.Context, identityID, contractID uuid.UUID, status model.ContractStatus) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO notification_state (identity_id, contract_id, last_status, updated_at)
		VALUES (?, ?, ?, NOW())
		ON CONFLICT (identity_id, contract_id)
		DO UPDATE SET last_status = EXCLUDED.last_status, updated_at = NOW()
	`, identityID, contractID, status).Error
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, notification model.Notification) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO notifications (id, identity_id, title, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		notification.ID,
		notification.IdentityID,
		notification.Title,
		notification.Body,
		notification.CreatedAt,
	).Error
}

func (r *NotificationRepository) ListNotifications(ctx context.Context, identityID uuid.UUID, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var notifications []model.Notification
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, identity_id, title, body, created_at
		FROM notifications
		WHERE identity_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, identityID, limit).Scan(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}
