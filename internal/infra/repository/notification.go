package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/totegamma/timepulse/internal/domain"
	"github.com/totegamma/timepulse/internal/infra/database/models"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func notificationFromModel(m models.Notification) (domain.Notification, error) {
	var payload map[string]any
	if len(m.Payload) > 0 {
		if err := json.Unmarshal(m.Payload, &payload); err != nil {
			return domain.Notification{}, errors.Wrapf(err, "notification %s payload", m.ID)
		}
	}
	return domain.Notification{
		ID:        m.ID,
		TenantID:  m.TenantID,
		UserID:    m.UserID,
		Kind:      m.Kind,
		Title:     m.Title,
		Body:      m.Body,
		Link:      m.Link,
		Payload:   payload,
		ReadAt:    m.ReadAt,
		CreatedAt: m.CDate,
	}, nil
}

func (r *NotificationRepository) Create(ctx context.Context, notification domain.Notification) (domain.Notification, error) {
	var payload datatypes.JSON
	if len(notification.Payload) > 0 {
		raw, err := json.Marshal(notification.Payload)
		if err != nil {
			return domain.Notification{}, err
		}
		payload = datatypes.JSON(raw)
	}

	m := models.Notification{
		ID:       notification.ID,
		TenantID: notification.TenantID,
		UserID:   notification.UserID,
		Kind:     notification.Kind,
		Title:    notification.Title,
		Body:     notification.Body,
		Link:     notification.Link,
		Payload:  payload,
		ReadAt:   notification.ReadAt,
		CDate:    notification.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Notification{}, translate(err, "notification")
	}
	return notificationFromModel(m)
}

func (r *NotificationRepository) List(ctx context.Context, tenantID, userID string, filter domain.NotificationFilter) ([]domain.Notification, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Notification{}).Where("tenant_id = ? AND user_id = ?", tenantID, userID)
	if filter.UnreadOnly {
		q = q.Where("read_at IS NULL")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Notification
	if err := paginate(q, filter.Page).Order("c_date DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Notification, 0, len(rows))
	for _, m := range rows {
		n, err := notificationFromModel(m)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, tenantID, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("tenant_id = ? AND user_id = ? AND read_at IS NULL", tenantID, userID).
		Count(&n).Error
	return n, err
}

// MarkRead keeps the first read time when called again.
func (r *NotificationRepository) MarkRead(ctx context.Context, tenantID, userID, id string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("tenant_id = ? AND user_id = ? AND id = ?", tenantID, userID, id).
		Update("read_at", gorm.Expr("COALESCE(read_at, ?)", at))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "notification"}
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, tenantID, userID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("tenant_id = ? AND user_id = ? AND read_at IS NULL", tenantID, userID).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}
