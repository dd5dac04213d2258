package usecase

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/totegamma/timepulse"
	"github.com/totegamma/timepulse/internal/domain"
)

// webhookLimit bounds the webhook posts in flight.
const webhookLimit = 16

// NotificationChannel is the redis channel a tenant's events go to.
func NotificationChannel(tenantID string) string {
	return "timepulse:tenant:" + tenantID + ":notifications"
}

type NotificationUsecase struct {
	repo      NotificationRepository
	tenants   TenantRepository
	publisher EventPublisher
	webhook   WebhookSender
	logger    *zap.Logger
	now       Clock

	deliveries errgroup.Group
}

func NewNotificationUsecase(
	repo NotificationRepository,
	tenants TenantRepository,
	publisher EventPublisher,
	webhook WebhookSender,
	logger *zap.Logger,
	now Clock,
) *NotificationUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	uc := &NotificationUsecase{
		repo:      repo,
		tenants:   tenants,
		publisher: publisher,
		webhook:   webhook,
		logger:    logger,
		now:       now,
	}
	uc.deliveries.SetLimit(webhookLimit)
	return uc
}

// Notify stores the notification and fans it out to redis subscribers and
// the tenant webhook. Only the store can fail the call. The webhook post
// runs in the background; see Wait.
func (uc *NotificationUsecase) Notify(ctx context.Context, n domain.Notification) error {
	ctx, span := tracer.Start(ctx, "Notification.Usecase.Notify")
	defer span.End()

	if n.ID == "" {
		n.ID = newID()
	}
	n.CreatedAt = uc.now()
	n.ReadAt = nil

	created, err := uc.repo.Create(ctx, n)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "Notification.Usecase.Notify")
	}

	event := timepulse.Event{
		Kind:           created.Kind,
		TenantID:       created.TenantID,
		UserID:         created.UserID,
		NotificationID: created.ID,
		Title:          created.Title,
		Body:           created.Body,
		Link:           created.Link,
		Payload:        created.Payload,
		CreatedAt:      created.CreatedAt,
	}

	if uc.publisher != nil {
		if err := uc.publisher.Publish(ctx, NotificationChannel(created.TenantID), event); err != nil {
			span.RecordError(err)
			uc.logger.Warn("failed to publish notification", zap.String("id", created.ID), zap.Error(err))
		}
	}

	if uc.webhook != nil {
		uc.deliverWebhook(ctx, event)
	}

	return nil
}

func (uc *NotificationUsecase) deliverWebhook(ctx context.Context, event timepulse.Event) {
	tenant, err := uc.tenants.Get(ctx, event.TenantID)
	if err != nil {
		uc.logger.Warn("failed to load tenant for webhook", zap.String("tenant", event.TenantID), zap.Error(err))
		return
	}
	if tenant.WebhookURL == "" {
		return
	}

	// the post outlives the request but keeps its trace
	ctx = context.WithoutCancel(ctx)
	started := uc.deliveries.TryGo(func() error {
		if err := uc.webhook.Post(ctx, tenant.WebhookURL, event); err != nil {
			uc.logger.Warn("webhook delivery failed", zap.String("tenant", tenant.ID), zap.Error(err))
		}
		return nil
	})
	if !started {
		uc.logger.Warn("webhook queue full, event dropped",
			zap.String("tenant", tenant.ID),
			zap.String("notification", event.NotificationID),
		)
	}
}

// Wait blocks until the webhook posts in flight are done.
func (uc *NotificationUsecase) Wait() {
	_ = uc.deliveries.Wait()
}

func (uc *NotificationUsecase) List(ctx context.Context, tenantID, userID string, filter domain.NotificationFilter) ([]domain.Notification, int64, error) {
	ctx, span := tracer.Start(ctx, "Notification.Usecase.List")
	defer span.End()

	filter.Page = filter.Page.Normalize()
	return uc.repo.List(ctx, tenantID, userID, filter)
}

func (uc *NotificationUsecase) UnreadCount(ctx context.Context, tenantID, userID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "Notification.Usecase.UnreadCount")
	defer span.End()

	return uc.repo.UnreadCount(ctx, tenantID, userID)
}

// MarkRead marks one of the user's notifications read. Someone else's
// notification reads as not found.
func (uc *NotificationUsecase) MarkRead(ctx context.Context, tenantID, userID, id string) error {
	ctx, span := tracer.Start(ctx, "Notification.Usecase.MarkRead")
	defer span.End()

	if userID == "" {
		return domain.ForbiddenError{Action: "read notifications"}
	}
	return uc.repo.MarkRead(ctx, tenantID, userID, id, uc.now())
}

func (uc *NotificationUsecase) MarkAllRead(ctx context.Context, tenantID, userID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "Notification.Usecase.MarkAllRead")
	defer span.End()

	if userID == "" {
		return 0, domain.ForbiddenError{Action: "read notifications"}
	}
	return uc.repo.MarkAllRead(ctx, tenantID, userID, uc.now())
}
