package queue

import (
	"context"

	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

// Notifier is the synchronous sender wrapped by AsyncNotifier.
type Notifier interface {
	NotifyCriticalIssue(ctx context.Context, issue *models.Issue, appliance *models.Appliance, property *models.Property) error
	NotifyAutoResolved(ctx context.Context, record *models.MaintenanceRecord, appliance *models.Appliance, resolved int) error
	NotifyMaintenanceDue(ctx context.Context, due []models.DueMaintenance) error
}

// AsyncNotifier queues notifications instead of sending them inline. The
// arguments are copied so later changes by the caller are not observed.
type AsyncNotifier struct {
	queue *NotificationQueue
	inner Notifier
}

func NewAsyncNotifier(queue *NotificationQueue, inner Notifier) *AsyncNotifier {
	return &AsyncNotifier{queue: queue, inner: inner}
}

func (a *AsyncNotifier) NotifyCriticalIssue(_ context.Context, issue *models.Issue, appliance *models.Appliance, property *models.Property) error {
	i, ap, p := *issue, *appliance, *property
	return a.queue.Push(Notification{
		Kind: "critical_issue",
		Send: func(ctx context.Context) error {
			return a.inner.NotifyCriticalIssue(ctx, &i, &ap, &p)
		},
	})
}

func (a *AsyncNotifier) NotifyAutoResolved(_ context.Context, record *models.MaintenanceRecord, appliance *models.Appliance, resolved int) error {
	r, ap := *record, *appliance
	return a.queue.Push(Notification{
		Kind: "auto_resolved",
		Send: func(ctx context.Context) error {
			return a.inner.NotifyAutoResolved(ctx, &r, &ap, resolved)
		},
	})
}

func (a *AsyncNotifier) NotifyMaintenanceDue(_ context.Context, due []models.DueMaintenance) error {
	items := append([]models.DueMaintenance(nil), due...)
	return a.queue.Push(Notification{
		Kind: "maintenance_due",
		Send: func(ctx context.Context) error {
			return a.inner.NotifyMaintenanceDue(ctx, items)
		},
	})
}
