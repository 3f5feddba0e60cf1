package processor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robnorris1/property-management-system-sub000/internal/metrics"
	"github.com/robnorris1/property-management-system-sub000/internal/queue"
)

type Config struct {
	MaxRetries int
	RetryDelay time.Duration
	// Deadline of a single delivery attempt
	Timeout time.Duration
}

// Dispatcher delivers queued notifications, retrying failed attempts
type Dispatcher struct {
	logger *logrus.Logger
	config Config
	queue  *queue.NotificationQueue
	ctx    context.Context
	cancel context.CancelFunc
}

func NewDispatcher(q *queue.NotificationQueue, config Config, logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		logger: logger,
		config: config,
		queue:  q,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes the dispatcher to its queue
func (d *Dispatcher) Start() {
	d.queue.Subscribe(d.deliver)
}

// Stop abandons in-flight retries
func (d *Dispatcher) Stop() {
	d.cancel()
}

func (d *Dispatcher) attempt(n queue.Notification) error {
	ctx, cancel := context.WithTimeout(d.ctx, d.config.Timeout)
	defer cancel()
	return n.Send(ctx)
}

// deliver sends one notification with up to MaxRetries retries
func (d *Dispatcher) deliver(n queue.Notification) error {
	var err error
	for attempt := 0; attempt <= d.config.MaxRetries; attempt++ {
		if attempt > 0 {
			d.logger.WithField("kind", n.Kind).Infof("Retrying notification, attempt %d of %d", attempt, d.config.MaxRetries)
			select {
			case <-d.ctx.Done():
				metrics.ObserveNotification(n.Kind, false)
				return d.ctx.Err()
			case <-time.After(d.config.RetryDelay):
			}
		}

		if err = d.attempt(n); err == nil {
			metrics.ObserveNotification(n.Kind, true)
			d.logger.WithField("kind", n.Kind).Debug("Notification delivered")
			return nil
		}
		d.logger.WithError(err).WithField("kind", n.Kind).Warn("Notification delivery failed")
	}

	metrics.ObserveNotification(n.Kind, false)
	return fmt.Errorf("failed to deliver %s notification after %d attempts: %w", n.Kind, d.config.MaxRetries+1, err)
}
