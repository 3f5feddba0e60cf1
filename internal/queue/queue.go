package queue

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Notification is a deferred outbound message. Send receives the context of
// the worker delivering it, not of the request that produced it.
type Notification struct {
	Kind string
	Send func(ctx context.Context) error
}

// NotificationQueue is a bounded in-memory queue drained by worker goroutines
type NotificationQueue struct {
	items    chan Notification
	maxSize  int
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func(Notification) error
	wg       sync.WaitGroup
}

func NewNotificationQueue(bufferSize int, logger *logrus.Logger) *NotificationQueue {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &NotificationQueue{
		items:   make(chan Notification, bufferSize),
		maxSize: bufferSize,
		logger:  logger,
	}
}

// Push adds a notification without blocking
func (q *NotificationQueue) Push(n Notification) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- n:
		q.logger.WithField("kind", n.Kind).Debug("Queued notification")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler called for each notification. Handlers must be
// registered before Start.
func (q *NotificationQueue) Subscribe(handler func(Notification) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start launches workers goroutines draining the queue
func (q *NotificationQueue) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.process()
	}
}

func (q *NotificationQueue) process() {
	defer q.wg.Done()
	for n := range q.items {
		q.dispatch(n)
	}
}

func (q *NotificationQueue) dispatch(n Notification) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(n); err != nil {
			q.logger.WithError(err).WithField("kind", n.Kind).Error("Handler failed to process notification")
		}
	}
}

// Close stops accepting notifications and waits for queued ones to be handled
func (q *NotificationQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.items)
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}

// Len returns the number of notifications waiting
func (q *NotificationQueue) Len() int {
	return len(q.items)
}

func (q *NotificationQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
