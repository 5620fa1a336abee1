// Package notifications implements the ephemeral, self-expiring
// user-facing event queue.
package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saga-server/internal/models"
)

// DefaultTTL is how long a notification lives unless dismissed earlier.
const DefaultTTL = 5 * time.Second

// Queue holds the active notifications for one session. Every push gets a
// freshly generated identity; duplicate messages are allowed.
type Queue struct {
	mu     sync.Mutex
	ttl    time.Duration
	items  []models.Notification
	timers map[uuid.UUID]*time.Timer
	logger *zap.Logger
}

// NewQueue creates a queue. A non-positive ttl falls back to DefaultTTL.
func NewQueue(ttl time.Duration, logger *zap.Logger) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{
		ttl:    ttl,
		timers: make(map[uuid.UUID]*time.Timer),
		logger: logger.Named("Notifications"),
	}
}

// Push enqueues a notification and schedules its expiry.
func (q *Queue) Push(message string, category models.NotificationCategory) models.Notification {
	n := models.Notification{
		ID:        uuid.New(),
		Message:   message,
		Category:  category,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	q.items = append(q.items, n)
	q.timers[n.ID] = time.AfterFunc(q.ttl, func() { q.Dismiss(n.ID) })
	q.mu.Unlock()

	q.logger.Debug("Notification enqueued",
		zap.String("id", n.ID.String()),
		zap.String("category", string(category)))
	return n
}

// Dismiss removes a notification before its TTL elapses. Dismissing an
// already-expired notification is a no-op.
func (q *Queue) Dismiss(id uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}
	for i := range q.items {
		if q.items[i].ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// Active returns the notifications that have not yet expired, in enqueue
// order.
func (q *Queue) Active() []models.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.Notification(nil), q.items...)
}

// Close stops all pending expiry timers.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.items = nil
}
