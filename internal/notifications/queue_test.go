package notifications

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"saga-server/internal/models"
)

func TestPushAssignsFreshIdentity(t *testing.T) {
	q := NewQueue(time.Minute, zap.NewNop())
	defer q.Close()

	first := q.Push("Gained 50 experience", models.NotificationSuccess)
	second := q.Push("Gained 50 experience", models.NotificationSuccess)

	assert.NotEqual(t, first.ID, second.ID, "duplicate messages get distinct identities")

	active := q.Active()
	require.Len(t, active, 2)
	assert.Equal(t, first.ID, active[0].ID)
	assert.Equal(t, second.ID, active[1].ID)
}

func TestDismissRemovesBeforeExpiry(t *testing.T) {
	q := NewQueue(time.Minute, zap.NewNop())
	defer q.Close()

	n := q.Push("You feel inspired!", models.NotificationSpecial)
	q.Dismiss(n.ID)

	assert.Empty(t, q.Active())
}

func TestDismissUnknownIsNoOp(t *testing.T) {
	q := NewQueue(time.Minute, zap.NewNop())
	defer q.Close()

	q.Push("Found: Iron Sword", models.NotificationSpecial)
	q.Dismiss(uuid.New())

	assert.Len(t, q.Active(), 1)
}

func TestNotificationsExpire(t *testing.T) {
	q := NewQueue(20*time.Millisecond, zap.NewNop())
	defer q.Close()

	q.Push("Afflicted: poisoned", models.NotificationWarning)
	require.Len(t, q.Active(), 1)

	assert.Eventually(t, func() bool {
		return len(q.Active()) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestCloseDropsEverything(t *testing.T) {
	q := NewQueue(time.Minute, zap.NewNop())
	q.Push("one", models.NotificationInfo)
	q.Push("two", models.NotificationInfo)

	q.Close()

	assert.Empty(t, q.Active())
}

func TestNonPositiveTTLFallsBack(t *testing.T) {
	q := NewQueue(0, zap.NewNop())
	defer q.Close()

	assert.Equal(t, DefaultTTL, q.ttl)
}
