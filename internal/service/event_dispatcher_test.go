package service_test

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualisoftsn/workflow-api/internal/model"
	"github.com/qualisoftsn/workflow-api/internal/repository"
	"github.com/qualisoftsn/workflow-api/internal/service"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{messages: make(map[string][][]byte)}
}

func (n *recordingNotifier) SendToUser(userID string, message []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages[userID] = append(n.messages[userID], message)
}

func (n *recordingNotifier) count(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages[userID])
}

func TestEventDispatcherDeliversPendingEvents(t *testing.T) {
	db := openTestDB(t)
	eventRepo := repository.NewEventRepository(db)
	notifier := newRecordingNotifier()

	now := time.Now()
	require.NoError(t, eventRepo.Save(&model.EventModel{
		ID:          "evt-1",
		TenantID:    "t1",
		WorkflowID:  "wf-1",
		Type:        "step_assigned",
		RecipientID: "u1",
		Data:        []byte(`{"workflow_id":"wf-1","step_order":1}`),
		Status:      "pending",
		CreatedAt:   now,
		UpdatedAt:   now,
	}))

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	dispatcher := service.NewEventDispatcher(eventRepo, notifier, logger, 2, 3, 20*time.Millisecond)
	dispatcher.Start()
	defer dispatcher.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && notifier.count("u1") == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, 1, notifier.count("u1"), "event should reach its recipient")

	// the event leaves the pending set once delivered
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		pending, err := eventRepo.FindPending(10)
		require.NoError(t, err)
		if len(pending) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("event was not marked delivered")
}

func TestEventRepositoryRetryExhaustion(t *testing.T) {
	db := openTestDB(t)
	eventRepo := repository.NewEventRepository(db)

	now := time.Now()
	require.NoError(t, eventRepo.Save(&model.EventModel{
		ID:         "evt-1",
		TenantID:   "t1",
		WorkflowID: "wf-1",
		Type:       "step_assigned",
		Data:       []byte(`{}`),
		Status:     "pending",
		CreatedAt:  now,
		UpdatedAt:  now,
	}))

	// first two failures keep the event pending
	require.NoError(t, eventRepo.MarkFailed("evt-1", 3))
	require.NoError(t, eventRepo.MarkFailed("evt-1", 3))
	pending, err := eventRepo.FindPending(10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].RetryCount)

	// the third failure parks it
	require.NoError(t, eventRepo.MarkFailed("evt-1", 3))
	pending, err = eventRepo.FindPending(10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	var event model.EventModel
	require.NoError(t, db.Where("id = ?", "evt-1").First(&event).Error)
	assert.Equal(t, "failed", event.Status)
}
