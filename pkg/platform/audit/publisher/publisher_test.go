package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vetting/pkg/domain"
	audit "vetting/pkg/platform/audit"
	"vetting/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	userID := id.UserID(uuid.New())
	err := pub.Emit(context.Background(), audit.Event{
		UserID: userID,
		Action: string(audit.EventVerificationSubmitted),
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventVerificationSubmitted), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category, "category derived from action")
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	userID := id.UserID(uuid.New())
	err := pub.Emit(context.Background(), audit.Event{
		UserID: userID,
		Action: string(audit.EventSectionSaved),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		events, _ := pub.List(context.Background(), userID)
		return len(events) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	userID := id.UserID(uuid.New())
	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			UserID: userID,
			Action: string(audit.EventSectionSaved),
		}))
	}

	pub.Close()

	events, err := store.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_EmitAfterCloseFails(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	pub.Close()
	pub.Close()

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventSectionSaved)})
	assert.ErrorIs(t, err, errClosed)
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	userID := id.UserID(uuid.New())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{
				UserID: userID,
				Action: string(audit.EventSectionSaved),
			})
			if err != nil {
				assert.True(t, errors.Is(err, errBufferFull))
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	userID := id.UserID(uuid.New())
	before := time.Now()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		UserID: userID,
		Action: string(audit.EventVerificationApproved),
	}))
	after := time.Now()

	events, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.Before(before))
	assert.False(t, events[0].Timestamp.After(after))
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	userID := id.UserID(uuid.New())
	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		UserID:    userID,
		Action:    string(audit.EventVerificationRejected),
		Timestamp: customTime,
	}))

	events, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_DifferentUsers(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	userID1 := id.UserID(uuid.New())
	userID2 := id.UserID(uuid.New())

	require.NoError(t, pub.Emit(context.Background(), audit.Event{UserID: userID1, Action: string(audit.EventVerificationSubmitted)}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{UserID: userID2, Action: string(audit.EventDocumentImageRemoved)}))

	events1, err := pub.List(context.Background(), userID1)
	require.NoError(t, err)
	require.Len(t, events1, 1)
	assert.Equal(t, string(audit.EventVerificationSubmitted), events1[0].Action)

	events2, err := pub.List(context.Background(), userID2)
	require.NoError(t, err)
	require.Len(t, events2, 1)
	assert.Equal(t, string(audit.EventDocumentImageRemoved), events2[0].Action)
}
