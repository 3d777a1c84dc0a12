package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorlink/mentor-api/internal/model"
	"github.com/mentorlink/mentor-api/pkg/logger"
)

type fakeOutboxRepo struct {
	mu       sync.Mutex
	pending  []*model.OutboxEvent
	statuses map[uuid.UUID]model.OutboxStatus
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{statuses: make(map[uuid.UUID]model.OutboxStatus)}
}

func (f *fakeOutboxRepo) Create(_ context.Context, event *model.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event.ID = uuid.New()
	f.pending = append(f.pending, event)
	return nil
}

func (f *fakeOutboxRepo) GetPendingEvents(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeOutboxRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OutboxStatus, _ *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = status
	return nil
}

type fakeBroker struct {
	mu       sync.Mutex
	fail     bool
	channels []string
}

func (f *fakeBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return assert.AnError
	}
	f.channels = append(f.channels, channel)
	return nil
}

func (f *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) { return nil, nil }
func (f *fakeBroker) Close() error                                            { return nil }

func newTestProcessor(repo *fakeOutboxRepo, broker *fakeBroker) *OutboxProcessor {
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	}, logger.NewLogger(nil), testMetrics)
}

func TestOutboxProcessor(t *testing.T) {
	t.Run("publishes pending events and marks them processed", func(t *testing.T) {
		repo := newFakeOutboxRepo()
		broker := &fakeBroker{}

		payload, _ := json.Marshal(map[string]string{"appointment_id": uuid.New().String()})
		event := &model.OutboxEvent{EventType: model.EventAppointmentCreated, Payload: payload}
		require.NoError(t, repo.Create(context.Background(), event))

		p := newTestProcessor(repo, broker)
		require.NoError(t, p.processEvents(context.Background()))

		assert.Equal(t, []string{model.EventAppointmentCreated}, broker.channels)
		assert.Equal(t, model.OutboxStatusProcessed, repo.statuses[event.ID])
	})

	t.Run("marks events failed when publish keeps failing", func(t *testing.T) {
		repo := newFakeOutboxRepo()
		broker := &fakeBroker{fail: true}

		event := &model.OutboxEvent{EventType: model.EventMentorVerified, Payload: []byte(`{}`)}
		require.NoError(t, repo.Create(context.Background(), event))

		p := newTestProcessor(repo, broker)
		require.NoError(t, p.processEvents(context.Background()))

		assert.Equal(t, model.OutboxStatusFailed, repo.statuses[event.ID])
		assert.Empty(t, broker.channels)
	})
}
