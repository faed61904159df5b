package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shenikar/silent_signal_system/internal/backend"
	backend_mocks "github.com/shenikar/silent_signal_system/internal/backend/mocks"
	"github.com/shenikar/silent_signal_system/internal/config"
	"github.com/shenikar/silent_signal_system/internal/models"
	"github.com/shenikar/silent_signal_system/internal/webhook"
	webhook_mocks "github.com/shenikar/silent_signal_system/internal/webhook/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var streamNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// newTestStream — вспомогательная функция для создания Stream с моками
// и фиксированным источником времени.
func newTestStream(t *testing.T) (*Stream, *backend_mocks.MockAlertStore, *webhook_mocks.MockPublisher) {
	ctrl := gomock.NewController(t)
	storeMock := backend_mocks.NewMockAlertStore(ctrl)
	publisherMock := webhook_mocks.NewMockPublisher(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		EscalationThreshold: 120 * time.Second,
		HistoryLimit:        15,
		WriteTimeout:        time.Second,
	}

	stream := NewStream(storeMock, logger, cfg, publisherMock)
	stream.now = func() time.Time { return streamNow }
	return stream, storeMock, publisherMock
}

// recordingListener собирает все состояния, разосланные слушателям
type recordingListener struct {
	states []State
}

func (l *recordingListener) StateUpdated(state State) {
	l.states = append(l.states, state)
}

func TestApplyActiveSnapshot_EscalatesOverdueAlert(t *testing.T) {
	// Подготовка
	stream, storeMock, publisherMock := newTestStream(t)
	overdue := &models.Alert{
		ID:        "a1",
		Type:      "Medical",
		Location:  "Main Hall",
		Status:    models.StatusPending,
		CreatedAt: streamNow.Add(-3 * time.Minute),
	}
	snap := backend.Snapshot{
		Alerts:  []*models.Alert{overdue},
		Changes: []backend.Change{{Kind: backend.ChangeModified, Alert: overdue}},
	}

	// Ожидания: запись эскалации в хранилище и событие вебхука
	storeMock.EXPECT().
		Patch(gomock.Any(), "a1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, patch backend.Patch) error {
			assert.Equal(t, true, patch["escalated"])
			assert.Equal(t, models.StatusCritical, patch["status"])
			return nil
		}).Times(1)
	publisherMock.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event webhook.AlertEvent) error {
			assert.Equal(t, webhook.EventAlertEscalated, event.Event)
			assert.Equal(t, "a1", event.AlertID)
			assert.True(t, event.Escalated)
			return nil
		}).Times(1)

	// Действие
	stream.applyActiveSnapshot(context.Background(), snap)

	// Проверки
	state := stream.State()
	assert.True(t, state.AlarmActive)
	assert.False(t, state.NewArrival)
	assert.Equal(t, 1, state.Stats.Total)
	assert.Equal(t, "Main Hall", state.Stats.TopZone)
}

func TestApplyActiveSnapshot_FreshAlertNotEscalated(t *testing.T) {
	stream, storeMock, publisherMock := newTestStream(t)
	fresh := &models.Alert{
		ID:        "a1",
		Type:      "Fire",
		Location:  "Library",
		Status:    models.StatusPending,
		CreatedAt: streamNow.Add(-30 * time.Second),
	}
	snap := backend.Snapshot{
		Alerts:  []*models.Alert{fresh},
		Changes: []backend.Change{{Kind: backend.ChangeModified, Alert: fresh}},
	}

	// Хранилище и вебхук не должны вызываться
	storeMock.EXPECT().Patch(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	publisherMock.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	stream.applyActiveSnapshot(context.Background(), snap)

	state := stream.State()
	assert.True(t, state.AlarmActive)
	assert.False(t, state.NewArrival)
}

func TestApplyActiveSnapshot_NewArrivalOnAnyAddition(t *testing.T) {
	// Сигнал о новой записи срабатывает, когда добавление стоит в пакете
	// не первым
	stream, _, publisherMock := newTestStream(t)
	existing := &models.Alert{
		ID:        "a1",
		Type:      "Medical",
		Location:  "Main Hall",
		Status:    models.StatusCritical,
		Escalated: true,
		CreatedAt: streamNow.Add(-time.Minute),
	}
	added := &models.Alert{
		ID:        "a2",
		Type:      "Fire",
		Location:  "Library",
		Status:    models.StatusPending,
		CreatedAt: streamNow.Add(-time.Second),
	}
	snap := backend.Snapshot{
		Alerts: []*models.Alert{added, existing},
		Changes: []backend.Change{
			{Kind: backend.ChangeModified, Alert: existing},
			{Kind: backend.ChangeAdded, Alert: added},
		},
	}

	publisherMock.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event webhook.AlertEvent) error {
			assert.Equal(t, webhook.EventAlertCreated, event.Event)
			assert.Equal(t, "a2", event.AlertID)
			return nil
		}).Times(1)

	stream.applyActiveSnapshot(context.Background(), snap)

	state := stream.State()
	assert.True(t, state.NewArrival)
	assert.Equal(t, 2, state.Stats.Total)
}

func TestApplyActiveSnapshot_EscalationWriteFailure(t *testing.T) {
	// Ошибка записи эскалации не роняет пересчет состояния и не публикует
	// событие; следующий снапшот повторит проверку
	stream, storeMock, publisherMock := newTestStream(t)
	overdue := &models.Alert{
		ID:        "a1",
		Type:      "Medical",
		Location:  "Main Hall",
		Status:    models.StatusPending,
		CreatedAt: streamNow.Add(-5 * time.Minute),
	}
	snap := backend.Snapshot{Alerts: []*models.Alert{overdue}}

	storeMock.EXPECT().
		Patch(gomock.Any(), "a1", gomock.Any()).
		Return(fmt.Errorf("запись не удалась")).Times(1)
	publisherMock.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	stream.applyActiveSnapshot(context.Background(), snap)

	state := stream.State()
	assert.True(t, state.AlarmActive)
	assert.Equal(t, 1, state.Stats.Total)
}

func TestApplyHistorySnapshot_MergesIntoStats(t *testing.T) {
	stream, _, publisherMock := newTestStream(t)
	active := &models.Alert{
		ID:        "a1",
		Type:      "Medical",
		Location:  "Main Hall",
		Status:    models.StatusPending,
		CreatedAt: streamNow.Add(-time.Minute),
	}
	resolvedAt := streamNow.Add(-time.Hour)
	resolved := &models.Alert{
		ID:         "h1",
		Type:       "Fire",
		Location:   "Main Hall",
		Status:     models.StatusResolved,
		CreatedAt:  streamNow.Add(-2 * time.Hour),
		ResolvedAt: &resolvedAt,
	}

	publisherMock.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	stream.applyActiveSnapshot(context.Background(), backend.Snapshot{Alerts: []*models.Alert{active}})
	stream.applyHistorySnapshot(context.Background(), backend.Snapshot{Alerts: []*models.Alert{resolved}})

	state := stream.State()
	require.Len(t, state.History, 1)
	assert.Equal(t, 2, state.Stats.Total)
	assert.Equal(t, 1, state.Stats.Pending)
	assert.Equal(t, "Main Hall", state.Stats.TopZone)
	assert.False(t, state.NewArrival)
	assert.True(t, state.AlarmActive)
}

func TestApplyActiveSnapshot_EmptyFeedClearsAlarm(t *testing.T) {
	stream, _, publisherMock := newTestStream(t)
	publisherMock.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	stream.applyActiveSnapshot(context.Background(), backend.Snapshot{})

	state := stream.State()
	assert.False(t, state.AlarmActive)
	assert.Equal(t, NoTopZone, state.Stats.TopZone)
}

func TestStream_NotifiesListeners(t *testing.T) {
	stream, _, publisherMock := newTestStream(t)
	publisherMock.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	listener := &recordingListener{}
	stream.AddListener(listener)

	stream.applyActiveSnapshot(context.Background(), backend.Snapshot{})
	stream.applyHistorySnapshot(context.Background(), backend.Snapshot{})

	require.Len(t, listener.states, 2)
	assert.Equal(t, streamNow, listener.states[0].UpdatedAt)
}

func TestContainsAddition(t *testing.T) {
	assert.False(t, ContainsAddition(nil))
	assert.False(t, ContainsAddition([]backend.Change{
		{Kind: backend.ChangeModified},
		{Kind: backend.ChangeRemoved},
	}))
	assert.True(t, ContainsAddition([]backend.Change{
		{Kind: backend.ChangeRemoved},
		{Kind: backend.ChangeAdded},
	}))
}
