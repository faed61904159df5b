package service

import (
	"context"
	"sync"
	"time"

	"github.com/shenikar/silent_signal_system/internal/backend"
	"github.com/shenikar/silent_signal_system/internal/config"
	"github.com/shenikar/silent_signal_system/internal/models"
	"github.com/shenikar/silent_signal_system/internal/webhook"
	"github.com/sirupsen/logrus"
)

// State - полное производное состояние панели наблюдения.
// Пересчитывается целиком на каждое уведомление подписки.
type State struct {
	Active      []*models.Alert
	History     []*models.Alert
	Stats       Stats
	AlarmActive bool
	NewArrival  bool
	UpdatedAt   time.Time
}

// StateProvider отдает текущее состояние панели
type StateProvider interface {
	State() State
}

// StateListener получает состояние после каждого пересчета
type StateListener interface {
	StateUpdated(state State)
}

// Stream держит live-подписки на коллекцию тревог и прогоняет каждый
// снапшот через эскалацию, агрегацию и рассылку слушателям
type Stream struct {
	store     backend.AlertStore
	logger    *logrus.Logger
	cfg       *config.Config
	publisher webhook.Publisher

	mu        sync.RWMutex
	state     State
	listeners []StateListener

	now func() time.Time
}

func NewStream(store backend.AlertStore, logger *logrus.Logger, cfg *config.Config, publisher webhook.Publisher) *Stream {
	return &Stream{
		store:     store,
		logger:    logger,
		cfg:       cfg,
		publisher: publisher,
		state:     State{Stats: Stats{TopZone: NoTopZone}},
		now:       time.Now,
	}
}

// AddListener регистрирует слушателя состояния. Вызывать до Run.
func (s *Stream) AddListener(l StateListener) {
	s.listeners = append(s.listeners, l)
}

// State возвращает копию текущего состояния панели
func (s *Stream) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Run запускает обе подписки: активная лента и история.
// Подписки живут до отмены контекста.
func (s *Stream) Run(ctx context.Context) {
	activeQuery := backend.Query{
		Statuses: []string{models.StatusPending, models.StatusCritical},
	}
	historyQuery := backend.Query{
		Statuses: []string{models.StatusResolved},
		Limit:    s.cfg.HistoryLimit,
	}

	go s.runSubscription(ctx, "active", activeQuery, s.applyActiveSnapshot)
	go s.runSubscription(ctx, "history", historyQuery, s.applyHistorySnapshot)
}

func (s *Stream) runSubscription(ctx context.Context, name string, q backend.Query, apply func(context.Context, backend.Snapshot)) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "stream",
		"feed":    name,
	})
	log.Info("Starting alert subscription")

	err := s.store.Subscribe(ctx, q, func(snap backend.Snapshot) {
		apply(ctx, snap)
	})
	if err != nil {
		log.WithError(err).Error("Alert subscription failed")
		// Диагностика отсутствующего составного индекса
		if url, ok := backend.MissingIndexURL(err); ok {
			log.Errorf("Missing Firestore index. Create it here: %s", url)
		}
	}
}

// applyActiveSnapshot обрабатывает уведомление активной ленты:
// сначала явный проход эскалации, затем пересчет состояния и рассылка
func (s *Stream) applyActiveSnapshot(ctx context.Context, snap backend.Snapshot) {
	now := s.now()

	// 1. Эскалация: вычислить требуемые обновления, затем применить.
	// Применение не зависит от перерисовки.
	updates := EvaluateEscalations(snap.Alerts, now, s.cfg.EscalationThreshold)
	for _, u := range updates {
		s.applyEscalation(ctx, u, snap.Alerts)
	}

	// 2. Сигнал о новой записи: срабатывает, если ЛЮБОЕ изменение
	// в пакете является добавлением, а не только первое
	newArrival := ContainsAddition(snap.Changes)
	if newArrival {
		s.publishAdditions(ctx, snap.Changes)
	}

	// 3. Редьюсер состояния
	s.mu.Lock()
	s.state.Active = snap.Alerts
	s.state.AlarmActive = len(snap.Alerts) > 0
	s.state.NewArrival = newArrival
	s.state.Stats = ComputeStats(append(append([]*models.Alert{}, snap.Alerts...), s.state.History...))
	s.state.UpdatedAt = now
	state := s.state
	s.mu.Unlock()

	s.notify(state)
}

// applyHistorySnapshot обрабатывает уведомление ленты истории
func (s *Stream) applyHistorySnapshot(ctx context.Context, snap backend.Snapshot) {
	s.mu.Lock()
	s.state.History = snap.Alerts
	s.state.NewArrival = false
	s.state.Stats = ComputeStats(append(append([]*models.Alert{}, s.state.Active...), snap.Alerts...))
	s.state.UpdatedAt = s.now()
	state := s.state
	s.mu.Unlock()

	s.notify(state)
}

func (s *Stream) applyEscalation(ctx context.Context, u EscalationUpdate, records []*models.Alert) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "stream",
		"method":   "applyEscalation",
		"alert_id": u.ID,
	})

	writeCtx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	if err := s.store.Patch(writeCtx, u.ID, u.Patch); err != nil {
		// Ошибки записи только логируются, повтора нет: следующий
		// снапшот выполнит проверку заново
		log.WithError(err).Error("Failed to escalate alert")
		return
	}
	log.Warn("Alert escalated: pending longer than threshold")

	if s.publisher == nil {
		return
	}
	for _, r := range records {
		if r.ID != u.ID {
			continue
		}
		event := webhook.AlertEvent{
			Event:     webhook.EventAlertEscalated,
			AlertID:   r.ID,
			Type:      r.Type,
			Location:  r.Location,
			Status:    models.StatusCritical,
			Escalated: true,
			Timestamp: r.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.WithError(err).Error("Failed to publish escalation event")
		}
		return
	}
}

func (s *Stream) publishAdditions(ctx context.Context, changes []backend.Change) {
	if s.publisher == nil {
		return
	}
	log := s.logger.WithField("service", "stream").WithField("method", "publishAdditions")
	for _, c := range changes {
		if c.Kind != backend.ChangeAdded {
			continue
		}
		event := webhook.AlertEvent{
			Event:     webhook.EventAlertCreated,
			AlertID:   c.Alert.ID,
			Type:      c.Alert.Type,
			Location:  c.Alert.Location,
			Status:    c.Alert.Status,
			Escalated: c.Alert.Escalated,
			Timestamp: c.Alert.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.WithError(err).Error("Failed to publish alert created event")
		}
	}
}

func (s *Stream) notify(state State) {
	for _, l := range s.listeners {
		l.StateUpdated(state)
	}
}

// ContainsAddition сообщает, есть ли среди изменений пакета добавление
func ContainsAddition(changes []backend.Change) bool {
	for _, c := range changes {
		if c.Kind == backend.ChangeAdded {
			return true
		}
	}
	return false
}
