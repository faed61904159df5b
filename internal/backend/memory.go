package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/silent_signal_system/internal/models"
)

// MemoryStore - реализация AlertStore в памяти с той же семантикой
// снапшотов, что и у Firestore. Используется в тестах и локальном запуске.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]*models.Alert
	subs map[*memorySub]struct{}
	now  func() time.Time
}

type memorySub struct {
	q  Query
	ch chan Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*models.Alert),
		subs: make(map[*memorySub]struct{}),
		now:  time.Now,
	}
}

// SetClock подменяет источник времени. Нужен для детерминированных тестов.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Create(ctx context.Context, alert *models.Alert) error {
	s.mu.Lock()
	alert.ID = uuid.NewString()
	alert.CreatedAt = s.now()
	stored := cloneAlert(alert)
	s.docs[stored.ID] = stored
	notifications := s.collectNotifications(nil, stored)
	s.mu.Unlock()

	s.deliver(notifications)
	return nil
}

func (s *MemoryStore) Patch(ctx context.Context, id string, patch Patch) error {
	s.mu.Lock()
	doc, ok := s.docs[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("alert with id %s not found for patch", id)
	}
	prev := cloneAlert(doc)
	if err := applyPatch(doc, patch); err != nil {
		s.mu.Unlock()
		return err
	}
	notifications := s.collectNotifications(prev, cloneAlert(doc))
	s.mu.Unlock()

	s.deliver(notifications)
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, q Query, fn SnapshotHandler) error {
	sub := &memorySub{q: q, ch: make(chan Snapshot, 64)}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	// Первичный снапшот: вся текущая выборка приходит как добавления
	initial := s.snapshotLocked(q)
	for _, a := range initial.Alerts {
		initial.Changes = append(initial.Changes, Change{Kind: ChangeAdded, Alert: a})
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
	}()

	fn(initial)
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-sub.ch:
			fn(snap)
		}
	}
}

type notification struct {
	sub  *memorySub
	snap Snapshot
}

// collectNotifications вычисляет для каждой подписки вид изменения
// относительно её фильтра. Модификация, выводящая документ из выборки,
// доставляется как удаление - так ведет себя и Firestore.
func (s *MemoryStore) collectNotifications(prev, cur *models.Alert) []notification {
	var out []notification
	for sub := range s.subs {
		oldMatch := prev != nil && sub.q.Matches(prev)
		newMatch := sub.q.Matches(cur)

		var kind ChangeKind
		changed := cur
		switch {
		case newMatch && !oldMatch:
			kind = ChangeAdded
		case newMatch && oldMatch:
			kind = ChangeModified
		case !newMatch && oldMatch:
			kind = ChangeRemoved
			changed = prev
		default:
			continue
		}

		snap := s.snapshotLocked(sub.q)
		snap.Changes = append(snap.Changes, Change{Kind: kind, Alert: changed})
		out = append(out, notification{sub: sub, snap: snap})
	}
	return out
}

func (s *MemoryStore) deliver(notifications []notification) {
	for _, n := range notifications {
		n.sub.ch <- n.snap
	}
}

// snapshotLocked строит текущую выборку по фильтру: сортировка по времени
// создания по убыванию, затем ограничение limit
func (s *MemoryStore) snapshotLocked(q Query) Snapshot {
	alerts := make([]*models.Alert, 0)
	for _, doc := range s.docs {
		if q.Matches(doc) {
			alerts = append(alerts, cloneAlert(doc))
		}
	}
	sort.Slice(alerts, func(i, j int) bool {
		if !alerts[i].CreatedAt.Equal(alerts[j].CreatedAt) {
			return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
		}
		return alerts[i].ID < alerts[j].ID
	})
	if q.Limit > 0 && len(alerts) > q.Limit {
		alerts = alerts[:q.Limit]
	}
	return Snapshot{Alerts: alerts}
}

func applyPatch(a *models.Alert, patch Patch) error {
	for field, value := range patch {
		switch field {
		case "status":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value for status field: %v", value)
			}
			a.Status = v
		case "escalated":
			v, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value for escalated field: %v", value)
			}
			a.Escalated = v
		case "acknowledged":
			v, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value for acknowledged field: %v", value)
			}
			a.Acknowledged = v
		case "resolvedAt":
			v, ok := value.(time.Time)
			if !ok {
				return fmt.Errorf("invalid value for resolvedAt field: %v", value)
			}
			a.ResolvedAt = &v
		default:
			return fmt.Errorf("unknown patch field: %s", field)
		}
	}
	return nil
}

func cloneAlert(a *models.Alert) *models.Alert {
	clone := *a
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		clone.ResolvedAt = &t
	}
	return &clone
}
