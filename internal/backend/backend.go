package backend

import (
	"context"

	"github.com/shenikar/silent_signal_system/internal/models"
)

// ChangeKind описывает тип изменения документа внутри одного снапшота
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeModified
	ChangeRemoved
)

// Change - одно изменение документа, входящее в снапшот live-запроса
type Change struct {
	Kind  ChangeKind
	Alert *models.Alert
}

// Snapshot - полный результат live-запроса на момент уведомления.
// Alerts всегда отсортированы по времени создания по убыванию.
type Snapshot struct {
	Alerts  []*models.Alert
	Changes []Change
}

// Query описывает фильтр live-запроса по коллекции тревог.
// Порядок всегда по убыванию времени создания.
type Query struct {
	Statuses []string // фильтр по статусу; пустой срез - все записи
	Limit    int      // 0 - без ограничения
}

// Matches проверяет, попадает ли тревога под фильтр запроса
func (q Query) Matches(a *models.Alert) bool {
	if len(q.Statuses) == 0 {
		return true
	}
	for _, s := range q.Statuses {
		if a.Status == s {
			return true
		}
	}
	return false
}

// Patch - частичное обновление документа по имени поля
type Patch map[string]any

// SnapshotHandler вызывается на каждое уведомление live-запроса.
// Вызовы в рамках одной подписки сериализованы.
type SnapshotHandler func(Snapshot)

// AlertStore определяет контракт внешнего документного хранилища.
// ID и время создания назначаются хранилищем при создании.
type AlertStore interface {
	Create(ctx context.Context, alert *models.Alert) error
	Patch(ctx context.Context, id string, patch Patch) error
	// Subscribe блокируется до отмены контекста, доставляя снапшоты в fn
	Subscribe(ctx context.Context, q Query, fn SnapshotHandler) error
}
