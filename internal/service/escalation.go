package service

import (
	"time"

	"github.com/shenikar/silent_signal_system/internal/backend"
	"github.com/shenikar/silent_signal_system/internal/models"
)

// EscalationUpdate - обновление записи, которое требуется выполнить
// по итогам проверки эскалации
type EscalationUpdate struct {
	ID    string
	Patch backend.Patch
}

// ShouldEscalate - чистый предикат эскалации: тревога все еще Pending,
// еще не эскалирована и висит дольше порога. Записи без серверного времени
// создания (timestamp еще не присвоен) не эскалируются.
func ShouldEscalate(a *models.Alert, now time.Time, threshold time.Duration) bool {
	if a.Status != models.StatusPending || a.Escalated {
		return false
	}
	if a.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(a.CreatedAt) > threshold
}

// EvaluateEscalations возвращает список требуемых обновлений, не выполняя их.
// Применение обновлений - отдельный шаг, не зависящий от перерисовки.
func EvaluateEscalations(records []*models.Alert, now time.Time, threshold time.Duration) []EscalationUpdate {
	var updates []EscalationUpdate
	for _, r := range records {
		if ShouldEscalate(r, now, threshold) {
			updates = append(updates, EscalationUpdate{
				ID: r.ID,
				Patch: backend.Patch{
					"escalated": true,
					"status":    models.StatusCritical,
				},
			})
		}
	}
	return updates
}
