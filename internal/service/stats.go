package service

import (
	"github.com/shenikar/silent_signal_system/internal/models"
)

// NoTopZone - значение "самой частой зоны" для пустого набора записей
const NoTopZone = "None"

// Stats - агрегированные счетчики по видимому набору записей
type Stats struct {
	Total   int    `json:"total"`
	Pending int    `json:"pending"`
	TopZone string `json:"top_zone"`
}

// ComputeStats пересчитывает счетчики с нуля за один проход.
// Самая частая зона определяется строгим сравнением max-so-far,
// поэтому при равенстве побеждает зона, встреченная первой.
func ComputeStats(records []*models.Alert) Stats {
	stats := Stats{TopZone: NoTopZone}
	zoneCounts := make(map[string]int)
	topCount := 0

	for _, r := range records {
		stats.Total++
		if r.IsActive() {
			stats.Pending++
		}
		zoneCounts[r.Location]++
		if zoneCounts[r.Location] > topCount {
			topCount = zoneCounts[r.Location]
			stats.TopZone = r.Location
		}
	}
	return stats
}
