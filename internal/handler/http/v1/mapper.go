package v1

import (
	"github.com/dustin/go-humanize"
	"github.com/shenikar/silent_signal_system/internal/models"
	"github.com/shenikar/silent_signal_system/internal/service"
)

const defaultSeverityColor = "#38bdf8"

// severityColor возвращает цвет рамки карточки по категории тревоги
func severityColor(alertType string) string {
	switch alertType {
	case "Medical":
		return "#ef4444"
	case "Harassment":
		return "#f59e0b"
	case "Security":
		return defaultSeverityColor
	default:
		return defaultSeverityColor
	}
}

// categoryIcon возвращает пиктограмму категории тревоги
func categoryIcon(alertType string) string {
	switch alertType {
	case "Medical":
		return "🚑"
	case "Harassment":
		return "⚠️"
	case "Security":
		return "🛡️"
	default:
		return "❓"
	}
}

// reportedAgo форматирует относительный возраст тревоги.
// Запись без серверного времени создания считается только что поступившей.
func reportedAgo(a *models.Alert) string {
	if a.CreatedAt.IsZero() {
		return "Just now"
	}
	return humanize.Time(a.CreatedAt)
}

// ModelToAlertCard преобразует модель тревоги в DTO карточки
func ModelToAlertCard(a *models.Alert) *AlertCardResponse {
	return &AlertCardResponse{
		ID:            a.ID,
		Type:          a.Type,
		Location:      a.Location,
		Note:          a.Note,
		Status:        a.Status,
		Escalated:     a.Escalated,
		SeverityColor: severityColor(a.Type),
		Icon:          categoryIcon(a.Type),
		ReportedAgo:   reportedAgo(a),
	}
}

// ModelToHistoryRow преобразует модель тревоги в DTO строки журнала
func ModelToHistoryRow(a *models.Alert) *HistoryRowResponse {
	return &HistoryRowResponse{
		ID:         a.ID,
		Location:   a.Location,
		Type:       a.Type,
		Status:     a.Status,
		ResolvedAt: a.ResolvedAt,
	}
}

// StateToDashboardResponse строит полное представление панели из состояния.
// Чистая функция состояния: никакого собственного состояния у представления.
func StateToDashboardResponse(state service.State) *DashboardResponse {
	resp := &DashboardResponse{
		ActiveAlerts: make([]*AlertCardResponse, 0, len(state.Active)),
		History:      make([]*HistoryRowResponse, 0, len(state.History)),
		Stats: StatsResponse{
			Total:   state.Stats.Total,
			Pending: state.Stats.Pending,
			TopZone: state.Stats.TopZone,
		},
		AlarmActive: state.AlarmActive,
		NewArrival:  state.NewArrival,
		UpdatedAt:   state.UpdatedAt,
	}
	for _, a := range state.Active {
		resp.ActiveAlerts = append(resp.ActiveAlerts, ModelToAlertCard(a))
	}
	for _, a := range state.History {
		resp.History = append(resp.History, ModelToHistoryRow(a))
	}
	return resp
}
