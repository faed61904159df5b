package v1

import (
	"time"
)

// ReportRequest DTO для регистрации тревоги с формы репортера
// @Description DTO для регистрации тревоги с формы репортера
type ReportRequest struct {
	Type string `json:"type" validate:"required,min=2,max=64"`
	Note string `json:"note,omitempty" validate:"max=500"`
}

// ReportResponse DTO подтверждения регистрации тревоги
// @Description DTO подтверждения регистрации тревоги
type ReportResponse struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Location string `json:"location"`
	Status   string `json:"status"`
}

// LoginRequest DTO для входа оператора
// @Description DTO для входа оператора
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse DTO активной сессии оператора
// @Description DTO активной сессии оператора
type SessionResponse struct {
	Email string `json:"email"`
}

// StatsResponse DTO счетчиков панели
// @Description DTO счетчиков панели
type StatsResponse struct {
	Total   int    `json:"total"`
	Pending int    `json:"pending"`
	TopZone string `json:"top_zone"`
}

// AlertCardResponse DTO карточки активной тревоги
// @Description DTO карточки активной тревоги
type AlertCardResponse struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Location      string `json:"location"`
	Note          string `json:"note,omitempty"`
	Status        string `json:"status"`
	Escalated     bool   `json:"escalated"`
	SeverityColor string `json:"severity_color"`
	Icon          string `json:"icon"`
	ReportedAgo   string `json:"reported_ago"`
}

// HistoryRowResponse DTO строки журнала разрешенных тревог
// @Description DTO строки журнала разрешенных тревог
type HistoryRowResponse struct {
	ID         string     `json:"id"`
	Location   string     `json:"location"`
	Type       string     `json:"type"`
	Status     string     `json:"status"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// DashboardResponse DTO полного состояния панели наблюдения
// @Description DTO полного состояния панели наблюдения
type DashboardResponse struct {
	ActiveAlerts []*AlertCardResponse  `json:"active_alerts"`
	History      []*HistoryRowResponse `json:"history"`
	Stats        StatsResponse         `json:"stats"`
	AlarmActive  bool                  `json:"alarm_active"`
	NewArrival   bool                  `json:"new_arrival"`
	UpdatedAt    time.Time             `json:"updated_at"`
}
