package models

import (
	"time"
)

// Статусы тревоги. Переходы образуют DAG:
// Pending -> CRITICAL -> Resolved и Pending -> Resolved.
// Resolved — терминальный статус, обратных переходов нет.
const (
	StatusPending  = "Pending"
	StatusCritical = "CRITICAL"
	StatusResolved = "Resolved"
)

// Alert представляет одну зарегистрированную тревогу
type Alert struct {
	ID           string     `json:"id" firestore:"-"`
	Type         string     `json:"type" firestore:"type"`
	Location     string     `json:"location" firestore:"location"`
	Note         string     `json:"note" firestore:"note"`
	Status       string     `json:"status" firestore:"status"`
	Escalated    bool       `json:"escalated" firestore:"escalated"`
	Acknowledged bool       `json:"acknowledged" firestore:"acknowledged"`
	CreatedAt    time.Time  `json:"created_at" firestore:"timestamp,serverTimestamp"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty" firestore:"resolvedAt"`
}

// IsActive сообщает, требует ли тревога внимания оператора
func (a *Alert) IsActive() bool {
	return a.Status != StatusResolved
}
