package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shenikar/silent_signal_system/internal/backend"
	"github.com/shenikar/silent_signal_system/internal/config"
	"github.com/shenikar/silent_signal_system/internal/models"
	"github.com/sirupsen/logrus"
)

// AlertService определяет контракт бизнес-логики жизненного цикла тревог
type AlertService interface {
	Submit(ctx context.Context, category, note, rawZone string) (*models.Alert, error)
	Resolve(ctx context.Context, id string) error
}

type alertService struct {
	store  backend.AlertStore
	logger *logrus.Logger
	cfg    *config.Config
}

func NewAlertService(store backend.AlertStore, logger *logrus.Logger, cfg *config.Config) AlertService {
	return &alertService{
		store:  store,
		logger: logger,
		cfg:    cfg,
	}
}

// Submit регистрирует новую тревогу. Зона берется из параметра room,
// время создания назначает бэкенд. Повторные нажатия не дедуплицируются:
// кнопка тревоги никогда не должна проглатывать нажатие.
func (s *alertService) Submit(ctx context.Context, category, note, rawZone string) (*models.Alert, error) {
	zone := ResolveZone(rawZone, s.cfg.FallbackZone)
	log := s.logger.WithFields(logrus.Fields{
		"service": "alert",
		"method":  "Submit",
		"type":    category,
		"zone":    zone,
	})
	log.Info("Attempting to submit a new alert")

	alert := &models.Alert{
		Type:         category,
		Location:     zone,
		Note:         note,
		Status:       models.StatusPending,
		Escalated:    false,
		Acknowledged: false,
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	if err := s.store.Create(writeCtx, alert); err != nil {
		log.WithError(err).Error("Failed to create alert in store")
		return nil, fmt.Errorf("service: could not submit alert: %w", err)
	}

	log.WithField("alert_id", alert.ID).Info("Alert submitted successfully")
	return alert, nil
}

// Resolve переводит тревогу в терминальный статус Resolved и снимает флаг
// эскалации. Повторный вызов пишет то же терминальное состояние, поэтому
// операция идемпотентна.
func (s *alertService) Resolve(ctx context.Context, id string) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "alert",
		"method":   "Resolve",
		"alert_id": id,
	})
	log.Info("Attempting to resolve alert")

	writeCtx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	patch := backend.Patch{
		"status":       models.StatusResolved,
		"escalated":    false,
		"acknowledged": true,
		"resolvedAt":   time.Now(),
	}
	if err := s.store.Patch(writeCtx, id, patch); err != nil {
		log.WithError(err).Error("Failed to resolve alert in store")
		return fmt.Errorf("service: could not resolve alert: %w", err)
	}

	log.Info("Alert resolved successfully")
	return nil
}
