package v1

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shenikar/silent_signal_system/internal/hub"
	"github.com/shenikar/silent_signal_system/internal/service"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// @Summary Dashboard live feed
// @Description Upgrade to WebSocket and receive the rendered dashboard view on every change.
// @Tags Dashboard
// @Success 101 "Switching Protocols"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /dashboard/ws [get]
func (h *Handler) serveWS(c *gin.Context) {
	log := h.logger.WithField("method", "serveWS")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to upgrade dashboard connection")
		return
	}

	client := hub.NewClient(conn, h.hub, h.logger)
	h.hub.RegisterCh <- client
	client.Run()

	// Новое подключение сразу получает текущее состояние панели,
	// не дожидаясь следующего снапшота
	payload, err := json.Marshal(StateToDashboardResponse(h.stream.State()))
	if err != nil {
		log.WithError(err).Error("Failed to marshal initial dashboard state")
		return
	}
	select {
	case client.Send <- payload:
	default:
	}
}

// StateBroadcaster транслирует каждое обновление состояния панели
// всем подключенным операторам
type StateBroadcaster struct {
	manager *hub.Manager
	logger  *logrus.Logger
}

func NewStateBroadcaster(manager *hub.Manager, logger *logrus.Logger) *StateBroadcaster {
	return &StateBroadcaster{
		manager: manager,
		logger:  logger,
	}
}

// StateUpdated реализует service.StateListener
func (b *StateBroadcaster) StateUpdated(state service.State) {
	payload, err := json.Marshal(StateToDashboardResponse(state))
	if err != nil {
		b.logger.WithError(err).Error("Failed to marshal dashboard state")
		return
	}
	b.manager.Broadcast(payload)
}
