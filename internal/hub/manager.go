package hub

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Manager рассылает подключенным операторским панелям свежие снапшоты
// состояния. Регистрация, отключение и рассылка сериализованы через
// каналы в цикле Run.
type Manager struct {
	clients map[*Client]struct{}

	RegisterCh   chan *Client
	UnregisterCh chan *Client
	BroadcastCh  chan []byte

	logger *logrus.Logger
}

func NewManager(logger *logrus.Logger) *Manager {
	return &Manager{
		clients:      make(map[*Client]struct{}),
		RegisterCh:   make(chan *Client),
		UnregisterCh: make(chan *Client),
		BroadcastCh:  make(chan []byte, 16),
		logger:       logger,
	}
}

// Run крутит главный цикл хаба до отмены контекста
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range m.clients {
				client.Close()
				delete(m.clients, client)
			}
			return

		case client := <-m.RegisterCh:
			m.clients[client] = struct{}{}
			m.logger.WithField("clients", len(m.clients)).Debug("Dashboard client connected")

		case client := <-m.UnregisterCh:
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				client.Close()
			}
			m.logger.WithField("clients", len(m.clients)).Debug("Dashboard client disconnected")

		case payload := <-m.BroadcastCh:
			for client := range m.clients {
				select {
				case client.Send <- payload:
				default:
					// Медленный клиент: отключаем, чтобы не копить отставание
					delete(m.clients, client)
					client.Close()
				}
			}
		}
	}
}

// Broadcast ставит полезную нагрузку в очередь на рассылку всем клиентам
func (m *Manager) Broadcast(payload []byte) {
	select {
	case m.BroadcastCh <- payload:
	default:
		m.logger.Warn("Broadcast queue is full, dropping dashboard update")
	}
}
