package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client представляет одно активное WebSocket-соединение панели оператора
type Client struct {
	Conn *websocket.Conn
	Send chan []byte

	manager   *Manager
	logger    *logrus.Logger
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, manager *Manager, logger *logrus.Logger) *Client {
	return &Client{
		Conn:    conn,
		Send:    make(chan []byte, 8),
		manager: manager,
		logger:  logger,
	}
}

// Run запускает 'pumps' для WebSocket
func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
}

// Close закрывает Send канал (что остановит writePump)
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

// readPump вычитывает входящие кадры. Панель ничего не шлет по делу,
// но чтение нужно для обработки pong и закрытия соединения.
func (c *Client) readPump() {
	defer func() {
		c.manager.UnregisterCh <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).Debug("Dashboard connection read error")
			}
			return
		}
	}
}

// writePump читает полезные нагрузки из канала Send и пишет их в WebSocket
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
