// Package overlay транслирует события розыгрыша (обновления таблицы
// диапазонов, итоги розыгрыша) в браузерный оверлей стрима по websocket.
// Клиенты подписываются на конкретный розыгрыш: GET /ws/raffles/:id.
package overlay

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"sweetstream.tv/raffle-service/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Буфер исходящих сообщений клиента. Переполнение означает, что клиент
	// не вычитывает — его отключаем, вещание не блокируем.
	sendBuffer = 32
)

// Event — одно сообщение оверлею.
type Event struct {
	Event    string `json:"event"`
	RaffleID int64  `json:"raffleId"`
	Payload  any    `json:"payload"`
}

// Инвариант остановки: канал send никогда не закрывается — остановку
// клиента сигнализирует done. Отправители (Broadcast) могут работать
// параллельно с отключением, send-on-closed-channel невозможен.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	stopOnce sync.Once
}

func (c *client) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// Hub раздаёт события по комнатам (одна комната — один розыгрыш).
type Hub struct {
	mu      sync.RWMutex
	rooms   map[int64]map[*client]struct{}
	log     *logrus.Logger
	metrics *metrics.Metrics

	upgrader websocket.Upgrader
}

// NewHub создаёт хаб оверлея.
func NewHub(log *logrus.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		rooms:   make(map[int64]map[*client]struct{}),
		log:     log,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Оверлей открывается с любого origin (OBS, браузер стримера)
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Broadcast рассылает событие всем клиентам комнаты розыгрыша.
// Не блокируется: клиент с забитым буфером отключается.
func (h *Hub) Broadcast(raffleID int64, event string, payload any) {
	data, err := json.Marshal(Event{Event: event, RaffleID: raffleID, Payload: payload})
	if err != nil {
		h.log.WithError(err).Error("не удалось сериализовать событие оверлея")
		return
	}

	h.mu.RLock()
	room := h.rooms[raffleID]
	clients := make([]*client, 0, len(room))
	for c := range room {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		case <-c.done:
			// клиент уже остановлен параллельным отключением
		default:
			h.remove(raffleID, c)
		}
	}
}

// HandleWS — GET /ws/raffles/:id, апгрейд соединения и подписка на комнату.
func (h *Hub) HandleWS(c *gin.Context, raffleID int64) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("не удалось апгрейдить websocket")
		return
	}

	cl := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	h.add(raffleID, cl)

	go h.writePump(cl)
	go h.readPump(raffleID, cl)
}

func (h *Hub) add(raffleID int64, cl *client) {
	h.mu.Lock()
	room, ok := h.rooms[raffleID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[raffleID] = room
	}
	room[cl] = struct{}{}
	h.mu.Unlock()

	h.metrics.OverlayClients.Inc()
	h.log.WithField("raffle_id", raffleID).Debug("клиент оверлея подключился")
}

// remove выводит клиента из комнаты и сигнализирует его writePump
// остановиться. Идемпотентна: повторный вызов по тому же клиенту — no-op.
func (h *Hub) remove(raffleID int64, cl *client) {
	h.mu.Lock()
	present := false
	if room, ok := h.rooms[raffleID]; ok {
		if _, present = room[cl]; present {
			delete(room, cl)
			if len(room) == 0 {
				delete(h.rooms, raffleID)
			}
		}
	}
	h.mu.Unlock()

	if present {
		cl.stop()
		h.metrics.OverlayClients.Dec()
	}
}

// readPump читает входящие фреймы только ради pong и close.
func (h *Hub) readPump(raffleID int64, cl *client) {
	defer func() {
		h.remove(raffleID, cl)
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(512)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case data := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-cl.done:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close отключает всех клиентов (shutdown).
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for raffleID, room := range h.rooms {
		for cl := range room {
			cl.stop()
			cl.conn.Close()
			h.metrics.OverlayClients.Dec()
		}
		delete(h.rooms, raffleID)
	}
}
